// Package rag defines the interfaces for the vector store and embedding
// components used by the ingestion pipeline: points are chunks of a
// course document, embedded and upserted into a per-deployment collection,
// then retrieved by course-scoped similarity search.
package rag

import (
	"context"
)

// Point is one chunk of a document's extracted text, with the payload
// fields stored alongside its vector in the vector store.
type Point struct {
	// ID uniquely identifies this point (a fresh UUID assigned on upsert).
	ID string

	// CourseCode is the course this document belongs to, used to scope
	// search results to a single course.
	CourseCode string

	// DocumentID identifies the source document this chunk was extracted
	// from. Used to delete all of a document's points on re-ingestion or
	// document deletion.
	DocumentID string

	// ChunkIndex is the zero-based position of this chunk within the
	// document's chunk sequence.
	ChunkIndex int

	// ChunkText is the raw extracted text of this chunk.
	ChunkText string

	// Metadata holds additional payload fields (e.g. filename) copied
	// through to the vector store unchanged.
	Metadata map[string]string

	// Score is the similarity score assigned during search. Zero means
	// the score was not computed (e.g. on an upsert-side Point).
	Score float32
}

// VectorStore is the interface for persisting and searching chunk
// embeddings. Implementations must be safe to call from multiple
// goroutines — the orchestrator upserts and deletes from worker
// goroutines concurrently with searches from the `ingestor search` command.
type VectorStore interface {
	// EnsureCollection creates the backing collection with the given
	// vector dimensionality if it does not already exist, along with any
	// payload indices needed for scoped search and deletion. Idempotent.
	EnsureCollection(ctx context.Context, dim uint64) error

	// Upsert stores points together with their pre-computed embeddings.
	// vectors must be parallel to points — vectors[i] is the embedding
	// for points[i]. Returns an error if the lengths do not match.
	Upsert(ctx context.Context, points []Point, vectors [][]float32) error

	// Search performs a cosine similarity search scoped to courseCode and
	// returns up to limit results ordered by descending score. An empty
	// courseCode searches across all courses.
	Search(ctx context.Context, queryEmbedding []float32, courseCode string, limit int) ([]Point, error)

	// DeleteByDocument removes every point belonging to documentID.
	// Idempotent — deleting a document with no points is not an error.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector
// embeddings. Implementations must be safe to call from multiple
// goroutines.
type Embedder interface {
	// EmbedBatch converts a batch of texts into their corresponding
	// embeddings. The returned slice is parallel to the input slice.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed dimensionality of vectors produced by
	// this embedder, used to size the vector store collection.
	Dimension() int
}

// Retriever is the high-level interface used by the search CLI command to
// fetch relevant chunks for a query. It combines embedding and vector
// search behind a single call.
type Retriever interface {
	// Retrieve returns the top-k most relevant chunks for query, scoped
	// to courseCode (empty searches all courses).
	Retrieve(ctx context.Context, query, courseCode string, topK int) ([]Point, error)
}

package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payload field names used in every stored point.
const (
	fieldCourseCode = "course_code"
	fieldDocumentID = "document_id"
	fieldChunkIndex = "chunk_index"
	fieldChunkText  = "chunk_text"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore. The target collection is not
// created here — call EnsureCollection once the embedding dimensionality
// is known.
func NewQdrantStore(cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantStore{client: client, cfg: cfg}, nil
}

// EnsureCollection creates the collection and its payload indices if the
// collection does not already exist. Indices are created once, at
// collection-creation time, matching the behavior of the service this
// was ported from — a pre-existing collection is assumed to already
// carry them.
func (s *QdrantStore) EnsureCollection(ctx context.Context, dim uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	for _, field := range []string{fieldCourseCode, fieldDocumentID} {
		if _, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.cfg.Collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		}); err != nil {
			return fmt.Errorf("qdrant: failed to index field %q: %w", field, err)
		}
	}

	return nil
}

// Upsert stores points together with their pre-computed embeddings.
func (s *QdrantStore) Upsert(ctx context.Context, points []Point, vectors [][]float32) error {
	if len(points) != len(vectors) {
		return fmt.Errorf("qdrant: upsert: %d points but %d vectors", len(points), len(vectors))
	}

	pbPoints := make([]*qdrant.PointStruct, 0, len(points))
	for i, pt := range points {
		payload := map[string]interface{}{
			fieldCourseCode: pt.CourseCode,
			fieldDocumentID: pt.DocumentID,
			fieldChunkIndex: pt.ChunkIndex,
			fieldChunkText:  pt.ChunkText,
		}
		for k, v := range pt.Metadata {
			payload[k] = v
		}

		id := pt.ID
		if id == "" {
			id = uuid.NewString()
		}

		pbPoints = append(pbPoints, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         pbPoints,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Search performs a cosine similarity search, optionally scoped to a
// course code, and returns up to limit results.
func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, courseCode string, limit int) ([]Point, error) {
	if limit <= 0 {
		limit = 5
	}
	lim := uint64(limit)

	query := &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if courseCode != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldCourseCode, courseCode),
			},
		}
	}

	results, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	points := make([]Point, 0, len(results))
	for _, r := range results {
		points = append(points, pointFromPayload(r.Id.GetUuid(), r.Score, r.Payload))
	}

	return points, nil
}

// DeleteByDocument removes every point belonging to documentID. A
// filter-delete with no matches succeeds, so this is idempotent.
func (s *QdrantStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(fieldDocumentID, documentID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete by document failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// pointFromPayload reconstructs a Point from a search result's payload map.
func pointFromPayload(id string, score float32, payload map[string]*qdrant.Value) Point {
	pt := Point{ID: id, Score: score, Metadata: make(map[string]string)}
	for k, v := range payload {
		switch k {
		case fieldCourseCode:
			pt.CourseCode = v.GetStringValue()
		case fieldDocumentID:
			pt.DocumentID = v.GetStringValue()
		case fieldChunkIndex:
			pt.ChunkIndex = int(v.GetIntegerValue())
		case fieldChunkText:
			pt.ChunkText = v.GetStringValue()
		default:
			pt.Metadata[k] = v.GetStringValue()
		}
	}
	return pt
}

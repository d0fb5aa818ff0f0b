package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/coursevault/ingestor-go/internal/blobstore"
	"github.com/coursevault/ingestor-go/internal/embedder"
	"github.com/coursevault/ingestor-go/internal/rag"
	"github.com/coursevault/ingestor-go/internal/server"
)

// buildBlobStore constructs the document blob store from BLOB_PROVIDER.
// "s3" (the default) requires S3_BUCKET; "memory" is for local smoke
// testing without AWS credentials.
func buildBlobStore(ctx context.Context) (blobstore.BlobStore, error) {
	switch getEnvOrDefault("BLOB_PROVIDER", "s3") {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	default:
		store, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Bucket:       os.Getenv("S3_BUCKET"),
			Region:       getEnvOrDefault("S3_REGION", "us-east-1"),
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
			AccessKey:    os.Getenv("S3_ACCESS_KEY"),
			SecretKey:    os.Getenv("S3_SECRET_KEY"),
		})
		if err != nil {
			return nil, fmt.Errorf("blobstore: failed to initialise S3 store: %w", err)
		}
		return store, nil
	}
}

// buildEmbedder constructs the embedding backend from EMBEDDING_PROVIDER.
func buildEmbedder() (rag.Embedder, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to initialise: %w", err)
	}
	return emb, nil
}

// buildVectorStore connects to Qdrant and ensures the target collection
// exists at the embedder's vector dimensionality.
func buildVectorStore(ctx context.Context, emb rag.Embedder) (rag.VectorStore, error) {
	host := getEnvOrDefault("QDRANT_HOST", "localhost")
	port := getEnvInt("QDRANT_PORT", 6334)
	collection := getEnvOrDefault("QDRANT_COLLECTION", "ingestor-docs")

	store, err := rag.NewQdrantStore(&rag.QdrantConfig{
		Host:       host,
		Port:       port,
		Collection: collection,
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	})
	if err != nil {
		return nil, fmt.Errorf("rag: failed to connect to Qdrant at %s:%d: %w", host, port, err)
	}

	if err := store.EnsureCollection(ctx, uint64(emb.Dimension())); err != nil { //nolint:gosec // dimensions are bounded
		return nil, fmt.Errorf("rag: failed to ensure collection %q: %w", collection, err)
	}

	return store, nil
}

// buildPingers constructs the readiness probes for GET /api/ready.
func buildPingers(blobs blobstore.BlobStore, vectors rag.VectorStore, log *slog.Logger) []server.Pinger {
	pingers := []server.Pinger{server.NewBlobPinger(blobs)}

	if _, ok := vectors.(*rag.QdrantStore); ok {
		client, err := qdrant.NewClient(&qdrant.Config{
			Host: getEnvOrDefault("QDRANT_HOST", "localhost"),
			Port: getEnvInt("QDRANT_PORT", 6334),
		})
		if err != nil || client == nil {
			log.Warn("readiness: failed to create qdrant probe client", slog.Any("error", err))
		} else {
			pingers = append(pingers, server.NewQdrantPinger(client))
		}
	}

	return pingers
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable as an integer.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat returns the float64 value of the named environment variable,
// or fallback if unset, empty, or not parseable.
func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/coursevault/ingestor-go/internal/blobstore"
)

// QdrantPinger probes a Qdrant instance using its native HealthCheck RPC.
// It satisfies the Pinger interface and is used by GET /api/ready.
type QdrantPinger struct {
	// client is the Qdrant gRPC client to probe.
	client *qdrant.Client
}

// NewQdrantPinger constructs a QdrantPinger for the given Qdrant client.
func NewQdrantPinger(client *qdrant.Client) *QdrantPinger {
	return &QdrantPinger{client: client}
}

// Name returns the dependency label used in readiness responses.
func (p *QdrantPinger) Name() string { return "qdrant" }

// Ping calls the Qdrant HealthCheck RPC.
// Returns nil if Qdrant is reachable, or a descriptive error otherwise.
func (p *QdrantPinger) Ping(ctx context.Context) error {
	_, err := p.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// BlobPinger probes the blob store backing document uploads/downloads.
type BlobPinger struct {
	store blobstore.BlobStore
}

// NewBlobPinger constructs a BlobPinger for the given blob store.
func NewBlobPinger(store blobstore.BlobStore) *BlobPinger {
	return &BlobPinger{store: store}
}

// Name returns the dependency label used in readiness responses.
func (p *BlobPinger) Name() string { return "blobstore" }

// Ping delegates to the store's own reachability probe.
func (p *BlobPinger) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}

// DBPinger probes the shared SQLite registry database backing the
// document and ingestion job registries.
type DBPinger struct {
	db *sql.DB
}

// NewDBPinger constructs a DBPinger for the given database handle.
func NewDBPinger(db *sql.DB) *DBPinger {
	return &DBPinger{db: db}
}

// Name returns the dependency label used in readiness responses.
func (p *DBPinger) Name() string { return "db" }

// Ping pings the underlying database connection.
func (p *DBPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

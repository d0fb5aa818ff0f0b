package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	idb "github.com/coursevault/ingestor-go/internal/db"
	"github.com/coursevault/ingestor-go/internal/documents"
	"github.com/coursevault/ingestor-go/internal/embedder"
	"github.com/coursevault/ingestor-go/internal/ingestion"
	"github.com/coursevault/ingestor-go/internal/logging"
	"github.com/coursevault/ingestor-go/internal/pdfextract"
	"github.com/coursevault/ingestor-go/internal/server"
)

// NewServeCmd constructs the `ingestor serve` command, which starts the
// HTTP Submission API and the in-process orchestrator that drives queued
// jobs to completion.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ingestion job engine's HTTP API",
		Long: `Start the ingestor HTTP server.

The server exposes the five-route Submission API (start/list/status/
cancel/retry) backed by a durable SQLite job registry. Jobs are dispatched
to an in-process orchestrator that downloads each document from blob
storage, extracts and chunks its text, embeds the chunks, and upserts the
result into Qdrant.

Examples:
  ingestor serve
  ingestor serve --port 9090
  BLOB_PROVIDER=memory ingestor serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			dbPath := getEnvOrDefault("INGESTOR_DB_PATH", "")
			if dbPath == "" {
				p, err := idb.DefaultPath()
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				dbPath = p
			}
			db, err := idb.Open(dbPath)
			if err != nil {
				return fmt.Errorf("serve: failed to open database: %w", err)
			}
			defer db.Close()

			if err := embedder.ValidateForIngestion(); err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			blobs, err := buildBlobStore(ctx)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			emb, err := buildEmbedder()
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			vectors, err := buildVectorStore(ctx, emb)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer vectors.Close()

			docs := documents.NewRegistry(db)
			jobs := ingestion.NewRegistry(db)
			selector := ingestion.NewSelector(docs)

			chunkSize := getEnvInt("CHUNK_SIZE", pdfextract.DefaultChunkSize)
			overlap := getEnvInt("CHUNK_OVERLAP", pdfextract.DefaultOverlap)
			if err := ingestion.ValidateChunkParams(chunkSize, overlap); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			pipeline := ingestion.NewPipeline(blobs, emb, vectors, jobs, chunkSize, overlap, log)
			orchestrator := ingestion.NewOrchestrator(jobs, docs, selector, pipeline, emb, vectors, log)
			jobSvc := ingestion.NewService(jobs, docs, orchestrator, log)

			pingers := buildPingers(blobs, vectors, log)
			pingers = append(pingers, server.NewDBPinger(db))

			srv, err := server.New(jobSvc, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   pingers,
				RateLimit: getEnvFloat("RATE_LIMIT", 0),
				RateBurst: getEnvInt("RATE_BURST", 0),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", getEnvOrDefault("INGESTOR_HOST", "127.0.0.1"), "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", getEnvInt("INGESTOR_PORT", 8080), "TCP port to listen on")

	return cmd
}

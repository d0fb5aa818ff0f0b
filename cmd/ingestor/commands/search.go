package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coursevault/ingestor-go/internal/rag"
)

// NewSearchCmd constructs the `ingestor search` command, a local smoke test
// for the retrieval side of the pipeline: it embeds a query and prints the
// top-K chunks Qdrant returns for it, without going through the HTTP API.
func NewSearchCmd() *cobra.Command {
	var courseCode string
	var topK int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search ingested course material by semantic similarity",
		Long: `Embed a query and retrieve the most similar chunks already ingested
for a course, printing document IDs, chunk indices, and text previews.

Examples:
  ingestor search --course-code CS101 "what is a binary search tree?"
  ingestor search --course-code CS101 --top-k 10 "recursion base case"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			emb, err := buildEmbedder()
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			vectors, err := buildVectorStore(ctx, emb)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer vectors.Close()

			retriever, err := rag.NewRetriever(emb, vectors, topK)
			if err != nil {
				return fmt.Errorf("search: failed to construct retriever: %w", err)
			}

			points, err := retriever.Retrieve(ctx, args[0], courseCode, topK)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(points) == 0 {
				fmt.Println("no results")
				return nil
			}
			for i, p := range points {
				fmt.Printf("%d. document=%s chunk=%d\n    %s\n", i+1, p.DocumentID, p.ChunkIndex, preview(p.ChunkText))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&courseCode, "course-code", "", "Course code to restrict the search to (required)")
	cmd.Flags().IntVar(&topK, "top-k", 5, "Number of results to return")
	_ = cmd.MarkFlagRequired("course-code")

	return cmd
}

// preview truncates s to its first 160 bytes for terminal output; line
// breaks inside s are kept.
func preview(s string) string {
	const max = 160
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

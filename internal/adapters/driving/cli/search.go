package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Embeds the query and returns the stored chunks with the highest
cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(rt *runtime) error {
		hits, err := rt.kb.Search(cmd.Context(), args[0], searchTopK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if searchJSON {
			return printJSON(cmd, hits)
		}
		printHits(cmd, hits)
		return nil
	})
}

func printHits(cmd *cobra.Command, hits []domain.ScoredChunk) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, h := range hits {
		title := h.Chunk.Metadata.FileName
		if title == "" {
			title = h.Chunk.DocumentID
		}
		cmd.Printf("  [%d] %s %s (%.3f)\n", i+1, title, h.Chunk.ChunkID, h.Score)
		cmd.Printf("      %s\n", snippet(h.Chunk.Content, 160))
		cmd.Println()
	}
}

// snippet flattens whitespace and truncates to max runes.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexJSON bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Replace every chunk of the watched folder from a fresh snapshot",
	Args:  cobra.NoArgs,
	RunE:  runReindex,
}

func init() {
	reindexCmd.Flags().BoolVar(&reindexJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *runtime) error {
		res, err := rt.kb.Reindex(cmd.Context())
		if err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		if reindexJSON {
			return printJSON(cmd, res)
		}
		cmd.Printf("Reindexed %s\n", res.FolderID)
		cmd.Printf("  chunks discovered: %d\n", res.ChunksDiscovered)
		cmd.Printf("  chunks upserted:   %d\n", res.ChunksUpserted)
		cmd.Printf("  chunks deleted:    %d\n", res.ChunksDeleted)
		return nil
	})
}

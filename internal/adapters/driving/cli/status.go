package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the watched folder, token and chunk count",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *runtime) error {
		status, err := rt.kb.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		if statusJSON {
			return printJSON(cmd, status)
		}
		printStatus(cmd, status)
		return nil
	})
}

func printStatus(cmd *cobra.Command, s *domain.Status) {
	folder := s.FolderID
	if folder == "" {
		folder = "(none)"
	}
	cmd.Printf("Folder:       %s\n", folder)
	cmd.Printf("Change token: %t\n", s.HasChangeToken)
	cmd.Printf("Chunks:       %d\n", s.ChunkCount)
	cmd.Printf("Interval:     %ds\n", s.IntervalSeconds)

	if len(s.RecentCycles) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Recent cycles:")
	for _, c := range s.RecentCycles {
		outcome := "ok"
		if !c.Success {
			outcome = "FAILED " + c.Error
		}
		cmd.Printf("  %s  %-8s +%d -%d  %s\n",
			c.StartedAt.Local().Format("2006-01-02 15:04:05"), c.Mode, c.ChunksUpserted, c.ChunksDeleted, outcome)
	}
}

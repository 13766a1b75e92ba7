package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync/internal/core/domain"
)

var registerJSON bool

var registerCmd = &cobra.Command{
	Use:   "register [folder]",
	Short: "Validate a folder and print its start token",
	Long: `Checks that the folder exists and is readable, then prints the
continuation token marking "now". Nothing is ingested; use serve --folder
or POST /admin/gdrive to start polling.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().BoolVar(&registerJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	return withRuntime(cmd, func(rt *runtime) error {
		reg, err := rt.kb.Register(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("register failed: %w", err)
		}
		if registerJSON {
			return printJSON(cmd, reg)
		}
		printRegistration(cmd, reg)
		return nil
	})
}

func printRegistration(cmd *cobra.Command, reg *domain.Registration) {
	cmd.Printf("Folder:      %s\n", reg.FolderID)
	cmd.Printf("Request:     %s\n", reg.RequestID)
	cmd.Printf("Status:      %s\n", reg.Status)
	cmd.Printf("Start token: %s\n", reg.StartToken)
}

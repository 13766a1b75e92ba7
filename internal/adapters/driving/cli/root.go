// Package cli implements the kbsync command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync/internal/app"
	"github.com/custodia-labs/kbsync/internal/config"
	"github.com/custodia-labs/kbsync/internal/core/ports/driving"
	"github.com/custodia-labs/kbsync/internal/logger"
	"github.com/custodia-labs/kbsync/internal/metrics"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool
)

// runtime is what commands operate on.
type runtime struct {
	cfg     *config.Config
	kb      driving.KnowledgeBase
	metrics *metrics.Metrics
	close   func() error
}

// openRuntime loads configuration and wires the pipeline. Tests replace it.
var openRuntime = func(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Configure(cfg.Log.Level, cfg.Log.JSON)
	if verbose {
		logger.SetVerbose(true)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, kb: a.KB, metrics: a.Metrics, close: a.Close}, nil
}

var rootCmd = &cobra.Command{
	Use:   "kbsync",
	Short: "Keep a vector knowledge base in sync with a watched folder",
	Long: `kbsync watches a Google Drive folder (or a local directory), splits its
documents into chunks, embeds them and keeps a chunk repository in step
with every addition, edit, move and deletion.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// withRuntime opens the runtime, runs fn and releases it.
func withRuntime(cmd *cobra.Command, fn func(rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rt.close == nil {
			return
		}
		if err := rt.close(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}()
	if rt.kb == nil {
		return fmt.Errorf("knowledge base not configured")
	}
	return fn(rt)
}

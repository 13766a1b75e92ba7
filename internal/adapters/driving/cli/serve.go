package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kbsync/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/kbsync/internal/config"
	"github.com/custodia-labs/kbsync/internal/connectors/filesystem"
	"github.com/custodia-labs/kbsync/internal/logger"
)

var (
	serveAddr   string
	serveFolder string
	serveWatch  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API and the change poller",
	Long: `Starts the HTTP admin API and resumes polling the folder saved by a
previous run. Pass --folder to register and start polling a folder now.

With the filesystem source, --watch wakes the poller on file changes
instead of waiting for the next interval.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveFolder, "folder", "", "folder to register and poll on start")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "watch the local folder for changes (filesystem source)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *runtime) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		defer rt.kb.Shutdown()

		if err := startPolling(ctx, cmd, rt); err != nil {
			return err
		}

		if watcher := startWatcher(ctx, rt); watcher != nil {
			defer watcher.Close()
		}

		opts := []httpapi.Option{
			httpapi.WithMetricsHandler(rt.metrics.Handler()),
			httpapi.WithRequestObserver(rt.metrics),
		}
		addr := serveAddr
		if rt.cfg != nil {
			opts = append(opts, httpapi.WithRequestTimeout(rt.cfg.RequestTimeout()))
			if addr == "" {
				addr = rt.cfg.HTTP.Addr
			}
		}
		if addr == "" {
			addr = ":8080"
		}

		return httpapi.NewServer(rt.kb, opts...).ListenAndServe(ctx, addr)
	})
}

// startPolling schedules --folder, or resumes from persisted state.
func startPolling(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
	if serveFolder != "" {
		res, err := rt.kb.Schedule(ctx, serveFolder)
		if err != nil {
			return fmt.Errorf("schedule %s: %w", serveFolder, err)
		}
		cmd.Printf("Polling %s every %ds\n", res.FolderID, res.PollingIntervalSeconds)
		return nil
	}

	resumed, err := rt.kb.Resume(ctx)
	if err != nil {
		return fmt.Errorf("resume polling: %w", err)
	}
	if !resumed {
		logger.Info("No folder registered yet; POST /admin/gdrive to start polling")
	}
	return nil
}

// startWatcher wakes the poller on local file changes. It returns nil when
// watching is disabled or not applicable.
func startWatcher(ctx context.Context, rt *runtime) *filesystem.Watcher {
	if rt.cfg == nil || rt.cfg.Source.Kind != config.SourceFilesystem {
		return nil
	}
	if !serveWatch && !rt.cfg.Source.Watch {
		return nil
	}

	status, err := rt.kb.Status(ctx)
	if err != nil || status.FolderID == "" {
		logger.Warn("File watching disabled: no folder is being polled")
		return nil
	}

	w, err := filesystem.NewWatcher(status.FolderID, filesystem.DefaultDebounce, rt.kb.Trigger)
	if err != nil {
		logger.Warn("File watching disabled: %v", err)
		return nil
	}
	go w.Run(ctx)
	logger.Info("Watching %s for changes", status.FolderID)
	return w
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/growthops/internal/adapters/prometheus"
	"github.com/emiliopalmerini/growthops/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web app",
	Long: `Start the web app: kanban boards, analytics, the vault and the JSON API.

Pending writes are flushed every GROWTHOPS_SYNC_INTERVAL and on shutdown.

Examples:
  growthops serve              # Start on GROWTHOPS_PORT (default 8080)
  growthops serve --port 3000  # Start on port 3000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides GROWTHOPS_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nShutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	app, err := NewAppContext(ctx, *cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer closeCancel()
		if err := app.Close(closeCtx); err != nil {
			app.Logger.Error("shutdown flush failed", zap.Error(err), zap.Int("pending", app.Service.Pending()))
		}
	}()

	metrics := prometheus.New()
	metrics.RegisterPendingWrites(app.Service.Pending)

	go app.Service.Run(ctx, cfg.SyncInterval)

	server := web.NewServer(web.Config{
		Addr:            cfg.Addr(),
		DefaultOwner:    cfg.Owner,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, app.Service, app.Logger.Named("http"), metrics)
	app.Logger.Info("serving",
		zap.String("storage", cfg.Storage),
		zap.String("addr", cfg.Addr()),
		zap.Duration("sync_interval", cfg.SyncInterval))
	return server.Start(ctx)
}

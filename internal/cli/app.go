package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/growthops/internal/adapters/memory"
	"github.com/emiliopalmerini/growthops/internal/adapters/otel"
	"github.com/emiliopalmerini/growthops/internal/adapters/system"
	"github.com/emiliopalmerini/growthops/internal/adapters/turso"
	"github.com/emiliopalmerini/growthops/internal/infrastructure/config"
	"github.com/emiliopalmerini/growthops/internal/logging"
	"github.com/emiliopalmerini/growthops/internal/migrate"
	"github.com/emiliopalmerini/growthops/internal/ports"
	"github.com/emiliopalmerini/growthops/internal/workspace"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config  config.Config
	Logger  *zap.Logger
	DB      *turso.DB
	Store   ports.Store
	Metrics ports.MetricsExporter
	Service *workspace.Service
}

const defaultCloseTimeout = 10 * time.Second

// loadConfig is replaced in tests.
var loadConfig = config.Load

// NewAppContext opens the configured store, runs pending migrations and loads
// the working copy.
func NewAppContext(ctx context.Context, cfg config.Config) (*AppContext, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	app := &AppContext{Config: cfg, Logger: logger}

	if cfg.Storage == config.StorageMemory {
		app.Store = memory.NewSeededStore(time.Now().UTC())
	} else {
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		app.DB = db
		m, err := migrate.New(db.DB, logger.Named("migrate"))
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		if _, err := m.Up(ctx); err != nil {
			_ = app.Close(ctx)
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		app.Store = turso.NewStore(db)
	}

	app.Metrics = newExporter(ctx, cfg, logger)
	app.Service = workspace.New(app.Store, system.Clock{}, system.UUIDs{}, app.Metrics, logger.Named("workspace"), workspace.Options{
		RequireResultOnComplete: cfg.RequireResult,
	})
	if err := app.Service.Load(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return app, nil
}

func openDatabase(cfg config.Config) (*turso.DB, error) {
	var (
		db  *turso.DB
		err error
	)
	switch cfg.Storage {
	case config.StorageTurso:
		db, err = turso.OpenReplica(cfg.DatabasePath, cfg.DatabaseURL, cfg.AuthToken)
	case config.StorageLocal:
		db, err = turso.OpenLocal(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("storage %q has no database", cfg.Storage)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newExporter falls back to the no-op exporter when OTel is off or unreachable.
func newExporter(ctx context.Context, cfg config.Config, logger *zap.Logger) ports.MetricsExporter {
	otelCfg := cfg.OTel()
	if !otelCfg.Active() {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, otelCfg)
	if err != nil {
		logger.Warn("otel exporter unavailable, metrics disabled", zap.Error(err))
		return otel.NewNoOpExporter()
	}
	return exp
}

// Close flushes pending writes and releases all resources held by the AppContext.
func (a *AppContext) Close(ctx context.Context) error {
	var errs []error
	if a.Service != nil {
		if err := a.Service.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush pending writes: %w", err))
		}
	}
	if a.Metrics != nil {
		if err := a.Metrics.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

// withApp builds an AppContext for one command and closes it afterwards, so
// every mutation is flushed before the process exits.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *AppContext) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := NewAppContext(ctx, *cfg)
	if err != nil {
		return err
	}
	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultCloseTimeout
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		err = errors.Join(err, app.Close(closeCtx))
	}()
	return fn(ctx, app)
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/growthops/internal/logging"
	"github.com/emiliopalmerini/growthops/internal/migrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [version]",
	Short: "Run database migrations",
	Long: `Run database migrations.

Without arguments, runs all pending migrations (up).
With a version number, migrates to that specific version (up or down as needed).
Other commands apply pending migrations automatically.

Examples:
  growthops migrate      # Run all pending migrations
  growthops migrate 0    # Rollback all migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	target := -1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version %q", args[0])
		}
		target = v
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := openDatabase(*cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migrate.New(db.DB, logger.Named("migrate"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	current, _, err := m.Version(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Current version: %d\n", current)

	if target < 0 {
		target = m.Latest()
	}
	if target > m.Latest() {
		return fmt.Errorf("version %d does not exist, latest is %d", target, m.Latest())
	}

	applied, err := m.To(ctx, target)
	if err != nil {
		return err
	}
	if applied == 0 {
		fmt.Fprintln(out, "No migrations to run")
		return nil
	}
	success(out, "Applied %d migrations, now at version %d", applied, target)
	return nil
}

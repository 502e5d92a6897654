package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/growthops/internal/adapters/memory"
	"github.com/emiliopalmerini/growthops/internal/ports"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo boards into the configured store",
	Long: `Load the demo boards and experiments shown in guest mode into the
configured store. Records that already exist are left untouched.

Examples:
  growthops seed
  GROWTHOPS_STORAGE=turso growthops seed`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		added, skipped, err := seedStore(ctx, app.Store, time.Now().UTC())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Seeded %d records", added)
		if skipped > 0 {
			warning(out, "%d records already existed", skipped)
		}
		return app.Service.Load(ctx)
	})
}

// seedStore writes the demo records. Version conflicts mean the record exists.
func seedStore(ctx context.Context, store ports.Store, now time.Time) (added, skipped int, err error) {
	boards, exps := memory.Demo(now)
	count := func(err error) error {
		switch {
		case err == nil:
			added++
		case errors.Is(err, ports.ErrConflict):
			skipped++
		default:
			return err
		}
		return nil
	}
	for _, b := range boards {
		if err := count(store.UpsertBoard(ctx, b)); err != nil {
			return added, skipped, fmt.Errorf("failed to seed board %s: %w", b.ID, err)
		}
	}
	for _, e := range exps {
		if err := count(store.UpsertExperiment(ctx, e)); err != nil {
			return added, skipped, fmt.Errorf("failed to seed experiment %s: %w", e.ID, err)
		}
	}
	return added, skipped, nil
}

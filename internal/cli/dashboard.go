package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/growthops/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the terminal dashboard",
	Long: `Open the terminal dashboard with a kanban screen and an analytics screen.

Keys: 1/2 switch screens, tab and b switch boards, [ and ] move an experiment
between columns, s scores it, r syncs with the store, q quits.

Examples:
  growthops dashboard
  growthops dashboard --board "Product Bets"`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

var dashboardBoard string

func init() {
	dashboardCmd.Flags().StringVarP(&dashboardBoard, "board", "b", "", "Board to open (default the first board)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		boardID := ""
		if dashboardBoard != "" {
			b, err := findBoard(app.Service, dashboardBoard)
			if err != nil {
				return err
			}
			boardID = b.ID
		}
		return tui.Run(ctx, app.Service, boardID)
	})
}

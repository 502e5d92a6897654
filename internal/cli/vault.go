package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Search every experiment, archived ones included",
	Long: `Search every experiment, archived ones included, newest first.

The search matches title, description and tags case-insensitively. Use
--result pending for finished experiments with no recorded outcome.

Examples:
  growthops vault --search pricing
  growthops vault --board growth --status learnings --result won`,
	Args: cobra.NoArgs,
	RunE: runVault,
}

var vaultFilter domain.VaultFilter

func init() {
	vaultCmd.Flags().StringVarP(&vaultFilter.BoardID, "board", "b", "", "Only this board")
	vaultCmd.Flags().StringVarP(&vaultFilter.Search, "search", "q", "", "Text to search for")
	vaultCmd.Flags().StringVarP(&vaultFilter.Status, "status", "s", "", "Status")
	vaultCmd.Flags().StringVarP(&vaultFilter.Result, "result", "r", "", "Result (won, lost, inconclusive, pending)")
	vaultCmd.Flags().StringVarP(&vaultFilter.Market, "market", "m", "", "Market")
	vaultCmd.Flags().StringVarP(&vaultFilter.Type, "type", "t", "", "Experiment type")
}

func runVault(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		filter := vaultFilter
		if filter.BoardID != "" {
			b, err := findBoard(app.Service, filter.BoardID)
			if err != nil {
				return err
			}
			filter.BoardID = b.ID
		}

		out := cmd.OutOrStdout()
		exps := app.Service.Vault(filter)
		if len(exps) == 0 {
			fmt.Fprintln(out, "No experiments match")
			return nil
		}

		w := newTable(out)
		fmt.Fprintln(w, "ID\tTITLE\tBOARD\tSTATUS\tRESULT\tMARKET\tTYPE\tTAGS\tCREATED")
		for _, e := range exps {
			board := e.BoardID
			if b, err := app.Service.Board(e.BoardID); err == nil {
				board = b.Name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, util.Truncate(e.Title, 36), board, statusText(e.Status), resultText(e.Result),
				e.Market, e.Type, strings.Join(e.Tags, ","), util.FormatDateISO(e.CreatedAt))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		faint.Fprintf(out, "%d experiments\n", len(exps))
		return nil
	})
}

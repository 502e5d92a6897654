package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
	"github.com/emiliopalmerini/growthops/internal/workspace"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage boards",
	Long: `Manage boards, their tracked metrics and their scoring dimensions.

A board is referenced by id or by name (case-insensitive).`,
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all boards",
	Args:  cobra.NoArgs,
	RunE:  runBoardList,
}

var boardShowCmd = &cobra.Command{
	Use:   "show <board>",
	Short: "Show a board's configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardShow,
}

var boardCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a board",
	Long: `Create a board with ICE scoring and no tracked metrics.

Examples:
  growthops board create "Growth Team"
  growthops board create "Retention" --description "Churn and win-back bets"`,
	Args: cobra.ExactArgs(1),
	RunE: runBoardCreate,
}

var boardRenameCmd = &cobra.Command{
	Use:   "rename <board> <name>",
	Short: "Rename a board",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardRename,
}

var boardMetricCmd = &cobra.Command{
	Use:   "metric",
	Short: "Manage tracked metrics",
}

var boardMetricAddCmd = &cobra.Command{
	Use:   "add <board> <id> <name>",
	Short: "Track a new metric on a board",
	Long: `Track a new metric on a board.

Formats: number, percent, currency, time.

Examples:
  growthops board metric add growth cvr "Conversion Rate" --format percent
  growthops board metric add growth nps "NPS" --suffix " pts"`,
	Args: cobra.ExactArgs(3),
	RunE: runBoardMetricAdd,
}

var boardMetricRemoveCmd = &cobra.Command{
	Use:   "remove <board> <id>",
	Short: "Stop tracking a metric",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardMetricRemove,
}

var boardDimensionCmd = &cobra.Command{
	Use:   "dimension",
	Short: "Manage scoring dimensions",
}

var boardDimensionAddCmd = &cobra.Command{
	Use:   "add <board> <id> <name>",
	Short: "Add a custom scoring dimension",
	Long: `Add a custom scoring dimension. It is only used once custom scoring is on.

Examples:
  growthops board dimension add product reach "Reach" --min 1 --max 5`,
	Args: cobra.ExactArgs(3),
	RunE: runBoardDimensionAdd,
}

var boardDimensionRemoveCmd = &cobra.Command{
	Use:   "remove <board> <id>",
	Short: "Remove a scoring dimension",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardDimensionRemove,
}

var boardScoringCmd = &cobra.Command{
	Use:   "scoring <board> <custom|ice>",
	Short: "Switch between custom and ICE scoring",
	Args:  cobra.ExactArgs(2),
	RunE:  runBoardScoring,
}

var boardConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Export or import a board configuration as YAML",
}

var boardConfigExportCmd = &cobra.Command{
	Use:   "export <board>",
	Short: "Write a board configuration as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardConfigExport,
}

var boardConfigImportCmd = &cobra.Command{
	Use:   "import <board> <file>",
	Short: "Replace a board configuration from a YAML file",
	Long: `Replace a board configuration from a YAML file. Use - to read stdin.

Examples:
  growthops board config export growth -o growth.yaml
  growthops board config import product growth.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runBoardConfigImport,
}

var (
	boardDescription string

	metricFormat      string
	metricSuffix      string
	metricDescription string

	dimensionMin         int
	dimensionMax         int
	dimensionDescription string

	configOutput string
)

func init() {
	boardCmd.AddCommand(boardListCmd, boardShowCmd, boardCreateCmd, boardRenameCmd,
		boardMetricCmd, boardDimensionCmd, boardScoringCmd, boardConfigCmd)
	boardMetricCmd.AddCommand(boardMetricAddCmd, boardMetricRemoveCmd)
	boardDimensionCmd.AddCommand(boardDimensionAddCmd, boardDimensionRemoveCmd)
	boardConfigCmd.AddCommand(boardConfigExportCmd, boardConfigImportCmd)

	boardCreateCmd.Flags().StringVarP(&boardDescription, "description", "d", "", "Board description")

	boardMetricAddCmd.Flags().StringVarP(&metricFormat, "format", "f", string(domain.FormatNumber), "Display format")
	boardMetricAddCmd.Flags().StringVar(&metricSuffix, "suffix", "", "Unit appended to rendered values")
	boardMetricAddCmd.Flags().StringVarP(&metricDescription, "description", "d", "", "Metric description")

	boardDimensionAddCmd.Flags().IntVar(&dimensionMin, "min", 1, "Lowest score")
	boardDimensionAddCmd.Flags().IntVar(&dimensionMax, "max", 10, "Highest score")
	boardDimensionAddCmd.Flags().StringVarP(&dimensionDescription, "description", "d", "", "Dimension description")

	boardConfigExportCmd.Flags().StringVarP(&configOutput, "output", "o", "", "Output file (default stdout)")
}

// findBoard resolves a board by id, then by name.
func findBoard(svc *workspace.Service, ref string) (*domain.Board, error) {
	if b, err := svc.Board(ref); err == nil {
		return b, nil
	}
	for _, b := range svc.Boards() {
		if strings.EqualFold(b.Name, ref) {
			return b, nil
		}
	}
	return nil, &domain.NotFoundError{Kind: "board", ID: ref}
}

func boardConfig(b *domain.Board) domain.BoardConfig {
	if b.Config == nil {
		return domain.DefaultBoardConfig()
	}
	return b.Config.Clone()
}

// updateBoardConfig edits a copy of the board config and saves it.
func updateBoardConfig(ctx context.Context, app *AppContext, ref string, fn func(*domain.BoardConfig) error) (*domain.Board, error) {
	b, err := findBoard(app.Service, ref)
	if err != nil {
		return nil, err
	}
	cfg := boardConfig(b)
	if err := fn(&cfg); err != nil {
		return nil, err
	}
	return app.Service.SaveBoardConfig(ctx, b.ID, cfg)
}

func runBoardList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		out := cmd.OutOrStdout()
		boards := app.Service.Boards()
		if len(boards) == 0 {
			fmt.Fprintln(out, "No boards found. Create one with: growthops board create <name>")
			return nil
		}

		w := newTable(out)
		fmt.Fprintln(w, "ID\tNAME\tEXPERIMENTS\tSCORING\tCREATED")
		for _, b := range boards {
			scoring := "ICE"
			if b.UsesCustomDimensions() {
				scoring = "custom"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				b.ID, b.Name, len(app.Service.Experiments(b.ID)), scoring, util.FormatDateISO(b.CreatedAt))
		}
		return w.Flush()
	})
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := findBoard(app.Service, args[0])
		if err != nil {
			return err
		}
		printBoard(cmd.OutOrStdout(), b)
		return nil
	})
}

func printBoard(out io.Writer, b *domain.Board) {
	heading(out, b.Name)
	fmt.Fprintf(out, "ID:          %s\n", b.ID)
	if b.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", b.Description)
	}
	fmt.Fprintf(out, "Created:     %s\n", util.FormatDateHuman(b.CreatedAt))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Metrics")
	metrics := b.Metrics()
	if len(metrics) == 0 {
		fmt.Fprintln(out, "  none")
	}
	w := newTable(out)
	for _, m := range metrics {
		format := m.Format
		if format == "" {
			format = domain.FormatNumber
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", m.ID, m.Name, format)
	}
	_ = w.Flush()
	fmt.Fprintln(out)

	mode := "ICE"
	if b.UsesCustomDimensions() {
		mode = "custom"
	}
	fmt.Fprintf(out, "Scoring (%s)\n", mode)
	w = newTable(out)
	for _, d := range b.ScoringDimensions() {
		fmt.Fprintf(w, "  %s\t%s\t%d-%d\n", d.ID, d.Name, d.Min, d.Max)
	}
	_ = w.Flush()
}

func runBoardCreate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := app.Service.CreateBoard(ctx, args[0], boardDescription)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Created board %s (%s)", b.Name, b.ID)
		return nil
	})
}

func runBoardRename(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := findBoard(app.Service, args[0])
		if err != nil {
			return err
		}
		name := args[1]
		b, err = app.Service.UpdateBoard(ctx, b.ID, workspace.BoardEdit{Name: &name})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Renamed board %s to %s", b.ID, b.Name)
		return nil
	})
}

func runBoardMetricAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		def := domain.MetricDefinition{
			ID:          args[1],
			Name:        args[2],
			Format:      domain.MetricFormat(metricFormat),
			Suffix:      metricSuffix,
			Description: metricDescription,
		}
		_, err := updateBoardConfig(ctx, app, args[0], func(cfg *domain.BoardConfig) error {
			cfg.Metrics = append(cfg.Metrics, def)
			return nil
		})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Tracking metric %s", def.Name)
		return nil
	})
}

func runBoardMetricRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		id := args[1]
		_, err := updateBoardConfig(ctx, app, args[0], func(cfg *domain.BoardConfig) error {
			i := slices.IndexFunc(cfg.Metrics, func(m domain.MetricDefinition) bool { return m.ID == id })
			if i < 0 {
				return &domain.NotFoundError{Kind: "metric", ID: id}
			}
			cfg.Metrics = slices.Delete(cfg.Metrics, i, i+1)
			return nil
		})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Removed metric %s", id)
		return nil
	})
}

func runBoardDimensionAdd(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		def := domain.DimensionDefinition{
			ID:          args[1],
			Name:        args[2],
			Description: dimensionDescription,
			Min:         dimensionMin,
			Max:         dimensionMax,
		}
		b, err := updateBoardConfig(ctx, app, args[0], func(cfg *domain.BoardConfig) error {
			cfg.Dimensions = append(cfg.Dimensions, def)
			return nil
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		success(out, "Added dimension %s (%d-%d)", def.Name, def.Min, def.Max)
		if !b.UsesCustomDimensions() {
			warning(out, "Custom scoring is off. Enable it with: growthops board scoring %s custom", b.ID)
		}
		return nil
	})
}

func runBoardDimensionRemove(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		id := args[1]
		_, err := updateBoardConfig(ctx, app, args[0], func(cfg *domain.BoardConfig) error {
			i := slices.IndexFunc(cfg.Dimensions, func(d domain.DimensionDefinition) bool { return d.ID == id })
			if i < 0 {
				return &domain.NotFoundError{Kind: "dimension", ID: id}
			}
			cfg.Dimensions = slices.Delete(cfg.Dimensions, i, i+1)
			return nil
		})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Removed dimension %s", id)
		return nil
	})
}

func runBoardScoring(cmd *cobra.Command, args []string) error {
	var custom bool
	switch args[1] {
	case "custom":
		custom = true
	case "ice":
	default:
		return fmt.Errorf("unknown scoring mode %q, want custom or ice", args[1])
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := updateBoardConfig(ctx, app, args[0], func(cfg *domain.BoardConfig) error {
			cfg.UseCustomDimensions = custom
			return nil
		})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Board %s now scores on %d dimensions", b.Name, len(b.ScoringDimensions()))
		return nil
	})
}

func runBoardConfigExport(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := findBoard(app.Service, args[0])
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(boardConfig(b))
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if configOutput == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(configOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", configOutput, err)
		}
		success(cmd.ErrOrStderr(), "Wrote %s", configOutput)
		return nil
	})
}

func runBoardConfigImport(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[1] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[1])
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg domain.BoardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := findBoard(app.Service, args[0])
		if err != nil {
			return err
		}
		b, err = app.Service.SaveBoardConfig(ctx, b.ID, cfg)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Imported %d metrics and %d dimensions into %s",
			len(cfg.Metrics), len(cfg.Dimensions), b.Name)
		return nil
	})
}

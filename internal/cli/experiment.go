package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/growthops/internal/domain"
	"github.com/emiliopalmerini/growthops/internal/util"
	"github.com/emiliopalmerini/growthops/internal/workspace"
)

var experimentCmd = &cobra.Command{
	Use:     "experiment",
	Aliases: []string{"exp"},
	Short:   "Manage experiments",
	Long: `Manage experiments on a board.

Experiments move through idea -> hypothesis -> running -> complete -> learnings.
Completing an experiment archives and locks it; locked experiments only accept
comments.`,
}

var experimentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List experiments",
	Long: `List experiments, newest first.

Examples:
  growthops experiment list
  growthops experiment list --board growth --status running`,
	Args: cobra.NoArgs,
	RunE: runExperimentList,
}

var experimentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show experiment details",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentShow,
}

var experimentCreateCmd = &cobra.Command{
	Use:   "create <board> <title>",
	Short: "Add an idea to a board",
	Long: `Add an idea to a board. New ideas start in the backlog with mid-range scores.

Examples:
  growthops experiment create growth "Exit intent popup"
  growthops experiment create growth "Annual plan" --type Monetization --market UK --tag pricing`,
	Args: cobra.ExactArgs(2),
	RunE: runExperimentCreate,
}

var experimentEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit the free-form fields of an experiment",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentEdit,
}

var experimentStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move an experiment to another column",
	Long: `Move an experiment to another column.

Statuses: idea, hypothesis, running, complete, learnings.`,
	Args: cobra.ExactArgs(2),
	RunE: runExperimentStatus,
}

var experimentScoreCmd = &cobra.Command{
	Use:   "score <id> <dimension> <value>",
	Short: "Score an experiment on one dimension",
	Args:  cobra.ExactArgs(3),
	RunE:  runExperimentScore,
}

var experimentICECmd = &cobra.Command{
	Use:   "ice <id> <impact> <confidence> <ease>",
	Short: "Set the ICE scores of an experiment",
	Args:  cobra.ExactArgs(4),
	RunE:  runExperimentICE,
}

var experimentMetricCmd = &cobra.Command{
	Use:   "metric <id> <metric>",
	Short: "Record baseline, target or actual for a metric",
	Long: `Record baseline, target or actual for a metric. Omitted values are kept;
pass --clear to remove them.

Examples:
  growthops experiment metric exp-1 conversion_rate --baseline 2.1 --target 3
  growthops experiment metric exp-1 conversion_rate --actual 3.4`,
	Args: cobra.ExactArgs(2),
	RunE: runExperimentMetric,
}

var experimentResultCmd = &cobra.Command{
	Use:   "result <id> <won|lost|inconclusive|none>",
	Short: "Record the outcome of a finished experiment",
	Args:  cobra.ExactArgs(2),
	RunE:  runExperimentResult,
}

var experimentTagCmd = &cobra.Command{
	Use:   "tag <id> <tag>",
	Short: "Add a tag",
	Args:  cobra.ExactArgs(2),
	RunE:  runExperimentTag,
}

var experimentUntagCmd = &cobra.Command{
	Use:   "untag <id> <tag>",
	Short: "Remove a tag",
	Args:  cobra.ExactArgs(2),
	RunE:  runExperimentUntag,
}

var experimentCommentCmd = &cobra.Command{
	Use:   "comment <id> <text>...",
	Short: "Add a comment",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runExperimentComment,
}

var experimentArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move an experiment to learnings and hide it from the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentArchive,
}

var experimentCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Archive and lock an experiment",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentComplete,
}

var experimentDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an experiment permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runExperimentDelete,
}

var (
	listBoard  string
	listStatus string

	expDescription string
	expMarket      string
	expType        string
	expOwner       string
	expTags        []string

	editTitle       string
	editDescription string
	editMarket      string
	editType        string
	editOwner       string

	metricBaseline float64
	metricTarget   float64
	metricActual   float64
	metricClear    bool

	commentAuthor string
)

func init() {
	experimentCmd.AddCommand(experimentListCmd, experimentShowCmd, experimentCreateCmd, experimentEditCmd,
		experimentStatusCmd, experimentScoreCmd, experimentICECmd, experimentMetricCmd, experimentResultCmd,
		experimentTagCmd, experimentUntagCmd, experimentCommentCmd,
		experimentArchiveCmd, experimentCompleteCmd, experimentDeleteCmd)

	experimentListCmd.Flags().StringVarP(&listBoard, "board", "b", "", "Only this board")
	experimentListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only this status")

	experimentCreateCmd.Flags().StringVarP(&expDescription, "description", "d", "", "Markdown description")
	experimentCreateCmd.Flags().StringVarP(&expMarket, "market", "m", "", "Market (default "+domain.Markets[0]+")")
	experimentCreateCmd.Flags().StringVarP(&expType, "type", "t", "", "Experiment type (default "+domain.Types[0]+")")
	experimentCreateCmd.Flags().StringVar(&expOwner, "owner", "", "Owner (default GROWTHOPS_OWNER)")
	experimentCreateCmd.Flags().StringSliceVar(&expTags, "tag", nil, "Tag (repeatable)")

	experimentEditCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	experimentEditCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	experimentEditCmd.Flags().StringVarP(&editMarket, "market", "m", "", "New market")
	experimentEditCmd.Flags().StringVarP(&editType, "type", "t", "", "New type")
	experimentEditCmd.Flags().StringVar(&editOwner, "owner", "", "New owner")

	experimentMetricCmd.Flags().Float64Var(&metricBaseline, "baseline", 0, "Baseline value")
	experimentMetricCmd.Flags().Float64Var(&metricTarget, "target", 0, "Target value")
	experimentMetricCmd.Flags().Float64Var(&metricActual, "actual", 0, "Actual value")
	experimentMetricCmd.Flags().BoolVar(&metricClear, "clear", false, "Clear values not given")

	experimentCommentCmd.Flags().StringVar(&commentAuthor, "author", "", "Author name (default GROWTHOPS_OWNER)")
}

func runExperimentList(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		boardID := ""
		if listBoard != "" {
			b, err := findBoard(app.Service, listBoard)
			if err != nil {
				return err
			}
			boardID = b.ID
		}
		if listStatus != "" {
			if _, err := domain.ParseStatus(listStatus); err != nil {
				return err
			}
		}

		exps := app.Service.Vault(domain.VaultFilter{BoardID: boardID, Status: listStatus})
		out := cmd.OutOrStdout()
		if len(exps) == 0 {
			fmt.Fprintln(out, "No experiments found")
			return nil
		}

		w := newTable(out)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tSCORE\tRESULT\tOWNER\tCREATED")
		for _, e := range exps {
			title := util.Truncate(e.Title, 40)
			if e.Locked {
				title += " [locked]"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, title, statusText(e.Status), util.FormatScore(app.Service.Score(e)),
				resultText(e.Result), e.Owner, util.FormatDateISO(e.CreatedAt))
		}
		return w.Flush()
	})
}

func runExperimentShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		e, err := app.Service.Experiment(args[0])
		if err != nil {
			return err
		}
		b, err := app.Service.Board(e.BoardID)
		if err != nil {
			return err
		}
		printExperiment(cmd.OutOrStdout(), e, b)
		return nil
	})
}

func printExperiment(out io.Writer, e *domain.Experiment, b *domain.Board) {
	fmt.Fprintln(out)
	heading(out, e.Title)
	fmt.Fprintf(out, "ID:       %s\n", e.ID)
	fmt.Fprintf(out, "Board:    %s\n", b.Name)
	fmt.Fprintf(out, "Status:   %s\n", statusText(e.Status))
	fmt.Fprintf(out, "Result:   %s\n", resultText(e.Result))
	fmt.Fprintf(out, "Score:    %s\n", util.FormatScore(domain.CompositeScore(e, b)))
	fmt.Fprintf(out, "Market:   %s\n", e.Market)
	fmt.Fprintf(out, "Type:     %s\n", e.Type)
	fmt.Fprintf(out, "Owner:    %s\n", e.Owner)
	fmt.Fprintf(out, "Created:  %s\n", util.FormatDateHuman(e.CreatedAt))
	if len(e.Tags) > 0 {
		fmt.Fprintf(out, "Tags:     %s\n", strings.Join(e.Tags, ", "))
	}
	var flags []string
	if e.Archived {
		flags = append(flags, "archived")
	}
	if e.Locked {
		flags = append(flags, "locked")
	}
	if len(flags) > 0 {
		fmt.Fprintf(out, "Flags:    %s\n", strings.Join(flags, ", "))
	}

	if e.Description != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, renderMarkdown(e.Description))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Scores")
	w := newTable(out)
	for _, d := range b.ScoringDimensions() {
		v, _ := e.DimensionValue(d.ID)
		fmt.Fprintf(w, "  %s\t%d\t(%d-%d)\n", d.Name, v, d.Min, d.Max)
	}
	_ = w.Flush()

	if metrics := b.Metrics(); len(metrics) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Metrics")
		w = newTable(out)
		fmt.Fprintln(w, "  METRIC\tBASELINE\tTARGET\tACTUAL\tHIT")
		for _, def := range metrics {
			mv, ok := e.MetricValue(def.ID)
			if !ok {
				continue
			}
			hit := "-"
			if h, ok := domain.MetricHit(mv); ok {
				hit = "no"
				if h {
					hit = "yes"
				}
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				def.Name, optional(mv.Baseline, def), optional(mv.Target, def), optional(mv.Actual, def), hit)
		}
		_ = w.Flush()
	}

	if len(e.Comments) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Comments (%d)\n", len(e.Comments))
		for _, c := range e.Comments {
			faint.Fprintf(out, "  %s  %s\n", c.AuthorName, util.FormatDateHuman(c.Timestamp))
			fmt.Fprintf(out, "  %s\n", c.Text)
		}
	}
	fmt.Fprintln(out)
}

// renderMarkdown falls back to the raw text if glamour fails or panics.
func renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content + "\n"
		}
	}()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content + "\n"
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

func runExperimentCreate(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		b, err := findBoard(app.Service, args[0])
		if err != nil {
			return err
		}
		owner := expOwner
		if owner == "" {
			owner = app.Config.Owner
		}
		e, err := app.Service.CreateExperiment(ctx, workspace.NewExperimentInput{
			BoardID:     b.ID,
			Title:       args[1],
			Description: expDescription,
			Market:      expMarket,
			Type:        expType,
			Owner:       owner,
			Tags:        expTags,
		})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Created experiment %s", e.ID)
		return nil
	})
}

func runExperimentEdit(cmd *cobra.Command, args []string) error {
	var edit domain.Edit
	flags := cmd.Flags()
	if flags.Changed("title") {
		edit.Title = &editTitle
	}
	if flags.Changed("description") {
		edit.Description = &editDescription
	}
	if flags.Changed("market") {
		edit.Market = &editMarket
	}
	if flags.Changed("type") {
		edit.Type = &editType
	}
	if flags.Changed("owner") {
		edit.Owner = &editOwner
	}
	if edit == (domain.Edit{}) {
		return fmt.Errorf("nothing to edit, pass at least one of --title, --description, --market, --type or --owner")
	}

	return mutate(cmd, args[0], "Updated", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.EditExperiment(ctx, id, edit)
	})
}

func runExperimentStatus(cmd *cobra.Command, args []string) error {
	status, err := domain.ParseStatus(args[1])
	if err != nil {
		return err
	}
	return mutate(cmd, args[0], "Moved to "+status.Label(), func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.SetStatus(ctx, id, status)
	})
}

func runExperimentScore(cmd *cobra.Command, args []string) error {
	value, err := strconv.Atoi(args[2])
	if err != nil {
		return &domain.ValidationError{Field: "value", Reason: "score must be an integer"}
	}
	return mutate(cmd, args[0], "Scored", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.SetDimensionScore(ctx, id, args[1], value)
	})
}

func runExperimentICE(cmd *cobra.Command, args []string) error {
	var scores [3]int
	for i, name := range []string{"impact", "confidence", "ease"} {
		v, err := strconv.Atoi(args[i+1])
		if err != nil {
			return &domain.ValidationError{Field: name, Reason: "score must be an integer"}
		}
		scores[i] = v
	}
	return mutate(cmd, args[0], "Scored", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.SetLegacyScores(ctx, id, scores[0], scores[1], scores[2])
	})
}

func runExperimentMetric(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	pick := func(name string, value float64, current *float64) *float64 {
		if flags.Changed(name) {
			v := value
			return &v
		}
		if metricClear {
			return nil
		}
		return current
	}
	return mutate(cmd, args[0], "Recorded "+args[1], func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		e, err := svc.Experiment(id)
		if err != nil {
			return nil, err
		}
		cur, _ := e.MetricValue(args[1])
		return svc.SetMetricValue(ctx, id, args[1],
			pick("baseline", metricBaseline, cur.Baseline),
			pick("target", metricTarget, cur.Target),
			pick("actual", metricActual, cur.Actual))
	})
}

func runExperimentResult(cmd *cobra.Command, args []string) error {
	result := domain.Result(args[1])
	if args[1] == "none" {
		result = domain.ResultNone
	}
	return mutate(cmd, args[0], "Recorded result", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.SetResult(ctx, id, result)
	})
}

func runExperimentTag(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args[0], "Tagged", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.AddTag(ctx, id, args[1])
	})
}

func runExperimentUntag(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args[0], "Untagged", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.RemoveTag(ctx, id, args[1])
	})
}

func runExperimentComment(cmd *cobra.Command, args []string) error {
	text := strings.Join(args[1:], " ")
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		author := commentAuthor
		if author == "" {
			author = app.Config.Owner
		}
		e, err := app.Service.AddComment(ctx, args[0], workspace.CommentInput{
			AuthorID:   author,
			AuthorName: author,
			Text:       text,
		})
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Commented on %s (%d comments)", e.ID, len(e.Comments))
		return nil
	})
}

func runExperimentArchive(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args[0], "Archived", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.Archive(ctx, id)
	})
}

func runExperimentComplete(cmd *cobra.Command, args []string) error {
	return mutate(cmd, args[0], "Completed", func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error) {
		return svc.Complete(ctx, id)
	})
}

func runExperimentDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		if err := app.Service.Delete(ctx, args[0]); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Deleted experiment %s", args[0])
		return nil
	})
}

// mutate runs a single experiment mutation and reports the new score.
func mutate(cmd *cobra.Command, id, verb string, fn func(ctx context.Context, svc *workspace.Service, id string) (*domain.Experiment, error)) error {
	return withApp(cmd, func(ctx context.Context, app *AppContext) error {
		e, err := fn(ctx, app.Service, id)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "%s %s (score %s)", verb, e.Title, util.FormatScore(app.Service.Score(e)))
		return nil
	})
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alexanderramin/dealboard/internal/board"
	"github.com/alexanderramin/dealboard/internal/cli/formatter"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/spf13/cobra"
)

// endOfStack places a moved card after the last card of its target stack.
const endOfStack = math.MaxInt32

func newDealCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deal",
		Short: "Manage deals",
	}

	cmd.AddCommand(
		newDealAddCmd(app),
		newDealListCmd(app),
		newDealShowCmd(app),
		newDealMoveCmd(app),
	)

	return cmd
}

func newDealAddCmd(app *App) *cobra.Command {
	var in dealInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a deal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireLocal("deal add"); err != nil {
				return err
			}
			ctx := cmd.Context()
			if in.Title == "" {
				if !app.interactive() {
					return fmt.Errorf("--title is required")
				}
				if err := runDealForm(ctx, app, &in); err != nil {
					return err
				}
			}

			d, err := in.toDeal(ctx, app)
			if err != nil {
				return err
			}
			if err := app.Deals.Create(ctx, d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created deal %s (%s) %s\n",
				d.Title, formatter.FormatMoney(d.PotentialValue, d.Currency), formatter.TruncID(d.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Pipeline, "pipeline", "", "Pipeline ID or name")
	cmd.Flags().StringVar(&in.Title, "title", "", "Deal title")
	cmd.Flags().StringVar(&in.Client, "client", "", "Client name shown on the card")
	cmd.Flags().StringVar(&in.Value, "value", "", "Potential value, e.g. 1250.50")
	cmd.Flags().StringVar(&in.Currency, "currency", "", "Currency (USD, EUR, GBP)")
	cmd.Flags().StringVar(&in.Stage, "stage", "", "Stage ID or title (default: first stage)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")

	return cmd
}

// dealInput holds the raw values of deal add, from flags or the form.
type dealInput struct {
	Pipeline string
	Title    string
	Client   string
	Value    string
	Currency string
	Stage    string
	Notes    string
}

func (in dealInput) toDeal(ctx context.Context, app *App) (*domain.Deal, error) {
	if in.Pipeline == "" {
		return nil, fmt.Errorf("--pipeline is required")
	}
	p, err := resolvePipeline(ctx, app, in.Pipeline)
	if err != nil {
		return nil, err
	}
	value, err := parseAmount(in.Value)
	if err != nil {
		return nil, err
	}

	d := &domain.Deal{
		PipelineID:     p.ID,
		Title:          strings.TrimSpace(in.Title),
		ClientName:     strings.TrimSpace(in.Client),
		PotentialValue: value,
		Currency:       domain.Currency(strings.ToUpper(strings.TrimSpace(in.Currency))),
		Notes:          in.Notes,
	}
	if in.Stage != "" {
		s, err := p.ResolveStage(in.Stage)
		if err != nil {
			return nil, err
		}
		d.StageID = s.ID
	}
	return d, nil
}

// parseAmount converts a decimal amount into minor units: "1,250.5" -> 125050.
func parseAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, nil
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("invalid amount %q: use at most two decimals", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if w > (math.MaxInt64-f)/100 {
		return 0, fmt.Errorf("amount %q is too large", s)
	}
	return w*100 + f, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func newDealListCmd(app *App) *cobra.Command {
	var pipeline, stage, status string
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := domain.DealFilter{IncludeArchived: all}
			var p *domain.Pipeline
			if pipeline != "" {
				var err error
				if p, err = resolvePipeline(ctx, app, pipeline); err != nil {
					return err
				}
				f.PipelineID = p.ID
			}
			if stage != "" {
				if p == nil {
					return fmt.Errorf("--stage needs --pipeline")
				}
				s, err := p.ResolveStage(stage)
				if err != nil {
					return err
				}
				f.StageID = s.ID
			}
			if status != "" {
				f.Status = domain.DealStatus(strings.ToLower(status))
				if !domain.ValidDealStatuses[f.Status] {
					return fmt.Errorf("invalid status %q", status)
				}
			}

			deals, err := app.Store.List(ctx, f)
			if err != nil {
				return err
			}
			if len(deals) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No deals found.")
				return nil
			}
			titles, err := stageTitles(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatDealList(deals, titles))
			return nil
		},
	}

	cmd.Flags().StringVar(&pipeline, "pipeline", "", "Pipeline ID or name")
	cmd.Flags().StringVar(&stage, "stage", "", "Stage ID or title")
	cmd.Flags().StringVar(&status, "status", "", "Deal status (open|won|lost|archived)")
	cmd.Flags().BoolVar(&all, "all", false, "Include archived deals")

	return cmd
}

func newDealShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show deal details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := resolveDeal(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDeal(d))
			return nil
		},
	}
}

func newDealMoveCmd(app *App) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "move ID TARGET",
		Short: "Move a deal to a stage, or mark it won, lost or archived",
		Long: `Move a deal to TARGET: a stage ID or title of the deal's pipeline, or one
of the rest targets won, lost and archived. Moving a closed deal back to a
stage reopens it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			d, err := resolveDeal(ctx, app, args[0])
			if err != nil {
				return err
			}
			p, err := app.Stages.GetByID(ctx, d.PipelineID)
			if err != nil {
				return err
			}
			target, err := resolveTarget(p, args[1])
			if err != nil {
				return err
			}

			results, err := moveDeal(ctx, app, p, d, target, index)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatMoveResult(
					d.Title, targetLabel(p, r.Move.FromStack), targetLabel(p, r.Move.ToStack), r.Err))
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already there\n", d.Title)
			}
			return board.Failed(results)
		},
	}

	cmd.Flags().IntVar(&index, "index", -1, "Position in the target stack (default: last)")

	return cmd
}

// resolveTarget maps user input to a stack id or rest target.
func resolveTarget(p *domain.Pipeline, input string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(input))
	if domain.IsRestTarget(lower) {
		return lower, nil
	}
	s, err := p.ResolveStage(input)
	if err != nil {
		return "", fmt.Errorf("%w: %q", board.ErrUnknownTarget, input)
	}
	return s.ID, nil
}

// moveDeal runs open deals through the board so the working copy, detector
// and dispatcher all see the move. Closed deals have no card, so their move
// goes straight to the dispatcher.
func moveDeal(ctx context.Context, app *App, p *domain.Pipeline, d *domain.Deal, target string, index int) ([]board.Result, error) {
	if d.Status != domain.DealOpen {
		if target == string(d.Status) {
			return nil, nil
		}
		disp := board.NewDispatcher(app.Store, p,
			board.WithDispatchLogger(app.Logger),
			board.WithDispatchLimit(app.Config.DispatchLimit),
		)
		return disp.Dispatch(ctx, []board.Move{{CardID: d.ID, FromStack: string(d.Status), ToStack: target}}), nil
	}

	b := app.newBoard(p)
	defer b.Close()

	if domain.IsRestTarget(target) {
		r, err := b.Drop(ctx, d.ID, target)
		if err != nil {
			return nil, err
		}
		return []board.Result{r}, nil
	}
	if index < 0 {
		index = endOfStack
	}
	results, err := b.Move(ctx, d.ID, target, index)
	if errors.Is(err, board.ErrCardNotFound) {
		return nil, fmt.Errorf("deal %s is not on the %s board: %w", d.Title, p.Name, err)
	}
	return results, err
}

func targetLabel(p *domain.Pipeline, id string) string {
	if s, ok := p.StageByID(id); ok {
		return s.Title
	}
	return id
}

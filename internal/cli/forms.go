package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/cli/formatter"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

func dealboardHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateAmount(s string) error {
	_, err := parseAmount(s)
	return err
}

// dealForm collects the fields of a new deal. Pipeline choices come from
// pipelines; when in.Pipeline is already set the select is skipped.
func dealForm(pipelines []*domain.Pipeline, in *dealInput) *huh.Form {
	var fields []huh.Field
	if in.Pipeline == "" {
		opts := make([]huh.Option[string], 0, len(pipelines))
		for _, p := range pipelines {
			opts = append(opts, huh.NewOption(p.Name, p.ID))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Pipeline").
			Options(opts...).
			Value(&in.Pipeline))
	}

	currencies := []huh.Option[string]{
		huh.NewOption("USD", string(domain.CurrencyUSD)),
		huh.NewOption("EUR", string(domain.CurrencyEUR)),
		huh.NewOption("GBP", string(domain.CurrencyGBP)),
	}
	if in.Currency == "" {
		in.Currency = string(domain.CurrencyUSD)
	}

	fields = append(fields,
		huh.NewInput().Title("Title").Value(&in.Title).Validate(validateRequired("title")),
		huh.NewInput().Title("Client").Placeholder("Acme Ltd").Value(&in.Client),
		huh.NewInput().Title("Potential value").Placeholder("1250.00").Value(&in.Value).Validate(validateAmount),
		huh.NewSelect[string]().Title("Currency").Options(currencies...).Value(&in.Currency),
	)

	return huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(dealboardHuhTheme()).
		WithShowHelp(false)
}

func runDealForm(ctx context.Context, app *App, in *dealInput) error {
	pipelines, err := app.Stages.List(ctx)
	if err != nil {
		return err
	}
	if len(pipelines) == 0 && in.Pipeline == "" {
		return fmt.Errorf("no pipelines yet; create one with 'dealboard pipeline add'")
	}
	return dealForm(pipelines, in).RunWithContext(ctx)
}

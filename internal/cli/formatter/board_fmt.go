package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/board"
	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultColumnWidth = 26

// BoardOptions control how FormatBoard lays out the stacks.
type BoardOptions struct {
	// ColumnWidth is the inner width of each stack column.
	ColumnWidth int
	// SelectedID highlights one card.
	SelectedID string
	// FocusedStack highlights one column header; -1 for none.
	FocusedStack int
	// ShowRestTargets adds the won/lost/archived drop zones below the board.
	ShowRestTargets bool
}

// FormatBoard renders stacks side by side as kanban columns.
func FormatBoard(stacks []board.Stack, opts BoardOptions) string {
	width := opts.ColumnWidth
	if width <= 0 {
		width = defaultColumnWidth
	}
	if len(stacks) == 0 {
		return Dim("No stages.")
	}

	cols := make([]string, len(stacks))
	for i, s := range stacks {
		cols[i] = renderStack(s, width, i == opts.FocusedStack, opts.SelectedID)
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	if opts.ShowRestTargets {
		out += "\n" + renderRestTargets()
	}
	return out
}

// StackTotal sums the values of a stack's cards, per currency.
func StackTotal(s board.Stack) string {
	totals := map[domain.Currency]int64{}
	var order []domain.Currency
	for _, c := range s.Cards {
		if _, ok := totals[c.Currency]; !ok {
			order = append(order, c.Currency)
		}
		totals[c.Currency] += c.PotentialValue
	}
	if len(order) == 0 {
		return FormatMoney(0, domain.CurrencyUSD)
	}
	parts := make([]string, len(order))
	for i, cur := range order {
		parts[i] = FormatMoney(totals[cur], cur)
	}
	return strings.Join(parts, " + ")
}

func renderStack(s board.Stack, width int, focused bool, selectedID string) string {
	headerStyle := StyleHeader
	border := ColorDim
	if focused {
		border = ColorHeader
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(Truncate(fmt.Sprintf("%s (%d)", strings.ToUpper(s.Title), len(s.Cards)), width)))
	b.WriteString("\n")
	b.WriteString(Dim(Truncate(StackTotal(s), width)))
	for _, c := range s.Cards {
		b.WriteString("\n\n")
		b.WriteString(renderCard(c, width, c.ID == selectedID))
	}
	if len(s.Cards) == 0 {
		b.WriteString("\n\n")
		b.WriteString(Dim("(empty)"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width).
		Padding(0, 1).
		Render(b.String())
}

func renderCard(c board.Card, width int, selected bool) string {
	marker := "  "
	title := StyleFg.Render(Truncate(c.Title, width-2))
	if selected {
		marker = StyleHeader.Render("▸ ")
		title = StyleBold.Render(Truncate(c.Title, width-2))
	}
	sub := FormatMoney(c.PotentialValue, c.Currency)
	if c.ClientName != "" {
		sub = c.ClientName + " · " + sub
	}
	return marker + title + "\n  " + Dim(Truncate(sub, width-2))
}

func renderRestTargets() string {
	return strings.Join([]string{
		StyleGreen.Render("[w] Won"),
		StyleRed.Render("[l] Lost"),
		StyleDim.Render("[a] Archived"),
	}, "   ")
}

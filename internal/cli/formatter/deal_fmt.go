package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/dealboard/internal/domain"
)

// FormatDealList renders deals as a table. stageTitles maps stage ids to
// titles; unknown stages show their truncated id.
func FormatDealList(deals []*domain.Deal, stageTitles map[string]string) string {
	headers := []string{"ID", "TITLE", "CLIENT", "VALUE", "STAGE", "STATUS"}
	rows := make([][]string, 0, len(deals))
	for _, d := range deals {
		stage, ok := stageTitles[d.StageID]
		if !ok {
			stage = TruncID(d.StageID)
		}
		client := d.DisplayClient()
		if client == "" {
			client = Dim("--")
		}
		rows = append(rows, []string{
			TruncID(d.ID),
			Bold(Truncate(d.Title, 40)),
			client,
			FormatMoney(d.PotentialValue, d.Currency),
			stage,
			StatusPill(d.Status),
		})
	}
	return RenderTable(headers, rows)
}

// FormatDeal renders the detail view of one deal.
func FormatDeal(d *domain.Deal) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s  %s\n", StyleDim.Render(fmt.Sprintf("%-9s", label)), value)
	}
	line("Client", domain.CoalesceStr(d.DisplayClient(), "--"))
	line("Value", FormatMoney(d.PotentialValue, d.Currency))
	if d.Stage != nil {
		line("Stage", d.Stage.Title)
	}
	line("Status", StatusPill(d.Status))
	if d.ClosedAt != nil {
		line("Closed", HumanDate(*d.ClosedAt))
	}
	if d.Notes != "" {
		line("Notes", d.Notes)
	}
	line("ID", Dim(d.ID))
	return RenderBox(d.Title, strings.TrimRight(b.String(), "\n"))
}

// FormatMoveResult renders one line per dispatched move outcome.
func FormatMoveResult(title, from, to string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s %s: %s → %s: %s", StyleRed.Render("✖"), title, from, to, err)
	}
	return fmt.Sprintf("%s %s: %s → %s", StyleGreen.Render("✔"), title, from, to)
}

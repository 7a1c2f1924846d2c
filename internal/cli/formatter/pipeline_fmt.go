package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/dealboard/internal/domain"
)

// FormatPipelineList renders pipelines as a table.
func FormatPipelineList(pipelines []*domain.Pipeline) string {
	headers := []string{"ID", "NAME", "STAGES", "CREATED"}
	rows := make([][]string, 0, len(pipelines))
	for _, p := range pipelines {
		rows = append(rows, []string{
			TruncID(p.ID),
			Bold(p.Name),
			strconv.Itoa(len(p.Stages)),
			Dim(HumanDate(p.CreatedAt)),
		})
	}
	return RenderTable(headers, rows)
}

// FormatPipeline renders a pipeline with its stages in board order.
func FormatPipeline(p *domain.Pipeline) string {
	var b strings.Builder
	b.WriteString(Header(p.Name))
	b.WriteString("\n")
	for i, s := range p.SortedStages() {
		fmt.Fprintf(&b, "  %s  %s  %s\n", StyleDim.Render(fmt.Sprintf("%d.", i+1)), s.Title, TruncID(s.ID))
	}
	return b.String()
}

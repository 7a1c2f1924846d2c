package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/dealboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

var currencySymbols = map[domain.Currency]string{
	domain.CurrencyUSD: "$",
	domain.CurrencyEUR: "€",
	domain.CurrencyGBP: "£",
}

// FormatMoney renders an amount in minor units, e.g. 125050 USD -> "$1,250.50".
// Unknown currencies are shown by code.
func FormatMoney(minor int64, cur domain.Currency) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	whole := groupThousands(strconv.FormatInt(minor/100, 10))
	amount := fmt.Sprintf("%s.%02d", whole, minor%100)

	if sym, ok := currencySymbols[cur]; ok {
		return sign + sym + amount
	}
	if cur == "" {
		return sign + amount
	}
	return sign + amount + " " + string(cur)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// HumanDate returns "Today", "Yesterday" or a short absolute date.
func HumanDate(t time.Time) string {
	return HumanDateFrom(t, time.Now())
}

func HumanDateFrom(t, now time.Time) string {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := t.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return "Today"
	}
	y3, m3, d3 := now.AddDate(0, 0, -1).Date()
	if y2 == y3 && m2 == m3 && d2 == d3 {
		return "Yesterday"
	}
	return t.Format("Jan 2, 2006")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Truncate shortens s to at most width cells, ending with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if width == 1 {
		return "…"
	}
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

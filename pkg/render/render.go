// Package render formats portfolio snapshots for the dashboard page.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/alim08/fin_folio/pkg/models"
)

const notAvailable = "N/A"

//go:embed templates/*.tmpl
var templateFS embed.FS

var page = template.Must(template.New("page.tmpl").Funcs(template.FuncMap{
	"inr":       Money,
	"pct":       Percent,
	"share":     Share,
	"optFloat":  OptionalFloat,
	"optString": OptionalString,
	"trend":     Trend,
	"clock":     Clock,
	"qty":       Quantity,
}).ParseFS(templateFS, "templates/*.tmpl"))

// Money formats an amount in rupees with two decimals and lakh/crore digit
// grouping, e.g. ₹7,45,000.00.
func Money(v float64) string {
	paise := decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
	m := money.New(paise, money.INR)
	c := m.Currency()
	return indianGrouping(m.Display(), c.Thousand, c.Decimal)
}

// indianGrouping regroups the integer digits of a formatted amount as 3 then 2s.
func indianGrouping(display, thousand, dec string) string {
	start := strings.IndexFunc(display, unicode.IsDigit)
	end := strings.LastIndex(display, dec)
	if start < 0 || end < start {
		return display
	}
	digits := strings.ReplaceAll(display[start:end], thousand, "")
	if len(digits) <= 3 {
		return display
	}

	head, groups := digits[:len(digits)-3], []string{digits[len(digits)-3:]}
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return display[:start] + strings.Join(groups, thousand) + display[end:]
}

// Percent renders a signed change: +20.00%, -3.50%.
func Percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// Share renders an unsigned weight such as a portfolio percentage.
func Share(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

func OptionalFloat(v *float64) string {
	if v == nil || *v == 0 {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func OptionalString(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}

// Trend is the css class for a gain (including zero) or a loss.
func Trend(v float64) string {
	if v >= 0 {
		return "profit"
	}
	return "loss"
}

// Clock is the local time of day of the last update.
func Clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("3:04:05 PM")
}

func Quantity(v float64) string {
	return fmt.Sprintf("%g", v)
}

// Page writes the full dashboard document for snap.
func Page(w io.Writer, snap models.Snapshot) error {
	return page.Execute(w, snap)
}

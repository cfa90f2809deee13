package render

import (
	"bytes"
	"html"
	"strings"
	"testing"
	"time"

	"github.com/alim08/fin_folio/pkg/models"
)

func TestFormatters(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"money", Money(1200), "₹1,200.00"},
		{"money rounds", Money(1234.567), "₹1,234.57"},
		{"money negative", Money(-200), "-₹200.00"},
		{"money lakh", Money(745000), "₹7,45,000.00"},
		{"money crore", Money(99999999), "₹9,99,99,999.00"},
		{"money negative lakh", Money(-1234567.5), "-₹12,34,567.50"},
		{"money paise", Money(0.5), "₹0.50"},
		{"gain", Percent(20), "+20.00%"},
		{"zero is gain", Percent(0), "+0.00%"},
		{"loss", Percent(-3.456), "-3.46%"},
		{"share", Share(12.5), "12.50%"},
		{"nil pe", OptionalFloat(nil), "N/A"},
		{"zero pe", OptionalFloat(models.Float(0)), "N/A"},
		{"pe", OptionalFloat(models.Float(25.456)), "25.46"},
		{"nil earnings", OptionalString(nil), "N/A"},
		{"earnings", OptionalString(models.String("Q2 FY25")), "Q2 FY25"},
		{"qty", Quantity(15), "15"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Errorf("got %q; want %q", c.got, c.want)
			}
		})
	}
}

func TestTrend(t *testing.T) {
	if Trend(0) != "profit" || Trend(-0.01) != "loss" {
		t.Error("zero must render as a gain, negatives as a loss")
	}
}

func TestPage(t *testing.T) {
	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	stock := models.EnrichedHolding{
		Holding: models.Holding{ID: "1", Particulars: "HDFC Bank", PurchasePrice: 100, Quantity: 10,
			Sector: "Financial Sector", Exchange: models.NSE, Symbol: "HDFCBANK"},
		Investment: 1000, PortfolioPercentage: 100, CMP: 120, PresentValue: 1200,
		GainLoss: 200, GainLossPercentage: 20,
	}
	snap := models.Snapshot{
		Stocks: []models.EnrichedHolding{stock},
		Sectors: []models.SectorSummary{{Sector: "Financial Sector", TotalInvestment: 1000,
			TotalPresentValue: 1200, GainLoss: 200, GainLossPercentage: 20, Stocks: []models.EnrichedHolding{stock}}},
		Totals:     models.PortfolioTotals{TotalInvestment: 1000, TotalPresentValue: 1200, TotalGainLoss: 200, TotalGainLossPercentage: 20},
		LastUpdate: &now,
		Error:      "Failed to fetch market data from API",
	}

	var buf bytes.Buffer
	if err := Page(&buf, snap); err != nil {
		t.Fatalf("Page: %v", err)
	}
	// html/template escapes '+' as &#43;, which the browser shows as '+'.
	out := html.UnescapeString(buf.String())
	for _, want := range []string{"HDFC Bank", "₹1,200.00", "+20.00%", "N/A",
		"Failed to fetch market data from API", "Last updated", `action="/refresh"`, "Sector Summary"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPage_Loading(t *testing.T) {
	var buf bytes.Buffer
	if err := Page(&buf, models.Snapshot{Loading: true}); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if !strings.Contains(buf.String(), "Loading portfolio data") {
		t.Error("loading state not rendered")
	}
	if strings.Contains(buf.String(), "Error loading data") {
		t.Error("no error banner expected")
	}
}

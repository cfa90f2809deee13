package quote

import "testing"

const samplePage = `<html><body>
<div class="YMlKec fxKbKc" data-last-price="3512.45" data-currency-code="INR">₹3,512.45</div>
<div class="mfs7Fc">P/E ratio</div><div class="P6K39c">27.91</div>
<div class="mfs7Fc">Latest earnings</div><div class="P6K39c">Jul 10, 2025</div>
</body></html>`

func TestRegexExtractor_AllFields(t *testing.T) {
	f := RegexExtractor{}.Extract([]byte(samplePage))
	if f.Price == nil || *f.Price != 3512.45 {
		t.Errorf("Price = %v; want 3512.45", f.Price)
	}
	if f.PERatio == nil || *f.PERatio != 27.91 {
		t.Errorf("PERatio = %v; want 27.91", f.PERatio)
	}
	if f.LatestEarnings == nil || *f.LatestEarnings != "Jul 10, 2025" {
		t.Errorf("LatestEarnings = %v", f.LatestEarnings)
	}
}

func TestRegexExtractor_PartialPage(t *testing.T) {
	cases := []struct {
		name      string
		page      string
		wantPrice bool
		wantPE    bool
	}{
		{"empty", ``, false, false},
		{"price only", `<div data-last-price="100.5"></div>`, true, false},
		{"pe dash", `<div>P/E ratio</div><div class="x">-</div>`, false, false},
		{"pe with commas", `<div>P/E ratio</div><div class="x">1,204.10</div>`, false, true},
		{"garbage price", `<div data-last-price="n/a"></div>`, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := RegexExtractor{}.Extract([]byte(c.page))
			if (f.Price != nil) != c.wantPrice {
				t.Errorf("Price = %v; want present=%v", f.Price, c.wantPrice)
			}
			if (f.PERatio != nil) != c.wantPE {
				t.Errorf("PERatio = %v; want present=%v", f.PERatio, c.wantPE)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1,234.50":   1234.5,
		"₹1,234.50":  1234.5,
		" 42 ":       42,
		"-3.2":       -3.2,
	}
	for in, want := range cases {
		got := parseNumber(in)
		if got == nil || *got != want {
			t.Errorf("parseNumber(%q) = %v; want %v", in, got, want)
		}
	}
	if parseNumber("-") != nil {
		t.Error(`parseNumber("-") should be nil`)
	}
}

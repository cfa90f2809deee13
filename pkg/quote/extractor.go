package quote

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Fields is what an Extractor could recover from a quote page. Any field may be nil.
type Fields struct {
	Price          *float64
	PERatio        *float64
	LatestEarnings *string
}

// Extractor turns an opaque quote page into Fields. Missing markup is not an error.
type Extractor interface {
	Extract(page []byte) Fields
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(page []byte) Fields

func (f ExtractorFunc) Extract(page []byte) Fields { return f(page) }

var (
	lastPricePattern = regexp.MustCompile(`data-last-price="([^"]+)"`)
	peRatioPattern   = regexp.MustCompile(`P/E ratio</div><div[^>]*>([^<]+)<`)
	earningsPattern  = regexp.MustCompile(`(?i)(?:latest\s+)?earnings(?:\s+date)?</div><div[^>]*>([^<]+)<`)
)

// RegexExtractor reads the attribute and adjacent-label markup of the public quote page.
type RegexExtractor struct{}

func (RegexExtractor) Extract(page []byte) Fields {
	var f Fields
	if m := lastPricePattern.FindSubmatch(page); m != nil {
		f.Price = parseNumber(string(m[1]))
	}
	if m := peRatioPattern.FindSubmatch(page); m != nil {
		f.PERatio = parseNumber(string(m[1]))
	}
	if m := earningsPattern.FindSubmatch(page); m != nil {
		if label := strings.TrimSpace(html.UnescapeString(string(m[1]))); label != "" && label != "-" {
			f.LatestEarnings = &label
		}
	}
	return f
}

// parseNumber accepts "1,234.50", "₹1,234.50" and "-" (nil).
func parseNumber(s string) *float64 {
	s = strings.TrimSpace(html.UnescapeString(s))
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && r != '-' && r != '.'
	})
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

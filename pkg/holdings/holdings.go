// Package holdings loads the static portfolio and answers exchange lookups.
package holdings

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/alim08/fin_folio/pkg/models"
)

//go:embed portfolio.json
var bundled []byte

// Table is the read-only holdings list plus a symbol index.
type Table struct {
	holdings []models.Holding
	bySymbol map[string]models.Exchange
}

// Bundled returns the holdings list compiled into the binary.
func Bundled() (*Table, error) {
	return Parse(bundled, ".json")
}

// Load reads holdings from path, choosing the codec by extension (.json, .yaml, .yml).
// An empty path yields the bundled list.
func Load(path string) (*Table, error) {
	if path == "" {
		return Bundled()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holdings %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates a holdings document.
func Parse(data []byte, ext string) (*Table, error) {
	var list []models.Holding
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode holdings yaml: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode holdings json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported holdings format %q", ext)
	}
	return New(list)
}

// New validates list and builds a Table. The first holding wins when a symbol repeats.
func New(list []models.Holding) (*Table, error) {
	t := &Table{
		holdings: make([]models.Holding, 0, len(list)),
		bySymbol: make(map[string]models.Exchange, len(list)),
	}
	ids := make(map[string]bool, len(list))
	for _, h := range list {
		h.Sanitize()
		if err := h.Validate(); err != nil {
			return nil, err
		}
		if ids[h.ID] {
			return nil, fmt.Errorf("duplicate holding id %q", h.ID)
		}
		ids[h.ID] = true
		if _, ok := t.bySymbol[h.Symbol]; !ok {
			t.bySymbol[h.Symbol] = h.Exchange
		}
		t.holdings = append(t.holdings, h)
	}
	return t, nil
}

// All returns a copy of the holdings in file order.
func (t *Table) All() []models.Holding {
	out := make([]models.Holding, len(t.holdings))
	copy(out, t.holdings)
	return out
}

// Symbols returns each holding's symbol in file order.
func (t *Table) Symbols() []string {
	out := make([]string, len(t.holdings))
	for i, h := range t.holdings {
		out[i] = h.Symbol
	}
	return out
}

// ExchangeFor resolves a symbol's exchange, defaulting to NSE when unknown.
func (t *Table) ExchangeFor(symbol string) models.Exchange {
	if ex, ok := t.bySymbol[symbol]; ok {
		return ex
	}
	return models.DefaultExchange
}

// Len is the number of holdings.
func (t *Table) Len() int { return len(t.holdings) }

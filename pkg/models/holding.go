package models

import (
    "fmt"

    "github.com/alim08/fin_folio/pkg/validation"
)

// Exchange is one of the two markets a holding can trade on.
type Exchange string

const (
    NSE Exchange = "NSE"
    BSE Exchange = "BSE"

    DefaultExchange = NSE
)

// ParseExchange maps user input to an Exchange, falling back to DefaultExchange.
func ParseExchange(s string) Exchange {
    switch Exchange(validation.NormalizeSymbol(s)) {
    case BSE:
        return BSE
    default:
        return DefaultExchange
    }
}

// Holding is one line item of the tracked portfolio, loaded once from static config.
type Holding struct {
    ID            string   `json:"id" yaml:"id" validate:"required"`
    Particulars   string   `json:"particulars" yaml:"particulars" validate:"required"`
    PurchasePrice float64  `json:"purchasePrice" yaml:"purchasePrice" validate:"gt=0"`
    Quantity      float64  `json:"quantity" yaml:"quantity" validate:"gt=0"`
    Sector        string   `json:"sector" yaml:"sector" validate:"required,sector"`
    Exchange      Exchange `json:"exchange" yaml:"exchange" validate:"required,exchange"`
    Symbol        string   `json:"symbol" yaml:"symbol" validate:"required,ticker"`
}

// Validate validates the Holding struct
func (h Holding) Validate() error {
    if errors := validation.ValidateStruct(h); len(errors) > 0 {
        return fmt.Errorf("holding %q: %w", h.ID, errors)
    }
    return nil
}

// Sanitize trims free-text fields
func (h *Holding) Sanitize() {
    h.ID = validation.SanitizeString(h.ID)
    h.Particulars = validation.SanitizeString(h.Particulars)
    h.Sector = validation.SanitizeString(h.Sector)
    h.Symbol = validation.NormalizeSymbol(h.Symbol)
    h.Exchange = Exchange(validation.NormalizeSymbol(string(h.Exchange)))
}

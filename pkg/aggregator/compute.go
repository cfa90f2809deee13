// Package aggregator turns holdings plus market quotes into dashboard metrics.
package aggregator

import (
	"github.com/shopspring/decimal"

	"github.com/alim08/fin_folio/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Portfolio is the full recomputation for one refresh cycle.
type Portfolio struct {
	Stocks  []models.EnrichedHolding
	Sectors []models.SectorSummary
	Totals  models.PortfolioTotals
}

// Compute is a pure function of holdings and quotes. A holding without a usable
// price is valued at its purchase price.
func Compute(holdings []models.Holding, quotes []models.MarketQuote) Portfolio {
	bySymbol := make(map[string]models.MarketQuote, len(quotes))
	for _, q := range quotes {
		if _, seen := bySymbol[q.Symbol]; !seen {
			bySymbol[q.Symbol] = q
		}
	}

	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(investmentOf(h))
	}

	stocks := make([]models.EnrichedHolding, 0, len(holdings))
	var totalPresent decimal.Decimal
	for _, h := range holdings {
		e, present := enrich(h, bySymbol[h.Symbol], total)
		totalPresent = totalPresent.Add(present)
		stocks = append(stocks, e)
	}

	return Portfolio{
		Stocks:  stocks,
		Sectors: GroupBySector(stocks),
		Totals: models.PortfolioTotals{
			TotalInvestment:         total.InexactFloat64(),
			TotalPresentValue:       totalPresent.InexactFloat64(),
			TotalGainLoss:           totalPresent.Sub(total).InexactFloat64(),
			TotalGainLossPercentage: percent(totalPresent.Sub(total), total),
		},
	}
}

func enrich(h models.Holding, q models.MarketQuote, totalInvestment decimal.Decimal) (models.EnrichedHolding, decimal.Decimal) {
	investment := investmentOf(h)
	cmp := decimal.NewFromFloat(h.PurchasePrice)
	if q.CMP != nil && *q.CMP != 0 {
		cmp = decimal.NewFromFloat(*q.CMP)
	}
	present := cmp.Mul(decimal.NewFromFloat(h.Quantity))
	gain := present.Sub(investment)

	return models.EnrichedHolding{
		Holding:             h,
		Investment:          investment.InexactFloat64(),
		PortfolioPercentage: percent(investment, totalInvestment),
		CMP:                 cmp.InexactFloat64(),
		PresentValue:        present.InexactFloat64(),
		GainLoss:            gain.InexactFloat64(),
		GainLossPercentage:  percent(gain, investment),
		PERatio:             nonZero(q.PERatio),
		LatestEarnings:      nonEmpty(q.LatestEarnings),
	}, present
}

// GroupBySector aggregates holdings per sector, in order of first appearance.
func GroupBySector(stocks []models.EnrichedHolding) []models.SectorSummary {
	index := make(map[string]int)
	out := []models.SectorSummary{}
	var invest, present []decimal.Decimal

	for _, s := range stocks {
		i, ok := index[s.Sector]
		if !ok {
			i = len(out)
			index[s.Sector] = i
			out = append(out, models.SectorSummary{Sector: s.Sector})
			invest = append(invest, decimal.Zero)
			present = append(present, decimal.Zero)
		}
		out[i].Stocks = append(out[i].Stocks, s)
		invest[i] = invest[i].Add(decimal.NewFromFloat(s.Investment))
		present[i] = present[i].Add(decimal.NewFromFloat(s.PresentValue))
	}

	for i := range out {
		gain := present[i].Sub(invest[i])
		out[i].TotalInvestment = invest[i].InexactFloat64()
		out[i].TotalPresentValue = present[i].InexactFloat64()
		out[i].GainLoss = gain.InexactFloat64()
		out[i].GainLossPercentage = percent(gain, invest[i])
	}
	return out
}

func investmentOf(h models.Holding) decimal.Decimal {
	return decimal.NewFromFloat(h.PurchasePrice).Mul(decimal.NewFromFloat(h.Quantity))
}

// percent is part/whole*100, or 0 when whole is zero.
func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Mul(hundred).DivRound(whole, 8).InexactFloat64()
}

func nonZero(v *float64) *float64 {
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

package models

import "time"

// EnrichedHolding is a Holding plus the metrics derived from its latest quote.
type EnrichedHolding struct {
    Holding
    Investment          float64  `json:"investment"`
    PortfolioPercentage float64  `json:"portfolioPercentage"`
    CMP                 float64  `json:"cmp"`
    PresentValue        float64  `json:"presentValue"`
    GainLoss            float64  `json:"gainLoss"`
    GainLossPercentage  float64  `json:"gainLossPercentage"`
    PERatio             *float64 `json:"peRatio"`
    LatestEarnings      *string  `json:"latestEarnings"`
}

// SectorSummary aggregates every holding sharing a sector label.
type SectorSummary struct {
    Sector             string            `json:"sector"`
    TotalInvestment    float64           `json:"totalInvestment"`
    TotalPresentValue  float64           `json:"totalPresentValue"`
    GainLoss           float64           `json:"gainLoss"`
    GainLossPercentage float64           `json:"gainLossPercentage"`
    Stocks             []EnrichedHolding `json:"stocks"`
}

// PortfolioTotals is the overview across all holdings.
type PortfolioTotals struct {
    TotalInvestment         float64 `json:"totalInvestment"`
    TotalPresentValue       float64 `json:"totalPresentValue"`
    TotalGainLoss           float64 `json:"totalGainLoss"`
    TotalGainLossPercentage float64 `json:"totalGainLossPercentage"`
}

// Snapshot is what the dashboard publishes after each refresh cycle.
type Snapshot struct {
    Stocks     []EnrichedHolding `json:"stocks"`
    Sectors    []SectorSummary   `json:"sectors"`
    Totals     PortfolioTotals   `json:"totals"`
    LastUpdate *time.Time        `json:"lastUpdate"`
    Loading    bool              `json:"loading"`
    Error      string            `json:"error,omitempty"`
}

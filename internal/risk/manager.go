package risk

import (
	"fmt"

	"paperTrader/internal/domain"
)

// RiskConfig holds configuration for the circuit breakers.
type RiskConfig struct {
	MaxTradesPerAsset int
	StartingCapital   float64
	MaxDrawdownPct    float64 // Percent of starting capital, e.g. 10 for 10%
}

// RiskManager evaluates the per-asset trade cap and the portfolio drawdown limit.
// It holds no trading state of its own.
type RiskManager struct {
	config RiskConfig
}

// NewRiskManager creates a new risk manager instance
func NewRiskManager(config RiskConfig) (*RiskManager, error) {
	if config.MaxTradesPerAsset <= 0 {
		return nil, fmt.Errorf("max trades per asset must be positive")
	}
	if config.StartingCapital <= 0 {
		return nil, fmt.Errorf("starting capital must be positive")
	}
	if config.MaxDrawdownPct <= 0 {
		return nil, fmt.Errorf("max drawdown percent must be positive")
	}
	return &RiskManager{config: config}, nil
}

// MaxTradesReached checks if the asset has used up its trade allowance.
func (r *RiskManager) MaxTradesReached(state *domain.AssetState) bool {
	return MaxTradesReached(state, r.config.MaxTradesPerAsset)
}

// DrawdownExceeded checks if realized losses across all assets breach the limit.
func (r *RiskManager) DrawdownExceeded(states []*domain.AssetState) bool {
	return DrawdownExceeded(states, r.config.StartingCapital, r.config.MaxDrawdownPct)
}

// DrawdownLimit returns the (negative) total PnL below which trading halts.
func (r *RiskManager) DrawdownLimit() float64 {
	return -r.config.StartingCapital * r.config.MaxDrawdownPct / 100
}

// MaxTradesReached reports whether TradeCount has hit maxTrades.
// Exits count against the same cap, so a capped asset holding a position keeps it.
func MaxTradesReached(state *domain.AssetState, maxTrades int) bool {
	return state.TradeCount >= maxTrades
}

// DrawdownExceeded reports whether the summed cumulative PnL is strictly
// below -startingCapital * maxDrawdownPct / 100.
func DrawdownExceeded(states []*domain.AssetState, startingCapital, maxDrawdownPct float64) bool {
	return TotalPnL(states) < -startingCapital*maxDrawdownPct/100
}

// TotalPnL sums realized PnL across states.
func TotalPnL(states []*domain.AssetState) float64 {
	total := 0.0
	for _, s := range states {
		total += s.CumulativePnL
	}
	return total
}

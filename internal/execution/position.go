package execution

import (
	"time"

	"paperTrader/internal/domain"
)

// Params holds the per-asset execution settings.
type Params struct {
	NotionalUSD   float64 // Fixed position notional; size = NotionalUSD / mid
	TakeProfitPct float64 // e.g. 0.05 for 5%
	StopLossPct   float64 // e.g. 0.05 for 5%
}

// Evaluate runs one step of the FLAT/LONG state machine for an asset and
// returns the trade it produced, or nil when the state did not change.
// State is only mutated after a fill price was estimated, so a failed
// estimate leaves the asset exactly as it was, as does a mid that is not a
// finite positive price.
func Evaluate(state *domain.AssetState, signal int, mid float64, book domain.OrderBook, p Params) *domain.TradeRecord {
	if !domain.ValidPrice(mid) {
		return nil
	}
	size := p.NotionalUSD / mid

	switch state.Position {
	case domain.Flat:
		if signal != domain.SignalLong {
			return nil
		}
		px, ok := EstimateExecutionPrice(book, domain.Buy, size)
		if !ok {
			return nil
		}

		state.Position = domain.Long
		state.EntryPrice = &px
		state.TradeCount++

		return &domain.TradeRecord{
			Direction:      domain.Buy,
			ExecutionPrice: px,
			MidPrice:       mid,
			Size:           size,
			ExitReason:     domain.ExitReasonNone,
			Timestamp:      time.Now().UTC(),
		}

	case domain.Long:
		if state.EntryPrice == nil {
			return nil
		}
		entry := *state.EntryPrice
		reason, exit := ExitReasonFor(entry, mid, signal, p)
		if !exit {
			return nil
		}
		px, ok := EstimateExecutionPrice(book, domain.Sell, size)
		if !ok {
			return nil
		}

		pnl := (px - entry) * size
		state.CumulativePnL += pnl
		state.Position = domain.Flat
		state.EntryPrice = nil
		state.TradeCount++

		return &domain.TradeRecord{
			Direction:      domain.Sell,
			ExecutionPrice: px,
			MidPrice:       mid,
			Size:           size,
			RealizedPnL:    &pnl,
			ExitReason:     reason,
			Timestamp:      time.Now().UTC(),
		}
	}
	return nil
}

// ExitReasonFor decides whether a long entered at entry should be closed at mid.
// Take-profit wins over stop-loss, which wins over a trend exit.
func ExitReasonFor(entry, mid float64, signal int, p Params) (domain.ExitReason, bool) {
	pnlPct := (mid - entry) / entry

	switch {
	case pnlPct >= p.TakeProfitPct:
		return domain.ExitReasonTakeProfit, true
	case pnlPct <= -p.StopLossPct:
		return domain.ExitReasonStopLoss, true
	case signal == domain.SignalFlat:
		return domain.ExitReasonTrendExit, true
	}
	return domain.ExitReasonNone, false
}

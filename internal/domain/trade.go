package domain

import "time"

// TradeRecord describes one simulated fill produced by the position state machine.
type TradeRecord struct {
	Direction      OrderSide
	ExecutionPrice float64  // VWAP estimated from the order book
	MidPrice       float64  // Reference mid at decision time
	Size           float64  // Base asset quantity
	RealizedPnL    *float64 // Set on exits only
	ExitReason     ExitReason
	Timestamp      time.Time
}

// IsExit checks if the record closed a position.
func (t *TradeRecord) IsExit() bool {
	return t.Direction == Sell
}

// PnL returns the realized PnL, or 0 for entries.
func (t *TradeRecord) PnL() float64 {
	if t.RealizedPnL == nil {
		return 0
	}
	return *t.RealizedPnL
}

// Slippage is the signed distance between the estimated fill and the mid.
func (t *TradeRecord) Slippage() float64 {
	return t.ExecutionPrice - t.MidPrice
}

// JournalEntry is a trade as persisted by the trade journal.
type JournalEntry struct {
	ID        int64
	SessionID string
	Timestamp time.Time
	Asset     string
	Signal    int
	Position  PositionState
	Trade     TradeRecord
}

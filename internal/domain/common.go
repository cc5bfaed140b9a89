package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// PositionState represents the state of an asset's paper position.
type PositionState string

const (
	Flat PositionState = "FLAT"
	Long PositionState = "LONG"
)

// ExitReason indicates why a position was closed. Entries carry ExitReasonNone.
type ExitReason string

const (
	ExitReasonNone       ExitReason = ""
	ExitReasonTakeProfit ExitReason = "TAKE_PROFIT"
	ExitReasonStopLoss   ExitReason = "STOP_LOSS"
	ExitReasonTrendExit  ExitReason = "TREND_EXIT"
)

// Signal values produced by the strategy.
const (
	SignalFlat = 0
	SignalLong = 1
)

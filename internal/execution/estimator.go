package execution

import "paperTrader/internal/domain"

// EstimateExecutionPrice simulates a market order of size against one side
// of the book and returns the volume-weighted average fill price.
// BUY consumes asks, SELL consumes bids, in the order the levels are given.
//
// The second return value is false when the book is malformed or nothing
// could be filled. If size exceeds the visible depth the blended price of
// the available liquidity is returned.
func EstimateExecutionPrice(book domain.OrderBook, side domain.OrderSide, size float64) (float64, bool) {
	if book.IsMalformed() {
		return 0, false
	}

	levels := book.Bids()
	if side == domain.Buy {
		levels = book.Asks()
	}

	remaining := size
	var cost, filled float64
	for _, lvl := range levels {
		take := lvl.Size
		if remaining < take {
			take = remaining
		}
		cost += take * lvl.Price
		filled += take
		remaining -= take

		if remaining <= 0 {
			break
		}
	}

	if filled == 0 {
		return 0, false
	}
	return cost / filled, true
}

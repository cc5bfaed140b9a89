package domain

import "math"

// Level is resting liquidity at a single price point.
type Level struct {
	Price float64
	Size  float64
}

// OrderBook is an L2 snapshot. Levels is expected to hold exactly two sides,
// bids (descending price) then asks (ascending price). Any other shape is
// malformed but still a valid value.
type OrderBook struct {
	Asset  string
	Levels [][]Level
}

// NewOrderBook builds a well-formed book from bids and asks.
func NewOrderBook(asset string, bids, asks []Level) OrderBook {
	return OrderBook{Asset: asset, Levels: [][]Level{bids, asks}}
}

// IsMalformed checks if the book does not contain exactly two sides.
func (b OrderBook) IsMalformed() bool {
	return len(b.Levels) != 2
}

// Bids returns the bid side, or nil for a malformed book.
func (b OrderBook) Bids() []Level {
	if b.IsMalformed() {
		return nil
	}
	return b.Levels[0]
}

// Asks returns the ask side, or nil for a malformed book.
func (b OrderBook) Asks() []Level {
	if b.IsMalformed() {
		return nil
	}
	return b.Levels[1]
}

// ValidPrice reports whether v is finite and positive.
func ValidPrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Valid reports whether the level has a usable price and a finite, non-negative size.
func (l Level) Valid() bool {
	return ValidPrice(l.Price) && l.Size >= 0 && !math.IsInf(l.Size, 1)
}

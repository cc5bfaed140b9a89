package execution

import (
	"testing"

	"paperTrader/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateExecutionPrice(t *testing.T) {
	bids := []domain.Level{{Price: 99, Size: 1}, {Price: 98, Size: 3}}
	asks := []domain.Level{{Price: 100, Size: 1}, {Price: 101, Size: 2}}
	book := domain.NewOrderBook("BTC", bids, asks)

	tests := []struct {
		name     string
		book     domain.OrderBook
		side     domain.OrderSide
		size     float64
		expected float64
		expectOK bool
	}{
		{name: "buy walks two ask levels", book: book, side: domain.Buy, size: 2, expected: 100.5, expectOK: true},
		{name: "buy inside best level", book: book, side: domain.Buy, size: 0.5, expected: 100, expectOK: true},
		{name: "buy exceeding depth blends what is available", book: book, side: domain.Buy, size: 10, expected: 302.0 / 3, expectOK: true},
		{name: "sell walks bids", book: book, side: domain.Sell, size: 2, expected: 98.5, expectOK: true},
		{name: "exact depth fill", book: book, side: domain.Sell, size: 4, expected: (99 + 98*3) / 4.0, expectOK: true},
		{name: "one sided book is malformed", book: domain.OrderBook{Levels: [][]domain.Level{bids}}, side: domain.Buy, size: 1, expectOK: false},
		{name: "three sided book is malformed", book: domain.OrderBook{Levels: [][]domain.Level{bids, asks, asks}}, side: domain.Buy, size: 1, expectOK: false},
		{name: "nil levels", book: domain.OrderBook{}, side: domain.Sell, size: 1, expectOK: false},
		{name: "empty matching side", book: domain.NewOrderBook("BTC", bids, nil), side: domain.Buy, size: 1, expectOK: false},
		{name: "zero size levels", book: domain.NewOrderBook("BTC", []domain.Level{{Price: 99, Size: 0}}, asks), side: domain.Sell, size: 1, expectOK: false},
		{name: "zero order size", book: book, side: domain.Buy, size: 0, expectOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			px, ok := EstimateExecutionPrice(tt.book, tt.side, tt.size)
			require.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.InDelta(t, tt.expected, px, 1e-9)
			}
		})
	}
}

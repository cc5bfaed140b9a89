package ports

import (
	"context"

	"paperTrader/internal/domain"
)

// MarketDataClient supplies the prices and books the trading loop consumes.
// Implementations must not retry; transport failures are returned to the caller.
type MarketDataClient interface {
	// FetchMidPrices returns the current mid price for every asset the venue knows.
	FetchMidPrices(ctx context.Context) (map[string]float64, error)

	// FetchOrderBook returns an L2 snapshot for one asset.
	// A malformed book is returned as is, not as an error.
	FetchOrderBook(ctx context.Context, asset string) (domain.OrderBook, error)
}

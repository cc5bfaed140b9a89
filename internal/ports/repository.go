package ports

import (
	"context"

	"paperTrader/internal/domain"
)

// TradeSink is an append-only destination for executed paper trades.
type TradeSink interface {
	// LogTrade records a trade together with the post-trade position and the signal that produced it.
	LogTrade(ctx context.Context, asset string, trade *domain.TradeRecord, position domain.PositionState, signal int) error
	// Close flushes and releases the underlying resource.
	Close() error
}

// TradeJournal is a queryable TradeSink.
type TradeJournal interface {
	TradeSink
	// FindByAsset retrieves the most recent trades for an asset, newest first, up to a limit.
	FindByAsset(ctx context.Context, asset string, limit int) ([]*domain.JournalEntry, error)
	// FindBySession retrieves all trades of a session in insertion order.
	FindBySession(ctx context.Context, sessionID string) ([]*domain.JournalEntry, error)
	// FindAll retrieves every trade in insertion order.
	FindAll(ctx context.Context) ([]*domain.JournalEntry, error)
	// GetTotalRealizedPnL sums realized PnL over all exits.
	GetTotalRealizedPnL(ctx context.Context) (float64, error)
}

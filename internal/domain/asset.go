package domain

import "fmt"

// AssetState holds the paper position and realized PnL for one tracked asset.
// EntryPrice is set if and only if Position is Long.
type AssetState struct {
	Asset         string
	Position      PositionState
	EntryPrice    *float64
	CumulativePnL float64
	TradeCount    int // Completed entries plus exits
}

// NewAssetState creates a flat state with no trades.
func NewAssetState(asset string) *AssetState {
	return &AssetState{
		Asset:    asset,
		Position: Flat,
	}
}

// IsLong checks if the asset currently holds a long position.
func (s *AssetState) IsLong() bool {
	return s.Position == Long
}

// Validate reports a broken position/entry price combination.
func (s *AssetState) Validate() error {
	switch {
	case s.Position == Long && s.EntryPrice == nil:
		return fmt.Errorf("asset %s is LONG without an entry price", s.Asset)
	case s.Position == Flat && s.EntryPrice != nil:
		return fmt.Errorf("asset %s is FLAT with entry price %f", s.Asset, *s.EntryPrice)
	case s.Position != Long && s.Position != Flat:
		return fmt.Errorf("asset %s has unknown position %q", s.Asset, s.Position)
	}
	return nil
}

// Clone returns a deep copy safe to hand to readers outside the trading loop.
func (s *AssetState) Clone() AssetState {
	c := *s
	if s.EntryPrice != nil {
		entry := *s.EntryPrice
		c.EntryPrice = &entry
	}
	return c
}

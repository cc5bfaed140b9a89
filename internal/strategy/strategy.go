package strategy

import (
	"context"
	"fmt"
	"sort"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"
	"paperTrader/internal/strategy/indicators"
)

// VolRSILongThreshold is the volatility regime level above which longs are allowed.
const VolRSILongThreshold = 60.0

// Config holds parameters for the trend/volatility strategy.
type Config struct {
	PriceWindow  int // Capacity of the per-asset price history
	VolWindow    int // Capacity of the per-asset volatility history
	EMAWindow    int // EMA smoothing period
	VolRSIWindow int // Oscillator period over the volatility history
}

// Snapshot is the indicator state computed for one asset on one tick.
type Snapshot struct {
	Asset    string
	Price    float64
	EMA      float64
	EMAOK    bool
	VolRSI   float64
	VolRSIOK bool
	Signal   int
}

type assetHistory struct {
	prices *indicators.Window
	vols   *indicators.Window
}

// Strategy keeps bounded price and volatility histories per asset and turns
// each new mid price into a target position.
type Strategy struct {
	cfg       Config
	logger    ports.Logger
	histories map[string]*assetHistory
}

// New creates a new Strategy instance for the given assets.
func New(cfg Config, assets []string, logger ports.Logger) (*Strategy, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if cfg.PriceWindow <= 0 || cfg.VolWindow <= 0 || cfg.EMAWindow <= 0 || cfg.VolRSIWindow <= 0 {
		return nil, fmt.Errorf("strategy windows must be positive")
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("at least one asset is required")
	}

	histories := make(map[string]*assetHistory, len(assets))
	for _, a := range assets {
		histories[a] = &assetHistory{
			prices: indicators.NewWindow(cfg.PriceWindow),
			vols:   indicators.NewWindow(cfg.VolWindow),
		}
	}
	return &Strategy{cfg: cfg, logger: logger, histories: histories}, nil
}

// Assets returns the tracked assets in sorted order.
func (s *Strategy) Assets() []string {
	assets := make([]string, 0, len(s.histories))
	for a := range s.histories {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	return assets
}

// Observe records a new mid price for asset and evaluates the indicators.
func (s *Strategy) Observe(ctx context.Context, asset string, price float64) (Snapshot, error) {
	h, ok := s.histories[asset]
	if !ok {
		return Snapshot{}, fmt.Errorf("observe %s: %w", asset, ports.ErrUnknownAsset)
	}

	h.prices.Push(price)
	prices := h.prices.Values()

	if vol, ok := indicators.ComputeVolatility(prices); ok {
		h.vols.Push(vol)
	}

	snap := Snapshot{Asset: asset, Price: price}
	snap.EMA, snap.EMAOK = indicators.ComputeEMA(prices, s.cfg.EMAWindow)
	snap.VolRSI, snap.VolRSIOK = indicators.ComputeRSI(h.vols.Values(), s.cfg.VolRSIWindow)
	snap.Signal = GenerateSignal(price, snap.EMA, snap.EMAOK, snap.VolRSI, snap.VolRSIOK)

	s.logger.Debug(ctx, "Indicators updated", map[string]interface{}{
		"asset":       asset,
		"price":       price,
		"ema":         snap.EMA,
		"emaReady":    snap.EMAOK,
		"volRSI":      snap.VolRSI,
		"volRSIReady": snap.VolRSIOK,
		"signal":      snap.Signal,
		"history":     h.prices.Len(),
	})
	return snap, nil
}

// GenerateSignal returns SignalLong when price trades above its EMA while
// the volatility regime oscillator is elevated. Missing indicators mean flat.
func GenerateSignal(price, ema float64, emaOK bool, volRSI float64, volRSIOK bool) int {
	trendOK := emaOK && price > ema
	volatilityOK := volRSIOK && volRSI > VolRSILongThreshold
	if trendOK && volatilityOK {
		return domain.SignalLong
	}
	return domain.SignalFlat
}

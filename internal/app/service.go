package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"paperTrader/config"
	"paperTrader/internal/domain"
	"paperTrader/internal/execution"
	"paperTrader/internal/ports"
	"paperTrader/internal/risk"
	"paperTrader/internal/strategy"
	"paperTrader/internal/strategy/analytics"
)

// StopReason explains why the trading loop ended without an error.
type StopReason string

const (
	StopNone       StopReason = ""
	StopDrawdown   StopReason = "drawdown"
	StopMaxRuntime StopReason = "max_runtime"
	StopSignal     StopReason = "signal"
)

// Observer turns a new mid price into indicator values and a signal.
type Observer interface {
	Observe(ctx context.Context, asset string, price float64) (strategy.Snapshot, error)
}

// Option customizes a TradingService.
type Option func(*TradingService)

// WithClock replaces the wall clock and the inter-cycle sleep.
// sleep must return ctx.Err() when ctx is done before d elapses.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *TradingService) {
		if now != nil {
			s.now = now
		}
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// TradingService orchestrates the paper trading loop.
type TradingService struct {
	cfg        *config.Config
	logger     ports.Logger
	marketData ports.MarketDataClient
	sink       ports.TradeSink
	metrics    ports.MetricsRecorder
	strategy   Observer
	risk       *risk.RiskManager
	tracker    *analytics.Tracker

	assets []string
	params map[string]execution.Params

	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	startedAt time.Time

	// State fields
	mu        sync.Mutex // Protects states against concurrent Snapshot readers
	states    map[string]*domain.AssetState
	capWarned map[string]bool
}

// NewTradingService creates a new application service instance.
func NewTradingService(
	cfg *config.Config,
	logger ports.Logger,
	marketData ports.MarketDataClient,
	sink ports.TradeSink,
	metrics ports.MetricsRecorder,
	strat Observer,
	opts ...Option,
) (*TradingService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || marketData == nil || sink == nil || strat == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if len(cfg.Assets) == 0 {
		return nil, fmt.Errorf("configuration must list at least one asset")
	}
	if cfg.Execution.TakeProfitPct <= 0 || cfg.Execution.StopLossPct <= 0 {
		return nil, fmt.Errorf("configuration take profit and stop loss must be positive")
	}
	if cfg.Execution.LoopIntervalSeconds <= 0 {
		return nil, fmt.Errorf("configuration loop interval must be positive")
	}

	rm, err := risk.NewRiskManager(risk.RiskConfig{
		MaxTradesPerAsset: cfg.Risk.MaxTradesPerAsset,
		StartingCapital:   cfg.Risk.StartingCapital,
		MaxDrawdownPct:    cfg.Risk.MaxDrawdownPct,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}

	assets := cfg.AssetNames()
	states := make(map[string]*domain.AssetState, len(assets))
	params := make(map[string]execution.Params, len(assets))
	for _, a := range assets {
		notional := cfg.Assets[a].MaxPositionUSD
		if notional <= 0 {
			return nil, fmt.Errorf("configuration max_position_usd for %s must be positive", a)
		}
		states[a] = domain.NewAssetState(a)
		params[a] = execution.Params{
			NotionalUSD:   notional,
			TakeProfitPct: cfg.Execution.TakeProfitPct,
			StopLossPct:   cfg.Execution.StopLossPct,
		}
	}

	s := &TradingService{
		cfg:        cfg,
		logger:     logger,
		marketData: marketData,
		sink:       sink,
		metrics:    metrics,
		strategy:   strat,
		risk:       rm,
		tracker:    analytics.NewTracker(cfg.Risk.StartingCapital),
		assets:     assets,
		params:     params,
		now:        time.Now,
		sleep:      sleepContext,
		states:     states,
		capWarned:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s, nil
}

// Start runs the loop until a stop condition, an OS signal or a transport error.
func (s *TradingService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting paper trading loop...", map[string]interface{}{
		"assets":       s.assets,
		"loopInterval": s.cfg.Execution.LoopInterval().String(),
		"maxRuntime":   s.cfg.Execution.MaxRuntime.String(),
	})

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Graceful shutdown triggered", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	reason, err := s.Run(ctx)
	s.logSummary(context.WithoutCancel(ctx), reason)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "Trading session ended cleanly.", map[string]interface{}{"reason": string(reason)})
	return nil
}

// Run loops RunCycle and sleeps between cycles. Cancellation of ctx is
// reported as StopSignal rather than as an error.
func (s *TradingService) Run(ctx context.Context) (StopReason, error) {
	s.startedAt = s.now()
	for {
		if ctx.Err() != nil {
			return StopSignal, nil
		}

		reason, err := s.RunCycle(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ports.ErrContextCanceled) {
				return StopSignal, nil
			}
			s.logger.Error(ctx, err, "Trading cycle failed, stopping")
			return StopNone, err
		}
		if reason != StopNone {
			return reason, nil
		}

		if err := s.sleep(ctx, s.cfg.Execution.LoopInterval()); err != nil {
			return StopSignal, nil
		}
	}
}

// RunCycle makes one pass over all assets in sorted order, then evaluates
// the portfolio stop conditions.
func (s *TradingService) RunCycle(ctx context.Context) (StopReason, error) {
	cycleStart := s.now()

	mids, err := s.marketData.FetchMidPrices(ctx)
	if err != nil {
		return StopNone, fmt.Errorf("fetch mid prices: %w", err)
	}

	for _, asset := range s.assets {
		mid, ok := mids[asset]
		if !ok {
			return StopNone, fmt.Errorf("asset %s: %w", asset, ports.ErrMissingPrice)
		}
		if !domain.ValidPrice(mid) {
			return StopNone, fmt.Errorf("asset %s mid %v: %w", asset, mid, ports.ErrMissingPrice)
		}
		if _, err := s.ProcessAsset(ctx, asset, mid); err != nil {
			return StopNone, err
		}
	}
	s.metrics.RecordCycle(s.now().Sub(cycleStart).Seconds())

	// Portfolio-level drawdown stop
	if s.drawdownExceeded() {
		s.logger.Warn(ctx, "Drawdown limit hit. Stopping.", map[string]interface{}{
			"totalPnL": s.TotalPnL(),
			"limit":    s.risk.DrawdownLimit(),
		})
		s.metrics.RecordHalt(string(StopDrawdown))
		return StopDrawdown, nil
	}

	// Max runtime stop
	if elapsed := s.now().Sub(s.startedAt); elapsed > s.cfg.Execution.MaxRuntime {
		s.logger.Info(ctx, "Max runtime reached. Stopping.", map[string]interface{}{"elapsed": elapsed.String()})
		s.metrics.RecordHalt(string(StopMaxRuntime))
		return StopMaxRuntime, nil
	}
	return StopNone, nil
}

// ProcessAsset feeds one mid price through strategy, risk and execution.
// It returns the trade made for the asset this cycle, if any.
func (s *TradingService) ProcessAsset(ctx context.Context, asset string, mid float64) (*domain.TradeRecord, error) {
	params, ok := s.params[asset]
	if !ok {
		return nil, fmt.Errorf("process %s: %w", asset, ports.ErrUnknownAsset)
	}
	if !domain.ValidPrice(mid) {
		return nil, fmt.Errorf("process %s mid %v: %w", asset, mid, ports.ErrMissingPrice)
	}

	snap, err := s.strategy.Observe(ctx, asset, mid)
	if err != nil {
		return nil, fmt.Errorf("observe %s: %w", asset, err)
	}
	s.metrics.RecordMidPrice(asset, mid)
	s.metrics.RecordIndicators(asset, snap.EMA, snap.VolRSI, snap.EMAOK, snap.VolRSIOK)

	s.mu.Lock()
	state := s.states[asset]
	capped := s.risk.MaxTradesReached(state)
	long := state.IsLong()
	s.mu.Unlock()

	// Risk: max trades per asset. A capped asset is skipped entirely, open positions included.
	if capped {
		if long && !s.capWarned[asset] {
			s.capWarned[asset] = true
			s.logger.Warn(ctx, "Trade cap reached while LONG; position can no longer be exited", map[string]interface{}{
				"asset":      asset,
				"tradeCount": state.TradeCount,
			})
		}
		return nil, nil
	}

	book, err := s.marketData.FetchOrderBook(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("fetch order book for %s: %w", asset, err)
	}

	s.mu.Lock()
	trade := execution.Evaluate(state, snap.Signal, mid, book, params)
	post := state.Clone()
	s.mu.Unlock()

	s.logger.Info(ctx, FormatStatus(s.now().UTC(), snap, post.Position, trade))
	s.metrics.RecordState(&post)

	if trade == nil {
		return nil, nil
	}
	s.metrics.RecordTrade(asset, trade)
	s.tracker.Add(asset, trade)
	if err := s.sink.LogTrade(ctx, asset, trade, post.Position, snap.Signal); err != nil {
		s.logger.Error(ctx, err, "Failed to record trade", map[string]interface{}{"asset": asset, "direction": trade.Direction})
	}
	return trade, nil
}

// Snapshot returns a copy of every asset's state in sorted order.
func (s *TradingService) Snapshot() []domain.AssetState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.AssetState, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, s.states[a].Clone())
	}
	return out
}

// TotalPnL sums realized PnL across assets.
func (s *TradingService) TotalPnL() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return risk.TotalPnL(s.stateList())
}

// Performance returns the realized session metrics so far.
func (s *TradingService) Performance() *analytics.PerformanceMetrics {
	return s.tracker.Metrics()
}

func (s *TradingService) drawdownExceeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.risk.DrawdownExceeded(s.stateList())
}

// stateList must be called with mu held.
func (s *TradingService) stateList() []*domain.AssetState {
	list := make([]*domain.AssetState, 0, len(s.states))
	for _, a := range s.assets {
		list = append(list, s.states[a])
	}
	return list
}

func (s *TradingService) logSummary(ctx context.Context, reason StopReason) {
	m := s.tracker.Metrics()
	s.logger.Info(ctx, "Session summary", map[string]interface{}{
		"reason":        string(reason),
		"runtime":       s.now().Sub(s.startedAt).Round(time.Second).String(),
		"closedTrades":  m.TotalTrades,
		"winRate":       m.WinRate,
		"totalPnL":      m.TotalProfit,
		"profitFactor":  m.ProfitFactor,
		"maxDrawdown":   m.MaxDrawdown,
		"finalBalance":  m.FinalBalance,
		"pnlByAsset":    m.ByAsset,
		"openPositions": s.openPositions(),
	})
}

func (s *TradingService) openPositions() []string {
	var open []string
	for _, st := range s.Snapshot() {
		if st.IsLong() {
			open = append(open, st.Asset)
		}
	}
	sort.Strings(open)
	return open
}

// FormatStatus renders the per-asset console line for one cycle.
func FormatStatus(ts time.Time, snap strategy.Snapshot, position domain.PositionState, trade *domain.TradeRecord) string {
	ema := "NA"
	if snap.EMAOK {
		ema = fmt.Sprintf("%.2f", snap.EMA)
	}
	volRSI := "NA"
	if snap.VolRSIOK {
		volRSI = fmt.Sprintf("%.1f", snap.VolRSI)
	}
	signal := string(domain.Flat)
	if snap.Signal == domain.SignalLong {
		signal = string(domain.Long)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | Mid: %.2f | EMA: %s | Vol_RSI: %s | Signal: %s | Position: %s",
		ts.Format(time.TimeOnly), snap.Asset, snap.Price, ema, volRSI, signal, position)

	if trade != nil {
		reason := string(trade.ExitReason)
		if reason == "" {
			reason = "ENTRY"
		}
		fmt.Fprintf(&b, " | TRADE: %s @ %.2f (slip %.2f) [%s]", trade.Direction, trade.ExecutionPrice, trade.Slippage(), reason)
	}
	return b.String()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package analytics

import (
	"sort"

	"paperTrader/internal/domain"
)

// PerformanceMetrics summarizes realized results of a trading session.
type PerformanceMetrics struct {
	TotalTrades          int // Exits only
	WinningTrades        int
	LosingTrades         int
	WinRate              float64
	TotalProfit          float64
	AverageWin           float64
	AverageLoss          float64
	ProfitFactor         float64 // Gross profit / gross loss
	Expectancy           float64
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	MaxDrawdown          float64 // Fraction of peak realized equity
	FinalBalance         float64
	ReturnOnInvestment   float64
	ByAsset              map[string]float64
	ByExitReason         map[domain.ExitReason]int
}

// Tracker accumulates realized trades one at a time in constant memory.
type Tracker struct {
	initialBalance    float64
	balance           float64
	peak              float64
	maxDrawdown       float64
	wins, losses      int
	grossProfit       float64
	grossLoss         float64
	consecutiveWins   int
	consecutiveLosses int
	maxConsecWins     int
	maxConsecLosses   int
	byAsset           map[string]float64
	byReason          map[domain.ExitReason]int
}

// NewTracker creates a tracker whose equity starts at initialBalance.
func NewTracker(initialBalance float64) *Tracker {
	return &Tracker{
		initialBalance: initialBalance,
		balance:        initialBalance,
		peak:           initialBalance,
		byAsset:        make(map[string]float64),
		byReason:       make(map[domain.ExitReason]int),
	}
}

// Add records a trade. Entries are ignored.
func (t *Tracker) Add(asset string, trade *domain.TradeRecord) {
	if trade == nil || !trade.IsExit() {
		return
	}
	pnl := trade.PnL()

	if pnl > 0 {
		t.wins++
		t.grossProfit += pnl
		t.consecutiveWins++
		t.consecutiveLosses = 0
	} else {
		t.losses++
		t.grossLoss -= pnl
		t.consecutiveLosses++
		t.consecutiveWins = 0
	}
	if t.consecutiveWins > t.maxConsecWins {
		t.maxConsecWins = t.consecutiveWins
	}
	if t.consecutiveLosses > t.maxConsecLosses {
		t.maxConsecLosses = t.consecutiveLosses
	}

	t.balance += pnl
	if t.balance > t.peak {
		t.peak = t.balance
	} else if t.peak > 0 {
		if dd := (t.peak - t.balance) / t.peak; dd > t.maxDrawdown {
			t.maxDrawdown = dd
		}
	}

	t.byAsset[asset] += pnl
	t.byReason[trade.ExitReason]++
}

// Metrics returns the summary so far.
func (t *Tracker) Metrics() *PerformanceMetrics {
	m := &PerformanceMetrics{
		TotalTrades:          t.wins + t.losses,
		WinningTrades:        t.wins,
		LosingTrades:         t.losses,
		TotalProfit:          t.balance - t.initialBalance,
		MaxConsecutiveWins:   t.maxConsecWins,
		MaxConsecutiveLosses: t.maxConsecLosses,
		MaxDrawdown:          t.maxDrawdown,
		FinalBalance:         t.balance,
		ByAsset:              make(map[string]float64, len(t.byAsset)),
		ByExitReason:         make(map[domain.ExitReason]int, len(t.byReason)),
	}
	for k, v := range t.byAsset {
		m.ByAsset[k] = v
	}
	for k, v := range t.byReason {
		m.ByExitReason[k] = v
	}

	if m.TotalTrades == 0 {
		return m
	}
	m.WinRate = float64(t.wins) / float64(m.TotalTrades)
	if t.wins > 0 {
		m.AverageWin = t.grossProfit / float64(t.wins)
	}
	if t.losses > 0 {
		m.AverageLoss = -t.grossLoss / float64(t.losses)
	}
	if t.grossLoss > 0 {
		m.ProfitFactor = t.grossProfit / t.grossLoss
	}
	m.Expectancy = m.WinRate*m.AverageWin + (1-m.WinRate)*m.AverageLoss
	if t.initialBalance != 0 {
		m.ReturnOnInvestment = m.TotalProfit / t.initialBalance
	}
	return m
}

// AnalyzeTrades builds metrics from journal entries, replaying them in time order.
func AnalyzeTrades(entries []*domain.JournalEntry, initialBalance float64) *PerformanceMetrics {
	sorted := make([]*domain.JournalEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	tracker := NewTracker(initialBalance)
	for _, e := range sorted {
		trade := e.Trade
		tracker.Add(e.Asset, &trade)
	}
	return tracker.Metrics()
}

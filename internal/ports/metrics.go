package ports

import "paperTrader/internal/domain"

// MetricsRecorder receives per-cycle observations for monitoring.
type MetricsRecorder interface {
	RecordMidPrice(asset string, price float64)
	RecordIndicators(asset string, ema, volRSI float64, emaOK, volRSIOK bool)
	RecordTrade(asset string, trade *domain.TradeRecord)
	RecordState(state *domain.AssetState)
	RecordCycle(seconds float64)
	RecordHalt(reason string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordMidPrice(string, float64) {}
func (NopMetrics) RecordIndicators(string, float64, float64, bool, bool) {}
func (NopMetrics) RecordTrade(string, *domain.TradeRecord) {}
func (NopMetrics) RecordState(*domain.AssetState) {}
func (NopMetrics) RecordCycle(float64) {}
func (NopMetrics) RecordHalt(string) {}

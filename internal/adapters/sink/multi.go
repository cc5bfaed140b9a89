package sink

import (
	"context"
	"errors"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"
)

// MultiSink fans every trade out to several sinks. It implements ports.TradeSink.
type MultiSink struct {
	sinks []ports.TradeSink
}

// NewMultiSink drops nil sinks.
func NewMultiSink(sinks ...ports.TradeSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports the number of wrapped sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

// LogTrade writes to every sink even when an earlier one fails.
func (m *MultiSink) LogTrade(ctx context.Context, asset string, trade *domain.TradeRecord, position domain.PositionState, signal int) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.LogTrade(ctx, asset, trade, position, signal); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

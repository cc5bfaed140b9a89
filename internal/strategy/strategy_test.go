package strategy

import (
	"context"
	"errors"
	"testing"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

func validConfig() Config {
	return Config{PriceWindow: 10, VolWindow: 10, EMAWindow: 3, VolRSIWindow: 2}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		assets  []string
		logger  ports.Logger
		wantErr bool
	}{
		{name: "valid config", cfg: validConfig(), assets: []string{"BTC"}, logger: &mockLogger{}},
		{name: "nil logger", cfg: validConfig(), assets: []string{"BTC"}, logger: nil, wantErr: true},
		{name: "zero price window", cfg: Config{VolWindow: 5, EMAWindow: 3, VolRSIWindow: 2}, assets: []string{"BTC"}, logger: &mockLogger{}, wantErr: true},
		{name: "zero rsi window", cfg: Config{PriceWindow: 5, VolWindow: 5, EMAWindow: 3}, assets: []string{"BTC"}, logger: &mockLogger{}, wantErr: true},
		{name: "no assets", cfg: validConfig(), assets: nil, logger: &mockLogger{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, tt.assets, tt.logger)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestGenerateSignal(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		ema      float64
		emaOK    bool
		volRSI   float64
		volRSIOK bool
		want     int
	}{
		{name: "trend and elevated volatility", price: 101, ema: 100, emaOK: true, volRSI: 70, volRSIOK: true, want: domain.SignalLong},
		{name: "price below ema", price: 99, ema: 100, emaOK: true, volRSI: 70, volRSIOK: true, want: domain.SignalFlat},
		{name: "price equal to ema", price: 100, ema: 100, emaOK: true, volRSI: 70, volRSIOK: true, want: domain.SignalFlat},
		{name: "volatility at threshold", price: 101, ema: 100, emaOK: true, volRSI: 60, volRSIOK: true, want: domain.SignalFlat},
		{name: "volatility just above threshold", price: 101, ema: 100, emaOK: true, volRSI: 60.0001, volRSIOK: true, want: domain.SignalLong},
		{name: "missing ema", price: 101, volRSI: 70, volRSIOK: true, want: domain.SignalFlat},
		{name: "missing vol rsi", price: 101, ema: 100, emaOK: true, want: domain.SignalFlat},
		{name: "nothing available", price: 101, want: domain.SignalFlat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSignal(tt.price, tt.ema, tt.emaOK, tt.volRSI, tt.volRSIOK)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategy_Observe(t *testing.T) {
	ctx := context.Background()
	s, err := New(validConfig(), []string{"ETH", "BTC"}, &mockLogger{})
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC", "ETH"}, s.Assets())

	// First tick: EMA available, no volatility yet.
	snap, err := s.Observe(ctx, "BTC", 100)
	require.NoError(t, err)
	assert.True(t, snap.EMAOK)
	assert.Equal(t, 100.0, snap.EMA)
	assert.False(t, snap.VolRSIOK)
	assert.Equal(t, domain.SignalFlat, snap.Signal)

	// Accelerating rally: volatility keeps rising, so the oscillator saturates.
	for _, p := range []float64{100, 101} {
		snap, err = s.Observe(ctx, "BTC", p)
		require.NoError(t, err)
		assert.False(t, snap.VolRSIOK)
	}
	snap, err = s.Observe(ctx, "BTC", 103)
	require.NoError(t, err)
	require.True(t, snap.VolRSIOK)
	assert.Equal(t, 100.0, snap.VolRSI)
	assert.InDelta(t, 101.75, snap.EMA, 1e-9)
	assert.Equal(t, domain.SignalLong, snap.Signal)

	// Histories are per asset.
	snap, err = s.Observe(ctx, "ETH", 2000)
	require.NoError(t, err)
	assert.False(t, snap.VolRSIOK)

	// A crash below the EMA turns the signal off.
	snap, err = s.Observe(ctx, "BTC", 90)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalFlat, snap.Signal)
}

func TestStrategy_ObserveUnknownAsset(t *testing.T) {
	s, err := New(validConfig(), []string{"BTC"}, &mockLogger{})
	require.NoError(t, err)

	_, err = s.Observe(context.Background(), "DOGE", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrUnknownAsset))
}

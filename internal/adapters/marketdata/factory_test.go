package marketdata

import (
	"context"
	"testing"

	"paperTrader/config"
	"paperTrader/internal/adapters/binanceclient"
	"paperTrader/internal/adapters/hyperliquid"
	"paperTrader/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		check    func(t *testing.T, c ports.MarketDataClient)
		wantErr  error
	}{
		{
			name:     "default is hyperliquid",
			provider: "",
			check: func(t *testing.T, c ports.MarketDataClient) {
				assert.IsType(t, &hyperliquid.Client{}, c)
			},
		},
		{
			name:     "binance",
			provider: ProviderBinance,
			check: func(t *testing.T, c ports.MarketDataClient) {
				assert.IsType(t, &binanceclient.Client{}, c)
			},
		},
		{
			name:     "unknown",
			provider: "kraken",
			wantErr:  ports.ErrConfigurationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(config.MarketDataConfig{Provider: tt.provider}, &mockLogger{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

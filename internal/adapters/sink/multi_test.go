package sink

import (
	"context"
	"errors"
	"testing"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	logged   []string
	closed   int
	logErr   error
	closeErr error
}

func (m *mockSink) LogTrade(ctx context.Context, asset string, trade *domain.TradeRecord, position domain.PositionState, signal int) error {
	m.logged = append(m.logged, asset)
	return m.logErr
}

func (m *mockSink) Close() error {
	m.closed++
	return m.closeErr
}

func TestMultiSink_FanOut(t *testing.T) {
	failing := &mockSink{logErr: errors.New("disk full")}
	healthy := &mockSink{}
	m := NewMultiSink(failing, nil, healthy)
	require.Equal(t, 2, m.Len())

	err := m.LogTrade(context.Background(), "BTC", &domain.TradeRecord{Direction: domain.Buy}, domain.Long, 1)
	assert.EqualError(t, err, "disk full")
	assert.Equal(t, []string{"BTC"}, failing.logged)
	assert.Equal(t, []string{"BTC"}, healthy.logged)
}

func TestMultiSink_Close(t *testing.T) {
	tests := []struct {
		name    string
		sinks   []*mockSink
		wantErr error
	}{
		{
			name:  "all close cleanly",
			sinks: []*mockSink{{}, {}},
		},
		{
			name:    "error joined but every sink closed",
			sinks:   []*mockSink{{closeErr: ports.ErrSinkClosed}, {}},
			wantErr: ports.ErrSinkClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := make([]ports.TradeSink, 0, len(tt.sinks))
			for _, s := range tt.sinks {
				wrapped = append(wrapped, s)
			}
			err := NewMultiSink(wrapped...).Close()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			for _, s := range tt.sinks {
				assert.Equal(t, 1, s.closed)
			}
		})
	}
}

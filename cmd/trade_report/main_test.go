package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"paperTrader/internal/adapters/sqlite"
	"paperTrader/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func seedJournal(t *testing.T, dbPath, session string, base time.Time) {
	t.Helper()
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: dbPath, SessionID: session, Logger: &mockLogger{}})
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	win, loss := 20.0, -5.0
	trades := []struct {
		asset    string
		trade    domain.TradeRecord
		position domain.PositionState
	}{
		{"BTC", domain.TradeRecord{Direction: domain.Buy, ExecutionPrice: 100, MidPrice: 100, Size: 10, Timestamp: base}, domain.Long},
		{"BTC", domain.TradeRecord{Direction: domain.Sell, ExecutionPrice: 102, MidPrice: 102, Size: 10, RealizedPnL: &win, ExitReason: domain.ExitReasonTakeProfit, Timestamp: base.Add(time.Minute)}, domain.Flat},
		{"ETH", domain.TradeRecord{Direction: domain.Buy, ExecutionPrice: 50, MidPrice: 50, Size: 5, Timestamp: base.Add(2 * time.Minute)}, domain.Long},
		{"ETH", domain.TradeRecord{Direction: domain.Sell, ExecutionPrice: 49, MidPrice: 49, Size: 5, RealizedPnL: &loss, ExitReason: domain.ExitReasonStopLoss, Timestamp: base.Add(3 * time.Minute)}, domain.Flat},
		{"SOL", domain.TradeRecord{Direction: domain.Buy, ExecutionPrice: 10, MidPrice: 10, Size: 1, Timestamp: base.Add(4 * time.Minute)}, domain.Long},
	}
	for _, tr := range trades {
		trade := tr.trade
		require.NoError(t, repo.LogTrade(ctx, tr.asset, &trade, tr.position, domain.SignalLong))
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "defaults",
			args: nil,
			want: options{dbPath: "./data/paper_trades.db", capital: 10000, logLevel: "warn"},
		},
		{
			name: "explicit",
			args: []string{"-db", "x.db", "-session", "s1", "-asset", "BTC", "-capital", "500"},
			want: options{dbPath: "x.db", sessionID: "s1", asset: "BTC", capital: 500, logLevel: "warn"},
		},
		{name: "non-positive capital", args: []string{"-capital", "0"}, wantErr: true},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	seedJournal(t, dbPath, "s1", base)

	tests := []struct {
		name        string
		opts        options
		contains    []string
		notContains []string
	}{
		{
			name:     "whole journal",
			opts:     options{dbPath: dbPath, capital: 1000},
			contains: []string{"## Summary (5 journal rows)", "TAKE_PROFIT", "STOP_LOSS", "15.00", "Open at end of journal: [SOL]"},
		},
		{
			name:        "single asset",
			opts:        options{dbPath: dbPath, asset: "BTC", capital: 1000},
			contains:    []string{"## Summary (2 journal rows)", "20.00"},
			notContains: []string{"ETH", "Open at end"},
		},
		{
			name:        "session and asset",
			opts:        options{dbPath: dbPath, sessionID: "s1", asset: "ETH", capital: 1000},
			contains:    []string{"## Summary (2 journal rows)", "-5.00"},
			notContains: []string{"BTC"},
		},
		{
			name:     "unknown session",
			opts:     options{dbPath: dbPath, sessionID: "missing", capital: 1000},
			contains: []string{"No trades found."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, run(context.Background(), tt.opts, &mockLogger{}, &out))
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestOpenPositions(t *testing.T) {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []*domain.JournalEntry{
		{Asset: "BTC", Timestamp: base.Add(time.Minute), Trade: domain.TradeRecord{Direction: domain.Sell}},
		{Asset: "BTC", Timestamp: base, Trade: domain.TradeRecord{Direction: domain.Buy}},
		{Asset: "ETH", Timestamp: base, Trade: domain.TradeRecord{Direction: domain.Buy}},
	}
	assert.Equal(t, []string{"ETH"}, openPositions(entries))
}

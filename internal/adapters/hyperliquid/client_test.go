package hyperliquid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paperTrader/internal/domain"
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

// newTestClient serves handler and records the decoded request bodies.
func newTestClient(t *testing.T, handler func(w http.ResponseWriter, req infoRequest)) (*Client, *[]infoRequest) {
	t.Helper()
	var seen []infoRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req infoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)
		handler(w, req)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Logger: &mockLogger{}})
	require.NoError(t, err)
	return c, &seen
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	c, err := New(Config{Logger: &mockLogger{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, 10*time.Second, c.http.Timeout)
}

func TestClient_FetchMidPrices(t *testing.T) {
	c, seen := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		w.Write([]byte(`{"BTC":"64000.5","ETH":"3100","BAD":"n/a","ZERO":"0","NEG":"-3","NAN":"NaN","INF":"Inf"}`))
	})

	mids, err := c.FetchMidPrices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"BTC": 64000.5, "ETH": 3100}, mids)
	require.Len(t, *seen, 1)
	assert.Equal(t, infoRequest{Type: "allMids"}, (*seen)[0])
}

func TestClient_FetchOrderBook(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantMalformed bool
		wantBids      []domain.Level
		wantAsks      []domain.Level
		wantErr       error
	}{
		{
			name:     "two sides",
			body:     `{"coin":"ETH","time":1,"levels":[[{"px":"99","sz":"1.5","n":2}],[{"px":"101","sz":"2","n":1},{"px":"102","sz":"3","n":4}]]}`,
			wantBids: []domain.Level{{Price: 99, Size: 1.5}},
			wantAsks: []domain.Level{{Price: 101, Size: 2}, {Price: 102, Size: 3}},
		},
		{
			name:          "single side preserved as malformed",
			body:          `{"coin":"ETH","time":1,"levels":[[{"px":"99","sz":"1","n":1}]]}`,
			wantMalformed: true,
		},
		{
			name:    "bad price",
			body:    `{"coin":"ETH","levels":[[{"px":"x","sz":"1","n":1}],[]]}`,
			wantErr: ports.ErrInvalidResponse,
		},
		{
			name:    "zero price level",
			body:    `{"coin":"ETH","levels":[[{"px":"0","sz":"1","n":1}],[{"px":"101","sz":"1","n":1}]]}`,
			wantErr: ports.ErrInvalidResponse,
		},
		{
			name:    "nan size level",
			body:    `{"coin":"ETH","levels":[[{"px":"99","sz":"1","n":1}],[{"px":"101","sz":"NaN","n":1}]]}`,
			wantErr: ports.ErrInvalidResponse,
		},
		{
			name:    "infinite price level",
			body:    `{"coin":"ETH","levels":[[{"px":"Inf","sz":"1","n":1}],[]]}`,
			wantErr: ports.ErrInvalidResponse,
		},
		{
			name:    "not json",
			body:    `<html>`,
			wantErr: ports.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, seen := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
				w.Write([]byte(tt.body))
			})

			book, err := c.FetchOrderBook(context.Background(), "ETH")
			require.Len(t, *seen, 1)
			assert.Equal(t, infoRequest{Type: "l2Book", Coin: "ETH"}, (*seen)[0])
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ETH", book.Asset)
			assert.Equal(t, tt.wantMalformed, book.IsMalformed())
			if !tt.wantMalformed {
				assert.Equal(t, tt.wantBids, book.Bids())
				assert.Equal(t, tt.wantAsks, book.Asks())
			}
		})
	}
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr []error
	}{
		{name: "server error", status: http.StatusInternalServerError, wantErr: []error{ports.ErrExchangeUnavailable}},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: []error{ports.ErrExchangeUnavailable, ports.ErrRateLimited}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
				w.WriteHeader(tt.status)
			})
			_, err := c.FetchMidPrices(context.Background())
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestClient_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Logger: &mockLogger{}})
	require.NoError(t, err)

	_, err = c.FetchMidPrices(context.Background())
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)
}

func TestClient_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, req infoRequest) {
		w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchOrderBook(ctx, "BTC")
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

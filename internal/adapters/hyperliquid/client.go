package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"
)

const (
	// DefaultBaseURL is the public info endpoint.
	DefaultBaseURL = "https://api.hyperliquid.xyz/info"
	defaultTimeout = 10 * time.Second
)

// Client implements ports.MarketDataClient against the Hyperliquid info API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  ports.Logger
}

// Config holds configuration specific to the Hyperliquid adapter.
type Config struct {
	BaseURL    string        // Defaults to DefaultBaseURL
	Timeout    time.Duration // Per request, defaults to 10s
	HTTPClient *http.Client  // Optional, overrides Timeout
	Logger     ports.Logger
}

// New creates a new Hyperliquid market data client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Hyperliquid client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg.Logger.Info(context.Background(), "Hyperliquid client configured", map[string]interface{}{"baseURL": baseURL})

	return &Client{baseURL: baseURL, http: httpClient, logger: cfg.Logger}, nil
}

type infoRequest struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
}

type wireLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

type l2BookResponse struct {
	Coin   string        `json:"coin"`
	Time   int64         `json:"time"`
	Levels [][]wireLevel `json:"levels"`
}

// FetchMidPrices returns every mid the venue publishes. Entries that are not
// a finite positive price are skipped.
func (c *Client) FetchMidPrices(ctx context.Context) (map[string]float64, error) {
	op := "FetchMidPrices"
	var raw map[string]string
	if err := c.post(ctx, infoRequest{Type: "allMids"}, &raw); err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	mids := make(map[string]float64, len(raw))
	for asset, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || !domain.ValidPrice(v) {
			c.logger.Debug(ctx, op+": skipping invalid mid", map[string]interface{}{"asset": asset, "value": s})
			continue
		}
		mids[asset] = v
	}
	return mids, nil
}

// FetchOrderBook returns the L2 book for asset. The side layout is kept as received.
func (c *Client) FetchOrderBook(ctx context.Context, asset string) (domain.OrderBook, error) {
	op := "FetchOrderBook"
	var resp l2BookResponse
	if err := c.post(ctx, infoRequest{Type: "l2Book", Coin: asset}, &resp); err != nil {
		return domain.OrderBook{}, c.handleError(ctx, err, op)
	}

	book := domain.OrderBook{Asset: asset, Levels: make([][]domain.Level, 0, len(resp.Levels))}
	for _, side := range resp.Levels {
		levels := make([]domain.Level, 0, len(side))
		for _, lvl := range side {
			px, err := strconv.ParseFloat(lvl.Px, 64)
			if err != nil {
				return domain.OrderBook{}, c.handleError(ctx, fmt.Errorf("parsing px '%s': %w: %w", lvl.Px, ports.ErrInvalidResponse, err), op)
			}
			sz, err := strconv.ParseFloat(lvl.Sz, 64)
			if err != nil {
				return domain.OrderBook{}, c.handleError(ctx, fmt.Errorf("parsing sz '%s': %w: %w", lvl.Sz, ports.ErrInvalidResponse, err), op)
			}
			level := domain.Level{Price: px, Size: sz}
			if !level.Valid() {
				return domain.OrderBook{}, c.handleError(ctx, fmt.Errorf("level px '%s' sz '%s': %w", lvl.Px, lvl.Sz, ports.ErrInvalidResponse), op)
			}
			levels = append(levels, level)
		}
		book.Levels = append(book.Levels, levels)
	}
	if book.IsMalformed() {
		c.logger.Warn(ctx, op+": book does not have two sides", map[string]interface{}{"asset": asset, "sides": len(book.Levels)})
	}
	return book, nil
}

// statusError is returned for non-2xx responses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (c *Client) post(ctx context.Context, payload infoRequest, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w: %w", ports.ErrInvalidResponse, err)
	}
	return nil
}

// handleError translates transport failures into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}
	fields := map[string]interface{}{"operation": operation}

	var finalErr error
	var statusErr *statusError
	var netErr net.Error
	switch {
	case errors.As(err, &statusErr):
		fields["status"] = statusErr.code
		if statusErr.code == http.StatusTooManyRequests {
			finalErr = fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrExchangeUnavailable, ports.ErrRateLimited, err)
		} else {
			finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrExchangeUnavailable, err)
		}
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, ports.ErrInvalidResponse):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	}

	c.logger.Error(ctx, err, operation+" failed", fields)
	return finalErr
}

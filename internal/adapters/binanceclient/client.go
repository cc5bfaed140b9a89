package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	defaultQuoteAsset = "USDT"
	defaultDepthLimit = 20
)

// Client implements the ports.MarketDataClient interface using the go-binance library.
// Assets are base symbols ("BTC"); they are traded against QuoteAsset on the venue.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	quoteAsset    string
	depthLimit    int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // Overrides UseTestnet when set
	QuoteAsset string // Defaults to USDT
	DepthLimit int    // Order book levels per side, defaults to 20
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Only public market data endpoints are used.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}

	quote := strings.ToUpper(cfg.QuoteAsset)
	if quote == "" {
		quote = defaultQuoteAsset
	}
	limit := cfg.DepthLimit
	if limit <= 0 {
		limit = defaultDepthLimit
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", map[string]interface{}{"baseURL": client.BaseURL, "quoteAsset": quote, "depthLimit": limit})

	return &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		quoteAsset:    quote,
		depthLimit:    limit,
	}, nil
}

// Symbol converts an asset to the venue symbol.
func (c *Client) Symbol(asset string) string {
	return strings.ToUpper(asset) + c.quoteAsset
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to custom errors
		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1001, -1016: // Disconnected, service shutting down
			mappedErr = ports.ErrExchangeUnavailable
		case -1007: // Timeout waiting for response from backend server
			mappedErr = ports.ErrTimeout
		case -1121: // Invalid symbol
			mappedErr = ports.ErrUnknownAsset
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrExchangeUnavailable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if errors.Is(err, ports.ErrInvalidResponse) {
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrExchangeUnavailable, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// FetchMidPrices returns (bestBid+bestAsk)/2 for every symbol quoted in QuoteAsset, keyed by asset.
func (c *Client) FetchMidPrices(ctx context.Context) (map[string]float64, error) {
	op := "FetchMidPrices"
	tickers, err := c.futuresClient.NewListBookTickersService().Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	mids := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		asset, ok := strings.CutSuffix(t.Symbol, c.quoteAsset)
		if !ok || asset == "" {
			continue
		}
		bid, errBid := strconv.ParseFloat(t.BidPrice, 64)
		ask, errAsk := strconv.ParseFloat(t.AskPrice, 64)
		if errBid != nil || errAsk != nil || !domain.ValidPrice(bid) || !domain.ValidPrice(ask) {
			c.logger.Debug(ctx, op+": skipping ticker without a two-sided quote", map[string]interface{}{"symbol": t.Symbol})
			continue
		}
		mids[asset] = (bid + ask) / 2
	}
	return mids, nil
}

// FetchOrderBook retrieves the depth snapshot for asset.
func (c *Client) FetchOrderBook(ctx context.Context, asset string) (domain.OrderBook, error) {
	op := "FetchOrderBook"
	symbol := c.Symbol(asset)
	res, err := c.futuresClient.NewDepthService().Symbol(symbol).Limit(c.depthLimit).Do(ctx)
	if err != nil {
		return domain.OrderBook{}, c.handleError(ctx, err, op)
	}

	bids := make([]domain.Level, 0, len(res.Bids))
	for _, b := range res.Bids {
		lvl, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return domain.OrderBook{}, c.handleError(ctx, fmt.Errorf("translating bids for %s: %w", symbol, err), op)
		}
		bids = append(bids, lvl)
	}
	asks := make([]domain.Level, 0, len(res.Asks))
	for _, a := range res.Asks {
		lvl, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return domain.OrderBook{}, c.handleError(ctx, fmt.Errorf("translating asks for %s: %w", symbol, err), op)
		}
		asks = append(asks, lvl)
	}
	return domain.NewOrderBook(asset, bids, asks), nil
}

// --- Translation Helpers ---

func parseLevel(priceStr, qtyStr string) (domain.Level, error) {
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return domain.Level{}, fmt.Errorf("parsing price '%s': %w: %w", priceStr, ports.ErrInvalidResponse, err)
	}
	qty, err := strconv.ParseFloat(qtyStr, 64)
	if err != nil {
		return domain.Level{}, fmt.Errorf("parsing quantity '%s': %w: %w", qtyStr, ports.ErrInvalidResponse, err)
	}
	lvl := domain.Level{Price: price, Size: qty}
	if !lvl.Valid() {
		return domain.Level{}, fmt.Errorf("level price '%s' quantity '%s': %w", priceStr, qtyStr, ports.ErrInvalidResponse)
	}
	return lvl, nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"paperTrader/config"
	"paperTrader/internal/adapters/logger"
	"paperTrader/internal/adapters/marketdata"
	"paperTrader/internal/domain"
	"paperTrader/internal/execution"
	"paperTrader/internal/ports"
)

// Quote is the estimated cost of opening and closing a full-size position now.
type Quote struct {
	Asset    string
	Mid      float64
	Size     float64
	BuyVWAP  float64
	SellVWAP float64
	BuyOK    bool
	SellOK   bool
}

// SlippageBps returns the buy and sell slippage relative to mid in basis points.
func (q Quote) SlippageBps() (float64, float64) {
	if q.Mid == 0 {
		return 0, 0
	}
	return (q.BuyVWAP - q.Mid) / q.Mid * 1e4, (q.Mid - q.SellVWAP) / q.Mid * 1e4
}

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: "stderr"})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	// 3. Initialize Market Data Client
	client, err := marketdata.New(cfg.MarketData, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data client")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quotes, err := Snapshot(ctx, client, cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching market snapshot")
		os.Exit(1)
	}
	writeQuotes(os.Stdout, quotes)
}

// Snapshot quotes every configured asset sized at its max position.
// Assets without a mid or with a malformed book are still reported, flagged not ok.
func Snapshot(ctx context.Context, client ports.MarketDataClient, cfg *config.Config, appLogger ports.Logger) ([]Quote, error) {
	mids, err := client.FetchMidPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch mid prices: %w", err)
	}

	quotes := make([]Quote, 0, len(cfg.Assets))
	for _, asset := range cfg.AssetNames() {
		q := Quote{Asset: asset}
		mid, ok := mids[asset]
		if !ok || mid <= 0 {
			appLogger.Warn(ctx, "No mid price for asset", map[string]interface{}{"asset": asset})
			quotes = append(quotes, q)
			continue
		}
		q.Mid = mid
		q.Size = cfg.Assets[asset].MaxPositionUSD / mid

		book, err := client.FetchOrderBook(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("fetch order book for %s: %w", asset, err)
		}
		q.BuyVWAP, q.BuyOK = execution.EstimateExecutionPrice(book, domain.Buy, q.Size)
		q.SellVWAP, q.SellOK = execution.EstimateExecutionPrice(book, domain.Sell, q.Size)
		quotes = append(quotes, q)
	}
	return quotes, nil
}

func writeQuotes(out io.Writer, quotes []Quote) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Asset\tMid\tSize\tBuyVWAP\tBuyBps\tSellVWAP\tSellBps\t")
	for _, q := range quotes {
		if q.Mid == 0 {
			fmt.Fprintf(w, "%s\tNA\tNA\tNA\tNA\tNA\tNA\t\n", q.Asset)
			continue
		}
		buyBps, sellBps := q.SlippageBps()
		fmt.Fprintf(w, "%s\t%.2f\t%.6f\t%s\t%s\t%s\t%s\t\n",
			q.Asset,
			q.Mid,
			q.Size,
			formatOpt(q.BuyVWAP, q.BuyOK, "%.2f"),
			formatOpt(buyBps, q.BuyOK, "%.1f"),
			formatOpt(q.SellVWAP, q.SellOK, "%.2f"),
			formatOpt(sellBps, q.SellOK, "%.1f"),
		)
	}
	w.Flush()
}

func formatOpt(v float64, ok bool, format string) string {
	if !ok {
		return "NA"
	}
	return fmt.Sprintf(format, v)
}

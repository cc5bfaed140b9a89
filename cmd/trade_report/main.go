package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"paperTrader/internal/adapters/logger"
	"paperTrader/internal/adapters/sqlite"
	"paperTrader/internal/domain"
	"paperTrader/internal/ports"
	"paperTrader/internal/strategy/analytics"
)

type options struct {
	dbPath    string
	sessionID string
	capital   float64
	asset     string
	logLevel  string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	appLogger, err := logger.New(logger.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	if err := run(context.Background(), opts, appLogger, os.Stdout); err != nil {
		appLogger.Error(context.Background(), err, "Trade report failed")
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("trade_report", flag.ContinueOnError)
	fs.StringVar(&opts.dbPath, "db", "./data/paper_trades.db", "path to the SQLite trade journal")
	fs.StringVar(&opts.sessionID, "session", "", "only include trades from this session")
	fs.StringVar(&opts.asset, "asset", "", "only include trades for this asset")
	fs.Float64Var(&opts.capital, "capital", 10000, "starting capital used for drawdown and ROI")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.capital <= 0 {
		return options{}, fmt.Errorf("capital must be positive, got %v", opts.capital)
	}
	return opts, nil
}

func run(ctx context.Context, opts options, appLogger ports.Logger, out io.Writer) error {
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: opts.dbPath, Logger: appLogger})
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer repo.Close()

	entries, err := loadEntries(ctx, repo, opts)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No trades found.")
		return nil
	}

	writeReport(out, entries, analytics.AnalyzeTrades(entries, opts.capital))
	return nil
}

func loadEntries(ctx context.Context, repo ports.TradeJournal, opts options) ([]*domain.JournalEntry, error) {
	var (
		entries []*domain.JournalEntry
		err     error
	)
	switch {
	case opts.sessionID != "":
		entries, err = repo.FindBySession(ctx, opts.sessionID)
	case opts.asset != "":
		entries, err = repo.FindByAsset(ctx, opts.asset, 0)
	default:
		entries, err = repo.FindAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	// A session query may still need narrowing by asset.
	if opts.sessionID != "" && opts.asset != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Asset == opts.asset {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	return entries, nil
}

func writeReport(out io.Writer, entries []*domain.JournalEntry, m *analytics.PerformanceMetrics) {
	fmt.Fprintf(out, "## Summary (%d journal rows)\n", len(entries))
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Trades\tWinRate\tAvgWin\tAvgLoss\tPF\tTotalPnL\tMaxDD%\tROI%\tFinal\t")
	fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
		m.TotalTrades,
		m.WinRate*100,
		m.AverageWin,
		m.AverageLoss,
		m.ProfitFactor,
		m.TotalProfit,
		m.MaxDrawdown*100,
		m.ReturnOnInvestment*100,
		m.FinalBalance,
	)
	w.Flush()

	fmt.Fprintln(out, "\n## By Asset")
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Asset\tPnL\t")
	assets := make([]string, 0, len(m.ByAsset))
	for a := range m.ByAsset {
		assets = append(assets, a)
	}
	sort.Strings(assets)
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%.2f\t\n", a, m.ByAsset[a])
	}
	w.Flush()

	fmt.Fprintln(out, "\n## By Exit Reason")
	w = tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Reason\tCount\t")
	for _, r := range []domain.ExitReason{domain.ExitReasonTakeProfit, domain.ExitReasonStopLoss, domain.ExitReasonTrendExit} {
		fmt.Fprintf(w, "%s\t%d\t\n", r, m.ByExitReason[r])
	}
	w.Flush()

	if open := openPositions(entries); len(open) > 0 {
		fmt.Fprintf(out, "\nOpen at end of journal: %v\n", open)
	}
}

// openPositions lists assets whose last journal row is an entry.
func openPositions(entries []*domain.JournalEntry) []string {
	sorted := make([]*domain.JournalEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	last := make(map[string]domain.OrderSide)
	for _, e := range sorted {
		last[e.Asset] = e.Trade.Direction
	}
	var open []string
	for a, dir := range last {
		if dir == domain.Buy {
			open = append(open, a)
		}
	}
	sort.Strings(open)
	return open
}

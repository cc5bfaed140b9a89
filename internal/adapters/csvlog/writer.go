package csvlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"
)

// Header is the column layout of the trade log file.
var Header = []string{
	"timestamp", "asset", "signal", "mid_price", "exec_price",
	"direction", "size", "pnl", "position", "exit_reason",
}

// Writer appends trades to a CSV file. It implements ports.TradeSink.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	w      *csv.Writer
	path   string
	logger ports.Logger
	closed bool
}

// NewWriter opens path in append mode, writing the header only when the file is empty.
func NewWriter(path string, logger ports.Logger) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("trade log path is required: %w", ports.ErrInvalidRequest)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV trade log")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trade log directory '%s': %w", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade log '%s': %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat trade log '%s': %w", path, err)
	}

	w := &Writer{file: file, w: csv.NewWriter(file), path: path, logger: logger}
	if info.Size() == 0 {
		if err := w.writeRow(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write trade log header: %w", err)
		}
	}
	logger.Info(context.Background(), "CSV trade log opened", map[string]interface{}{"path": path, "newFile": info.Size() == 0})
	return w, nil
}

// LogTrade appends one row and flushes it.
func (w *Writer) LogTrade(ctx context.Context, asset string, trade *domain.TradeRecord, position domain.PositionState, signal int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ports.ErrSinkClosed
	}
	if err := w.writeRow(Row(asset, trade, position, signal)); err != nil {
		return fmt.Errorf("failed to append trade for %s to '%s': %w", asset, w.path, err)
	}
	return nil
}

// Close flushes pending rows and closes the file. Safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.w.Flush()
	flushErr := w.w.Error()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close trade log '%s': %w", w.path, err)
	}
	return flushErr
}

func (w *Writer) writeRow(row []string) error {
	if err := w.w.Write(row); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Row renders a trade in Header column order. Entries log a pnl of 0 and
// position is written as 1 for LONG and 0 for FLAT.
func Row(asset string, trade *domain.TradeRecord, position domain.PositionState, signal int) []string {
	ts := trade.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	pos := "0"
	if position == domain.Long {
		pos = "1"
	}
	return []string{
		ts.Format(time.RFC3339Nano),
		asset,
		strconv.Itoa(signal),
		formatFloat(trade.MidPrice),
		formatFloat(trade.ExecutionPrice),
		string(trade.Direction),
		formatFloat(trade.Size),
		formatFloat(trade.PnL()),
		pos,
		string(trade.ExitReason),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"paperTrader/internal/domain"
	"paperTrader/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var _ ports.TradeJournal = (*Repository)(nil)

// Repository implements the ports.TradeJournal interface using SQLite.
type Repository struct {
	db        *sql.DB
	logger    ports.Logger
	sessionID string

	closeOnce sync.Once
	closeErr  error
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath    string
	SessionID string // Tags every row written by this process
	Logger    ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/paper_trades.db"
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
			cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
			return nil, err
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// A single connection keeps :memory: databases alive and writes serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	repo := &Repository{db: db, logger: cfg.Logger, sessionID: cfg.SessionID}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite trade journal ready", map[string]interface{}{"path": dbPath, "sessionID": cfg.SessionID})

	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		asset TEXT NOT NULL,
		signal INTEGER NOT NULL,
		mid_price REAL NOT NULL,
		exec_price REAL NOT NULL,
		direction TEXT NOT NULL,
		size REAL NOT NULL,
		pnl REAL NULL,
		position TEXT NOT NULL,
		exit_reason TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_trade_log_asset_timestamp ON trade_log (asset, timestamp);
	CREATE INDEX IF NOT EXISTS idx_trade_log_session ON trade_log (session_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection. Safe to call more than once.
func (r *Repository) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info(context.Background(), "Closing SQLite trade journal")
		r.closeErr = r.db.Close()
	})
	return r.closeErr
}

// LogTrade appends a trade row.
func (r *Repository) LogTrade(ctx context.Context, asset string, trade *domain.TradeRecord, position domain.PositionState, signal int) error {
	const query = `
	INSERT INTO trade_log (session_id, timestamp, asset, signal, mid_price, exec_price,
	                       direction, size, pnl, position, exit_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ts := trade.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var pnl sql.NullFloat64
	if trade.RealizedPnL != nil {
		pnl = sql.NullFloat64{Float64: *trade.RealizedPnL, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		r.sessionID, ts, asset, signal, trade.MidPrice, trade.ExecutionPrice,
		string(trade.Direction), trade.Size, pnl, string(position), string(trade.ExitReason))
	if err != nil {
		return fmt.Errorf("failed to insert trade for asset %s: %w: %w", asset, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID for trade %s: %w", asset, err)
	}
	r.logger.Debug(ctx, "Trade journaled", map[string]interface{}{"tradeID": id, "asset": asset, "direction": trade.Direction})
	return nil
}

const selectColumns = `
	SELECT id, session_id, timestamp, asset, signal, mid_price, exec_price,
	       direction, size, pnl, position, exit_reason
	FROM trade_log`

// FindByAsset retrieves the most recent trades for an asset, up to a limit.
// A limit <= 0 returns every trade.
func (r *Repository) FindByAsset(ctx context.Context, asset string, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE asset = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, asset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for asset %s: %w: %w", asset, ports.ErrQueryFailed, err)
	}
	return collectEntries(rows)
}

// FindBySession retrieves all trades of a session in insertion order.
func (r *Repository) FindBySession(ctx context.Context, sessionID string) ([]*domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for session %s: %w: %w", sessionID, ports.ErrQueryFailed, err)
	}
	return collectEntries(rows)
}

// FindAll retrieves every journaled trade in insertion order.
func (r *Repository) FindAll(ctx context.Context) ([]*domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all trades: %w: %w", ports.ErrQueryFailed, err)
	}
	return collectEntries(rows)
}

// GetTotalRealizedPnL sums realized PnL over all exits.
func (r *Repository) GetTotalRealizedPnL(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(pnl), 0) FROM trade_log WHERE direction = ?`
	var total float64
	if err := r.db.QueryRowContext(ctx, query, string(domain.Sell)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to calculate total realized pnl: %w: %w", ports.ErrQueryFailed, err)
	}
	return total, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func collectEntries(rows *sql.Rows) ([]*domain.JournalEntry, error) {
	defer rows.Close()

	entries := make([]*domain.JournalEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return entries, nil
}

// scanEntry scans a row into a domain.JournalEntry struct.
func scanEntry(s scanner) (*domain.JournalEntry, error) {
	e := &domain.JournalEntry{}
	var direction, position, reason string
	var pnl sql.NullFloat64
	err := s.Scan(
		&e.ID, &e.SessionID, &e.Timestamp, &e.Asset, &e.Signal, &e.Trade.MidPrice, &e.Trade.ExecutionPrice,
		&direction, &e.Trade.Size, &pnl, &position, &reason)
	if err != nil {
		return nil, err
	}
	e.Trade.Direction = domain.OrderSide(direction)
	e.Trade.ExitReason = domain.ExitReason(reason)
	e.Trade.Timestamp = e.Timestamp
	e.Position = domain.PositionState(position)
	if pnl.Valid {
		v := pnl.Float64
		e.Trade.RealizedPnL = &v
	}
	return e, nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/option_ladder_bot/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS strategies (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			main_instrument TEXT,
			hedging_instrument TEXT,
			original_price REAL NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			is_hedging BOOLEAN NOT NULL DEFAULT 0,
			strike_distance INTEGER NOT NULL DEFAULT 0,
			strike_direction TEXT NOT NULL DEFAULT 'call',
			hedging_strike_distance INTEGER NOT NULL DEFAULT 0,
			hedging_quantity INTEGER NOT NULL DEFAULT 0,
			hedging_limit_price REAL NOT NULL DEFAULT 0,
			hedging_limit_quantity INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS levels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			strategy_id TEXT NOT NULL,
			level_number INTEGER NOT NULL,
			main_percentage REAL NOT NULL DEFAULT 0,
			main_quantity INTEGER NOT NULL DEFAULT 0,
			main_target REAL NOT NULL DEFAULT 0,
			hedging_quantity INTEGER NOT NULL DEFAULT 0,
			hedging_limit_price REAL NOT NULL DEFAULT 0,
			hedging_limit_quantity INTEGER NOT NULL DEFAULT 0,
			is_skip BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (strategy_id, level_number)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_levels_strategy ON levels(strategy_id, level_number);`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level_id INTEGER NOT NULL,
			entry_order_id TEXT,
			entry_order_status INTEGER NOT NULL DEFAULT 0,
			exit_order_id TEXT,
			exit_order_status INTEGER NOT NULL DEFAULT 0,
			order_side TEXT,
			is_entry BOOLEAN NOT NULL DEFAULT 0,
			is_complete BOOLEAN NOT NULL DEFAULT 0,
			is_main BOOLEAN NOT NULL DEFAULT 1,
			order_quantity INTEGER NOT NULL DEFAULT 0,
			entry_price REAL NOT NULL DEFAULT 0,
			exit_price REAL NOT NULL DEFAULT 0,
			entry_time DATETIME NOT NULL,
			exit_time DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_level ON orders(level_id);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_entry_id ON orders(entry_order_id);`,
		`CREATE TABLE IF NOT EXISTS access_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			access_token TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// StrategyRepository implementation

func (s *SQLiteStore) SaveStrategy(ctx context.Context, st *domain.Strategy) error {
	query := `INSERT INTO strategies (id, user_id, main_instrument, hedging_instrument, original_price, is_active, is_hedging,
				strike_distance, strike_direction, hedging_strike_distance, hedging_quantity, hedging_limit_price, hedging_limit_quantity, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(id) DO UPDATE SET
			  main_instrument=excluded.main_instrument,
			  hedging_instrument=excluded.hedging_instrument,
			  original_price=excluded.original_price,
			  is_active=excluded.is_active,
			  is_hedging=excluded.is_hedging,
			  strike_distance=excluded.strike_distance,
			  strike_direction=excluded.strike_direction,
			  hedging_strike_distance=excluded.hedging_strike_distance,
			  hedging_quantity=excluded.hedging_quantity,
			  hedging_limit_price=excluded.hedging_limit_price,
			  hedging_limit_quantity=excluded.hedging_limit_quantity`
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.UserID, st.MainInstrument, st.HedgingInstrument, st.OriginalPrice, st.IsActive, st.IsHedging,
		st.StrikeDistance, st.StrikeDirection, st.HedgingStrikeDistance, st.HedgingQuantity, st.HedgingLimitPrice,
		st.HedgingLimitQuantity, st.CreatedAt)
	return err
}

func (s *SQLiteStore) GetStrategy(ctx context.Context, id string) (*domain.Strategy, error) {
	query := `SELECT id, user_id, main_instrument, hedging_instrument, original_price, is_active, is_hedging,
				strike_distance, strike_direction, hedging_strike_distance, hedging_quantity, hedging_limit_price, hedging_limit_quantity, created_at
			  FROM strategies WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, id)

	var st domain.Strategy
	err := row.Scan(&st.ID, &st.UserID, &st.MainInstrument, &st.HedgingInstrument, &st.OriginalPrice, &st.IsActive, &st.IsHedging,
		&st.StrikeDistance, &st.StrikeDirection, &st.HedgingStrikeDistance, &st.HedgingQuantity, &st.HedgingLimitPrice,
		&st.HedgingLimitQuantity, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLiteStore) ListStrategies(ctx context.Context) ([]*domain.Strategy, error) {
	query := `SELECT id, user_id, main_instrument, hedging_instrument, original_price, is_active, is_hedging,
				strike_distance, strike_direction, hedging_strike_distance, hedging_quantity, hedging_limit_price, hedging_limit_quantity, created_at
			  FROM strategies ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []*domain.Strategy
	for rows.Next() {
		var st domain.Strategy
		if err := rows.Scan(&st.ID, &st.UserID, &st.MainInstrument, &st.HedgingInstrument, &st.OriginalPrice, &st.IsActive, &st.IsHedging,
			&st.StrikeDistance, &st.StrikeDirection, &st.HedgingStrikeDistance, &st.HedgingQuantity, &st.HedgingLimitPrice,
			&st.HedgingLimitQuantity, &st.CreatedAt); err != nil {
			return nil, err
		}
		strategies = append(strategies, &st)
	}
	return strategies, rows.Err()
}

func (s *SQLiteStore) UpdateInstruments(ctx context.Context, id, mainInstrument, hedgingInstrument, strikeDirection string) error {
	query := `UPDATE strategies SET main_instrument = ?, hedging_instrument = ?, strike_direction = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query, mainInstrument, hedgingInstrument, strikeDirection, id)
	return err
}

func (s *SQLiteStore) SetActive(ctx context.Context, id string, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE strategies SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// LevelRepository implementation

func (s *SQLiteStore) GetLevelsByStrategy(ctx context.Context, strategyID, instrument string) ([]*domain.Level, error) {
	query := `SELECT levels.id, levels.strategy_id, levels.level_number, levels.main_percentage, levels.main_quantity,
				levels.main_target, levels.hedging_quantity, levels.hedging_limit_price, levels.hedging_limit_quantity,
				levels.is_skip, levels.created_at
			  FROM levels
			  JOIN strategies ON strategies.id = levels.strategy_id
			  WHERE levels.strategy_id = ? AND strategies.main_instrument = ?
			  ORDER BY levels.level_number`
	rows, err := s.db.QueryContext(ctx, query, strategyID, instrument)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []*domain.Level
	for rows.Next() {
		var l domain.Level
		if err := rows.Scan(&l.ID, &l.StrategyID, &l.LevelNumber, &l.MainPercentage, &l.MainQuantity, &l.MainTarget,
			&l.HedgingQuantity, &l.HedgingLimitPrice, &l.HedgingLimitQuantity, &l.IsSkip, &l.CreatedAt); err != nil {
			return nil, err
		}
		levels = append(levels, &l)
	}
	return levels, rows.Err()
}

// CreateLevels bulk-inserts a materialized ladder in one transaction.
func (s *SQLiteStore) CreateLevels(ctx context.Context, levels []*domain.Level) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO levels (strategy_id, level_number, main_percentage, main_quantity, main_target,
				hedging_quantity, hedging_limit_price, hedging_limit_quantity, is_skip, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, l := range levels {
		res, err := tx.ExecContext(ctx, query,
			l.StrategyID, l.LevelNumber, l.MainPercentage, l.MainQuantity, l.MainTarget,
			l.HedgingQuantity, l.HedgingLimitPrice, l.HedgingLimitQuantity, l.IsSkip, l.CreatedAt)
		if err != nil {
			return err
		}
		if id, err := res.LastInsertId(); err == nil {
			l.ID = id
		}
	}
	return tx.Commit()
}

// UpdateLevels rewrites level prices in one transaction, matched by
// (strategy_id, level_number).
func (s *SQLiteStore) UpdateLevels(ctx context.Context, levels []*domain.Level) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `UPDATE levels SET main_percentage = ?, main_target = ?, hedging_limit_price = ?
			  WHERE strategy_id = ? AND level_number = ?`
	for _, l := range levels {
		if _, err := tx.ExecContext(ctx, query,
			l.MainPercentage, l.MainTarget, l.HedgingLimitPrice, l.StrategyID, l.LevelNumber); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// OrderRepository implementation

func (s *SQLiteStore) CreateOrder(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (level_id, entry_order_id, entry_order_status, exit_order_id, exit_order_status,
				order_side, is_entry, is_complete, is_main, order_quantity, entry_price, exit_price, entry_time, exit_time)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		o.LevelID, o.EntryOrderID, o.EntryOrderStatus, o.ExitOrderID, o.ExitOrderStatus,
		o.OrderSide, o.IsEntry, o.IsComplete, o.IsMain, o.OrderQuantity, o.EntryPrice, o.ExitPrice,
		o.EntryTime, nullTime(o.ExitTime))
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		o.ID = id
	}
	return nil
}

func (s *SQLiteStore) UpdateOrder(ctx context.Context, o *domain.Order) error {
	query := `UPDATE orders SET entry_order_id = ?, entry_order_status = ?, exit_order_id = ?, exit_order_status = ?,
				order_side = ?, is_entry = ?, is_complete = ?, order_quantity = ?, entry_price = ?, exit_price = ?, exit_time = ?
			  WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query,
		o.EntryOrderID, o.EntryOrderStatus, o.ExitOrderID, o.ExitOrderStatus,
		o.OrderSide, o.IsEntry, o.IsComplete, o.OrderQuantity, o.EntryPrice, o.ExitPrice, nullTime(o.ExitTime), o.ID)
	return err
}

func (s *SQLiteStore) FindByEntryOrderID(ctx context.Context, entryOrderID string) (*domain.Order, error) {
	query := orderSelect + ` WHERE entry_order_id = ? LIMIT 1`
	return s.scanOrder(s.db.QueryRowContext(ctx, query, entryOrderID))
}

// FindOpenOrder excludes cancelled entries: a cancelled leg is history, not
// an open position.
func (s *SQLiteStore) FindOpenOrder(ctx context.Context, levelID int64, isMain bool) (*domain.Order, error) {
	query := orderSelect + ` WHERE level_id = ? AND is_main = ? AND is_entry = 1 AND is_complete = 0
		AND entry_order_status != ? LIMIT 1`
	return s.scanOrder(s.db.QueryRowContext(ctx, query, levelID, isMain, domain.StatusCancelled))
}

// ListPendingOrders returns every row with a resting leg: a pending entry
// that has no exit yet, or a pending exit.
func (s *SQLiteStore) ListPendingOrders(ctx context.Context, strategyID string) ([]*domain.Order, error) {
	query := orderSelect + `
		JOIN levels ON levels.id = orders.level_id
		WHERE levels.strategy_id = ? AND orders.is_complete = 0
		  AND ((orders.entry_order_status = ? AND (orders.exit_order_id IS NULL OR orders.exit_order_id = ''))
		    OR orders.exit_order_status = ?)`
	return s.queryOrders(ctx, query, strategyID, domain.StatusPending, domain.StatusPending)
}

func (s *SQLiteStore) ListOrdersByStrategy(ctx context.Context, strategyID string) ([]*domain.Order, error) {
	query := orderSelect + `
		JOIN levels ON levels.id = orders.level_id
		WHERE levels.strategy_id = ? ORDER BY orders.id`
	return s.queryOrders(ctx, query, strategyID)
}

const orderSelect = `SELECT orders.id, orders.level_id, orders.entry_order_id, orders.entry_order_status,
	orders.exit_order_id, orders.exit_order_status, orders.order_side, orders.is_entry, orders.is_complete,
	orders.is_main, orders.order_quantity, orders.entry_price, orders.exit_price, orders.entry_time, orders.exit_time
	FROM orders`

func (s *SQLiteStore) scanOrder(row *sql.Row) (*domain.Order, error) {
	var o domain.Order
	var exitTime sql.NullTime
	var entryID, exitID, side sql.NullString
	err := row.Scan(&o.ID, &o.LevelID, &entryID, &o.EntryOrderStatus, &exitID, &o.ExitOrderStatus,
		&side, &o.IsEntry, &o.IsComplete, &o.IsMain, &o.OrderQuantity, &o.EntryPrice, &o.ExitPrice,
		&o.EntryTime, &exitTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.EntryOrderID = entryID.String
	o.ExitOrderID = exitID.String
	o.OrderSide = side.String
	if exitTime.Valid {
		o.ExitTime = exitTime.Time
	}
	return &o, nil
}

func (s *SQLiteStore) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		var o domain.Order
		var exitTime sql.NullTime
		var entryID, exitID, side sql.NullString
		if err := rows.Scan(&o.ID, &o.LevelID, &entryID, &o.EntryOrderStatus, &exitID, &o.ExitOrderStatus,
			&side, &o.IsEntry, &o.IsComplete, &o.IsMain, &o.OrderQuantity, &o.EntryPrice, &o.ExitPrice,
			&o.EntryTime, &exitTime); err != nil {
			return nil, err
		}
		o.EntryOrderID = entryID.String
		o.ExitOrderID = exitID.String
		o.OrderSide = side.String
		if exitTime.Valid {
			o.ExitTime = exitTime.Time
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// TokenRepository implementation

func (s *SQLiteStore) ActiveToken(ctx context.Context) (string, error) {
	// Prior-day tokens are dead weight, purge them first.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE date(created_at) < date('now')`); err != nil {
		return "", err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT access_token FROM access_tokens WHERE is_active = 1 AND date(created_at) = date('now') ORDER BY id DESC LIMIT 1`)
	var token string
	if err := row.Scan(&token); err != nil {
		if err == sql.ErrNoRows {
			return "", domain.Errorf(domain.KindValidation, "storage.ActiveToken", "no active access token for today")
		}
		return "", err
	}
	return token, nil
}

func (s *SQLiteStore) SaveToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO access_tokens (access_token, is_active, created_at) VALUES (?, 1, ?)`, token, time.Now())
	return err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

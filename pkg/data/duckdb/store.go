package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"orderflow/pkg/common"
	"orderflow/pkg/utility/fixed"
)

const storeComponentName = "data.duckdb"

// Store persists and reads back enriched trades, one table per symbol.
// Prices and sizes are stored as text so the decimal representation
// round-trips without float drift.
type Store struct {
	dataSourceName string
	db             *sql.DB
}

func NewStore(dataSourceName string) *Store {
	return &Store{
		dataSourceName: dataSourceName,
	}
}

func (s *Store) Connect() error {
	db, err := sql.Open("duckdb", s.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() {
	_ = s.db.Close()
}

func (s *Store) EnsureSchema(ctx context.Context, symbol string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_trades (
		ts TIMESTAMP NOT NULL,
		price VARCHAR NOT NULL,
		size VARCHAR NOT NULL,
		side VARCHAR NOT NULL,
		delta VARCHAR NOT NULL,
		bid VARCHAR,
		ask VARCHAR
	)`, tableName(symbol))

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// WriteTrades inserts the batch in one transaction.
func (s *Store) WriteTrades(ctx context.Context, symbol string, trades []common.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := fmt.Sprintf(`INSERT INTO %s_trades (ts, price, size, side, delta, bid, ask) VALUES (?, ?, ?, ?, ?, ?, ?)`, tableName(symbol))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, trade := range trades {
		_, err := stmt.ExecContext(ctx,
			trade.TimeStamp,
			trade.Price.String(),
			trade.Size.String(),
			string(trade.Side),
			trade.Delta.String(),
			nullablePoint(trade.Bid),
			nullablePoint(trade.Ask),
		)
		if err != nil {
			return fmt.Errorf("error inserting trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// ForEachTrade streams the range in timestamp order through the handler.
func (s *Store) ForEachTrade(ctx context.Context, symbol string, from, to time.Time, handler func(trade common.Trade) error) error {

	query := fmt.Sprintf(`SELECT ts, price, size, side, delta, bid, ask FROM %s_trades WHERE ts >= ? AND ts < ? ORDER BY ts`, tableName(symbol))

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var (
			ts                       time.Time
			price, size, side, delta string
			bid, ask                 sql.NullString
		)
		if err := rows.Scan(&ts, &price, &size, &side, &delta, &bid, &ask); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		trade, err := rowToTrade(symbol, ts, price, size, side, delta, bid, ask)
		if err != nil {
			return err
		}
		if err := handler(trade); err != nil {
			return fmt.Errorf("error processing trade: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}
	return nil
}

// LoadTrades collects the range into memory. This is the replay loader.
func (s *Store) LoadTrades(ctx context.Context, symbol string, from, to time.Time) ([]common.Trade, error) {
	var out []common.Trade
	err := s.ForEachTrade(ctx, symbol, from, to, func(trade common.Trade) error {
		out = append(out, trade)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func rowToTrade(symbol string, ts time.Time, price, size, side, delta string, bid, ask sql.NullString) (common.Trade, error) {
	trade := common.Trade{
		Source:    storeComponentName,
		Symbol:    symbol,
		TimeStamp: ts,
		Side:      common.Side(side),
	}

	var err error
	if trade.Price, err = fixed.FromString(price); err != nil {
		return trade, fmt.Errorf("error parsing price %q: %w", price, err)
	}
	if trade.Size, err = fixed.FromString(size); err != nil {
		return trade, fmt.Errorf("error parsing size %q: %w", size, err)
	}
	if trade.Delta, err = fixed.FromString(delta); err != nil {
		return trade, fmt.Errorf("error parsing delta %q: %w", delta, err)
	}
	if bid.Valid {
		if trade.Bid, err = fixed.FromString(bid.String); err != nil {
			return trade, fmt.Errorf("error parsing bid %q: %w", bid.String, err)
		}
	}
	if ask.Valid {
		if trade.Ask, err = fixed.FromString(ask.String); err != nil {
			return trade, fmt.Errorf("error parsing ask %q: %w", ask.String, err)
		}
	}
	return trade, nil
}

func nullablePoint(p fixed.Point) any {
	if p.IsZero() {
		return nil
	}
	return p.String()
}

// tableName keeps symbol-derived identifiers to a safe character set.
func tableName(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(symbol) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

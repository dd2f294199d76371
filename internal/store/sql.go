package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"point-service/internal/models"
)

type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite3"
)

var upsertPointQuery = map[Dialect]string{
	DialectMySQL: `INSERT INTO user_points (id, point, update_millis) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE point = VALUES(point), update_millis = VALUES(update_millis)`,
	DialectSQLite: `INSERT INTO user_points (id, point, update_millis) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET point = excluded.point, update_millis = excluded.update_millis`,
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQL stores balances in user_points and the ledger in point_histories.
// The same queries serve MySQL and SQLite apart from the upsert.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQL(db *sql.DB, dialect Dialect) (*SQL, error) {
	if _, ok := upsertPointQuery[dialect]; !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &SQL{db: db, dialect: dialect}, nil
}

func (s *SQL) Balances() BalanceStore { return sqlTables{q: s.db, dialect: s.dialect} }

func (s *SQL) Ledger() LedgerStore { return sqlTables{q: s.db, dialect: s.dialect} }

func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) InTx(ctx context.Context, fn func(BalanceStore, LedgerStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	tables := sqlTables{q: tx, dialect: s.dialect, forUpdate: s.dialect == DialectMySQL}
	if err := fn(tables, tables); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type sqlTables struct {
	q         querier
	dialect   Dialect
	// forUpdate locks the balance row for the rest of the transaction.
	forUpdate bool
}

func (t sqlTables) Read(ctx context.Context, userID int64) (models.UserPoint, bool, error) {
	query := "SELECT id, point, update_millis FROM user_points WHERE id = ?"
	if t.forUpdate {
		query += " FOR UPDATE"
	}

	var row models.UserPoint
	err := t.q.QueryRowContext(ctx, query, userID).Scan(&row.ID, &row.Point, &row.UpdateMillis)

	if errors.Is(err, sql.ErrNoRows) {
		return models.UserPoint{}, false, nil
	}
	if err != nil {
		return models.UserPoint{}, false, fmt.Errorf("failed to fetch point: %w", err)
	}
	return row, true, nil
}

func (t sqlTables) Write(ctx context.Context, userID, point, updateMillis int64) error {
	if _, err := t.q.ExecContext(ctx, upsertPointQuery[t.dialect], userID, point, updateMillis); err != nil {
		return fmt.Errorf("failed to update point: %w", err)
	}
	return nil
}

func (t sqlTables) Append(ctx context.Context, userID, point int64, kind models.TransactionType, updateMillis int64) (int64, error) {
	if !kind.Valid() {
		return 0, ErrInvalidType
	}

	result, err := t.q.ExecContext(ctx,
		"INSERT INTO point_histories (user_id, amount, type, update_millis) VALUES (?, ?, ?, ?)",
		userID, point, string(kind), updateMillis,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record point history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get point history ID: %w", err)
	}
	return id, nil
}

func (t sqlTables) ReadAll(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	rows, err := t.q.QueryContext(ctx,
		"SELECT id, user_id, amount, type, update_millis FROM point_histories WHERE user_id = ? ORDER BY id ASC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch point histories: %w", err)
	}
	defer rows.Close()

	histories := []models.PointHistory{}
	for rows.Next() {
		var h models.PointHistory
		var kind string
		if err := rows.Scan(&h.ID, &h.UserID, &h.Amount, &kind, &h.UpdateMillis); err != nil {
			return nil, fmt.Errorf("error scanning point history: %w", err)
		}
		h.Type = models.TransactionType(kind)
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating point histories: %w", err)
	}
	return histories, nil
}

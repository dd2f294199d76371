package db

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"point-service/internal/store"
)

var migrations = map[store.Dialect][]string{
	store.DialectMySQL: {
		`CREATE TABLE IF NOT EXISTS user_points (
			id BIGINT PRIMARY KEY,
			point BIGINT NOT NULL DEFAULT 0,
			update_millis BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS point_histories (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type VARCHAR(16) NOT NULL,
			update_millis BIGINT NOT NULL,
			INDEX idx_user_id (user_id)
		);`,
	},
	store.DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS user_points (
			id INTEGER PRIMARY KEY,
			point INTEGER NOT NULL DEFAULT 0,
			update_millis INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS point_histories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('CHARGE', 'USE')),
			update_millis INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_point_histories_user_id ON point_histories(user_id);`,
	},
}

func InitDB(dialect store.Dialect, dbURL string) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// an in-memory sqlite database exists per connection
	if dialect == store.DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}
	return db, nil
}

func RunMigrations(db *sql.DB, dialect store.Dialect) error {
	queries, ok := migrations[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sqlx.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Snapshot reads and writes are rare; a small pool is enough.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SnapshotSchema creates the table backing the read-model snapshot store.
// It is valid for both MySQL and SQLite.
const SnapshotSchema = `CREATE TABLE IF NOT EXISTS readmodel_snapshots (
    name       VARCHAR(128) NOT NULL PRIMARY KEY,
    payload    LONGTEXT     NOT NULL,
    built_at   BIGINT       NOT NULL,
    updated_at BIGINT       NOT NULL
)`

// Migrate applies SnapshotSchema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, SnapshotSchema); err != nil {
		return fmt.Errorf("migrate snapshots: %w", err)
	}
	return nil
}

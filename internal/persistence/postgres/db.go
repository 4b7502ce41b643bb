// Package postgres implements the persistence contracts over PostgreSQL
// with idempotent ON CONFLICT upserts.
package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DefaultTimeout bounds every repository call.
const DefaultTimeout = 10 * time.Second

// Connect opens and pings a PostgreSQL connection.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

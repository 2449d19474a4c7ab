// FilePath: internal/database/database.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/boatmonitor/hub/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	nuts "github.com/vaudience/go-nuts"
)

// DB is the handle the warehouse repositories work against
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	GetDB() *sqlx.DB
}

// TimescaleDB represents the warehouse connection
type TimescaleDB struct {
	db          *sqlx.DB
	timescaleOK bool
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Repository represents common repository operations
type Repository interface {
	BeginTx(ctx context.Context) (Transaction, error)
}

// DSN builds the lib/pq connection string.
func DSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
}

// NewTimescaleDB connects to the warehouse. A plain PostgreSQL server is
// accepted; hypertable features are skipped when the extension is missing.
func NewTimescaleDB(cfg config.PostgresConfig) (*TimescaleDB, error) {
	db, err := sqlx.Connect("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("error connecting to warehouse: %w", err)
	}

	var hasTimescaleDB bool
	err = db.Get(&hasTimescaleDB, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error checking timescaledb extension: %w", err)
	}
	if !hasTimescaleDB {
		nuts.L.Warnf("[TimescaleDB] Extension not available on %s:%d/%s, using plain tables", cfg.Host, cfg.Port, cfg.DBName)
	}

	nuts.L.Infof("[TimescaleDB] Connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.DBName)
	return &TimescaleDB{db: db, timescaleOK: hasTimescaleDB}, nil
}

// HasTimescale reports whether the timescaledb extension is installed.
func (t *TimescaleDB) HasTimescale() bool {
	return t.timescaleOK
}

func (t *TimescaleDB) Close() error {
	return t.db.Close()
}

func (t *TimescaleDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *TimescaleDB) GetDB() *sqlx.DB {
	return t.db
}

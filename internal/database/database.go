package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/types"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

func init() {
	sqlx.BindDriver(string(types.DatabaseDriverSQLite), sqlx.QUESTION)
}

// IClient is the transaction boundary services depend on
type IClient interface {
	// WithTx wraps the given function in a transaction
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

var _ IClient = (*DB)(nil)

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	driver types.DatabaseDriver
	logger *logger.Logger
}

// Querier interface defines all database operations
// Both *sqlx.DB and *sqlx.Tx implement these methods
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
}

// NewDB opens the configured store, applies the pool settings and, when
// enabled, migrates the schema.
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	dbCfg := cfg.Database

	if dbCfg.Driver == types.DatabaseDriverSQLite {
		dir := filepath.Dir(dbCfg.SQLite.Path)
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	sqlxDB, err := sqlx.Connect(string(dbCfg.Driver), dbCfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dbCfg.Driver, err)
	}

	maxOpen := dbCfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 10
		if dbCfg.Driver == types.DatabaseDriverSQLite {
			maxOpen = 1
		}
	}
	sqlxDB.SetMaxOpenConns(maxOpen)
	sqlxDB.SetMaxIdleConns(max(dbCfg.MaxIdleConns, maxOpen))
	if dbCfg.ConnMaxLifetimeMinutes > 0 {
		sqlxDB.SetConnMaxLifetime(time.Duration(dbCfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	db := &DB{DB: sqlxDB, driver: dbCfg.Driver, logger: logger}

	logger.Infow("connected to database",
		"driver", dbCfg.Driver,
		"max_open_conns", maxOpen,
	)

	if dbCfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := Migrate(ctx, db, cfg.Numbering); err != nil {
			_ = sqlxDB.Close()
			return nil, err
		}
	}

	return db, nil
}

// Driver returns the driver the connection was opened with
func (db *DB) Driver() types.DatabaseDriver {
	return db.driver
}

// Close closes the database connection
func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
		return err
	}
	return nil
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/types"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS numbering_config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	invoice_prefix TEXT NOT NULL DEFAULT '',
	invoice_pad_length INTEGER NOT NULL CHECK (invoice_pad_length >= 1),
	invoice_last_number INTEGER NOT NULL DEFAULT 0 CHECK (invoice_last_number >= 0),
	protocol_pad_length INTEGER NOT NULL CHECK (protocol_pad_length >= 1),
	protocol_last_number INTEGER NOT NULL DEFAULT 0 CHECK (protocol_last_number >= 0),
	updated_at TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS work_orders (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	total TEXT NOT NULL DEFAULT '0',
	created_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP NULL
)`,
	`CREATE TABLE IF NOT EXISTS document_records (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	invoice_no TEXT NOT NULL,
	protocol_no TEXT NOT NULL,
	is_paid BOOLEAN NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	paid_at TIMESTAMP NULL,
	CONSTRAINT uq_document_records_order_id UNIQUE (order_id),
	CONSTRAINT uq_document_records_invoice_no UNIQUE (invoice_no),
	CONSTRAINT uq_document_records_protocol_no UNIQUE (protocol_no)
)`,
	`CREATE INDEX IF NOT EXISTS idx_document_records_is_paid ON document_records (is_paid)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS numbering_config (
	id SMALLINT PRIMARY KEY CHECK (id = 1),
	invoice_prefix TEXT NOT NULL DEFAULT '',
	invoice_pad_length INTEGER NOT NULL CHECK (invoice_pad_length >= 1),
	invoice_last_number BIGINT NOT NULL DEFAULT 0 CHECK (invoice_last_number >= 0),
	protocol_pad_length INTEGER NOT NULL CHECK (protocol_pad_length >= 1),
	protocol_last_number BIGINT NOT NULL DEFAULT 0 CHECK (protocol_last_number >= 0),
	updated_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS work_orders (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	total NUMERIC(20,8) NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NULL
)`,
	`CREATE TABLE IF NOT EXISTS document_records (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	invoice_no TEXT NOT NULL,
	protocol_no TEXT NOT NULL,
	is_paid BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	paid_at TIMESTAMPTZ NULL,
	CONSTRAINT uq_document_records_order_id UNIQUE (order_id),
	CONSTRAINT uq_document_records_invoice_no UNIQUE (invoice_no),
	CONSTRAINT uq_document_records_protocol_no UNIQUE (protocol_no)
)`,
	`CREATE INDEX IF NOT EXISTS idx_document_records_is_paid ON document_records (is_paid)`,
}

const seedNumberingQuery = `
	INSERT INTO numbering_config (
		id, invoice_prefix, invoice_pad_length, invoice_last_number,
		protocol_pad_length, protocol_last_number, updated_at
	) VALUES (1, ?, ?, 0, ?, 0, ?)
	ON CONFLICT (id) DO NOTHING`

// Schema returns the DDL statements for the given driver in apply order
func Schema(driver types.DatabaseDriver) []string {
	if driver == types.DatabaseDriverPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

// Migrate creates the tables if they are missing and seeds the single
// numbering row. An existing row is left untouched so counters never reset.
func Migrate(ctx context.Context, db *DB, seed config.NumberingConfig) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		q := db.GetQuerier(ctx)
		for _, stmt := range Schema(db.driver) {
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}

		res, err := q.ExecContext(ctx, q.Rebind(seedNumberingQuery),
			seed.InvoicePrefix,
			seed.InvoicePadLength,
			seed.ProtocolPadLength,
			time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("seed numbering config: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			db.logger.Infow("seeded numbering config",
				"invoice_prefix", seed.InvoicePrefix,
				"invoice_pad_length", seed.InvoicePadLength,
				"protocol_pad_length", seed.ProtocolPadLength,
			)
		}
		return nil
	})
}

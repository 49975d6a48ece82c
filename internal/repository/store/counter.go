package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/logger"
)

type counterStore struct {
	db     *database.DB
	logger *logger.Logger
}

func NewCounterStore(db *database.DB, logger *logger.Logger) numbering.CounterStore {
	return &counterStore{db: db, logger: logger}
}

func lastNumberColumn(kind numbering.Kind) (string, error) {
	switch kind {
	case numbering.KindInvoice:
		return "invoice_last_number", nil
	case numbering.KindProtocol:
		return "protocol_last_number", nil
	}
	return "", kind.Validate()
}

func (r *counterStore) Peek(ctx context.Context, kind numbering.Kind) (int64, error) {
	col, err := lastNumberColumn(kind)
	if err != nil {
		return 0, err
	}

	q := r.db.GetQuerier(ctx)
	query := fmt.Sprintf(`SELECT %s FROM numbering_config WHERE id = 1`, col)

	var n int64
	if err := q.GetContext(ctx, &n, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errNumberingMissing(err)
		}
		return 0, storageError(err, "failed to read document counter", map[string]any{"kind": kind})
	}
	return n, nil
}

// Next increments and returns the counter in a single statement so the
// read-increment-write cannot interleave with another writer.
func (r *counterStore) Next(ctx context.Context, kind numbering.Kind) (int64, error) {
	col, err := lastNumberColumn(kind)
	if err != nil {
		return 0, err
	}

	q := r.db.GetQuerier(ctx)
	query := fmt.Sprintf(`
	UPDATE numbering_config
	SET %[1]s = %[1]s + 1, updated_at = ?
	WHERE id = 1
	RETURNING %[1]s`, col)

	var n int64
	if err := q.GetContext(ctx, &n, q.Rebind(query), time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, errNumberingMissing(err)
		}
		return 0, storageError(err, "failed to advance document counter", map[string]any{"kind": kind})
	}

	r.logger.Debugw("advanced document counter",
		"kind", kind,
		"value", n,
	)
	return n, nil
}

func (r *counterStore) GetConfig(ctx context.Context) (*numbering.Config, error) {
	q := r.db.GetQuerier(ctx)
	query := `
	SELECT
		invoice_prefix, invoice_pad_length, invoice_last_number,
		protocol_pad_length, protocol_last_number, updated_at
	FROM numbering_config
	WHERE id = 1`

	var cfg numbering.Config
	if err := q.GetContext(ctx, &cfg, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNumberingMissing(err)
		}
		return nil, storageError(err, "failed to read numbering config", nil)
	}
	return &cfg, nil
}

func errNumberingMissing(err error) error {
	return ierr.WithError(err).
		WithHint("Numbering is not initialised, run the migrations first").
		Mark(ierr.ErrDatabase)
}

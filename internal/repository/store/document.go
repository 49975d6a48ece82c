package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/types"
)

const documentColumns = `id, order_id, invoice_no, protocol_no, is_paid, created_at, paid_at`

type documentRepository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewDocumentRepository(db *database.DB, logger *logger.Logger) document.Repository {
	return &documentRepository{db: db, logger: logger}
}

func (r *documentRepository) FindByOrderID(ctx context.Context, orderID string) (*document.Record, error) {
	q := r.db.GetQuerier(ctx)
	query := `SELECT ` + documentColumns + ` FROM document_records WHERE order_id = ?`

	var rec document.Record
	if err := q.GetContext(ctx, &rec, q.Rebind(query), orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(err, "failed to read document record", map[string]any{
			"order_id": orderID,
		})
	}
	return &rec, nil
}

func (r *documentRepository) InsertIfAbsent(ctx context.Context, rec *document.Record) (*document.Record, error) {
	q := r.db.GetQuerier(ctx)
	query := `
	INSERT INTO document_records (
		id, order_id, invoice_no, protocol_no, is_paid, created_at, paid_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := q.ExecContext(ctx, q.Rebind(query),
		rec.ID,
		rec.OrderID,
		rec.InvoiceNo,
		rec.ProtocolNo,
		rec.IsPaid,
		rec.CreatedAt.UTC(),
		rec.PaidAt,
	)
	if err == nil {
		return rec, nil
	}

	if detail, ok := database.UniqueViolation(err); ok {
		if strings.Contains(detail, "order_id") {
			return nil, ierr.WithError(document.ErrRecordExists).
				WithHintf("Order %s already has documents", rec.OrderID).
				WithReportableDetails(map[string]any{
					"order_id": rec.OrderID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		// a duplicate number means the counter row was edited behind our back
		r.logger.Errorw("document number already issued",
			"order_id", rec.OrderID,
			"invoice_no", rec.InvoiceNo,
			"protocol_no", rec.ProtocolNo,
			"constraint", detail,
		)
		return nil, ierr.WithError(err).
			WithHint("Document number already issued, check the numbering settings").
			WithReportableDetails(map[string]any{
				"invoice_no":  rec.InvoiceNo,
				"protocol_no": rec.ProtocolNo,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	return nil, storageError(err, "failed to store document record", map[string]any{
		"order_id": rec.OrderID,
	})
}

func (r *documentRepository) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*document.Record, error) {
	q := r.db.GetQuerier(ctx)
	query := `
	UPDATE document_records
	SET is_paid = ?, paid_at = ?
	WHERE order_id = ? AND is_paid = ?`

	res, err := q.ExecContext(ctx, q.Rebind(query), true, paidAt.UTC(), orderID, false)
	if err != nil {
		return nil, storageError(err, "failed to mark document paid", map[string]any{
			"order_id": orderID,
		})
	}

	rec, err := r.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ierr.NewError("document record not found").
			WithHintf("Order %s has no documents", orderID).
			WithReportableDetails(map[string]any{
				"order_id": orderID,
			}).
			Mark(ierr.ErrNotFound)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		r.logger.Infow("marked document paid",
			"order_id", orderID,
			"invoice_no", rec.InvoiceNo,
		)
	}
	return rec, nil
}

func (r *documentRepository) List(ctx context.Context, filter *types.DocumentFilter) ([]*document.Record, error) {
	q := r.db.GetQuerier(ctx)

	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.IsPaid != nil {
			where = append(where, "is_paid = ?")
			args = append(args, *filter.IsPaid)
		}
		if len(filter.OrderIDs) > 0 {
			where = append(where, "order_id IN (?)")
			args = append(args, filter.OrderIDs)
		}
	}

	query := `SELECT ` + documentColumns + ` FROM document_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid document filter").
			Mark(ierr.ErrValidation)
	}

	records := make([]*document.Record, 0)
	if err := q.SelectContext(ctx, &records, q.Rebind(query), args...); err != nil {
		return nil, storageError(err, "failed to list document records", nil)
	}
	return records, nil
}

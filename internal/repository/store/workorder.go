package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/wrenchworks/docdesk/internal/database"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/types"
)

const workOrderColumns = `id, status, total, created_at, completed_at`

type workOrderRepository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewWorkOrderRepository(db *database.DB, logger *logger.Logger) workorder.Repository {
	return &workOrderRepository{db: db, logger: logger}
}

func (r *workOrderRepository) Get(ctx context.Context, id string) (*workorder.WorkOrder, error) {
	q := r.db.GetQuerier(ctx)
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = ?`

	var o workorder.WorkOrder
	if err := q.GetContext(ctx, &o, q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Order %s not found", id).
				WithReportableDetails(map[string]any{
					"order_id": id,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, storageError(err, "failed to read order", map[string]any{
			"order_id": id,
		})
	}
	return &o, nil
}

func (r *workOrderRepository) List(ctx context.Context, filter *types.OrderFilter) ([]*workorder.WorkOrder, error) {
	q := r.db.GetQuerier(ctx)

	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Status != "" {
			where = append(where, "status = ?")
			args = append(args, filter.Status)
		}
		if len(filter.OrderIDs) > 0 {
			where = append(where, "id IN (?)")
			args = append(args, filter.OrderIDs)
		}
	}

	query := `SELECT ` + workOrderColumns + ` FROM work_orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid order filter").
			Mark(ierr.ErrValidation)
	}

	orders := make([]*workorder.WorkOrder, 0)
	if err := q.SelectContext(ctx, &orders, q.Rebind(query), args...); err != nil {
		return nil, storageError(err, "failed to list orders", nil)
	}
	return orders, nil
}

package workorder

import (
	"context"

	"github.com/wrenchworks/docdesk/internal/types"
)

// Repository reads work orders. Orders are written by the order module only.
type Repository interface {
	// Get retrieves an order by ID, returning ierr.ErrNotFound when absent
	Get(ctx context.Context, id string) (*WorkOrder, error)

	// List retrieves orders matching the filter
	List(ctx context.Context, filter *types.OrderFilter) ([]*WorkOrder, error)
}

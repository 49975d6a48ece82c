package document

import (
	"context"
	"time"

	"github.com/wrenchworks/docdesk/internal/types"
)

// Repository defines the interface for document record persistence
type Repository interface {
	// FindByOrderID returns the record for an order, or nil when none exists
	FindByOrderID(ctx context.Context, orderID string) (*Record, error)

	// InsertIfAbsent stores rec unless the order already has a record, in
	// which case ErrRecordExists is returned
	InsertIfAbsent(ctx context.Context, rec *Record) (*Record, error)

	// MarkPaid flags the order's record as paid. A record that is already
	// paid is returned unchanged.
	MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*Record, error)

	// List retrieves records matching the filter in no particular order
	List(ctx context.Context, filter *types.DocumentFilter) ([]*Record, error)
}

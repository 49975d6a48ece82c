package workorder

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wrenchworks/docdesk/internal/types"
)

// WorkOrder is the read-only view of a repair order owned by the order module
type WorkOrder struct {
	ID          string            `db:"id" json:"id"`
	Status      types.OrderStatus `db:"status" json:"status"`
	Total       decimal.Decimal   `db:"total" json:"total"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	CompletedAt *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
}

// IsCompleted reports whether documents may be issued for the order
func (o *WorkOrder) IsCompleted() bool {
	return o.Status == types.OrderStatusCompleted
}

// ReferenceDate is the date archival decisions are made against: the
// completion date when known, otherwise the creation date.
func (o *WorkOrder) ReferenceDate() time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.CreatedAt
}

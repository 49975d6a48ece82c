package document

import (
	"time"

	"github.com/wrenchworks/docdesk/internal/types"
)

// Record binds one invoice number and one protocol number to a work order
type Record struct {
	ID         string     `db:"id" json:"id"`
	OrderID    string     `db:"order_id" json:"order_id"`
	InvoiceNo  string     `db:"invoice_no" json:"invoice_no"`
	ProtocolNo string     `db:"protocol_no" json:"protocol_no"`
	IsPaid     bool       `db:"is_paid" json:"is_paid"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	PaidAt     *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// NewRecord builds an unpaid record for freshly minted numbers
func NewRecord(orderID, invoiceNo, protocolNo string, now time.Time) *Record {
	return &Record{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DOCUMENT),
		OrderID:    orderID,
		InvoiceNo:  invoiceNo,
		ProtocolNo: protocolNo,
		IsPaid:     false,
		CreatedAt:  now.UTC(),
	}
}

// StateOf derives the document state of an order from its record, which may be nil
func StateOf(rec *Record) types.DocumentState {
	switch {
	case rec == nil:
		return types.DocumentStateNotInvoiced
	case rec.IsPaid:
		return types.DocumentStatePaid
	default:
		return types.DocumentStateInvoiced
	}
}

// CanTransitionTo reports whether from may move to to. States only advance one
// step at a time: not_invoiced -> invoiced -> paid.
func CanTransitionTo(from, to types.DocumentState) bool {
	switch from {
	case types.DocumentStateNotInvoiced:
		return to == types.DocumentStateInvoiced
	case types.DocumentStateInvoiced:
		return to == types.DocumentStatePaid
	}
	return false
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentSummaryResponse aggregates document states for the dashboard
type DocumentSummaryResponse struct {
	TotalOrders int `json:"total_orders"`
	NotInvoiced int `json:"not_invoiced"`
	// UnbilledCompleted counts completed orders still waiting for documents
	UnbilledCompleted int             `json:"unbilled_completed"`
	Invoiced          int             `json:"invoiced"`
	Paid              int             `json:"paid"`
	Current           int             `json:"current"`
	Archived          int             `json:"archived"`
	OutstandingTotal  decimal.Decimal `json:"outstanding_total"`
	PaidTotal         decimal.Decimal `json:"paid_total"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

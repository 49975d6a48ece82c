package dto

import (
	"github.com/wrenchworks/docdesk/internal/domain/document"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	"github.com/wrenchworks/docdesk/internal/types"
)

// DocumentResponse represents the documents issued for one order
type DocumentResponse struct {
	*document.Record
	State types.DocumentState `json:"state"`
	// Outcome tells a reservation caller whether numbers were minted by this call
	Outcome types.ReservationOutcome `json:"outcome,omitempty"`
}

// NewDocumentResponse creates a response from a document record
func NewDocumentResponse(rec *document.Record) *DocumentResponse {
	if rec == nil {
		return nil
	}
	return &DocumentResponse{
		Record: rec,
		State:  document.StateOf(rec),
	}
}

// ListDocumentsResponse represents the response for listing document records
type ListDocumentsResponse struct {
	Items []*DocumentResponse `json:"items"`
	Total int                 `json:"total"`
}

// OrderDocumentResponse is an order with its document state and listing view
type OrderDocumentResponse struct {
	Order    *workorder.WorkOrder `json:"order"`
	Document *document.Record     `json:"document,omitempty"`
	State    types.DocumentState  `json:"state"`
	Bucket   types.DisplayBucket  `json:"bucket"`
}

// ListOrdersRequest selects the listing view
type ListOrdersRequest struct {
	View types.DisplayBucket `form:"view" json:"view" validate:"omitempty,oneof=current archive"`
}

// ListOrdersResponse represents one view of the order listing
type ListOrdersResponse struct {
	View  types.DisplayBucket      `json:"view"`
	Items []*OrderDocumentResponse `json:"items"`
	Total int                      `json:"total"`
}

// ListDocumentsRequest narrows the document listing
type ListDocumentsRequest struct {
	IsPaid *bool `form:"is_paid" json:"is_paid,omitempty"`
}

// ToFilter converts the request into a repository filter
func (r *ListDocumentsRequest) ToFilter() *types.DocumentFilter {
	return &types.DocumentFilter{IsPaid: r.IsPaid}
}

package types

// DocumentFilter narrows a document listing. The zero value lists everything.
type DocumentFilter struct {
	IsPaid   *bool    `form:"is_paid" json:"is_paid,omitempty"`
	OrderIDs []string `form:"order_ids" json:"order_ids,omitempty"`
}

// OrderFilter narrows a work order listing.
type OrderFilter struct {
	Status   OrderStatus `form:"status" json:"status,omitempty"`
	OrderIDs []string    `form:"order_ids" json:"order_ids,omitempty"`
}

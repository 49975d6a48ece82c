package dto

import "time"

// NumberingResponse shows the counters and the numbers the next reservation would take
type NumberingResponse struct {
	InvoicePrefix      string    `json:"invoice_prefix"`
	InvoicePadLength   int       `json:"invoice_pad_length"`
	InvoiceLastNumber  int64     `json:"invoice_last_number"`
	NextInvoiceNo      string    `json:"next_invoice_no"`
	ProtocolPadLength  int       `json:"protocol_pad_length"`
	ProtocolLastNumber int64     `json:"protocol_last_number"`
	NextProtocolNo     string    `json:"next_protocol_no"`
	UpdatedAt          time.Time `json:"updated_at"`
}

package numbering

import (
	"fmt"
	"time"

	ierr "github.com/wrenchworks/docdesk/internal/errors"
)

// Kind names one of the independent document counters
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindProtocol Kind = "protocol"
)

// Kinds lists every counter in the order they are minted during a reservation
var Kinds = []Kind{KindInvoice, KindProtocol}

func (k Kind) Validate() error {
	switch k {
	case KindInvoice, KindProtocol:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("unknown counter kind %q", k)).
		WithHintf("Counter kind must be %s or %s", KindInvoice, KindProtocol).
		Mark(ierr.ErrValidation)
}

// Config is the singleton numbering row
type Config struct {
	InvoicePrefix      string    `db:"invoice_prefix" json:"invoice_prefix"`
	InvoicePadLength   int       `db:"invoice_pad_length" json:"invoice_pad_length"`
	InvoiceLastNumber  int64     `db:"invoice_last_number" json:"invoice_last_number"`
	ProtocolPadLength  int       `db:"protocol_pad_length" json:"protocol_pad_length"`
	ProtocolLastNumber int64     `db:"protocol_last_number" json:"protocol_last_number"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// LastNumber returns the last issued value of the given counter
func (c *Config) LastNumber(kind Kind) int64 {
	if kind == KindProtocol {
		return c.ProtocolLastNumber
	}
	return c.InvoiceLastNumber
}

// Format renders n as a document number. The pad length is a minimum width:
// values wider than it are never truncated.
func (c *Config) Format(kind Kind, n int64) string {
	switch kind {
	case KindProtocol:
		return fmt.Sprintf("%0*d", c.ProtocolPadLength, n)
	default:
		return fmt.Sprintf("%s%0*d", c.InvoicePrefix, c.InvoicePadLength, n)
	}
}

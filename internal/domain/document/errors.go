package document

import "errors"

var (
	// ErrOrderNotFound is returned when documents are requested for an unknown order
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotCompleted is returned when documents are requested before the order is completed
	ErrOrderNotCompleted = errors.New("order not completed")

	// ErrNotInvoicedYet is returned when paying an order that has no documents
	ErrNotInvoicedYet = errors.New("order not invoiced yet")

	// ErrPersistence is returned when storage keeps failing after retries
	ErrPersistence = errors.New("document persistence failed")

	// ErrRecordExists is returned when the order already holds a record
	ErrRecordExists = errors.New("document record already exists")
)

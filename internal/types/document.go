package types

import (
	"fmt"

	ierr "github.com/wrenchworks/docdesk/internal/errors"
)

// OrderStatus is the lifecycle status of a work order as written by the order module
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
)

// DocumentState is the numbering state of a work order
type DocumentState string

const (
	DocumentStateNotInvoiced DocumentState = "not_invoiced"
	DocumentStateInvoiced    DocumentState = "invoiced"
	DocumentStatePaid        DocumentState = "paid"
)

// DisplayBucket is the listing view an order belongs to
type DisplayBucket string

const (
	DisplayBucketCurrent DisplayBucket = "current"
	DisplayBucketArchive DisplayBucket = "archive"
)

func (b DisplayBucket) Validate() error {
	switch b {
	case DisplayBucketCurrent, DisplayBucketArchive:
		return nil
	}
	return ierr.NewError(fmt.Sprintf("invalid view %q", b)).
		WithHintf("View must be one of %s or %s", DisplayBucketCurrent, DisplayBucketArchive).
		Mark(ierr.ErrValidation)
}

// ReservationOutcome tells a reservation caller how the returned numbers came about
type ReservationOutcome string

const (
	// ReservationOutcomeCreated means this call minted the numbers
	ReservationOutcomeCreated ReservationOutcome = "created"
	// ReservationOutcomeExisting means the order already held numbers
	ReservationOutcomeExisting ReservationOutcome = "existing"
	// ReservationOutcomeLostRace means a concurrent call minted the numbers first
	ReservationOutcomeLostRace ReservationOutcome = "lost_race"
)

// PaymentOutcome tells a mark-paid caller whether this call recorded the payment
type PaymentOutcome string

const (
	PaymentOutcomePaid        PaymentOutcome = "paid"
	PaymentOutcomeAlreadyPaid PaymentOutcome = "already_paid"
)

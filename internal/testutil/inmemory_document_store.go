package testutil

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/types"
)

var _ document.Repository = (*InMemoryDocumentStore)(nil)

// InMemoryDocumentStore implements document.Repository keyed by order ID
type InMemoryDocumentStore struct {
	*InMemoryStore[*document.Record]
}

// NewInMemoryDocumentStore creates a new in-memory document store
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		InMemoryStore: NewInMemoryStore[*document.Record](),
	}
}

func copyRecord(rec *document.Record) *document.Record {
	if rec == nil {
		return nil
	}
	cp := *rec
	if rec.PaidAt != nil {
		cp.PaidAt = lo.ToPtr(*rec.PaidAt)
	}
	return &cp
}

func documentFilterFn(ctx context.Context, rec *document.Record, filter interface{}) bool {
	f, ok := filter.(*types.DocumentFilter)
	if !ok || f == nil {
		return true
	}
	if f.IsPaid != nil && rec.IsPaid != *f.IsPaid {
		return false
	}
	if len(f.OrderIDs) > 0 && !lo.Contains(f.OrderIDs, rec.OrderID) {
		return false
	}
	return true
}

func (s *InMemoryDocumentStore) FindByOrderID(ctx context.Context, orderID string) (*document.Record, error) {
	rec, err := s.InMemoryStore.Get(ctx, orderID)
	if errors.Is(err, errItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return copyRecord(rec), nil
}

func (s *InMemoryDocumentStore) InsertIfAbsent(ctx context.Context, rec *document.Record) (*document.Record, error) {
	if err := s.InMemoryStore.Create(ctx, rec.OrderID, copyRecord(rec)); err != nil {
		if errors.Is(err, errItemExists) {
			return nil, ierr.WithError(document.ErrRecordExists).
				WithHintf("Order %s already has documents", rec.OrderID).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil, ierr.WithError(err).Mark(ierr.ErrDatabase)
	}
	return copyRecord(rec), nil
}

func (s *InMemoryDocumentStore) MarkPaid(ctx context.Context, orderID string, paidAt time.Time) (*document.Record, error) {
	rec, err := s.InMemoryStore.Modify(ctx, orderID, func(r *document.Record) *document.Record {
		if r.IsPaid {
			return r
		}
		updated := copyRecord(r)
		updated.IsPaid = true
		updated.PaidAt = lo.ToPtr(paidAt.UTC())
		return updated
	})
	if errors.Is(err, errItemNotFound) {
		return nil, ierr.NewError("document record not found").
			WithHintf("Order %s has no documents", orderID).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return copyRecord(rec), nil
}

func (s *InMemoryDocumentStore) List(ctx context.Context, filter *types.DocumentFilter) ([]*document.Record, error) {
	records, err := s.InMemoryStore.List(ctx, filter, documentFilterFn, nil)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(r *document.Record, _ int) *document.Record {
		return copyRecord(r)
	}), nil
}

package testutil

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/types"
)

var _ workorder.Repository = (*InMemoryWorkOrderStore)(nil)

// InMemoryWorkOrderStore implements workorder.Repository. Tests seed it
// through Add since the repository itself is read-only.
type InMemoryWorkOrderStore struct {
	*InMemoryStore[*workorder.WorkOrder]
}

// NewInMemoryWorkOrderStore creates a new in-memory work order store
func NewInMemoryWorkOrderStore() *InMemoryWorkOrderStore {
	return &InMemoryWorkOrderStore{
		InMemoryStore: NewInMemoryStore[*workorder.WorkOrder](),
	}
}

func workOrderFilterFn(ctx context.Context, o *workorder.WorkOrder, filter interface{}) bool {
	f, ok := filter.(*types.OrderFilter)
	if !ok || f == nil {
		return true
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if len(f.OrderIDs) > 0 && !lo.Contains(f.OrderIDs, o.ID) {
		return false
	}
	return true
}

// Add stores or replaces an order
func (s *InMemoryWorkOrderStore) Add(ctx context.Context, o *workorder.WorkOrder) {
	cp := *o
	if err := s.InMemoryStore.Create(ctx, o.ID, &cp); err != nil {
		_, _ = s.InMemoryStore.Modify(ctx, o.ID, func(*workorder.WorkOrder) *workorder.WorkOrder { return &cp })
	}
}

func (s *InMemoryWorkOrderStore) Get(ctx context.Context, id string) (*workorder.WorkOrder, error) {
	o, err := s.InMemoryStore.Get(ctx, id)
	if errors.Is(err, errItemNotFound) {
		return nil, ierr.WithError(err).
			WithHintf("Order %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	cp := *o
	return &cp, nil
}

func (s *InMemoryWorkOrderStore) List(ctx context.Context, filter *types.OrderFilter) ([]*workorder.WorkOrder, error) {
	return s.InMemoryStore.List(ctx, filter, workOrderFilterFn, func(a, b *workorder.WorkOrder) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

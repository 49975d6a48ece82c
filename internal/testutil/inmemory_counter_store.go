package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/wrenchworks/docdesk/internal/domain/numbering"
)

var _ numbering.CounterStore = (*InMemoryCounterStore)(nil)

// InMemoryCounterStore implements numbering.CounterStore. Numbers handed out
// by Next are never returned, even when the surrounding call fails.
type InMemoryCounterStore struct {
	mu       sync.Mutex
	cfg      numbering.Config
	failures []error
	calls    int
}

// NewInMemoryCounterStore creates a counter store seeded like a fresh migration
func NewInMemoryCounterStore(prefix string, invoicePad, protocolPad int) *InMemoryCounterStore {
	return &InMemoryCounterStore{
		cfg: numbering.Config{
			InvoicePrefix:     prefix,
			InvoicePadLength:  invoicePad,
			ProtocolPadLength: protocolPad,
			UpdatedAt:         time.Now().UTC(),
		},
	}
}

// FailNext makes the following Next calls return errs in order before
// succeeding again
func (s *InMemoryCounterStore) FailNext(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

// NextCalls returns how many times Next was called, failed calls included
func (s *InMemoryCounterStore) NextCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// SetLastNumbers moves both counters, as an operator would from the settings screen
func (s *InMemoryCounterStore) SetLastNumbers(invoice, protocol int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.InvoiceLastNumber = invoice
	s.cfg.ProtocolLastNumber = protocol
}

func (s *InMemoryCounterStore) Peek(ctx context.Context, kind numbering.Kind) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.LastNumber(kind), nil
}

func (s *InMemoryCounterStore) Next(ctx context.Context, kind numbering.Kind) (int64, error) {
	if err := kind.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return 0, err
	}

	s.cfg.UpdatedAt = time.Now().UTC()
	if kind == numbering.KindProtocol {
		s.cfg.ProtocolLastNumber++
		return s.cfg.ProtocolLastNumber, nil
	}
	s.cfg.InvoiceLastNumber++
	return s.cfg.InvoiceLastNumber, nil
}

func (s *InMemoryCounterStore) GetConfig(ctx context.Context) (*numbering.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.cfg
	return &cfg, nil
}

// Clear resets both counters to zero
func (s *InMemoryCounterStore) Clear() {
	s.SetLastNumbers(0, 0)
	s.mu.Lock()
	s.failures = nil
	s.calls = 0
	s.mu.Unlock()
}

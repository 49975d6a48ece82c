package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/stretchr/testify/suite"
	"github.com/wrenchworks/docdesk/internal/api/dto"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/metrics"
	testutils "github.com/wrenchworks/docdesk/internal/testutil"
	"github.com/wrenchworks/docdesk/internal/types"
)

type DocumentServiceSuite struct {
	testutils.BaseServiceTestSuite
	service DocumentService
	params  ServiceParams
}

func TestDocumentService(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService(s.GetConfig().Reservation.SerializeFirstReservations)
}

func (s *DocumentServiceSuite) setupService(serialize bool) {
	cfg := *s.GetConfig()
	cfg.Reservation.SerializeFirstReservations = serialize

	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:        s.GetLogger(),
		Config:        &cfg,
		DB:            s.GetDB(),
		Cache:         s.GetCache(),
		Metrics:       s.GetMetrics(),
		CounterStore:  stores.CounterStore,
		DocumentRepo:  stores.DocumentRepo,
		WorkOrderRepo: stores.WorkOrderRepo,
		Now:           testutils.FixedClock(s.GetNow()),
	}
	s.service = NewDocumentService(s.params)
}

func (s *DocumentServiceSuite) reservationCount(outcome string) float64 {
	return counterValue(s.GetMetrics(), "docdesk_reservations_total", outcome)
}

func (s *DocumentServiceSuite) TestReserveDocumentNumbers() {
	completed := s.GetNow().AddDate(0, 0, -1)
	s.CreateCompletedOrder("ord-1", completed, "120.50")

	resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Equal("ord-1", resp.OrderID)
	s.Equal("0900000001", resp.InvoiceNo)
	s.Equal("000001", resp.ProtocolNo)
	s.False(resp.IsPaid)
	s.Nil(resp.PaidAt)
	s.Equal(types.DocumentStateInvoiced, resp.State)
	s.Equal(types.ReservationOutcomeCreated, resp.Outcome)
	s.True(resp.CreatedAt.Equal(s.GetNow()))

	last, err := s.GetStores().CounterStore.Peek(s.GetContext(), numbering.KindInvoice)
	s.NoError(err)
	s.Equal(int64(1), last)
	s.Equal(float64(1), s.reservationCount(string(types.ReservationOutcomeCreated)))
}

func (s *DocumentServiceSuite) TestReserveIsIdempotent() {
	s.CreateCompletedOrder("ord-1", s.GetNow().AddDate(0, 0, -1), "10")

	first, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)
	second, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)

	s.Equal(first.InvoiceNo, second.InvoiceNo)
	s.Equal(first.ProtocolNo, second.ProtocolNo)
	s.True(first.CreatedAt.Equal(second.CreatedAt))
	s.Equal(types.ReservationOutcomeExisting, second.Outcome)

	records, err := s.GetStores().DocumentRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(records, 1)

	last, err := s.GetStores().CounterStore.Peek(s.GetContext(), numbering.KindProtocol)
	s.NoError(err)
	s.Equal(int64(1), last)
}

func (s *DocumentServiceSuite) TestReservePreconditions() {
	s.CreateActiveOrder("ord-active", s.GetNow().AddDate(0, -1, 0))

	testCases := []struct {
		name     string
		orderID  string
		sentinel error
		category error
	}{
		{
			name:     "unknown_order",
			orderID:  "ord-missing",
			sentinel: document.ErrOrderNotFound,
			category: ierr.ErrNotFound,
		},
		{
			name:     "order_not_completed",
			orderID:  "ord-active",
			sentinel: document.ErrOrderNotCompleted,
			category: ierr.ErrValidation,
		},
		{
			name:     "empty_order_id",
			orderID:  "",
			category: ierr.ErrValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), tc.orderID)
			s.Error(err)
			s.Nil(resp)
			if tc.sentinel != nil {
				s.True(errors.Is(err, tc.sentinel), "expected %v, got %v", tc.sentinel, err)
			}
			s.True(errors.Is(err, tc.category))
		})
	}

	// failed preconditions never touch the counters or records
	s.Equal(0, s.GetStores().CounterStore.NextCalls())
	records, err := s.GetStores().DocumentRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Empty(records)
}

func (s *DocumentServiceSuite) TestReserveNotCompletedCarriesStatus() {
	s.CreateActiveOrder("ord-active", s.GetNow())

	_, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-active")
	s.Error(err)
	s.Equal(400, ierr.HTTPStatusFromErr(err))
	s.Contains(errors.FlattenHints(err), "order is not completed yet")
}

func (s *DocumentServiceSuite) TestReserveNumbersAreUniqueAndIncreasing() {
	for i := 1; i <= 10; i++ {
		s.CreateCompletedOrder(fmt.Sprintf("ord-%02d", i), s.GetNow().AddDate(0, 0, -i), "1")
	}

	var issued []string
	for i := 1; i <= 10; i++ {
		resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), fmt.Sprintf("ord-%02d", i))
		s.NoError(err)
		issued = append(issued, resp.InvoiceNo)
	}

	s.True(sort.StringsAreSorted(issued))
	s.Len(lo.Uniq(issued), len(issued))
	s.Equal("0900000010", issued[len(issued)-1])
}

func (s *DocumentServiceSuite) TestReserveFormatsWidenedNumbers() {
	s.GetStores().CounterStore.SetLastNumbers(123456788, 999999)
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")

	resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Equal("09123456789", resp.InvoiceNo)
	s.Equal("1000000", resp.ProtocolNo)
}

func (s *DocumentServiceSuite) TestReserveRetriesTransientFailures() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")
	busy := ierr.WithError(errors.New("database is locked")).Mark(ierr.ErrTransient)
	s.GetStores().CounterStore.FailNext(busy, busy)

	resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Equal("0900000001", resp.InvoiceNo)
	s.Equal(float64(2), counterValue(s.GetMetrics(), "docdesk_storage_retries_total", "reserve"))
}

func (s *DocumentServiceSuite) TestReserveSurfacesPersistenceErrorAfterRetries() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")
	busy := ierr.WithError(errors.New("database is locked")).Mark(ierr.ErrTransient)
	maxRetries := s.params.Config.Reservation.MaxRetries
	for i := 0; i <= maxRetries; i++ {
		s.GetStores().CounterStore.FailNext(busy)
	}

	resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.Error(err)
	s.Nil(resp)
	s.True(errors.Is(err, document.ErrPersistence))
	s.True(ierr.IsTransient(err))
	s.Equal(503, ierr.HTTPStatusFromErr(err))
	s.Equal(maxRetries+1, s.GetStores().CounterStore.NextCalls())

	rec, err := s.GetStores().DocumentRepo.FindByOrderID(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Nil(rec)
	s.Equal(float64(1), s.reservationCount(metrics.LabelFailed))
}

func (s *DocumentServiceSuite) TestReserveDoesNotRetryDatabaseErrors() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")
	s.GetStores().CounterStore.FailNext(ierr.WithError(errors.New("disk full")).Mark(ierr.ErrDatabase))

	_, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.Error(err)
	s.True(errors.Is(err, document.ErrPersistence))
	s.Equal(500, ierr.HTTPStatusFromErr(err))
	s.Equal(1, s.GetStores().CounterStore.NextCalls())
}

func (s *DocumentServiceSuite) TestReserveInvalidatesNumberingCache() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")
	numberingService := NewNumberingService(s.params)

	before, err := numberingService.GetNumbering(s.GetContext())
	s.NoError(err)
	s.Equal("0900000001", before.NextInvoiceNo)

	_, err = s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)

	after, err := numberingService.GetNumbering(s.GetContext())
	s.NoError(err)
	s.Equal("0900000002", after.NextInvoiceNo)
	s.Equal(int64(1), after.InvoiceLastNumber)
}

func (s *DocumentServiceSuite) TestConcurrentReservationsForDistinctOrders() {
	const orders = 50
	for i := 0; i < orders; i++ {
		s.CreateCompletedOrder(fmt.Sprintf("ord-%02d", i), s.GetNow().AddDate(0, 0, -1), "1")
	}

	results := s.reserveConcurrently(lo.Times(orders, func(i int) string { return fmt.Sprintf("ord-%02d", i) }))

	s.Len(results, orders)
	s.Len(lo.Uniq(lo.Map(results, func(r *dto.DocumentResponse, _ int) string { return r.InvoiceNo })), orders)
	s.Len(lo.Uniq(lo.Map(results, func(r *dto.DocumentResponse, _ int) string { return r.ProtocolNo })), orders)
	s.Len(lo.Uniq(lo.Map(results, func(r *dto.DocumentResponse, _ int) string { return r.OrderID })), orders)

	records, err := s.GetStores().DocumentRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(records, orders)

	last, err := s.GetStores().CounterStore.Peek(s.GetContext(), numbering.KindInvoice)
	s.NoError(err)
	s.GreaterOrEqual(last, int64(orders))
}

func (s *DocumentServiceSuite) TestConcurrentReservationsForSameOrder() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")

	results := s.reserveConcurrently(lo.Times(20, func(int) string { return "ord-1" }))

	s.Len(results, 20)
	s.Len(lo.Uniq(lo.Map(results, func(r *dto.DocumentResponse, _ int) string { return r.InvoiceNo })), 1)
	s.Len(lo.Uniq(lo.Map(results, func(r *dto.DocumentResponse, _ int) string { return r.ProtocolNo })), 1)

	records, err := s.GetStores().DocumentRepo.List(s.GetContext(), nil)
	s.NoError(err)
	s.Len(records, 1)
}

func (s *DocumentServiceSuite) TestSerializedReservationsAreGapless() {
	s.setupService(true)
	s.CreateCompletedOrder("ord-shared", s.GetNow(), "1")
	for i := 0; i < 20; i++ {
		s.CreateCompletedOrder(fmt.Sprintf("ord-%02d", i), s.GetNow(), "1")
	}

	ids := lo.Times(20, func(i int) string { return fmt.Sprintf("ord-%02d", i) })
	ids = append(ids, lo.Times(20, func(int) string { return "ord-shared" })...)
	results := s.reserveConcurrently(ids)
	s.Len(results, 40)

	// 21 distinct orders consume exactly 21 numbers
	last, err := s.GetStores().CounterStore.Peek(s.GetContext(), numbering.KindInvoice)
	s.NoError(err)
	s.Equal(int64(21), last)
	s.Equal(float64(0), s.reservationCount(string(types.ReservationOutcomeLostRace)))

	records, err := s.GetStores().DocumentRepo.List(s.GetContext(), nil)
	s.NoError(err)
	invoiceNos := lo.Map(records, func(r *document.Record, _ int) string { return r.InvoiceNo })
	sort.Strings(invoiceNos)
	for i, no := range invoiceNos {
		s.Equal(fmt.Sprintf("09%08d", i+1), no)
	}
}

func (s *DocumentServiceSuite) TestReservationLosingInsertReturnsWinner() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")
	s.CreateCompletedOrder("ord-2", s.GetNow(), "1")

	// the racing call commits between our second read and our insert
	winner := document.NewRecord("ord-1", "0900000077", "000077", s.GetNow())
	s.params.DocumentRepo = &racingDocumentRepo{
		Repository:  s.params.DocumentRepo,
		winner:      winner,
		hiddenReads: 2,
	}
	s.service = NewDocumentService(s.params)
	numberingService := NewNumberingService(s.params)

	before, err := numberingService.GetNumbering(s.GetContext())
	s.NoError(err)
	s.Equal("0900000001", before.NextInvoiceNo)

	resp, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Equal(types.ReservationOutcomeLostRace, resp.Outcome)
	s.Equal(winner.InvoiceNo, resp.InvoiceNo)
	s.Equal(winner.ProtocolNo, resp.ProtocolNo)
	s.Equal(float64(1), s.reservationCount(string(types.ReservationOutcomeLostRace)))
	s.Equal(float64(0), s.reservationCount(string(types.ReservationOutcomeCreated)))

	// the discarded numbers stay consumed
	lastInvoice, err := s.GetStores().CounterStore.Peek(s.GetContext(), numbering.KindInvoice)
	s.NoError(err)
	s.Equal(int64(1), lastInvoice)
	lastProtocol, err := s.GetStores().CounterStore.Peek(s.GetContext(), numbering.KindProtocol)
	s.NoError(err)
	s.Equal(int64(1), lastProtocol)

	after, err := numberingService.GetNumbering(s.GetContext())
	s.NoError(err)
	s.Equal("0900000002", after.NextInvoiceNo)
	s.Equal("000002", after.NextProtocolNo)

	next, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-2")
	s.NoError(err)
	s.Equal(types.ReservationOutcomeCreated, next.Outcome)
	s.Equal("0900000002", next.InvoiceNo)
	s.Equal("000002", next.ProtocolNo)
}

func (s *DocumentServiceSuite) reserveConcurrently(orderIDs []string) []*dto.DocumentResponse {
	var failures atomic.Int32
	p := pool.NewWithResults[*dto.DocumentResponse]().WithMaxGoroutines(len(orderIDs))
	for _, id := range orderIDs {
		id := id
		p.Go(func() *dto.DocumentResponse {
			resp, err := s.service.ReserveDocumentNumbers(context.Background(), id)
			if err != nil {
				failures.Add(1)
				return nil
			}
			return resp
		})
	}
	results := lo.Compact(p.Wait())
	s.Zero(failures.Load())
	return results
}

func (s *DocumentServiceSuite) TestMarkDocumentPaid() {
	s.CreateCompletedOrder("ord-1", s.GetNow().AddDate(0, 0, -3), "1")
	_, err := s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)

	paid, err := s.service.MarkDocumentPaid(s.GetContext(), "ord-1")
	s.NoError(err)
	s.True(paid.IsPaid)
	s.NotNil(paid.PaidAt)
	s.True(paid.PaidAt.Equal(s.GetNow()))
	s.Equal(types.DocumentStatePaid, paid.State)

	// a later click keeps the first payment date
	s.params.Now = testutils.FixedClock(s.GetNow().Add(time.Hour))
	s.service = NewDocumentService(s.params)

	again, err := s.service.MarkDocumentPaid(s.GetContext(), "ord-1")
	s.NoError(err)
	s.True(again.PaidAt.Equal(*paid.PaidAt))
	s.Equal(paid.InvoiceNo, again.InvoiceNo)
}

func (s *DocumentServiceSuite) TestMarkDocumentPaidBeforeReservation() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")

	resp, err := s.service.MarkDocumentPaid(s.GetContext(), "ord-1")
	s.Error(err)
	s.Nil(resp)
	s.True(errors.Is(err, document.ErrNotInvoicedYet))
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(400, ierr.HTTPStatusFromErr(err))

	// the failed payment left nothing behind
	rec, err := s.GetStores().DocumentRepo.FindByOrderID(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Nil(rec)
}

func (s *DocumentServiceSuite) TestListDocuments() {
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("ord-%d", i)
		s.CreateCompletedOrder(id, s.GetNow(), "1")
		_, err := s.service.ReserveDocumentNumbers(s.GetContext(), id)
		s.NoError(err)
	}
	_, err := s.service.MarkDocumentPaid(s.GetContext(), "ord-2")
	s.NoError(err)

	all, err := s.service.ListDocuments(s.GetContext(), nil)
	s.NoError(err)
	s.Equal(3, all.Total)
	s.Equal("0900000001", all.Items[0].InvoiceNo)

	unpaid, err := s.service.ListDocuments(s.GetContext(), &types.DocumentFilter{IsPaid: lo.ToPtr(false)})
	s.NoError(err)
	s.Equal(2, unpaid.Total)
	for _, item := range unpaid.Items {
		s.False(item.IsPaid)
	}
}

func (s *DocumentServiceSuite) TestClassifyForDisplay() {
	old := s.CreateCompletedOrder("ord-old", time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), "1")
	recent := s.CreateCompletedOrder("ord-recent", time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), "1")

	s.Equal(types.DisplayBucketArchive, s.service.ClassifyForDisplay(old, &document.Record{OrderID: old.ID}))
	s.Equal(types.DisplayBucketCurrent, s.service.ClassifyForDisplay(recent, &document.Record{OrderID: recent.ID}))
	s.Equal(types.DisplayBucketArchive, s.service.ClassifyForDisplay(recent, &document.Record{OrderID: recent.ID, IsPaid: true}))
	s.Equal(types.DisplayBucketCurrent, s.service.ClassifyForDisplay(old, nil))
}

func (s *DocumentServiceSuite) TestGetOrderDocument() {
	s.CreateCompletedOrder("ord-1", s.GetNow(), "1")

	view, err := s.service.GetOrderDocument(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Equal(types.DocumentStateNotInvoiced, view.State)
	s.Equal(types.DisplayBucketCurrent, view.Bucket)
	s.Nil(view.Document)

	_, err = s.service.ReserveDocumentNumbers(s.GetContext(), "ord-1")
	s.NoError(err)

	view, err = s.service.GetOrderDocument(s.GetContext(), "ord-1")
	s.NoError(err)
	s.Equal(types.DocumentStateInvoiced, view.State)
	s.NotNil(view.Document)

	_, err = s.service.GetOrderDocument(s.GetContext(), "ord-missing")
	s.True(errors.Is(err, document.ErrOrderNotFound))
}

func (s *DocumentServiceSuite) TestListOrders() {
	s.CreateCompletedOrder("ord-old", time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC), "1")
	s.CreateCompletedOrder("ord-recent", time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), "1")
	s.CreateCompletedOrder("ord-unbilled", time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), "1")
	s.CreateActiveOrder("ord-active", s.GetNow())

	for _, id := range []string{"ord-old", "ord-recent"} {
		_, err := s.service.ReserveDocumentNumbers(s.GetContext(), id)
		s.NoError(err)
	}

	current, err := s.service.ListOrders(s.GetContext(), "")
	s.NoError(err)
	s.Equal(types.DisplayBucketCurrent, current.View)
	s.ElementsMatch([]string{"ord-recent", "ord-unbilled", "ord-active"}, orderIDsOf(current))

	archive, err := s.service.ListOrders(s.GetContext(), types.DisplayBucketArchive)
	s.NoError(err)
	s.ElementsMatch([]string{"ord-old"}, orderIDsOf(archive))

	_, err = s.service.ListOrders(s.GetContext(), types.DisplayBucket("trash"))
	s.True(ierr.IsValidation(err))
}

// racingDocumentRepo hides the first reads of an order and lets a winner
// record land just before the service inserts its own
type racingDocumentRepo struct {
	document.Repository
	winner      *document.Record
	hiddenReads int
}

func (r *racingDocumentRepo) FindByOrderID(ctx context.Context, orderID string) (*document.Record, error) {
	if r.hiddenReads > 0 {
		r.hiddenReads--
		return nil, nil
	}
	return r.Repository.FindByOrderID(ctx, orderID)
}

func (r *racingDocumentRepo) InsertIfAbsent(ctx context.Context, rec *document.Record) (*document.Record, error) {
	if r.winner != nil {
		winner := r.winner
		r.winner = nil
		if _, err := r.Repository.InsertIfAbsent(ctx, winner); err != nil {
			return nil, err
		}
	}
	return r.Repository.InsertIfAbsent(ctx, rec)
}

// counterValue reads one labelled counter from the registry
func counterValue(m *metrics.Metrics, name, label string) float64 {
	families, err := m.Registry().Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetValue() == label {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func orderIDsOf(resp *dto.ListOrdersResponse) []string {
	return lo.Map(resp.Items, func(item *dto.OrderDocumentResponse, _ int) string { return item.Order.ID })
}

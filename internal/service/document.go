package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/wrenchworks/docdesk/internal/api/dto"
	"github.com/wrenchworks/docdesk/internal/cache"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/metrics"
	"github.com/wrenchworks/docdesk/internal/types"
)

// errConcurrentReservationLost rolls back a reservation whose order was
// invoiced by a racing call. It never leaves this file.
var errConcurrentReservationLost = errors.New("concurrent reservation lost")

type DocumentService interface {
	// ReserveDocumentNumbers assigns invoice and protocol numbers to a
	// completed order, or returns the ones it already holds
	ReserveDocumentNumbers(ctx context.Context, orderID string) (*dto.DocumentResponse, error)

	// MarkDocumentPaid records the payment of an invoiced order
	MarkDocumentPaid(ctx context.Context, orderID string) (*dto.DocumentResponse, error)

	ListDocuments(ctx context.Context, filter *types.DocumentFilter) (*dto.ListDocumentsResponse, error)

	// ClassifyForDisplay decides the listing view of an order at the current time
	ClassifyForDisplay(order *workorder.WorkOrder, rec *document.Record) types.DisplayBucket

	GetOrderDocument(ctx context.Context, orderID string) (*dto.OrderDocumentResponse, error)

	ListOrders(ctx context.Context, view types.DisplayBucket) (*dto.ListOrdersResponse, error)
}

type documentService struct {
	ServiceParams
	classifier document.Classifier

	// serializes first reservations when configured
	firstReservation sync.Mutex
}

func NewDocumentService(params ServiceParams) DocumentService {
	return &documentService{
		ServiceParams: params,
		classifier:    document.NewClassifier(params.Config.Archive.AfterMonths),
	}
}

func (s *documentService) ReserveDocumentNumbers(ctx context.Context, orderID string) (*dto.DocumentResponse, error) {
	if orderID == "" {
		return nil, ierr.NewError("order ID is required").
			WithHint("Please provide a valid order ID").
			Mark(ierr.ErrValidation)
	}

	var (
		rec     *document.Record
		outcome types.ReservationOutcome
	)
	err := s.withRetry(ctx, "reserve", func(ctx context.Context) error {
		var err error
		rec, outcome, err = s.reserveOnce(ctx, orderID)
		return err
	})
	if err != nil {
		if ierr.IsTransient(err) || ierr.IsDatabase(err) {
			s.Metrics.ObserveReservationFailure()
		}
		return nil, err
	}

	s.Metrics.ObserveReservation(outcome)
	// a lost race still advanced both counters
	if outcome != types.ReservationOutcomeExisting {
		s.Cache.DeleteByPrefix(ctx, cache.PrefixNumbering)
	}
	if outcome == types.ReservationOutcomeCreated {
		s.Logger.Infow("reserved document numbers",
			"order_id", orderID,
			"invoice_no", rec.InvoiceNo,
			"protocol_no", rec.ProtocolNo,
		)
	}

	resp := dto.NewDocumentResponse(rec)
	resp.Outcome = outcome
	return resp, nil
}

func (s *documentService) reserveOnce(ctx context.Context, orderID string) (*document.Record, types.ReservationOutcome, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, "", err
	}

	if !order.IsCompleted() {
		return nil, "", ierr.WithError(document.ErrOrderNotCompleted).
			WithHint("order is not completed yet").
			WithReportableDetails(map[string]any{
				"order_id": orderID,
				"status":   order.Status,
			}).
			Mark(ierr.ErrValidation)
	}

	existing, err := s.DocumentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return existing, types.ReservationOutcomeExisting, nil
	}

	if s.Config.Reservation.SerializeFirstReservations {
		s.firstReservation.Lock()
		defer s.firstReservation.Unlock()
	}

	var (
		rec     *document.Record
		outcome = types.ReservationOutcomeCreated
	)
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		// a racing call may have committed since the read above
		current, err := s.DocumentRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if current != nil {
			rec, outcome = current, types.ReservationOutcomeExisting
			return nil
		}

		if !document.CanTransitionTo(document.StateOf(nil), types.DocumentStateInvoiced) {
			return ierr.NewError("order cannot be invoiced").Mark(ierr.ErrInvalidOperation)
		}

		invoiceN, err := s.CounterStore.Next(ctx, numbering.KindInvoice)
		if err != nil {
			return err
		}
		protocolN, err := s.CounterStore.Next(ctx, numbering.KindProtocol)
		if err != nil {
			return err
		}

		cfg, err := s.CounterStore.GetConfig(ctx)
		if err != nil {
			return err
		}

		candidate := document.NewRecord(
			orderID,
			cfg.Format(numbering.KindInvoice, invoiceN),
			cfg.Format(numbering.KindProtocol, protocolN),
			s.Now(),
		)

		inserted, err := s.DocumentRepo.InsertIfAbsent(ctx, candidate)
		if err != nil {
			if errors.Is(err, document.ErrRecordExists) {
				s.Logger.Infow("lost first reservation race, discarding minted numbers",
					"order_id", orderID,
					"invoice_no", candidate.InvoiceNo,
					"protocol_no", candidate.ProtocolNo,
				)
				return errConcurrentReservationLost
			}
			return err
		}
		rec = inserted
		return nil
	})

	if errors.Is(err, errConcurrentReservationLost) {
		winner, err := s.DocumentRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			return nil, "", err
		}
		if winner == nil {
			return nil, "", ierr.NewError("winning document record disappeared").
				WithReportableDetails(map[string]any{
					"order_id": orderID,
				}).
				Mark(ierr.ErrDatabase)
		}
		return winner, types.ReservationOutcomeLostRace, nil
	}
	if err != nil {
		return nil, "", err
	}
	return rec, outcome, nil
}

func (s *documentService) MarkDocumentPaid(ctx context.Context, orderID string) (*dto.DocumentResponse, error) {
	if orderID == "" {
		return nil, ierr.NewError("order ID is required").
			WithHint("Please provide a valid order ID").
			Mark(ierr.ErrValidation)
	}

	var (
		rec     *document.Record
		outcome types.PaymentOutcome
	)
	err := s.withRetry(ctx, "mark_paid", func(ctx context.Context) error {
		current, err := s.DocumentRepo.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		switch state := document.StateOf(current); {
		case state == types.DocumentStatePaid:
			rec, outcome = current, types.PaymentOutcomeAlreadyPaid
			return nil
		case !document.CanTransitionTo(state, types.DocumentStatePaid):
			return errNotInvoicedYet(orderID)
		}

		updated, err := s.DocumentRepo.MarkPaid(ctx, orderID, s.Now())
		if err != nil {
			if ierr.IsNotFound(err) {
				return errNotInvoicedYet(orderID)
			}
			return err
		}
		rec, outcome = updated, types.PaymentOutcomePaid
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, document.ErrNotInvoicedYet):
			s.Metrics.ObservePaymentFailure(metrics.LabelNotInvoiced)
		case errors.Is(err, document.ErrPersistence):
			s.Metrics.ObservePaymentFailure(metrics.LabelFailed)
		}
		return nil, err
	}

	s.Metrics.ObservePayment(outcome)
	if outcome == types.PaymentOutcomePaid {
		s.Logger.Infow("document paid",
			"order_id", orderID,
			"invoice_no", rec.InvoiceNo,
		)
	}
	return dto.NewDocumentResponse(rec), nil
}

func errNotInvoicedYet(orderID string) error {
	return ierr.WithError(document.ErrNotInvoicedYet).
		WithHint("Documents must be generated before the order can be paid").
		WithReportableDetails(map[string]any{
			"order_id": orderID,
		}).
		Mark(ierr.ErrInvalidOperation)
}

func (s *documentService) ListDocuments(ctx context.Context, filter *types.DocumentFilter) (*dto.ListDocumentsResponse, error) {
	if filter == nil {
		filter = &types.DocumentFilter{}
	}

	records, err := s.DocumentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].InvoiceNo < records[j].InvoiceNo
	})

	return &dto.ListDocumentsResponse{
		Items: lo.Map(records, func(r *document.Record, _ int) *dto.DocumentResponse {
			return dto.NewDocumentResponse(r)
		}),
		Total: len(records),
	}, nil
}

func (s *documentService) ClassifyForDisplay(order *workorder.WorkOrder, rec *document.Record) types.DisplayBucket {
	return s.classifier.Classify(order, rec, s.Now())
}

func (s *documentService) GetOrderDocument(ctx context.Context, orderID string) (*dto.OrderDocumentResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	rec, err := s.DocumentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return s.toOrderDocument(order, rec, s.Now()), nil
}

func (s *documentService) ListOrders(ctx context.Context, view types.DisplayBucket) (*dto.ListOrdersResponse, error) {
	if view == "" {
		view = types.DisplayBucketCurrent
	}
	if err := view.Validate(); err != nil {
		return nil, err
	}

	orders, records, err := s.loadOrdersWithDocuments(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	current, archive := s.classifier.Partition(orders, records, now)
	selected := current
	if view == types.DisplayBucketArchive {
		selected = archive
	}

	return &dto.ListOrdersResponse{
		View: view,
		Items: lo.Map(selected, func(o *workorder.WorkOrder, _ int) *dto.OrderDocumentResponse {
			return s.toOrderDocument(o, records[o.ID], now)
		}),
		Total: len(selected),
	}, nil
}

func (s *documentService) toOrderDocument(order *workorder.WorkOrder, rec *document.Record, now time.Time) *dto.OrderDocumentResponse {
	return &dto.OrderDocumentResponse{
		Order:    order,
		Document: rec,
		State:    document.StateOf(rec),
		Bucket:   s.classifier.Classify(order, rec, now),
	}
}

func (s *documentService) getOrder(ctx context.Context, orderID string) (*workorder.WorkOrder, error) {
	order, err := s.WorkOrderRepo.Get(ctx, orderID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(document.ErrOrderNotFound).
				WithHintf("Order %s not found", orderID).
				WithReportableDetails(map[string]any{
					"order_id": orderID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

// loadOrdersWithDocuments reads every order and every record concurrently.
// Records are keyed by order ID.
func (p ServiceParams) loadOrdersWithDocuments(ctx context.Context) ([]*workorder.WorkOrder, map[string]*document.Record, error) {
	var (
		orders  []*workorder.WorkOrder
		records []*document.Record
	)

	g := pool.New().WithErrors().WithContext(ctx).WithFirstError()
	g.Go(func(ctx context.Context) error {
		var err error
		orders, err = p.WorkOrderRepo.List(ctx, &types.OrderFilter{})
		return err
	})
	g.Go(func(ctx context.Context) error {
		var err error
		records, err = p.DocumentRepo.List(ctx, &types.DocumentFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return orders, lo.KeyBy(records, func(r *document.Record) string { return r.OrderID }), nil
}

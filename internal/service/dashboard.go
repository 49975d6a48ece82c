package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wrenchworks/docdesk/internal/api/dto"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	"github.com/wrenchworks/docdesk/internal/types"
)

type DashboardService interface {
	// GetDocumentSummary counts orders by document state and listing view and
	// totals the amounts still waiting for payment
	GetDocumentSummary(ctx context.Context) (*dto.DocumentSummaryResponse, error)
}

type dashboardService struct {
	ServiceParams
	classifier document.Classifier
}

func NewDashboardService(params ServiceParams) DashboardService {
	return &dashboardService{
		ServiceParams: params,
		classifier:    document.NewClassifier(params.Config.Archive.AfterMonths),
	}
}

func (s *dashboardService) GetDocumentSummary(ctx context.Context) (*dto.DocumentSummaryResponse, error) {
	orders, records, err := s.loadOrdersWithDocuments(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	summary := &dto.DocumentSummaryResponse{
		TotalOrders:      len(orders),
		OutstandingTotal: decimal.Zero,
		PaidTotal:        decimal.Zero,
		GeneratedAt:      now,
	}

	for _, o := range orders {
		rec := records[o.ID]

		switch document.StateOf(rec) {
		case types.DocumentStateNotInvoiced:
			summary.NotInvoiced++
			if o.IsCompleted() {
				summary.UnbilledCompleted++
			}
		case types.DocumentStateInvoiced:
			summary.Invoiced++
			summary.OutstandingTotal = summary.OutstandingTotal.Add(o.Total)
		case types.DocumentStatePaid:
			summary.Paid++
			summary.PaidTotal = summary.PaidTotal.Add(o.Total)
		}

		if s.classifier.Classify(o, rec, now) == types.DisplayBucketArchive {
			summary.Archived++
		} else {
			summary.Current++
		}
	}

	return summary, nil
}

package service

import (
	"context"

	"github.com/wrenchworks/docdesk/internal/api/dto"
	"github.com/wrenchworks/docdesk/internal/cache"
	"github.com/wrenchworks/docdesk/internal/domain/numbering"
)

type NumberingService interface {
	// GetNumbering returns the numbering settings, the last issued numbers and
	// a preview of the numbers the next reservation would take
	GetNumbering(ctx context.Context) (*dto.NumberingResponse, error)
}

type numberingService struct {
	ServiceParams
}

func NewNumberingService(params ServiceParams) NumberingService {
	return &numberingService{
		ServiceParams: params,
	}
}

func (s *numberingService) GetNumbering(ctx context.Context) (*dto.NumberingResponse, error) {
	key := cache.GenerateKey(cache.PrefixNumbering, "view")
	if cached, found := s.Cache.Get(ctx, key); found {
		if resp, ok := cached.(*dto.NumberingResponse); ok {
			cp := *resp
			return &cp, nil
		}
	}

	cfg, err := s.CounterStore.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	last := make(map[numbering.Kind]int64, len(numbering.Kinds))
	for _, kind := range numbering.Kinds {
		n, err := s.CounterStore.Peek(ctx, kind)
		if err != nil {
			return nil, err
		}
		last[kind] = n
	}

	resp := &dto.NumberingResponse{
		InvoicePrefix:      cfg.InvoicePrefix,
		InvoicePadLength:   cfg.InvoicePadLength,
		InvoiceLastNumber:  last[numbering.KindInvoice],
		NextInvoiceNo:      cfg.Format(numbering.KindInvoice, last[numbering.KindInvoice]+1),
		ProtocolPadLength:  cfg.ProtocolPadLength,
		ProtocolLastNumber: last[numbering.KindProtocol],
		NextProtocolNo:     cfg.Format(numbering.KindProtocol, last[numbering.KindProtocol]+1),
		UpdatedAt:          cfg.UpdatedAt,
	}

	s.Cache.Set(ctx, key, resp, s.Config.Cache.TTL)
	cp := *resp
	return &cp, nil
}

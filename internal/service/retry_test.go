package service

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/wrenchworks/docdesk/internal/config"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/wrenchworks/docdesk/internal/logger"
	"github.com/wrenchworks/docdesk/internal/metrics"
)

func retryParams(maxRetries int) ServiceParams {
	cfg := config.GetDefaultConfig()
	cfg.Reservation.MaxRetries = maxRetries
	cfg.Reservation.InitialInterval = time.Millisecond
	cfg.Reservation.MaxInterval = time.Millisecond
	return ServiceParams{
		Logger:  logger.NewNopLogger(),
		Config:  cfg,
		Metrics: metrics.NewMetrics(),
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", ierr.WithError(errors.New("busy")).Mark(ierr.ErrTransient), true},
		{"database", ierr.WithError(errors.New("corrupt")).Mark(ierr.ErrDatabase), false},
		{"validation", ierr.NewError("bad").Mark(ierr.ErrValidation), false},
		{"not found", ierr.NewError("missing").Mark(ierr.ErrNotFound), false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetry(tt.err))
		})
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	p := retryParams(3)
	calls := 0

	err := p.withRetry(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return ierr.NewError("bad").Mark(ierr.ErrValidation)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, ierr.IsValidation(err))
	assert.False(t, errors.Is(err, document.ErrPersistence))
}

func TestWithRetryIsBounded(t *testing.T) {
	p := retryParams(3)
	calls := 0

	err := p.withRetry(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return ierr.WithError(errors.New("busy")).Mark(ierr.ErrTransient)
	})

	assert.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, errors.Is(err, document.ErrPersistence))
}

func TestWithRetryRecovers(t *testing.T) {
	p := retryParams(3)
	calls := 0

	err := p.withRetry(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return ierr.WithError(errors.New("busy")).Mark(ierr.ErrTransient)
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

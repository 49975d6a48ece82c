package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/wrenchworks/docdesk/internal/domain/document"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
)

// shouldRetry reports whether a failed attempt may be repeated. Only storage
// contention and connectivity failures qualify; business errors never do.
func shouldRetry(err error) bool {
	if ierr.IsValidation(err) ||
		ierr.IsNotFound(err) ||
		ierr.IsInvalidOperation(err) ||
		ierr.IsAlreadyExists(err) {
		return false
	}
	return ierr.IsTransient(err)
}

func (p ServiceParams) newBackOff(ctx context.Context) backoff.BackOffContext {
	cfg := p.Config.Reservation

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	// attempts are bounded by count, not wall time
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.MaxRetries)), ctx)
}

// withRetry runs fn until it succeeds, fails permanently or the retry budget
// is spent. Storage failures that survive the retries come back marked with
// document.ErrPersistence.
func (p ServiceParams) withRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if shouldRetry(err) {
			return err
		}
		return backoff.Permanent(err)
	}, p.newBackOff(ctx), func(err error, delay time.Duration) {
		p.Metrics.ObserveRetry(operation)
		p.Logger.Warnw("retrying after transient storage failure",
			"operation", operation,
			"attempt", attempt,
			"delay", delay.String(),
			"error", err,
		)
	})
	if err == nil {
		return nil
	}

	if ierr.IsTransient(err) || ierr.IsDatabase(err) {
		p.Logger.Errorw("storage operation failed",
			"operation", operation,
			"attempts", attempt,
			"error", err,
		)
		return ierr.WithError(err).
			WithHint("Documents could not be saved, please try again").
			WithReportableDetails(map[string]any{
				"operation": operation,
				"attempts":  attempt,
			}).
			Mark(document.ErrPersistence)
	}
	return err
}

package store

import (
	"github.com/wrenchworks/docdesk/internal/database"
	ierr "github.com/wrenchworks/docdesk/internal/errors"
)

// storageError marks a driver error as retryable or not. An error carries
// exactly one category so the HTTP mapping stays deterministic.
func storageError(err error, hint string, details map[string]any) error {
	b := ierr.WithError(err).WithHint(hint)
	if details != nil {
		b = b.WithReportableDetails(details)
	}
	if database.IsTransient(err) {
		return b.Mark(ierr.ErrTransient)
	}
	return b.Mark(ierr.ErrDatabase)
}

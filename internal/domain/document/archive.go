package document

import (
	"time"

	"github.com/wrenchworks/docdesk/internal/domain/workorder"
	"github.com/wrenchworks/docdesk/internal/types"
)

// DefaultArchiveAfterMonths is the age after which invoiced orders leave the current view
const DefaultArchiveAfterMonths = 3

// Classifier assigns orders to the current or archive view
type Classifier struct {
	ArchiveAfterMonths int
}

func NewClassifier(archiveAfterMonths int) Classifier {
	if archiveAfterMonths <= 0 {
		archiveAfterMonths = DefaultArchiveAfterMonths
	}
	return Classifier{ArchiveAfterMonths: archiveAfterMonths}
}

// Cutoff returns the first instant that is too recent to archive. Orders whose
// reference date falls before it are old enough.
func (c Classifier) Cutoff(now time.Time) time.Time {
	return types.StartOfNextDay(types.AddClampedDate(now, 0, -c.ArchiveAfterMonths, 0))
}

// Classify decides the view of an order. rec may be nil for orders without
// documents, which always stay current.
func (c Classifier) Classify(order *workorder.WorkOrder, rec *Record, now time.Time) types.DisplayBucket {
	if rec == nil {
		return types.DisplayBucketCurrent
	}
	if rec.IsPaid {
		return types.DisplayBucketArchive
	}
	if order != nil && order.ReferenceDate().Before(c.Cutoff(now)) {
		return types.DisplayBucketArchive
	}
	return types.DisplayBucketCurrent
}

// Partition splits orders into the current and archive views. records is
// keyed by order ID.
func (c Classifier) Partition(orders []*workorder.WorkOrder, records map[string]*Record, now time.Time) (current, archive []*workorder.WorkOrder) {
	current = make([]*workorder.WorkOrder, 0, len(orders))
	archive = make([]*workorder.WorkOrder, 0)
	for _, o := range orders {
		if c.Classify(o, records[o.ID], now) == types.DisplayBucketArchive {
			archive = append(archive, o)
			continue
		}
		current = append(current, o)
	}
	return current, archive
}

package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wrenchworks/docdesk/internal/types"
)

func TestNewRecord(t *testing.T) {
	now := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	rec := NewRecord("ord-1", "0900000001", "000001", now)

	assert.True(t, strings.HasPrefix(rec.ID, types.UUID_PREFIX_DOCUMENT+"_"))
	assert.Equal(t, "ord-1", rec.OrderID)
	assert.False(t, rec.IsPaid)
	assert.Nil(t, rec.PaidAt)
	assert.True(t, rec.CreatedAt.Equal(now))
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
}

func TestStateOf(t *testing.T) {
	paidAt := time.Now()
	assert.Equal(t, types.DocumentStateNotInvoiced, StateOf(nil))
	assert.Equal(t, types.DocumentStateInvoiced, StateOf(&Record{}))
	assert.Equal(t, types.DocumentStatePaid, StateOf(&Record{IsPaid: true, PaidAt: &paidAt}))
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to types.DocumentState
		want     bool
	}{
		{types.DocumentStateNotInvoiced, types.DocumentStateInvoiced, true},
		{types.DocumentStateInvoiced, types.DocumentStatePaid, true},
		{types.DocumentStateNotInvoiced, types.DocumentStatePaid, false},
		{types.DocumentStatePaid, types.DocumentStateInvoiced, false},
		{types.DocumentStatePaid, types.DocumentStateNotInvoiced, false},
		{types.DocumentStateInvoiced, types.DocumentStateNotInvoiced, false},
		{types.DocumentStateInvoiced, types.DocumentStateInvoiced, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransitionTo(tt.from, tt.to))
		})
	}
}

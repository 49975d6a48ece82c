package types

import (
	"testing"

	ierr "github.com/wrenchworks/docdesk/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestDisplayBucketValidate(t *testing.T) {
	assert.NoError(t, DisplayBucketCurrent.Validate())
	assert.NoError(t, DisplayBucketArchive.Validate())

	err := DisplayBucket("trash").Validate()
	assert.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

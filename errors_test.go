package drops_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/drops"
)

func TestMultiError(t *testing.T) {
	var errs drops.MultiError
	assert.NoError(t, errs.ErrOrNil())

	errs.Add(nil)
	assert.False(t, errs.HasErrors())

	errs.Add(drops.ErrDropAlreadyPaid)
	assert.Equal(t, drops.ErrDropAlreadyPaid.Error(), errs.ErrOrNil().Error())

	refund := errors.New("refund failed")
	errs.Add(refund)
	err := errs.ErrOrNil()
	assert.ErrorIs(t, err, drops.ErrDropAlreadyPaid)
	assert.ErrorIs(t, err, refund)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "refund failed")
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, drops.IsNotFound(drops.ErrWalletNotFound))
	assert.True(t, drops.IsConflict(drops.ErrConcurrentUpdate))
	assert.True(t, drops.IsRetryable(drops.ErrLockTimeout))
	assert.False(t, drops.IsRetryable(drops.ErrJournalAppend))
	assert.ErrorIs(t, drops.ValidationError{Field: "owner"}, drops.ErrInvalidInput)
}

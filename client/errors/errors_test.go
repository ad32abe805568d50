package errors

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func TestFormatErrorOrNil(t *testing.T) {
	assert.NoError(t, FormatErrorOrNil(nil))

	errClose := errors.New("close failed")
	single := multierror.Append(nil, errClose)
	assert.EqualError(t, FormatErrorOrNil(single), "close failed")

	multi := multierror.Append(nil, errClose, errors.New("remove failed"))
	err := FormatErrorOrNil(multi)
	assert.EqualError(t, err, "2 errors occurred: close failed; remove failed")
	assert.ErrorIs(t, err, errClose)
}

package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gkaczkowski/emissions-app/internal/support/exception"
)

func TestIsKind(t *testing.T) {
	connErr := exception.NewConnectionError("warehouse", "unreachable", errors.New("dial tcp"))
	queryErr := exception.NewQueryError("warehouse", "bad sql", nil)

	assert.True(t, exception.IsKind(connErr, exception.KindConnection))
	assert.False(t, exception.IsKind(connErr, exception.KindQuery))
	assert.True(t, exception.IsKind(queryErr, exception.KindQuery))
	assert.False(t, exception.IsKind(errors.New("plain"), exception.KindQuery))
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	inner := exception.NewAlignmentError("align", "missing timestamp column", nil)
	wrapped := fmt.Errorf("load aligned series: %w", inner)

	assert.True(t, exception.IsKind(wrapped, exception.KindAlignment))
}

func TestUploadError_CarriesStep(t *testing.T) {
	err := exception.NewUploadError("upload", "copy", "copy into failed", errors.New("stage gone"))

	assert.Equal(t, "copy", exception.StepOf(err))
	assert.Equal(t, "", exception.StepOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "(step copy)")
	assert.Contains(t, err.Error(), "stage gone")
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := exception.NewConnectionError("warehouse", "open failed", cause)

	require.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.StackTrace)
}

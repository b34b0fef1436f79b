package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusByKind(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("customer not found").Status())
	assert.Equal(t, http.StatusBadRequest, Validation("bad").Status())
	assert.Equal(t, http.StatusConflict, Conflict("sold").Status())
	assert.Equal(t, http.StatusInternalServerError, (&Error{}).Status())
}

func TestError_MessageListsIDs(t *testing.T) {
	err := Conflict("some ducks are already sold").WithIDs(3, 7)
	assert.Equal(t, "some ducks are already sold: [3 7]", err.Error())

	env := err.Envelope()
	assert.Equal(t, "some ducks are already sold", env.Detail)
	assert.Equal(t, []int64{3, 7}, env.IDs)
}

func TestKindOf_SeesThroughWrapping(t *testing.T) {
	base := Validation("limit must be > 0")
	wrapped := fmt.Errorf("ranking: %w", base)

	assert.Equal(t, KindValidation, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindValidation))
	assert.False(t, IsKind(wrapped, KindConflict))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Conflict("some ducks are already sold").Wrap(cause)
	require.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Envelope().Detail, "duplicate key")
}

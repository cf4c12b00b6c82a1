// internal/apperr/apperr_test.go
package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("x")))
	assert.Equal(t, KindConflict, KindOf(Conflict("x")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("x")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("x")))
	assert.Equal(t, KindValidation, KindOf(Validation("x")))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("loading loan: %w", NotFound("loan %s not found", "42"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "loan 42 not found", Message(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, cause, "failed to list books")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "failed to list books", Message(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestMessageHidesUnclassified(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: ssl required")))
}

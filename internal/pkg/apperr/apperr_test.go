package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errThing = New(KindNotFound, "thing_not_found", "thing not found")

func TestIsMatchesByCode(t *testing.T) {
	detailed := errThing.WithDetails(map[string]interface{}{"id": 7})
	wrapped := fmt.Errorf("loading: %w", detailed)

	assert.ErrorIs(t, wrapped, errThing)
	assert.NotErrorIs(t, wrapped, New(KindNotFound, "other", "other"))
	assert.Nil(t, errThing.Details)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("x: %w", errThing)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := errThing.Wrap(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "thing not found: disk full", err.Error())
}

func TestValidationListsFields(t *testing.T) {
	err := Validation("shipping address is incomplete", "city", "country")

	got, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, []string{"city", "country"}, got.Details["missing"])
}

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistence(t *testing.T) {
	t.Run("should wrap driver errors", func(t *testing.T) {
		// given
		driverErr := errors.New("connection reset")

		// when
		err := Persistence("save week", driverErr)

		// then
		assert.True(t, IsPersistence(err))
		assert.ErrorIs(t, err, driverErr)
		assert.Contains(t, err.Error(), "save week")
	})

	t.Run("should keep business errors untouched", func(t *testing.T) {
		// given
		validationErr := Validation("total hours %.2f exceed %d", 41.0, 40)

		// when
		err := Persistence("save week", fmt.Errorf("in transaction: %w", validationErr))

		// then
		assert.True(t, IsValidation(err))
		assert.False(t, IsPersistence(err))
	})

	t.Run("should return nil for nil", func(t *testing.T) {
		assert.NoError(t, Persistence("anything", nil))
	})
}

func TestKinds(t *testing.T) {
	assert.True(t, IsAuthorization(Unauthorized("entry %d", 7)))
	assert.True(t, IsConflict(Conflict("entry %d already decided", 7)))
	assert.True(t, IsNotFound(NotFound("entry", 7)))
	assert.Equal(t, "entry 7 not found", NotFound("entry", 7).Error())
	assert.True(t, IsNotification(&NotificationError{Recipient: "jane", Err: errors.New("smtp down")}))
	assert.False(t, IsKnown(errors.New("plain")))
}

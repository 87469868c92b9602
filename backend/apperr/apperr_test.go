package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("course c1: %w", ErrNotFound)))
	assert.Equal(t, http.StatusBadGateway, StatusOf(fmt.Errorf("%w: %w", ErrPersistence, cause)))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(cause))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(NewValidation(map[string]string{"title": "required"})))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, "already_enrolled", CodeOf(fmt.Errorf("enroll: %w", ErrAlreadyEnrolled)))
	assert.Equal(t, "internal_error", CodeOf(errors.New("boom")))
}

func TestPersistenceKeepsCause(t *testing.T) {
	err := fmt.Errorf("%w: %w", ErrPersistence, ErrConflict)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, ErrConflict)
	// the outermost sentinel decides the status
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.Equal(t, "teapot", New(http.StatusTeapot, "teapot", nil).Error())
	assert.Equal(t, "validation failed on 2 field(s)", NewValidation(map[string]string{"a": "x", "b": "y"}).Error())
}

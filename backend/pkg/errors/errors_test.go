package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType_Direct(t *testing.T) {
	err := NewSchemaError("rent", "no choices")
	assert.True(t, IsErrorType(err, ErrorTypeSchema))
	assert.False(t, IsErrorType(err, ErrorTypeGraph))
}

func TestIsErrorType_Wrapped(t *testing.T) {
	err := fmt.Errorf("insert user: %w", NewLookupError(7, "gender", "robot"))
	assert.True(t, IsErrorType(err, ErrorTypePreference))

	var lookup *LookupError
	assert.True(t, stderrors.As(err, &lookup))
	assert.Equal(t, "gender", lookup.Category)
	assert.Equal(t, 7, lookup.UserID)
}

func TestIsErrorType_Nil(t *testing.T) {
	assert.False(t, IsErrorType(nil, ErrorTypeGraph))
	assert.False(t, IsErrorType(stderrors.New("plain"), ErrorTypeGraph))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStoreConnectionFailed("bolt://x", stderrors.New("refused"))))
	assert.True(t, IsRetryable(NewStoreQueryFailed("load users", nil)))
	assert.False(t, IsRetryable(NewDuplicateUser(1)))
	assert.False(t, IsRetryable(NewInvalidTransition("send request", 1, 2, "not suggested")))
}

func TestErrorMessages(t *testing.T) {
	err := NewStoreQueryFailed("load users", stderrors.New("boom"))
	assert.Equal(t, "[store] query failed: load users: boom", err.Error())

	v := NewValidationError(3, []string{"gender is required", "noise must be at most 3"})
	assert.Contains(t, v.Error(), "gender is required; noise must be at most 3")
}

package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInsufficientCreditError(t *testing.T) {
	err := NewInsufficientCreditError("card-1", decimal.NewFromInt(200), decimal.NewFromInt(300))

	assert.True(t, decimal.NewFromInt(100).Equal(err.Shortfall))
	assert.True(t, errors.Is(err, ErrInsufficientCredit))
	assert.False(t, errors.Is(err, ErrValidation))

	wrapped := fmt.Errorf("charge failed: %w", err)
	var target *InsufficientCreditError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "card-1", target.AccountID)
	assert.Contains(t, err.Error(), "shortfall 100")
}

func TestPreconditionError(t *testing.T) {
	err := &PreconditionError{SplitID: "s1", UnpaidParticipants: []string{"b", "c"}}

	assert.True(t, errors.Is(err, ErrPrecondition))
	assert.Contains(t, err.Error(), "[b, c]")
}

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"validation", NewValidationError("total must be positive, got %s", "0"), ErrValidation},
		{"permission", NewPermissionError("only payer may settle"), ErrPermission},
		{"conflict", NewConflictError("already settled"), ErrConflict},
		{"not found", NewNotFoundError("split x"), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.target)
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewAppError(500, "failed to commit transaction", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to commit transaction: connection reset", err.Error())
}

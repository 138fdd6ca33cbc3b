package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found or is not visible to the caller.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrPermission indicates that the actor is not allowed to perform the requested transition.
var ErrPermission = errors.New("permission denied")

// ErrConflict indicates a well-formed command that contradicts the current state.
var ErrConflict = errors.New("conflict with current state")

// ErrPrecondition indicates that the current state does not yet satisfy a required condition.
var ErrPrecondition = errors.New("precondition failed")

// ErrInsufficientCredit indicates a credit-limit admission control rejection.
var ErrInsufficientCredit = errors.New("insufficient credit")

// AppError wraps storage and internal failures with an HTTP-ish status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an error wrapping ErrNotFound with a message.
func NewNotFoundError(message string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, message)
}

// NewValidationError returns an error wrapping ErrValidation with a formatted message.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NewPermissionError returns an error wrapping ErrPermission with a formatted message.
func NewPermissionError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermission, fmt.Sprintf(format, args...))
}

// NewConflictError returns an error wrapping ErrConflict with a formatted message.
func NewConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// InsufficientCreditError is returned when a charge would exceed a card's credit limit.
type InsufficientCreditError struct {
	AccountID       string
	AvailableCredit decimal.Decimal
	RequiredAmount  decimal.Decimal
	Shortfall       decimal.Decimal
}

// NewInsufficientCreditError computes the shortfall from the available and required amounts.
func NewInsufficientCreditError(accountID string, available, required decimal.Decimal) *InsufficientCreditError {
	return &InsufficientCreditError{
		AccountID:       accountID,
		AvailableCredit: available,
		RequiredAmount:  required,
		Shortfall:       required.Sub(available),
	}
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("%s: account %s has %s available, %s required (shortfall %s)",
		ErrInsufficientCredit, e.AccountID, e.AvailableCredit, e.RequiredAmount, e.Shortfall)
}

func (e *InsufficientCreditError) Is(target error) bool {
	return target == ErrInsufficientCredit
}

// PreconditionError lists the participants that still block a settlement.
type PreconditionError struct {
	SplitID            string
	UnpaidParticipants []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: split %s has unpaid participants [%s]",
		ErrPrecondition, e.SplitID, strings.Join(e.UnpaidParticipants, ", "))
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

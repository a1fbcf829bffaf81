package errors

import (
	"errors"
	"fmt"

	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

var (
	// ErrMaxRetriesExceeded indicates that a failed transaction already used every retry
	ErrMaxRetriesExceeded = apperrors.NewAppError(apperrors.ErrRetryExhausted, "maximum retry attempts exceeded", nil)

	// ErrNotRetryable indicates that the transaction is not in a retryable failure state
	ErrNotRetryable = apperrors.NewAppError(apperrors.ErrInvalidState, "transaction cannot be retried", nil)

	// ErrInvalidTransition indicates a status change the state machine forbids
	ErrInvalidTransition = apperrors.NewAppError(apperrors.ErrInvalidState, "invalid transaction status transition", nil)

	// ErrTransactionNotFound indicates that the transaction does not exist
	ErrTransactionNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "transaction not found", nil)

	// ErrPaymentMethodNotFound indicates that no active payment method matched
	ErrPaymentMethodNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "payment method not found", nil)

	// ErrNotificationNotFound indicates that the inbox entry does not exist
	ErrNotificationNotFound = apperrors.NewAppError(apperrors.ErrNotFound, "notification not found", nil)

	// ErrGatewayTimeout indicates that the provider did not answer in time
	ErrGatewayTimeout = errors.New("gateway timeout")
)

// ValidationError reports bad input detected before any state exists.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Code() string {
	return apperrors.ErrInvalidArgument
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PaymentMethodError reports a payment method that cannot be charged.
type PaymentMethodError struct {
	PaymentMethodID string
	Reason          string
}

func (e *PaymentMethodError) Error() string {
	return e.Reason
}

func (e *PaymentMethodError) Code() string {
	return apperrors.ErrPaymentMethod
}

// NewPaymentMethodError creates a new PaymentMethodError
func NewPaymentMethodError(paymentMethodID, reason string) *PaymentMethodError {
	return &PaymentMethodError{PaymentMethodID: paymentMethodID, Reason: reason}
}

// GatewayError reports a failed or declined provider call.
type GatewayError struct {
	Provider string
	Message  string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *GatewayError) Code() string {
	return apperrors.ErrGateway
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a new GatewayError
func NewGatewayError(provider, message string, err error) *GatewayError {
	return &GatewayError{Provider: provider, Message: message, Err: err}
}

// StorageError reports a persistence failure. It is always returned to the
// caller and never folded into a transaction status.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Code() string {
	return apperrors.ErrStorageUnavailable
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err carries a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

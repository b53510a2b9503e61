package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// ErrInsufficientPayment rejects a checkout whose payment does not cover
	// the computed total. Recoverable: the cashier re-prompts for payment.
	ErrInsufficientPayment = errors.New("payment amount is less than total amount")

	// ErrTransactionNumberConflict surfaces only after the duplicate-number
	// retry budget is exhausted.
	ErrTransactionNumberConflict = errors.New("transaction number conflict")
)

// ValidationError marks malformed request input (bad quantity, unknown
// references). Handlers map it to a 400 instead of a 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

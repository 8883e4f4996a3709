package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these.
var (
	ErrValidation    = errors.New("validation")
	ErrAuthorization = errors.New("authorization")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream")
	ErrConsistency   = errors.New("consistency")
)

// Domain-level error values returned by the ledger service.
var (
	ErrInvalidUserID           = kindError(ErrValidation, "invalid user id")
	ErrInvalidTransactionID    = kindError(ErrValidation, "invalid transaction id")
	ErrInvalidInventoryItemID  = kindError(ErrValidation, "invalid inventory item id")
	ErrInvalidProductVariantID = kindError(ErrValidation, "invalid product variant id")
	ErrInvalidReference        = kindError(ErrValidation, "invalid reference")
	ErrReferenceRequired       = kindError(ErrValidation, "reference required for method")
	ErrInvalidAmount           = kindError(ErrValidation, "invalid amount")
	ErrInvalidMethod           = kindError(ErrValidation, "invalid method")
	ErrInvalidTransactionType  = kindError(ErrValidation, "invalid transaction type")
	ErrInvalidStatus           = kindError(ErrValidation, "invalid status")
	ErrInvalidRole             = kindError(ErrValidation, "invalid role")
	ErrInvalidSlots            = kindError(ErrValidation, "invalid slots")
	ErrInvalidMetadataJSON     = kindError(ErrValidation, "invalid metadata json")
	ErrInvalidLimit            = kindError(ErrValidation, "invalid limit")
	ErrInvalidName             = kindError(ErrValidation, "invalid name")
	ErrInvalidBankAccount      = kindError(ErrValidation, "invalid bank account")
	ErrInvalidBookingScope     = kindError(ErrValidation, "invalid booking scope")

	ErrForbidden = kindError(ErrAuthorization, "operation not permitted for role")

	ErrUserNotFound           = kindError(ErrNotFound, "user not found")
	ErrTransactionNotFound    = kindError(ErrNotFound, "transaction not found")
	ErrInventoryItemNotFound  = kindError(ErrNotFound, "inventory item not found")
	ErrProductVariantNotFound = kindError(ErrNotFound, "product variant not found")

	ErrInsufficientBalance      = kindError(ErrConflict, "insufficient balance")
	ErrInsufficientSlots        = kindError(ErrConflict, "insufficient slots")
	ErrInvalidTransition        = kindError(ErrConflict, "transaction already processed")
	ErrDuplicateReference       = kindError(ErrConflict, "duplicate reference")
	ErrDuplicateUser            = kindError(ErrConflict, "user already exists")
	ErrManualSettlementRequired = kindError(ErrConflict, "transaction requires manual settlement")

	ErrGatewayUnavailable    = kindError(ErrUpstream, "payment gateway unavailable")
	ErrGatewayAmountMismatch = kindError(ErrUpstream, "payment gateway amount mismatch")

	ErrBalanceInvariant = kindError(ErrConsistency, "balance invariant violated")
	ErrSlotsInvariant   = kindError(ErrConsistency, "slots invariant violated")
	ErrStatusInvariant  = kindError(ErrConsistency, "status invariant violated")

	ErrInvalidServiceConfig = errors.New("invalid service config")
)

// ErrorKind is the stable, caller-facing class of a failure.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindUpstream      ErrorKind = "upstream"
	KindConsistency   ErrorKind = "consistency"
	KindInternal      ErrorKind = "internal"
)

var errorKinds = []struct {
	sentinel error
	kind     ErrorKind
}{
	{ErrConsistency, KindConsistency},
	{ErrValidation, KindValidation},
	{ErrAuthorization, KindAuthorization},
	{ErrNotFound, KindNotFound},
	{ErrConflict, KindConflict},
	{ErrUpstream, KindUpstream},
}

// KindOf classifies err. Consistency wins over any other kind in a joined error.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, candidate := range errorKinds {
		if errors.Is(err, candidate.sentinel) {
			return candidate.kind
		}
	}
	return KindInternal
}

func kindError(kind error, message string) error {
	return fmt.Errorf("%w: %s", kind, message)
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}

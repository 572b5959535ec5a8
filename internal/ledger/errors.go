package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind enumerates the stable failure categories surfaced by the engine.
// Clients decide retry behavior from the kind: internal failures are
// transient, everything else is not.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindForbidden           ErrorKind = "forbidden"
	KindWalletSuspended     ErrorKind = "wallet_suspended"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindInternal            ErrorKind = "internal"
)

// Error is the tagged error returned by every store operation. Available and
// Requested are populated only for insufficient-balance failures.
type Error struct {
	Kind      ErrorKind
	Message   string
	Available decimal.Decimal
	Requested decimal.Decimal
	cause     error
}

func (e *Error) Error() string {
	if e.Kind == KindInsufficientBalance {
		return fmt.Sprintf("%s: available %s, requested %s", e.Message, e.Available.String(), e.Requested.String())
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation flags malformed input (bad amount shape, currency, key).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound flags a missing wallet or transaction.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict flags an operation that collides with existing state, such as a
// second wallet for the same owner.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden flags a caller acting on a wallet it does not own.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Suspended flags a mutation attempted against a wallet that is not active.
func Suspended(walletID string) *Error {
	return &Error{Kind: KindWalletSuspended, Message: fmt.Sprintf("wallet %s is not active", walletID)}
}

// InsufficientBalance reports a debit that exceeds the balance observed under
// the wallet lock.
func InsufficientBalance(available, requested decimal.Decimal) *Error {
	return &Error{
		Kind:      KindInsufficientBalance,
		Message:   "insufficient balance",
		Available: available,
		Requested: requested,
	}
}

// Internal wraps a store or infrastructure failure. The cause stays available
// through errors.Unwrap for logging.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal ledger error", cause: err}
}

// KindOf extracts the kind from any error in the chain, defaulting to
// internal for untyped failures.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

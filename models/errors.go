package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transports can map it without string matching.
type Kind string

const (
	KindCardNotFound        Kind = "card_not_found"
	KindCardMismatch        Kind = "card_mismatch"
	KindItemNotFound        Kind = "item_not_found"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindTotalMismatch       Kind = "total_mismatch"
	KindTransactionNotFound Kind = "transaction_not_found"
	KindAlreadyRefunded     Kind = "already_refunded"
	KindAccountNotFound     Kind = "account_not_found"
	KindIdempotencyConflict Kind = "idempotency_conflict"
	KindMalformedRequest    Kind = "malformed_request"
	KindMalformedStore      Kind = "malformed_store"
	KindPersistenceFailure  Kind = "persistence_failure"

	// KindCanceled labels requests abandoned before they ran. It is never
	// carried by an *Error; callers derive it from context errors.
	KindCanceled Kind = "canceled"
)

// Error is the error type returned by the coordinator and the store.
//
// Two *Error values match under errors.Is when their kinds are equal, so the
// sentinels below can be used to test for a kind regardless of the message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrCardNotFound        = &Error{Kind: KindCardNotFound, Msg: "Card ID not found"}
	ErrCardMismatch        = &Error{Kind: KindCardMismatch, Msg: "Card number does not match ID"}
	ErrItemNotFound        = &Error{Kind: KindItemNotFound, Msg: "item not found"}
	ErrInsufficientStock   = &Error{Kind: KindInsufficientStock, Msg: "not enough stock"}
	ErrInsufficientFunds   = &Error{Kind: KindInsufficientFunds, Msg: "Insufficient funds"}
	ErrTotalMismatch       = &Error{Kind: KindTotalMismatch, Msg: "total does not match catalog prices"}
	ErrTransactionNotFound = &Error{Kind: KindTransactionNotFound, Msg: "Transaction not found"}
	ErrAlreadyRefunded     = &Error{Kind: KindAlreadyRefunded, Msg: "Transaction already refunded"}
	ErrAccountNotFound     = &Error{Kind: KindAccountNotFound, Msg: "Credit card not found in bank"}
	ErrIdempotencyConflict = &Error{Kind: KindIdempotencyConflict, Msg: "idempotency key reused with a different request"}
	ErrMalformedRequest    = &Error{Kind: KindMalformedRequest, Msg: "malformed request"}
	ErrMalformedStore      = &Error{Kind: KindMalformedStore, Msg: "malformed store"}
	ErrPersistenceFailure  = &Error{Kind: KindPersistenceFailure, Msg: "persistence failure"}
)

// Errorf builds an *Error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the human-readable message of the first *Error in err's
// chain without the wrapped cause, falling back to err.Error().
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

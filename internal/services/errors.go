package services

import (
	"errors"
	"fmt"
)

// Business-rule rejections surfaced to the mutating client. Handlers map
// these to HTTP statuses with errors.Is / errors.As; they never cross into
// the projector or the broadcaster.
var (
	ErrNotFound             = errors.New("record not found")
	ErrGameLocked           = errors.New("game is locked")
	ErrAlreadySubmitted     = errors.New("allocations already submitted")
	ErrInactiveStartup      = errors.New("startup is not accepting investments")
	ErrInvalidAmount        = errors.New("invalid investment amount")
	ErrIncompleteAllocation = errors.New("all capital must be allocated before submitting")
	// ErrRetryExhausted marks a mutation abandoned after bounded retries on
	// transient storage contention; the client may retry.
	ErrRetryExhausted = errors.New("storage busy, please retry")
)

// ValidationError reports malformed or out-of-range input on admin mutations
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InsufficientFundsError carries the investor's available remaining so the
// client can render it.
type InsufficientFundsError struct {
	Requested int64
	Remaining int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %d with only %d remaining", e.Requested, e.Remaining)
}

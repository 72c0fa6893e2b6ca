package domain

import "errors"

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is(). One per named precondition in
// the external error taxonomy; the engine never returns an unspecified
// failure.
// ──────────────────────────────────────────────────────────────────────────────

var (
	// ErrInvalidState is returned when an instruction targets a market whose
	// status disallows it (e.g. stake against a Settled or Cancelled market).
	// Checked before any time/amount/index precondition.
	ErrInvalidState = errors.New("invalid state: instruction not valid for market's current status")

	// ErrUnauthorized is returned when the caller does not match the
	// principal a precondition requires (market.authority for settle/cancel).
	ErrUnauthorized = errors.New("unauthorized: caller does not match required principal")

	// ErrStakeBelowMin is returned when a stake amount is below MinStake.
	ErrStakeBelowMin = errors.New("stake below minimum")

	// ErrStakeAboveMax is returned when a stake amount is above MaxStake.
	ErrStakeAboveMax = errors.New("stake above maximum")

	// ErrMarketEnded is returned when a stake is attempted at or after the
	// market's end time.
	ErrMarketEnded = errors.New("market has ended")

	// ErrMarketNotEnded is returned when settle is attempted before the
	// market's end time.
	ErrMarketNotEnded = errors.New("market has not ended")

	// ErrMarketNotSettled is returned when claim_payout targets a market
	// that is not Settled.
	ErrMarketNotSettled = errors.New("market is not settled")

	// ErrMarketNotCancelled is returned when claim_refund targets a market
	// that is not Cancelled.
	ErrMarketNotCancelled = errors.New("market is not cancelled")

	// ErrTicketNotOwned is returned when the caller does not own the ticket
	// being claimed.
	ErrTicketNotOwned = errors.New("ticket not owned by caller")

	// ErrTicketNotActive is returned when a claim targets a ticket whose
	// status is not Active — this is the at-most-once claim guard.
	ErrTicketNotActive = errors.New("ticket is not active")

	// ErrTicketDidNotWin is returned when claim_payout targets a ticket
	// whose outcome does not match the market's declared winner.
	ErrTicketDidNotWin = errors.New("ticket did not win")

	// ErrIndexConflict is returned when a stake's client_ticket_index does
	// not match the market's next_ticket_index.
	ErrIndexConflict = errors.New("ticket index conflict")

	// ErrIdentifierTooLong is returned when external_id, title or a label
	// exceeds its configured length bound, or when external_id is empty.
	ErrIdentifierTooLong = errors.New("identifier exceeds maximum length")

	// ErrMathOverflow is returned when any checked arithmetic operation on
	// the settlement path would overflow, underflow or divide by zero.
	ErrMathOverflow = errors.New("math overflow")

	// ErrMarketNotFound and ErrTicketNotFound are internal, store-layer
	// errors for a missing record. They are the highest-precedence check —
	// existence and deserialization — but since the external error
	// taxonomy is closed at the 14 sentinels above, the engine dispatcher
	// maps both onto ErrInvalidState before returning an instruction
	// result: a reference to a record that doesn't exist is a market (or
	// ticket) that isn't in any state an instruction can act on.
	ErrMarketNotFound = errors.New("market not found")
	ErrTicketNotFound = errors.New("ticket not found")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "record does not exist" sentinels.
var notFoundErrors = []error{
	ErrMarketNotFound,
	ErrTicketNotFound,
}

// IsNotFound returns true when err (or any error in its chain) reports a
// missing record.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// stateErrors collects the lifecycle-state sentinels a caller may want to
// treat uniformly (e.g. map to a single "wrong phase" response class).
var stateErrors = []error{
	ErrInvalidState,
	ErrMarketEnded,
	ErrMarketNotEnded,
	ErrMarketNotSettled,
	ErrMarketNotCancelled,
	ErrTicketNotActive,
	ErrTicketDidNotWin,
}

// IsStateError returns true for errors representing a lifecycle/phase
// mismatch rather than a bad input or authorization failure.
func IsStateError(err error) bool {
	for _, target := range stateErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for errors representing a caller-identity
// mismatch.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrTicketNotOwned)
}

package chaincode

import "errors"

// Validation failures are synchronous and non-retryable; the command is
// rejected in full and the caller must resubmit a corrected one.
var (
	// ErrUnauthorized rejects a command from the wrong caller.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAccepted rejects lifecycle activity on a status-gated commitment
	// that has not been accepted.
	ErrNotAccepted = errors.New("commitment not accepted")

	// ErrNoActiveCall rejects closing a capital call when none is active.
	ErrNoActiveCall = errors.New("no active capital call")

	// ErrNotDivisible rejects capital amounts not evenly divisible by the
	// capital-per-share ratio.
	ErrNotDivisible = errors.New("amount not evenly divisible by capital per share")

	// ErrNoCapitalDenom rejects a capital line that omits the denom while more
	// than one capital denom is accepted.
	ErrNoCapitalDenom = errors.New("no capital denom specified")

	// ErrUnsupportedCapitalDenom rejects a capital denom outside the accepted
	// set.
	ErrUnsupportedCapitalDenom = errors.New("unsupported capital denom")

	// ErrNoAuthorizationMatch rejects a cancel or admin-initiated completion
	// with no structurally matching pending authorization.
	ErrNoAuthorizationMatch = errors.New("no matching asset exchange authorization")

	// ErrMissingRequiredAttribute rejects a restricted-instrument transfer to
	// a destination lacking the required identity attribute.
	ErrMissingRequiredAttribute = errors.New("destination missing required attribute")

	// ErrFundsMismatch rejects attached funds that do not exactly match the
	// amounts a command requires.
	ErrFundsMismatch = errors.New("attached funds do not match required amounts")

	// ErrSequenceExhausted rejects minting past the 16-bit sequence space.
	ErrSequenceExhausted = errors.New("transaction sequence exhausted")
)

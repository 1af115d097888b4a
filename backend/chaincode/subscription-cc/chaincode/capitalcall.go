package chaincode

import (
	"fmt"
)

// issueCapitalCall issues a new call against the commitment. Issuing while a
// call is already active silently supersedes it: the stale call moves to the
// cancelled set.
func issueCapitalCall(c *Commitment, ext Collaborators, caller string, amount int64, daysOfNotice uint16) (*CapitalCall, error) {
	if caller != c.CounterpartyFund {
		return nil, fmt.Errorf("%w: only the fund counterparty can issue a capital call", ErrUnauthorized)
	}
	if !c.Open() {
		return nil, ErrNotAccepted
	}
	if amount <= 0 {
		return nil, fmt.Errorf("capital call amount must be positive")
	}
	if c.NotEvenlyDivisible(amount) {
		return nil, fmt.Errorf("%w: capital call of %d", ErrNotDivisible, amount)
	}

	// Remaining commitment capacity is the fund's live holding of the
	// commitment instrument, never a cached figure.
	remaining, err := ext.Balance(c.CounterpartyFund, c.CommitmentDenom)
	if err != nil {
		return nil, fmt.Errorf("query remaining commitment: %v", err)
	}
	shares := c.CapitalToShares(amount)
	if shares > remaining {
		return nil, fmt.Errorf("capital call of %d shares exceeds remaining commitment of %d", shares, remaining)
	}

	if c.MinDaysOfNotice > 0 && daysOfNotice < c.MinDaysOfNotice {
		return nil, fmt.Errorf("capital call requires at least %d days of notice", c.MinDaysOfNotice)
	}

	c.CancelActiveCall()

	sequence, err := c.BumpSequence()
	if err != nil {
		return nil, err
	}
	call := &CapitalCall{Sequence: sequence, Amount: amount, DaysOfNotice: daysOfNotice}
	c.ActiveCapitalCall = call
	return call, nil
}

// closeCapitalCall settles the active call. Attached funds must match the
// required legs exactly. Retroactive closes skip the capital leg entirely,
// both on intake and on the outbound side; the bookkeeping is identical.
// The legs travel with a ClaimInvestment to the fund counterparty.
func closeCapitalCall(c *Commitment, ext Collaborators, caller string, funds []Coin, retroactive bool) error {
	if caller != c.CounterpartyFund {
		return fmt.Errorf("%w: only the fund counterparty can close a capital call", ErrUnauthorized)
	}
	active := c.ActiveCapitalCall
	if active == nil {
		return ErrNoActiveCall
	}

	shares := c.CapitalToShares(active.Amount)
	required := map[string]int64{c.CommitmentDenom: shares}
	if !retroactive {
		required[c.CapitalDenom] += active.Amount
	}
	if err := fundsExactly(funds, required); err != nil {
		return err
	}
	for _, coin := range funds {
		if err := ext.Collect(coin.Denom, coin.Amount, caller); err != nil {
			return fmt.Errorf("collect %d%s: %v", coin.Amount, coin.Denom, err)
		}
	}

	c.CloseActiveCall()

	legs := []Coin{{Denom: c.CommitmentDenom, Amount: shares}}
	if !retroactive {
		legs = append(legs, Coin{Denom: c.CapitalDenom, Amount: active.Amount})
	}
	sortCoins(legs)
	for _, coin := range legs {
		if err := ext.Send(coin.Denom, coin.Amount, c.CounterpartyFund); err != nil {
			return fmt.Errorf("send %d%s: %v", coin.Amount, coin.Denom, err)
		}
	}
	return ext.DispatchRaise(&RaiseMsg{
		ClaimInvestment: &ClaimInvestment{Amount: active.Amount},
	}, legs)
}

// closeRemainingCommitment asks the fund counterparty to release the still
// unfunded commitment capacity. That capacity sits with the fund already, so
// the message travels with no funds attached. An active capital call would be
// stranded by the release and blocks the request.
func closeRemainingCommitment(c *Commitment, ext Collaborators, caller string) error {
	if caller != c.Subscriber {
		return fmt.Errorf("%w: only the subscriber can close the remaining commitment", ErrUnauthorized)
	}
	if !c.Open() {
		return ErrNotAccepted
	}
	if c.ActiveCapitalCall != nil {
		return fmt.Errorf("capital call %d is still active", c.ActiveCapitalCall.Sequence)
	}
	return ext.DispatchRaise(&RaiseMsg{
		CloseRemainingCommitment: &CloseRemainingCommitment{},
	}, nil)
}

// fundsExactly verifies that attached funds match the required amounts per
// denom exactly, with nothing extra and nothing missing.
func fundsExactly(funds []Coin, required map[string]int64) error {
	attached := make(map[string]int64, len(funds))
	for _, coin := range funds {
		if coin.Amount <= 0 {
			return fmt.Errorf("%w: non-positive %s", ErrFundsMismatch, coin.Denom)
		}
		attached[coin.Denom] += coin.Amount
	}
	if len(attached) != len(required) {
		return ErrFundsMismatch
	}
	for denom, amount := range required {
		if attached[denom] != amount {
			return fmt.Errorf("%w: need %d%s, got %d", ErrFundsMismatch, amount, denom, attached[denom])
		}
	}
	return nil
}

package chaincode

import (
	"fmt"
)

// acceptCommitment transitions a draft agreement to accepted. The fund
// attaches the commitment in commitment units; the share count must lie
// within the agreed bounds. An explicit capital amount may be supplied
// instead, which is converted after the divisibility check. The accepted
// commitment is announced to the fund counterparty with the attached
// commitment units travelling along.
func acceptCommitment(c *Commitment, ext Collaborators, caller string, funds []Coin, capitalAmount int64) error {
	if caller != c.CounterpartyFund {
		return fmt.Errorf("%w: only the fund counterparty can accept", ErrUnauthorized)
	}
	if c.Status != StatusDraft {
		return fmt.Errorf("commitment is not a draft")
	}

	var shares int64
	switch {
	case capitalAmount > 0:
		if len(funds) > 0 {
			return fmt.Errorf("%w: explicit commitment takes no attached funds", ErrFundsMismatch)
		}
		if c.NotEvenlyDivisible(capitalAmount) {
			return fmt.Errorf("%w: commitment of %d", ErrNotDivisible, capitalAmount)
		}
		shares = c.CapitalToShares(capitalAmount)
	default:
		required := map[string]int64{}
		for _, coin := range funds {
			if coin.Denom != c.CommitmentDenom {
				return fmt.Errorf("%w: accept takes %s only", ErrFundsMismatch, c.CommitmentDenom)
			}
			shares += coin.Amount
		}
		required[c.CommitmentDenom] = shares
		if shares == 0 {
			return fmt.Errorf("%w: no commitment attached", ErrFundsMismatch)
		}
		if err := fundsExactly(funds, required); err != nil {
			return err
		}
	}

	if shares < c.MinCommitment {
		return fmt.Errorf("commitment of %d less than minimum of %d", shares, c.MinCommitment)
	}
	if shares > c.MaxCommitment {
		return fmt.Errorf("commitment of %d more than maximum of %d", shares, c.MaxCommitment)
	}

	for _, coin := range funds {
		if err := ext.Collect(coin.Denom, coin.Amount, caller); err != nil {
			return fmt.Errorf("collect %d%s: %v", coin.Amount, coin.Denom, err)
		}
	}

	c.Status = StatusAccepted
	return ext.DispatchRaise(&RaiseMsg{
		AcceptCommitmentUpdate: &AcceptCommitmentUpdate{Commitment: shares},
	}, funds)
}

// recoverSubscriber rotates the subscriber identity. Nothing else on the
// agreement changes.
func recoverSubscriber(c *Commitment, caller, newSubscriber string) error {
	if caller != c.RecoveryAdmin {
		return fmt.Errorf("%w: only the recovery admin can recover", ErrUnauthorized)
	}
	if newSubscriber == "" {
		return fmt.Errorf("new subscriber required")
	}
	c.Subscriber = newSubscriber
	return nil
}

// issueWithdrawal sends capital from the subscription to an arbitrary
// destination, through the restricted-transfer primitive when the instrument
// demands an identity attribute of its recipient.
func issueWithdrawal(c *Commitment, ext Collaborators, caller, to string, amount int64, capitalDenom string) (*Withdrawal, error) {
	if caller != c.Subscriber {
		return nil, fmt.Errorf("%w: only the subscriber can withdraw", ErrUnauthorized)
	}
	if to == "" {
		return nil, fmt.Errorf("withdrawal destination required")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive")
	}
	if c.NotEvenlyDivisible(amount) {
		return nil, fmt.Errorf("%w: withdrawal of %d", ErrNotDivisible, amount)
	}
	denom, err := c.ResolveCapitalDenom(capitalDenom)
	if err != nil {
		return nil, err
	}

	sequence, err := c.BumpSequence()
	if err != nil {
		return nil, err
	}
	withdrawal := Withdrawal{Sequence: sequence, To: to, Amount: amount}
	c.Withdrawals = append(c.Withdrawals, withdrawal)

	if attr := c.RequiredAttribute(denom); attr != "" {
		if err := requireAttribute(ext, to, attr); err != nil {
			return nil, err
		}
		if err := ext.SendRestricted(denom, amount, to); err != nil {
			return nil, fmt.Errorf("send restricted withdrawal: %v", err)
		}
		return &withdrawal, nil
	}
	if err := ext.Send(denom, amount, to); err != nil {
		return nil, fmt.Errorf("send withdrawal: %v", err)
	}
	return &withdrawal, nil
}

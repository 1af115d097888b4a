package chaincode

import (
	"fmt"
)

// issueRedemption returns investment shares to the fund in exchange for
// capital. The asset amount travels with the claim; the fund settles the
// capital side.
func issueRedemption(c *Commitment, ext Collaborators, caller string, asset, capital int64, to, memo string) (*Redemption, error) {
	if caller != c.Subscriber {
		return nil, fmt.Errorf("%w: only the subscriber can issue a redemption", ErrUnauthorized)
	}
	if !c.Open() {
		return nil, ErrNotAccepted
	}
	if asset <= 0 || capital <= 0 {
		return nil, fmt.Errorf("redemption asset and capital must be positive")
	}
	if c.NotEvenlyDivisible(capital) {
		return nil, fmt.Errorf("%w: redemption capital of %d", ErrNotDivisible, capital)
	}

	sequence, err := c.BumpSequence()
	if err != nil {
		return nil, err
	}
	redemption := Redemption{Sequence: sequence, Asset: asset, Capital: capital}
	c.Redemptions = append(c.Redemptions, redemption)

	err = ext.DispatchRaise(&RaiseMsg{
		ClaimRedemption: &ClaimRedemption{Asset: asset, Capital: capital, To: to, Memo: memo},
	}, []Coin{{Denom: c.InvestmentDenom, Amount: asset}})
	if err != nil {
		return nil, err
	}
	return &redemption, nil
}

// issueDistribution claims a capital payout not tied to a redemption.
func issueDistribution(c *Commitment, ext Collaborators, caller string, amount int64, to, memo string) (*Distribution, error) {
	if caller != c.Subscriber {
		return nil, fmt.Errorf("%w: only the subscriber can issue a distribution", ErrUnauthorized)
	}
	if !c.Open() {
		return nil, ErrNotAccepted
	}
	if amount <= 0 {
		return nil, fmt.Errorf("distribution amount must be positive")
	}

	sequence, err := c.BumpSequence()
	if err != nil {
		return nil, err
	}
	distribution := Distribution{Sequence: sequence, Amount: amount}
	c.Distributions = append(c.Distributions, distribution)

	err = ext.DispatchRaise(&RaiseMsg{
		ClaimDistribution: &ClaimDistribution{Amount: amount, To: to, Memo: memo},
	}, nil)
	if err != nil {
		return nil, err
	}
	return &distribution, nil
}

package chaincode

import (
	"fmt"
)

// Status of the agreement while the status gate policy is in force.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusAccepted Status = "accepted"
)

// GatePolicy selects how lifecycle operations are gated. Status-gated
// commitments require acceptance before any capital activity; authorization-
// gated commitments rely on the asset-exchange authorization protocol instead
// and carry no meaningful status.
type GatePolicy string

const (
	GateStatus        GatePolicy = "status"
	GateAuthorization GatePolicy = "authorization"
)

// Coin is an amount of a single fungible instrument.
type Coin struct {
	Denom  string `json:"denom"`
	Amount int64  `json:"amount"`
}

// CapitalCall is a fund-issued demand that the subscriber fund part of the
// commitment. At most one call is active at a time.
type CapitalCall struct {
	Sequence     uint16 `json:"sequence"`
	Amount       int64  `json:"amount"`
	DaysOfNotice uint16 `json:"days_of_notice,omitempty"`
}

// Redemption records a return of investment shares in exchange for capital.
type Redemption struct {
	Sequence uint16 `json:"sequence"`
	Asset    int64  `json:"asset"`
	Capital  int64  `json:"capital"`
}

// Distribution records a capital payout not tied to a redemption.
type Distribution struct {
	Sequence uint16 `json:"sequence"`
	Amount   int64  `json:"amount"`
}

// Withdrawal records subscriber-directed capital egress.
type Withdrawal struct {
	Sequence uint16 `json:"sequence"`
	To       string `json:"to"`
	Amount   int64  `json:"amount"`
}

// ExchangeDelta is one signed line of an asset exchange. Negative values flow
// from the contract to the counterparty, positive values flow in.
type ExchangeDelta struct {
	Investment         int64  `json:"investment,omitempty"`
	CommitmentInShares int64  `json:"commitment_in_shares,omitempty"`
	Capital            int64  `json:"capital,omitempty"`
	CapitalDenom       string `json:"capital_denom,omitempty"`
}

// ExchangeAuthorization is a subscriber-granted permission slip for a batch of
// exchange deltas. Identity is structural; authorizations never carry a
// sequence number.
type ExchangeAuthorization struct {
	Exchanges []ExchangeDelta `json:"exchanges"`
	To        string          `json:"to,omitempty"`
	Memo      string          `json:"memo,omitempty"`
}

// Equal reports full structural equality, the match key for cancellation and
// admin-initiated completion.
func (a ExchangeAuthorization) Equal(b ExchangeAuthorization) bool {
	if a.To != b.To || a.Memo != b.Memo || len(a.Exchanges) != len(b.Exchanges) {
		return false
	}
	for i := range a.Exchanges {
		if a.Exchanges[i] != b.Exchanges[i] {
			return false
		}
	}
	return true
}

// ExternalRefs names the external chaincodes the agreement settles against and
// the token account held by this instance.
type ExternalRefs struct {
	TokenChaincode    string `json:"token_chaincode"`
	IdentityChaincode string `json:"identity_chaincode"`
	RaiseChaincode    string `json:"raise_chaincode"`
	Channel           string `json:"channel,omitempty"`
	Account           string `json:"account"`
}

// Commitment is the durable record of one subscription agreement.
type Commitment struct {
	CounterpartyFund string `json:"counterparty_fund"`
	Subscriber       string `json:"subscriber"`
	RecoveryAdmin    string `json:"recovery_admin"`

	CapitalDenom              string            `json:"capital_denom"`
	LikeCapitalDenoms         []string          `json:"like_capital_denoms,omitempty"`
	RequiredCapitalAttributes map[string]string `json:"required_capital_attributes,omitempty"`
	CommitmentDenom           string            `json:"commitment_denom"`
	InvestmentDenom           string            `json:"investment_denom"`

	CapitalPerShare int64  `json:"capital_per_share"`
	MinCommitment   int64  `json:"min_commitment"`
	MaxCommitment   int64  `json:"max_commitment"`
	MinDaysOfNotice uint16 `json:"min_days_of_notice,omitempty"`

	Gate     GatePolicy `json:"gate"`
	Status   Status     `json:"status,omitempty"`
	Sequence uint16     `json:"sequence"`

	ActiveCapitalCall     *CapitalCall  `json:"active_capital_call,omitempty"`
	ClosedCapitalCalls    []CapitalCall `json:"closed_capital_calls"`
	CancelledCapitalCalls []CapitalCall `json:"cancelled_capital_calls"`

	Redemptions   []Redemption   `json:"redemptions"`
	Distributions []Distribution `json:"distributions"`
	Withdrawals   []Withdrawal   `json:"withdrawals"`

	PendingExchangeAuthorizations []ExchangeAuthorization `json:"pending_exchange_authorizations"`

	External ExternalRefs `json:"external"`
}

// AcceptedCapitalDenoms lists every capital instrument the agreement accepts.
func (c *Commitment) AcceptedCapitalDenoms() []string {
	if len(c.LikeCapitalDenoms) > 0 {
		return c.LikeCapitalDenoms
	}
	return []string{c.CapitalDenom}
}

// ResolveCapitalDenom applies the denom disambiguation rule: with more than
// one accepted denom the caller must name one; with exactly one the denom is
// inferred and an explicit value must still be the accepted one.
func (c *Commitment) ResolveCapitalDenom(denom string) (string, error) {
	accepted := c.AcceptedCapitalDenoms()
	if denom == "" {
		if len(accepted) > 1 {
			return "", ErrNoCapitalDenom
		}
		return accepted[0], nil
	}
	for _, d := range accepted {
		if d == denom {
			return denom, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedCapitalDenom, denom)
}

// RequiredAttribute returns the identity attribute an external recipient of
// the given capital denom must hold, or "" when the denom is unrestricted.
func (c *Commitment) RequiredAttribute(denom string) string {
	return c.RequiredCapitalAttributes[denom]
}

// NotEvenlyDivisible reports whether a capital amount violates the
// capital-per-share ratio.
func (c *Commitment) NotEvenlyDivisible(amount int64) bool {
	return amount%c.CapitalPerShare != 0
}

// CapitalToShares converts a capital amount to commitment units. Amounts must
// pass the divisibility check before reaching this.
func (c *Commitment) CapitalToShares(amount int64) int64 {
	return amount / c.CapitalPerShare
}

// BumpSequence mints the next transaction identity. It is the only way a new
// identity may be created.
func (c *Commitment) BumpSequence() (uint16, error) {
	if c.Sequence == ^uint16(0) {
		return 0, ErrSequenceExhausted
	}
	c.Sequence++
	return c.Sequence, nil
}

// Open reports whether lifecycle operations are currently permitted under the
// configured gate policy.
func (c *Commitment) Open() bool {
	if c.Gate == GateAuthorization {
		return true
	}
	return c.Status == StatusAccepted
}

// CancelActiveCall moves the active capital call, if any, into the cancelled
// set.
func (c *Commitment) CancelActiveCall() {
	if c.ActiveCapitalCall != nil {
		c.CancelledCapitalCalls = append(c.CancelledCapitalCalls, *c.ActiveCapitalCall)
		c.ActiveCapitalCall = nil
	}
}

// CloseActiveCall moves the active capital call into the closed set.
func (c *Commitment) CloseActiveCall() {
	if c.ActiveCapitalCall != nil {
		c.ClosedCapitalCalls = append(c.ClosedCapitalCalls, *c.ActiveCapitalCall)
		c.ActiveCapitalCall = nil
	}
}

// FindAuthorization returns the index of the first pending authorization
// structurally equal to the given one, or -1.
func (c *Commitment) FindAuthorization(auth ExchangeAuthorization) int {
	for i, pending := range c.PendingExchangeAuthorizations {
		if pending.Equal(auth) {
			return i
		}
	}
	return -1
}

// RemoveAuthorization deletes the pending authorization at index i.
func (c *Commitment) RemoveAuthorization(i int) {
	c.PendingExchangeAuthorizations = append(
		c.PendingExchangeAuthorizations[:i],
		c.PendingExchangeAuthorizations[i+1:]...,
	)
}

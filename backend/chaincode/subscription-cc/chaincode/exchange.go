package chaincode

import (
	"fmt"
)

// authorizeAssetExchange appends a pending authorization for a batch of
// exchange deltas. Only the subscriber may grant one.
func authorizeAssetExchange(c *Commitment, caller string, auth ExchangeAuthorization) error {
	if caller != c.Subscriber {
		return fmt.Errorf("%w: only the subscriber can authorize an asset exchange", ErrUnauthorized)
	}
	if len(auth.Exchanges) == 0 {
		return fmt.Errorf("asset exchange authorization requires at least one exchange")
	}
	if err := validateExchanges(c, auth.Exchanges); err != nil {
		return err
	}
	c.PendingExchangeAuthorizations = append(c.PendingExchangeAuthorizations, auth)
	return nil
}

// cancelExchangeAuthorization removes the first structurally equal pending
// authorization. A missing match is a hard error; silent success would hide a
// caller's mistaken belief that a cancellation occurred.
func cancelExchangeAuthorization(c *Commitment, caller string, auth ExchangeAuthorization) error {
	if caller != c.Subscriber {
		return fmt.Errorf("%w: only the subscriber can cancel an authorization", ErrUnauthorized)
	}
	i := c.FindAuthorization(auth)
	if i < 0 {
		return ErrNoAuthorizationMatch
	}
	c.RemoveAuthorization(i)
	return nil
}

// completeAssetExchange executes a batch of exchange deltas. The subscriber
// may always act on its own behalf; the admin additionally needs a matching
// pending authorization, which is consumed so each grant executes exactly
// once. Negative deltas are summed per instrument and sent out; positive
// deltas arrive with the counterparty's side of the exchange.
func completeAssetExchange(c *Commitment, ext Collaborators, caller string, batch ExchangeAuthorization) error {
	switch caller {
	case c.Subscriber:
	case c.RecoveryAdmin:
		i := c.FindAuthorization(batch)
		if i < 0 {
			return ErrNoAuthorizationMatch
		}
		c.RemoveAuthorization(i)
	default:
		return fmt.Errorf("%w: only the subscriber or admin can complete an asset exchange", ErrUnauthorized)
	}

	if !c.Open() {
		return ErrNotAccepted
	}
	if len(batch.Exchanges) == 0 {
		return fmt.Errorf("asset exchange requires at least one exchange")
	}
	if err := validateExchanges(c, batch.Exchanges); err != nil {
		return err
	}

	outbound := map[string]int64{}
	for _, delta := range batch.Exchanges {
		if delta.Investment < 0 {
			outbound[c.InvestmentDenom] += -delta.Investment
		}
		if delta.CommitmentInShares < 0 {
			outbound[c.CommitmentDenom] += -delta.CommitmentInShares
		}
		if delta.Capital < 0 {
			denom, err := c.ResolveCapitalDenom(delta.CapitalDenom)
			if err != nil {
				return err
			}
			outbound[denom] += -delta.Capital
		}
	}

	destination := batch.To
	if destination == "" {
		destination = c.CounterpartyFund
	}

	funds := make([]Coin, 0, len(outbound))
	for denom, amount := range outbound {
		funds = append(funds, Coin{Denom: denom, Amount: amount})
	}
	sortCoins(funds)

	for _, coin := range funds {
		if attr := c.RequiredAttribute(coin.Denom); attr != "" {
			if err := requireAttribute(ext, destination, attr); err != nil {
				return err
			}
			if err := ext.SendRestricted(coin.Denom, coin.Amount, destination); err != nil {
				return fmt.Errorf("send restricted %d%s: %v", coin.Amount, coin.Denom, err)
			}
			continue
		}
		if err := ext.Send(coin.Denom, coin.Amount, destination); err != nil {
			return fmt.Errorf("send %d%s: %v", coin.Amount, coin.Denom, err)
		}
	}

	return ext.DispatchRaise(&RaiseMsg{
		CompleteAssetExchange: &CompleteExchange{
			Exchanges: batch.Exchanges,
			To:        batch.To,
			Memo:      batch.Memo,
		},
	}, funds)
}

// validateExchanges applies the capital denom disambiguation rule and the
// divisibility invariant to every line of a batch.
func validateExchanges(c *Commitment, exchanges []ExchangeDelta) error {
	for _, delta := range exchanges {
		if delta.Capital == 0 {
			continue
		}
		if _, err := c.ResolveCapitalDenom(delta.CapitalDenom); err != nil {
			return err
		}
		capital := delta.Capital
		if capital < 0 {
			capital = -capital
		}
		if c.NotEvenlyDivisible(capital) {
			return fmt.Errorf("%w: exchange capital of %d", ErrNotDivisible, delta.Capital)
		}
	}
	return nil
}

// requireAttribute checks the identity registry for the attribute a
// restricted instrument demands of its recipient.
func requireAttribute(ext Collaborators, addr, attr string) error {
	attrs, err := ext.Attributes(addr)
	if err != nil {
		return fmt.Errorf("query attributes of %s: %v", addr, err)
	}
	for _, a := range attrs {
		if a == attr {
			return nil
		}
	}
	return fmt.Errorf("%w: %s lacks %s", ErrMissingRequiredAttribute, addr, attr)
}

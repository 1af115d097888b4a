package chaincode

import (
	"encoding/json"
	"fmt"
)

// commitmentKey is the world-state slot holding the agreement.
const commitmentKey = "commitment"

// schemaVersion is the current persisted schema generation.
const schemaVersion = 3

// envelope wraps the persisted commitment with its schema version tag.
type envelope struct {
	Version    int             `json:"version"`
	Commitment json.RawMessage `json:"commitment"`
}

// commitmentV1 is the first persisted generation: status-bearing, a single
// capital denom, no sequence counter and no transaction history.
type commitmentV1 struct {
	CounterpartyFund string       `json:"raise"`
	Subscriber       string       `json:"lp"`
	RecoveryAdmin    string       `json:"admin"`
	Status           Status       `json:"status"`
	CapitalDenom     string       `json:"capital_denom"`
	CommitmentDenom  string       `json:"commitment_denom"`
	InvestmentDenom  string       `json:"investment_denom"`
	CapitalPerShare  int64        `json:"capital_per_share"`
	MinCommitment    int64        `json:"min_commitment"`
	MaxCommitment    int64        `json:"max_commitment"`
	External         ExternalRefs `json:"external"`
}

// commitmentV2 adds the sequence counter, the transaction history sets, and
// the minimum notice period. Still status-gated, still single-denom.
type commitmentV2 struct {
	commitmentV1

	MinDaysOfNotice       uint16         `json:"min_days_of_notice,omitempty"`
	Sequence              uint16         `json:"sequence"`
	ActiveCapitalCall     *CapitalCall   `json:"active_capital_call,omitempty"`
	ClosedCapitalCalls    []CapitalCall  `json:"closed_capital_calls"`
	CancelledCapitalCalls []CapitalCall  `json:"cancelled_capital_calls"`
	Redemptions           []Redemption   `json:"redemptions"`
	Distributions         []Distribution `json:"distributions"`
	Withdrawals           []Withdrawal   `json:"withdrawals"`
}

// migrateV1 lifts a first-generation commitment into the second. History
// starts empty and the sequence counter at zero.
func migrateV1(old commitmentV1) commitmentV2 {
	return commitmentV2{commitmentV1: old}
}

// migrateV2 lifts a second-generation commitment into the current schema. The
// status gate gives way to authorization gating; a draft commitment gets one
// synthesized pending authorization for the still-unfunded maximum commitment
// so no economic capacity is lost across the boundary.
func migrateV2(old commitmentV2) Commitment {
	c := Commitment{
		CounterpartyFund:      old.CounterpartyFund,
		Subscriber:            old.Subscriber,
		RecoveryAdmin:         old.RecoveryAdmin,
		CapitalDenom:          old.CapitalDenom,
		CommitmentDenom:       old.CommitmentDenom,
		InvestmentDenom:       old.InvestmentDenom,
		CapitalPerShare:       old.CapitalPerShare,
		MinCommitment:         old.MinCommitment,
		MaxCommitment:         old.MaxCommitment,
		MinDaysOfNotice:       old.MinDaysOfNotice,
		Gate:                  GateAuthorization,
		Status:                old.Status,
		Sequence:              old.Sequence,
		ActiveCapitalCall:     old.ActiveCapitalCall,
		ClosedCapitalCalls:    old.ClosedCapitalCalls,
		CancelledCapitalCalls: old.CancelledCapitalCalls,
		Redemptions:           old.Redemptions,
		Distributions:         old.Distributions,
		Withdrawals:           old.Withdrawals,
		External:              old.External,
	}
	if old.Status == StatusDraft {
		c.PendingExchangeAuthorizations = []ExchangeAuthorization{{
			Exchanges: []ExchangeDelta{{CommitmentInShares: old.MaxCommitment}},
		}}
	}
	return c
}

// loadCommitment reads the agreement from the store, migrating older schema
// generations forward through the linear chain.
func loadCommitment(s Store) (*Commitment, error) {
	raw, err := s.Get(commitmentKey)
	if err != nil {
		return nil, fmt.Errorf("read commitment: %v", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("subscription not instantiated")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode commitment envelope: %v", err)
	}

	switch env.Version {
	case 1:
		var old commitmentV1
		if err := json.Unmarshal(env.Commitment, &old); err != nil {
			return nil, fmt.Errorf("decode v1 commitment: %v", err)
		}
		c := migrateV2(migrateV1(old))
		return &c, nil
	case 2:
		var old commitmentV2
		if err := json.Unmarshal(env.Commitment, &old); err != nil {
			return nil, fmt.Errorf("decode v2 commitment: %v", err)
		}
		c := migrateV2(old)
		return &c, nil
	case schemaVersion:
		var c Commitment
		if err := json.Unmarshal(env.Commitment, &c); err != nil {
			return nil, fmt.Errorf("decode commitment: %v", err)
		}
		return &c, nil
	default:
		return nil, fmt.Errorf("unknown commitment schema version %d", env.Version)
	}
}

// saveCommitment writes the agreement at the current schema version. It is
// the single terminal mutation of every command.
func saveCommitment(s Store, c *Commitment) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode commitment: %v", err)
	}
	wrapped, err := json.Marshal(envelope{Version: schemaVersion, Commitment: body})
	if err != nil {
		return fmt.Errorf("encode commitment envelope: %v", err)
	}
	return s.Put(commitmentKey, wrapped)
}

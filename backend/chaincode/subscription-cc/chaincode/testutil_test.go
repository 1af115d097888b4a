package chaincode

import (
	"fmt"
)

const (
	fundAddr       = "fund"
	subscriberAddr = "lp"
	adminAddr      = "admin"
)

// memStore is an in-memory Store for tests.
type memStore map[string][]byte

func (m memStore) Get(key string) ([]byte, error) {
	return m[key], nil
}

func (m memStore) Put(key string, value []byte) error {
	m[key] = value
	return nil
}

type sentCoin struct {
	Denom      string
	Amount     int64
	To         string
	Restricted bool
}

type collectedCoin struct {
	Denom  string
	Amount int64
	From   string
}

type dispatched struct {
	Msg   *RaiseMsg
	Funds []Coin
}

// fakeCollab records every outbound interaction and serves canned balances
// and attributes.
type fakeCollab struct {
	balances map[string]int64 // "addr/denom" -> amount
	attrs    map[string][]string

	collects   []collectedCoin
	sends      []sentCoin
	dispatches []dispatched
}

func newFakeCollab() *fakeCollab {
	return &fakeCollab{
		balances: map[string]int64{},
		attrs:    map[string][]string{},
	}
}

func (f *fakeCollab) setBalance(addr, denom string, amount int64) {
	f.balances[addr+"/"+denom] = amount
}

func (f *fakeCollab) Balance(addr, denom string) (int64, error) {
	return f.balances[addr+"/"+denom], nil
}

func (f *fakeCollab) Attributes(addr string) ([]string, error) {
	return f.attrs[addr], nil
}

func (f *fakeCollab) Collect(denom string, amount int64, from string) error {
	f.collects = append(f.collects, collectedCoin{Denom: denom, Amount: amount, From: from})
	return nil
}

func (f *fakeCollab) Send(denom string, amount int64, to string) error {
	f.sends = append(f.sends, sentCoin{Denom: denom, Amount: amount, To: to})
	return nil
}

func (f *fakeCollab) SendRestricted(denom string, amount int64, to string) error {
	f.sends = append(f.sends, sentCoin{Denom: denom, Amount: amount, To: to, Restricted: true})
	return nil
}

func (f *fakeCollab) DispatchRaise(msg *RaiseMsg, funds []Coin) error {
	f.dispatches = append(f.dispatches, dispatched{Msg: msg, Funds: funds})
	return nil
}

// draftCommitment builds the agreement used throughout the tests: bounds of
// [10_000, 100_000] commitment units at 100 capital per share.
func draftCommitment() *Commitment {
	return &Commitment{
		CounterpartyFund: fundAddr,
		Subscriber:       subscriberAddr,
		RecoveryAdmin:    adminAddr,
		CapitalDenom:     "stable_coin",
		CommitmentDenom:  "commitment_coin",
		InvestmentDenom:  "investment_coin",
		CapitalPerShare:  100,
		MinCommitment:    10_000,
		MaxCommitment:    100_000,
		Gate:             GateStatus,
		Status:           StatusDraft,
	}
}

// acceptedCommitment is draftCommitment after acceptance.
func acceptedCommitment() *Commitment {
	c := draftCommitment()
	c.Status = StatusAccepted
	return c
}

// recordedSequences collects every sequence number across the transaction
// sets, for the uniqueness invariant.
func recordedSequences(c *Commitment) []uint16 {
	var seqs []uint16
	if c.ActiveCapitalCall != nil {
		seqs = append(seqs, c.ActiveCapitalCall.Sequence)
	}
	for _, call := range c.ClosedCapitalCalls {
		seqs = append(seqs, call.Sequence)
	}
	for _, call := range c.CancelledCapitalCalls {
		seqs = append(seqs, call.Sequence)
	}
	for _, r := range c.Redemptions {
		seqs = append(seqs, r.Sequence)
	}
	for _, d := range c.Distributions {
		seqs = append(seqs, d.Sequence)
	}
	for _, w := range c.Withdrawals {
		seqs = append(seqs, w.Sequence)
	}
	return seqs
}

// assertUniqueSequences fails when two recorded transactions share a sequence
// or when any recorded sequence exceeds the counter.
func assertUniqueSequences(c *Commitment) error {
	seen := map[uint16]bool{}
	for _, seq := range recordedSequences(c) {
		if seen[seq] {
			return fmt.Errorf("duplicate sequence %d", seq)
		}
		if seq > c.Sequence {
			return fmt.Errorf("sequence %d exceeds counter %d", seq, c.Sequence)
		}
		seen[seq] = true
	}
	return nil
}

package chaincode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putVersioned(t *testing.T, store Store, version int, commitment interface{}) {
	t.Helper()
	body, err := json.Marshal(commitment)
	require.NoError(t, err)
	wrapped, err := json.Marshal(envelope{Version: version, Commitment: body})
	require.NoError(t, err)
	require.NoError(t, store.Put(commitmentKey, wrapped))
}

func TestLoadMigratesV1Draft(t *testing.T) {
	store := memStore{}
	putVersioned(t, store, 1, commitmentV1{
		CounterpartyFund: fundAddr,
		Subscriber:       subscriberAddr,
		RecoveryAdmin:    adminAddr,
		Status:           StatusDraft,
		CapitalDenom:     "stable_coin",
		CommitmentDenom:  "commitment_coin",
		InvestmentDenom:  "investment_coin",
		CapitalPerShare:  100,
		MinCommitment:    10_000,
		MaxCommitment:    100_000,
	})

	c, err := loadCommitment(store)
	require.NoError(t, err)

	assert.Equal(t, GateAuthorization, c.Gate)
	assert.Equal(t, uint16(0), c.Sequence)
	assert.Nil(t, c.ActiveCapitalCall)
	assert.Equal(t, subscriberAddr, c.Subscriber)

	// the unfunded maximum commitment survives as a pending authorization
	require.Len(t, c.PendingExchangeAuthorizations, 1)
	auth := c.PendingExchangeAuthorizations[0]
	require.Len(t, auth.Exchanges, 1)
	assert.Equal(t, int64(100_000), auth.Exchanges[0].CommitmentInShares)
}

func TestLoadMigratesV2Accepted(t *testing.T) {
	store := memStore{}
	putVersioned(t, store, 2, commitmentV2{
		commitmentV1: commitmentV1{
			CounterpartyFund: fundAddr,
			Subscriber:       subscriberAddr,
			RecoveryAdmin:    adminAddr,
			Status:           StatusAccepted,
			CapitalDenom:     "stable_coin",
			CommitmentDenom:  "commitment_coin",
			InvestmentDenom:  "investment_coin",
			CapitalPerShare:  100,
			MinCommitment:    10_000,
			MaxCommitment:    100_000,
		},
		Sequence:           2,
		ClosedCapitalCalls: []CapitalCall{{Sequence: 1, Amount: 10_000}},
		Withdrawals:        []Withdrawal{{Sequence: 2, To: "dest", Amount: 500}},
	})

	c, err := loadCommitment(store)
	require.NoError(t, err)

	assert.Equal(t, GateAuthorization, c.Gate)
	assert.Equal(t, uint16(2), c.Sequence)
	require.Len(t, c.ClosedCapitalCalls, 1)
	require.Len(t, c.Withdrawals, 1)

	// accepted commitments get no synthesized authorization
	assert.Empty(t, c.PendingExchangeAuthorizations)
	require.NoError(t, assertUniqueSequences(c))
}

func TestMigrationChainComposes(t *testing.T) {
	v2 := migrateV1(commitmentV1{
		CounterpartyFund: fundAddr,
		Subscriber:       subscriberAddr,
		Status:           StatusDraft,
		CapitalDenom:     "stable_coin",
		CapitalPerShare:  100,
		MaxCommitment:    50_000,
	})
	assert.Equal(t, uint16(0), v2.Sequence)
	assert.Empty(t, v2.ClosedCapitalCalls)

	c := migrateV2(v2)
	assert.Equal(t, int64(100), c.CapitalPerShare)
	require.Len(t, c.PendingExchangeAuthorizations, 1)
	assert.Equal(t, int64(50_000), c.PendingExchangeAuthorizations[0].Exchanges[0].CommitmentInShares)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := memStore{}
	c := acceptedCommitment()
	c.Sequence = 3
	c.ActiveCapitalCall = &CapitalCall{Sequence: 3, Amount: 10_000, DaysOfNotice: 5}
	c.PendingExchangeAuthorizations = []ExchangeAuthorization{{
		Exchanges: []ExchangeDelta{{Capital: -1_000}},
		Memo:      "pending",
	}}

	require.NoError(t, saveCommitment(store, c))
	loaded, err := loadCommitment(store)
	require.NoError(t, err)

	assert.Equal(t, c, loaded)
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	store := memStore{}
	putVersioned(t, store, 9, draftCommitment())

	_, err := loadCommitment(store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version")
}

func TestLoadUninstantiated(t *testing.T) {
	_, err := loadCommitment(memStore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not instantiated")
}

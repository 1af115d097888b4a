package chaincode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCapitalCallWrongCaller(t *testing.T) {
	c := acceptedCommitment()
	ext := newFakeCollab()

	_, err := issueCapitalCall(c, ext, subscriberAddr, 10_000, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIssueCapitalCallRequiresAcceptance(t *testing.T) {
	c := draftCommitment()
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 1_000)

	_, err := issueCapitalCall(c, ext, fundAddr, 10_000, 0)
	assert.ErrorIs(t, err, ErrNotAccepted)
}

func TestIssueCapitalCallAuthorizationGateSkipsStatus(t *testing.T) {
	c := draftCommitment()
	c.Gate = GateAuthorization
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 1_000)

	_, err := issueCapitalCall(c, ext, fundAddr, 10_000, 0)
	require.NoError(t, err)
}

func TestIssueCapitalCallNotDivisible(t *testing.T) {
	c := acceptedCommitment()
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 1_000)

	_, err := issueCapitalCall(c, ext, fundAddr, c.CapitalPerShare+1, 0)
	assert.ErrorIs(t, err, ErrNotDivisible)
}

func TestIssueCapitalCallExceedsRemainingCommitment(t *testing.T) {
	c := acceptedCommitment()
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 99)

	_, err := issueCapitalCall(c, ext, fundAddr, 10_000, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remaining commitment")
}

func TestIssueCapitalCallInsufficientNotice(t *testing.T) {
	c := acceptedCommitment()
	c.MinDaysOfNotice = 10
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 1_000)

	_, err := issueCapitalCall(c, ext, fundAddr, 10_000, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days of notice")

	_, err = issueCapitalCall(c, ext, fundAddr, 10_000, 10)
	require.NoError(t, err)
}

func TestIssueCapitalCallSupersedesActive(t *testing.T) {
	c := acceptedCommitment()
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 1_000)

	first, err := issueCapitalCall(c, ext, fundAddr, 10_000, 0)
	require.NoError(t, err)
	second, err := issueCapitalCall(c, ext, fundAddr, 20_000, 0)
	require.NoError(t, err)

	require.NotNil(t, c.ActiveCapitalCall)
	assert.Equal(t, second.Sequence, c.ActiveCapitalCall.Sequence)
	require.Len(t, c.CancelledCapitalCalls, 1)
	assert.Equal(t, first.Sequence, c.CancelledCapitalCalls[0].Sequence)
	assert.NotEqual(t, first.Sequence, second.Sequence)
	require.NoError(t, assertUniqueSequences(c))
}

func TestCloseCapitalCallNoneActive(t *testing.T) {
	c := acceptedCommitment()
	ext := newFakeCollab()

	err := closeCapitalCall(c, ext, fundAddr, nil, false)
	assert.ErrorIs(t, err, ErrNoActiveCall)
}

func TestCloseCapitalCallInexactFunds(t *testing.T) {
	c := acceptedCommitment()
	c.Sequence = 1
	c.ActiveCapitalCall = &CapitalCall{Sequence: 1, Amount: 10_000}
	ext := newFakeCollab()

	// commitment leg short by one
	err := closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 99},
		{Denom: "stable_coin", Amount: 10_000},
	}, false)
	assert.ErrorIs(t, err, ErrFundsMismatch)

	// overshooting is rejected too; the match is exact, not at-least
	err = closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 101},
		{Denom: "stable_coin", Amount: 10_000},
	}, false)
	assert.ErrorIs(t, err, ErrFundsMismatch)

	require.NotNil(t, c.ActiveCapitalCall)
	assert.Empty(t, c.ClosedCapitalCalls)
}

func TestCloseCapitalCallExact(t *testing.T) {
	c := acceptedCommitment()
	c.Sequence = 1
	c.ActiveCapitalCall = &CapitalCall{Sequence: 1, Amount: 10_000}
	ext := newFakeCollab()

	err := closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 100},
		{Denom: "stable_coin", Amount: 10_000},
	}, false)
	require.NoError(t, err)

	assert.Nil(t, c.ActiveCapitalCall)
	require.Len(t, c.ClosedCapitalCalls, 1)
	assert.Equal(t, uint16(1), c.ClosedCapitalCalls[0].Sequence)

	// both legs go back to the fund, sorted by denom
	require.Len(t, ext.sends, 2)
	assert.Equal(t, sentCoin{Denom: "commitment_coin", Amount: 100, To: fundAddr}, ext.sends[0])
	assert.Equal(t, sentCoin{Denom: "stable_coin", Amount: 10_000, To: fundAddr}, ext.sends[1])

	// the legs travel with the investment claim
	require.Len(t, ext.dispatches, 1)
	msg := ext.dispatches[0].Msg
	require.NotNil(t, msg.ClaimInvestment)
	assert.Equal(t, int64(10_000), msg.ClaimInvestment.Amount)
	assert.Equal(t, []Coin{
		{Denom: "commitment_coin", Amount: 100},
		{Denom: "stable_coin", Amount: 10_000},
	}, ext.dispatches[0].Funds)
}

func TestCloseCapitalCallRetroactiveSkipsCapitalLeg(t *testing.T) {
	c := acceptedCommitment()
	c.Sequence = 1
	c.ActiveCapitalCall = &CapitalCall{Sequence: 1, Amount: 10_000}
	ext := newFakeCollab()

	// retroactive closes take no capital leg at all
	err := closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 100},
		{Denom: "stable_coin", Amount: 10_000},
	}, true)
	assert.ErrorIs(t, err, ErrFundsMismatch)

	err = closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 100},
	}, true)
	require.NoError(t, err)

	require.Len(t, ext.sends, 1)
	assert.Equal(t, sentCoin{Denom: "commitment_coin", Amount: 100, To: fundAddr}, ext.sends[0])
	require.Len(t, c.ClosedCapitalCalls, 1)

	// the investment claim carries only the commitment leg
	require.Len(t, ext.dispatches, 1)
	require.NotNil(t, ext.dispatches[0].Msg.ClaimInvestment)
	assert.Equal(t, []Coin{{Denom: "commitment_coin", Amount: 100}}, ext.dispatches[0].Funds)
}

func TestCloseCapitalCallMultiDenomSettlesDefault(t *testing.T) {
	c := acceptedCommitment()
	c.LikeCapitalDenoms = []string{"stable_coin", "usdf"}
	c.Sequence = 1
	c.ActiveCapitalCall = &CapitalCall{Sequence: 1, Amount: 10_000}
	ext := newFakeCollab()

	// the close command carries no denom, so the capital leg always settles
	// in the default capital denom even when alternates are accepted
	err := closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 100},
		{Denom: "usdf", Amount: 10_000},
	}, false)
	assert.ErrorIs(t, err, ErrFundsMismatch)

	err = closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "commitment_coin", Amount: 100},
		{Denom: "stable_coin", Amount: 10_000},
	}, false)
	require.NoError(t, err)
	require.Len(t, ext.sends, 2)
	assert.Equal(t, "stable_coin", ext.sends[1].Denom)
}

func TestCloseRemainingCommitment(t *testing.T) {
	c := acceptedCommitment()
	ext := newFakeCollab()

	err := closeRemainingCommitment(c, ext, fundAddr)
	assert.ErrorIs(t, err, ErrUnauthorized)

	c.Sequence = 1
	c.ActiveCapitalCall = &CapitalCall{Sequence: 1, Amount: 10_000}
	err = closeRemainingCommitment(c, ext, subscriberAddr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still active")
	assert.Empty(t, ext.dispatches)

	c.ActiveCapitalCall = nil
	require.NoError(t, closeRemainingCommitment(c, ext, subscriberAddr))
	require.Len(t, ext.dispatches, 1)
	require.NotNil(t, ext.dispatches[0].Msg.CloseRemainingCommitment)
	assert.Empty(t, ext.dispatches[0].Funds)
}

func TestCloseRemainingCommitmentStatusGate(t *testing.T) {
	c := draftCommitment()
	ext := newFakeCollab()

	err := closeRemainingCommitment(c, ext, subscriberAddr)
	assert.ErrorIs(t, err, ErrNotAccepted)
}

// The end-to-end scenario: accept 20_000 commitment units, call 10_000
// capital, close with the exact legs attached.
func TestCapitalCallLifecycle(t *testing.T) {
	store := memStore{}
	c := draftCommitment()
	ext := newFakeCollab()
	ext.setBalance(fundAddr, c.CommitmentDenom, 100)

	err := acceptCommitment(c, ext, fundAddr, []Coin{{Denom: "commitment_coin", Amount: 20_000}}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, c.Status)
	require.NoError(t, saveCommitment(store, c))

	c, err = loadCommitment(store)
	require.NoError(t, err)
	call, err := issueCapitalCall(c, ext, fundAddr, 10_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), call.Sequence)
	require.NoError(t, saveCommitment(store, c))

	c, err = loadCommitment(store)
	require.NoError(t, err)
	ext = newFakeCollab()
	err = closeCapitalCall(c, ext, fundAddr, []Coin{
		{Denom: "stable_coin", Amount: 10_000},
		{Denom: "commitment_coin", Amount: 100},
	}, false)
	require.NoError(t, err)
	require.NoError(t, saveCommitment(store, c))

	c, err = loadCommitment(store)
	require.NoError(t, err)
	assert.Nil(t, c.ActiveCapitalCall)
	require.Len(t, c.ClosedCapitalCalls, 1)
	assert.Equal(t, uint16(1), c.ClosedCapitalCalls[0].Sequence)
	assert.Equal(t, int64(10_000), c.ClosedCapitalCalls[0].Amount)
	require.Len(t, ext.sends, 2)
	require.Len(t, ext.dispatches, 1)
	require.NotNil(t, ext.dispatches[0].Msg.ClaimInvestment)
	require.NoError(t, assertUniqueSequences(c))
}

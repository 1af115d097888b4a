package chaincode

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
)

// Collaborators is the boundary to the external token subsystem, the identity
// registry, and the fund counterparty. Balances and attributes are queried
// fresh on every command; the token subsystem is the sole source of truth.
type Collaborators interface {
	// Balance returns the holder's live balance of one instrument.
	Balance(addr, denom string) (int64, error)

	// Attributes returns the identity attributes held by an address.
	Attributes(addr string) ([]string, error)

	// Collect settles funds attached to the current command into the
	// subscription's account.
	Collect(denom string, amount int64, from string) error

	// Send moves funds out of the subscription's account.
	Send(denom string, amount int64, to string) error

	// SendRestricted moves funds of a restricted instrument out of the
	// subscription's account; the destination must already have been checked
	// for the required attribute.
	SendRestricted(denom string, amount int64, to string) error

	// DispatchRaise delivers one protocol message to the fund counterparty
	// with the given funds attached.
	DispatchRaise(msg *RaiseMsg, funds []Coin) error
}

// RaiseMsg is the outbound protocol message to the fund counterparty. Exactly
// one field is set.
type RaiseMsg struct {
	ClaimInvestment          *ClaimInvestment          `json:"claim_investment,omitempty"`
	ClaimRedemption          *ClaimRedemption          `json:"claim_redemption,omitempty"`
	ClaimDistribution        *ClaimDistribution        `json:"claim_distribution,omitempty"`
	CloseRemainingCommitment *CloseRemainingCommitment `json:"close_remaining_commitment,omitempty"`
	CompleteAssetExchange    *CompleteExchange         `json:"complete_asset_exchange,omitempty"`
	AcceptCommitmentUpdate   *AcceptCommitmentUpdate   `json:"accept_commitment_update,omitempty"`
}

type ClaimInvestment struct {
	Amount int64 `json:"amount"`
}

type ClaimRedemption struct {
	Asset   int64  `json:"asset"`
	Capital int64  `json:"capital"`
	To      string `json:"to,omitempty"`
	Memo    string `json:"memo,omitempty"`
}

type ClaimDistribution struct {
	Amount int64  `json:"amount"`
	To     string `json:"to,omitempty"`
	Memo   string `json:"memo,omitempty"`
}

type CloseRemainingCommitment struct{}

type CompleteExchange struct {
	Exchanges []ExchangeDelta `json:"exchanges"`
	To        string          `json:"to,omitempty"`
	Memo      string          `json:"memo,omitempty"`
}

type AcceptCommitmentUpdate struct {
	Commitment int64 `json:"commitment"`
}

// raiseMessageEvent names the chaincode event emitted alongside every
// dispatched protocol message.
const raiseMessageEvent = "RaiseMessage"

type raiseEnvelope struct {
	Message *RaiseMsg `json:"message"`
	Funds   []Coin    `json:"funds,omitempty"`
}

// chainCollaborators implements Collaborators over cross-chaincode invokes.
type chainCollaborators struct {
	stub shim.ChaincodeStubInterface
	refs ExternalRefs
}

func newChainCollaborators(stub shim.ChaincodeStubInterface, refs ExternalRefs) chainCollaborators {
	return chainCollaborators{stub: stub, refs: refs}
}

func (c chainCollaborators) invoke(chaincode string, args ...string) ([]byte, error) {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return checkResponse(chaincode, args[0], c.stub.InvokeChaincode(chaincode, raw, c.refs.Channel))
}

func checkResponse(chaincode, fn string, resp peer.Response) ([]byte, error) {
	if resp.Status != shim.OK {
		return nil, fmt.Errorf("invoke %s %s: %s", chaincode, fn, resp.Message)
	}
	return resp.Payload, nil
}

func (c chainCollaborators) Balance(addr, denom string) (int64, error) {
	payload, err := c.invoke(c.refs.TokenChaincode, "BalanceOf", addr, denom)
	if err != nil {
		return 0, err
	}
	balance, err := strconv.ParseInt(string(payload), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance of %s: %v", denom, err)
	}
	return balance, nil
}

func (c chainCollaborators) Attributes(addr string) ([]string, error) {
	payload, err := c.invoke(c.refs.IdentityChaincode, "GetAttributes", addr)
	if err != nil {
		return nil, err
	}
	var attrs []string
	if err := json.Unmarshal(payload, &attrs); err != nil {
		return nil, fmt.Errorf("parse attributes of %s: %v", addr, err)
	}
	return attrs, nil
}

func (c chainCollaborators) Collect(denom string, amount int64, from string) error {
	_, err := c.invoke(c.refs.TokenChaincode, "Transfer",
		from, c.refs.Account, denom, strconv.FormatInt(amount, 10))
	return err
}

func (c chainCollaborators) Send(denom string, amount int64, to string) error {
	_, err := c.invoke(c.refs.TokenChaincode, "Transfer",
		c.refs.Account, to, denom, strconv.FormatInt(amount, 10))
	return err
}

func (c chainCollaborators) SendRestricted(denom string, amount int64, to string) error {
	_, err := c.invoke(c.refs.TokenChaincode, "TransferRestricted",
		c.refs.Account, to, denom, strconv.FormatInt(amount, 10))
	return err
}

func (c chainCollaborators) DispatchRaise(msg *RaiseMsg, funds []Coin) error {
	payload, err := json.Marshal(raiseEnvelope{Message: msg, Funds: funds})
	if err != nil {
		return err
	}
	if _, err := c.invoke(c.refs.RaiseChaincode, "Receive", string(payload)); err != nil {
		return err
	}
	return c.stub.SetEvent(raiseMessageEvent, payload)
}

// sortCoins orders funds by denom for deterministic encoding.
func sortCoins(coins []Coin) {
	sort.Slice(coins, func(i, j int) bool { return coins[i].Denom < coins[j].Denom })
}

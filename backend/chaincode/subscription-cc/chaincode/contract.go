package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// SmartContract is the command and query surface of one subscription
// agreement between a fund counterparty and a limited partner.
type SmartContract struct {
	contractapi.Contract
}

// InstantiateRequest carries the agreement terms. The caller becomes the fund
// counterparty.
type InstantiateRequest struct {
	Subscriber                string            `json:"subscriber"`
	RecoveryAdmin             string            `json:"recovery_admin"`
	CapitalDenom              string            `json:"capital_denom"`
	LikeCapitalDenoms         []string          `json:"like_capital_denoms,omitempty"`
	RequiredCapitalAttributes map[string]string `json:"required_capital_attributes,omitempty"`
	CommitmentDenom           string            `json:"commitment_denom"`
	InvestmentDenom           string            `json:"investment_denom"`
	CapitalPerShare           int64             `json:"capital_per_share"`
	MinCommitment             int64             `json:"min_commitment"`
	MaxCommitment             int64             `json:"max_commitment"`
	MinDaysOfNotice           uint16            `json:"min_days_of_notice,omitempty"`
	Gate                      GatePolicy        `json:"gate,omitempty"`
	External                  ExternalRefs      `json:"external"`
}

type AcceptRequest struct {
	Commitment int64  `json:"commitment,omitempty"`
	Funds      []Coin `json:"funds,omitempty"`
}

type IssueCapitalCallRequest struct {
	Amount       int64  `json:"amount"`
	DaysOfNotice uint16 `json:"days_of_notice,omitempty"`
}

type CloseCapitalCallRequest struct {
	Retroactive bool   `json:"retroactive,omitempty"`
	Funds       []Coin `json:"funds"`
}

type IssueRedemptionRequest struct {
	Asset   int64  `json:"asset"`
	Capital int64  `json:"capital"`
	To      string `json:"to,omitempty"`
	Memo    string `json:"memo,omitempty"`
}

type IssueDistributionRequest struct {
	Amount int64  `json:"amount"`
	To     string `json:"to,omitempty"`
	Memo   string `json:"memo,omitempty"`
}

type IssueWithdrawalRequest struct {
	To           string `json:"to"`
	Amount       int64  `json:"amount"`
	CapitalDenom string `json:"capital_denom,omitempty"`
}

// Terms is the GetTerms query result.
type Terms struct {
	CounterpartyFund          string            `json:"counterparty_fund"`
	Subscriber                string            `json:"subscriber"`
	RecoveryAdmin             string            `json:"recovery_admin"`
	CapitalDenom              string            `json:"capital_denom"`
	LikeCapitalDenoms         []string          `json:"like_capital_denoms,omitempty"`
	RequiredCapitalAttributes map[string]string `json:"required_capital_attributes,omitempty"`
	CommitmentDenom           string            `json:"commitment_denom"`
	InvestmentDenom           string            `json:"investment_denom"`
	CapitalPerShare           int64             `json:"capital_per_share"`
	MinCommitment             int64             `json:"min_commitment"`
	MaxCommitment             int64             `json:"max_commitment"`
	MinDaysOfNotice           uint16            `json:"min_days_of_notice,omitempty"`
}

// State is the GetState query result.
type State struct {
	Gate          GatePolicy `json:"gate"`
	Status        Status     `json:"status,omitempty"`
	Sequence      uint16     `json:"sequence"`
	HasActiveCall bool       `json:"has_active_call"`
}

// Transactions is the GetTransactions query result: the full capital-call
// sets plus the redemption, distribution, and withdrawal histories.
type Transactions struct {
	ActiveCapitalCall     *CapitalCall   `json:"active_capital_call,omitempty"`
	ClosedCapitalCalls    []CapitalCall  `json:"closed_capital_calls"`
	CancelledCapitalCalls []CapitalCall  `json:"cancelled_capital_calls"`
	Redemptions           []Redemption   `json:"redemptions"`
	Distributions         []Distribution `json:"distributions"`
	Withdrawals           []Withdrawal   `json:"withdrawals"`
}

func callerID(ctx contractapi.TransactionContextInterface) (string, error) {
	id, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %v", err)
	}
	return id, nil
}

// withCommitment runs one command as load, validate/mutate, save.
func (s *SmartContract) withCommitment(ctx contractapi.TransactionContextInterface, fn func(c *Commitment, ext Collaborators, caller string) error) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}
	store := worldStateStore{stub: ctx.GetStub()}
	c, err := loadCommitment(store)
	if err != nil {
		return err
	}
	ext := newChainCollaborators(ctx.GetStub(), c.External)
	if err := fn(c, ext, caller); err != nil {
		return err
	}
	return saveCommitment(store, c)
}

// Instantiate creates the agreement in draft. The caller becomes the fund
// counterparty.
func (s *SmartContract) Instantiate(ctx contractapi.TransactionContextInterface, termsJSON string) error {
	caller, err := callerID(ctx)
	if err != nil {
		return err
	}
	store := worldStateStore{stub: ctx.GetStub()}
	existing, err := store.Get(commitmentKey)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("subscription already instantiated")
	}

	var req InstantiateRequest
	if err := json.Unmarshal([]byte(termsJSON), &req); err != nil {
		return fmt.Errorf("invalid terms: %v", err)
	}
	if req.Subscriber == "" || req.RecoveryAdmin == "" {
		return fmt.Errorf("subscriber and recovery admin required")
	}
	if req.CapitalDenom == "" || req.CommitmentDenom == "" || req.InvestmentDenom == "" {
		return fmt.Errorf("capital, commitment, and investment denoms required")
	}
	if req.CapitalPerShare <= 0 {
		return fmt.Errorf("capital per share must be positive")
	}
	if req.MinCommitment <= 0 || req.MaxCommitment < req.MinCommitment {
		return fmt.Errorf("commitment bounds invalid")
	}
	probe := Commitment{CapitalDenom: req.CapitalDenom, LikeCapitalDenoms: req.LikeCapitalDenoms}
	for denom := range req.RequiredCapitalAttributes {
		if _, err := probe.ResolveCapitalDenom(denom); err != nil {
			return fmt.Errorf("attribute for unaccepted denom %s", denom)
		}
	}
	gate := req.Gate
	if gate == "" {
		gate = GateStatus
	}
	if gate != GateStatus && gate != GateAuthorization {
		return fmt.Errorf("unknown gate policy %q", gate)
	}

	c := Commitment{
		CounterpartyFund:          caller,
		Subscriber:                req.Subscriber,
		RecoveryAdmin:             req.RecoveryAdmin,
		CapitalDenom:              req.CapitalDenom,
		LikeCapitalDenoms:         req.LikeCapitalDenoms,
		RequiredCapitalAttributes: req.RequiredCapitalAttributes,
		CommitmentDenom:           req.CommitmentDenom,
		InvestmentDenom:           req.InvestmentDenom,
		CapitalPerShare:           req.CapitalPerShare,
		MinCommitment:             req.MinCommitment,
		MaxCommitment:             req.MaxCommitment,
		MinDaysOfNotice:           req.MinDaysOfNotice,
		Gate:                      gate,
		Status:                    StatusDraft,
		External:                  req.External,
	}
	return saveCommitment(store, &c)
}

// Recover replaces the subscriber identity on the agreement.
func (s *SmartContract) Recover(ctx contractapi.TransactionContextInterface, newSubscriber string) error {
	return s.withCommitment(ctx, func(c *Commitment, _ Collaborators, caller string) error {
		return recoverSubscriber(c, caller, newSubscriber)
	})
}

// Accept transitions the draft agreement to accepted.
func (s *SmartContract) Accept(ctx contractapi.TransactionContextInterface, acceptJSON string) error {
	var req AcceptRequest
	if err := json.Unmarshal([]byte(acceptJSON), &req); err != nil {
		return fmt.Errorf("invalid accept request: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		return acceptCommitment(c, ext, caller, req.Funds, req.Commitment)
	})
}

// IssueCapitalCall issues a call against the commitment, superseding any
// previously active one.
func (s *SmartContract) IssueCapitalCall(ctx contractapi.TransactionContextInterface, callJSON string) error {
	var req IssueCapitalCallRequest
	if err := json.Unmarshal([]byte(callJSON), &req); err != nil {
		return fmt.Errorf("invalid capital call: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		call, err := issueCapitalCall(c, ext, caller, req.Amount, req.DaysOfNotice)
		if err != nil {
			return err
		}
		payload, _ := json.Marshal(call)
		return ctx.GetStub().SetEvent("CapitalCallIssued", payload)
	})
}

// CloseCapitalCall settles the active capital call.
func (s *SmartContract) CloseCapitalCall(ctx contractapi.TransactionContextInterface, closeJSON string) error {
	var req CloseCapitalCallRequest
	if err := json.Unmarshal([]byte(closeJSON), &req); err != nil {
		return fmt.Errorf("invalid close request: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		return closeCapitalCall(c, ext, caller, req.Funds, req.Retroactive)
	})
}

// CloseRemainingCommitment asks the fund counterparty to release the
// unfunded commitment capacity.
func (s *SmartContract) CloseRemainingCommitment(ctx contractapi.TransactionContextInterface) error {
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		return closeRemainingCommitment(c, ext, caller)
	})
}

// AuthorizeAssetExchange records a pending exchange authorization.
func (s *SmartContract) AuthorizeAssetExchange(ctx contractapi.TransactionContextInterface, authJSON string) error {
	var auth ExchangeAuthorization
	if err := json.Unmarshal([]byte(authJSON), &auth); err != nil {
		return fmt.Errorf("invalid authorization: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, _ Collaborators, caller string) error {
		return authorizeAssetExchange(c, caller, auth)
	})
}

// CancelAssetExchangeAuthorization removes a pending authorization.
func (s *SmartContract) CancelAssetExchangeAuthorization(ctx contractapi.TransactionContextInterface, authJSON string) error {
	var auth ExchangeAuthorization
	if err := json.Unmarshal([]byte(authJSON), &auth); err != nil {
		return fmt.Errorf("invalid authorization: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, _ Collaborators, caller string) error {
		return cancelExchangeAuthorization(c, caller, auth)
	})
}

// CompleteAssetExchange executes a batch of exchange deltas.
func (s *SmartContract) CompleteAssetExchange(ctx contractapi.TransactionContextInterface, batchJSON string) error {
	var batch ExchangeAuthorization
	if err := json.Unmarshal([]byte(batchJSON), &batch); err != nil {
		return fmt.Errorf("invalid exchange batch: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		return completeAssetExchange(c, ext, caller, batch)
	})
}

// IssueRedemption claims capital from the fund in exchange for investment
// shares.
func (s *SmartContract) IssueRedemption(ctx contractapi.TransactionContextInterface, redemptionJSON string) error {
	var req IssueRedemptionRequest
	if err := json.Unmarshal([]byte(redemptionJSON), &req); err != nil {
		return fmt.Errorf("invalid redemption: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		_, err := issueRedemption(c, ext, caller, req.Asset, req.Capital, req.To, req.Memo)
		return err
	})
}

// IssueDistribution claims a capital payout from the fund.
func (s *SmartContract) IssueDistribution(ctx contractapi.TransactionContextInterface, distributionJSON string) error {
	var req IssueDistributionRequest
	if err := json.Unmarshal([]byte(distributionJSON), &req); err != nil {
		return fmt.Errorf("invalid distribution: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		_, err := issueDistribution(c, ext, caller, req.Amount, req.To, req.Memo)
		return err
	})
}

// IssueWithdrawal sends capital to an arbitrary destination.
func (s *SmartContract) IssueWithdrawal(ctx contractapi.TransactionContextInterface, withdrawalJSON string) error {
	var req IssueWithdrawalRequest
	if err := json.Unmarshal([]byte(withdrawalJSON), &req); err != nil {
		return fmt.Errorf("invalid withdrawal: %v", err)
	}
	return s.withCommitment(ctx, func(c *Commitment, ext Collaborators, caller string) error {
		_, err := issueWithdrawal(c, ext, caller, req.To, req.Amount, req.CapitalDenom)
		return err
	})
}

// GetTerms returns the agreement terms.
func (s *SmartContract) GetTerms(ctx contractapi.TransactionContextInterface) (*Terms, error) {
	c, err := loadCommitment(worldStateStore{stub: ctx.GetStub()})
	if err != nil {
		return nil, err
	}
	return &Terms{
		CounterpartyFund:          c.CounterpartyFund,
		Subscriber:                c.Subscriber,
		RecoveryAdmin:             c.RecoveryAdmin,
		CapitalDenom:              c.CapitalDenom,
		LikeCapitalDenoms:         c.LikeCapitalDenoms,
		RequiredCapitalAttributes: c.RequiredCapitalAttributes,
		CommitmentDenom:           c.CommitmentDenom,
		InvestmentDenom:           c.InvestmentDenom,
		CapitalPerShare:           c.CapitalPerShare,
		MinCommitment:             c.MinCommitment,
		MaxCommitment:             c.MaxCommitment,
		MinDaysOfNotice:           c.MinDaysOfNotice,
	}, nil
}

// GetState returns the lifecycle state.
func (s *SmartContract) GetState(ctx contractapi.TransactionContextInterface) (*State, error) {
	c, err := loadCommitment(worldStateStore{stub: ctx.GetStub()})
	if err != nil {
		return nil, err
	}
	return &State{
		Gate:          c.Gate,
		Status:        c.Status,
		Sequence:      c.Sequence,
		HasActiveCall: c.ActiveCapitalCall != nil,
	}, nil
}

// GetTransactions returns the full transaction history.
func (s *SmartContract) GetTransactions(ctx contractapi.TransactionContextInterface) (*Transactions, error) {
	c, err := loadCommitment(worldStateStore{stub: ctx.GetStub()})
	if err != nil {
		return nil, err
	}
	return &Transactions{
		ActiveCapitalCall:     c.ActiveCapitalCall,
		ClosedCapitalCalls:    c.ClosedCapitalCalls,
		CancelledCapitalCalls: c.CancelledCapitalCalls,
		Redemptions:           c.Redemptions,
		Distributions:         c.Distributions,
		Withdrawals:           c.Withdrawals,
	}, nil
}

// GetAssetExchangeAuthorizations returns the pending authorization list.
func (s *SmartContract) GetAssetExchangeAuthorizations(ctx contractapi.TransactionContextInterface) ([]ExchangeAuthorization, error) {
	c, err := loadCommitment(worldStateStore{stub: ctx.GetStub()})
	if err != nil {
		return nil, err
	}
	return c.PendingExchangeAuthorizations, nil
}

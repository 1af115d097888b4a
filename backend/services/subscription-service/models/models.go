package models

// Coin is an amount of a single instrument attached to a command.
type Coin struct {
	Denom  string `json:"denom"`
	Amount int64  `json:"amount"`
}

// ExchangeDelta mirrors one signed exchange line of the chaincode.
type ExchangeDelta struct {
	Investment         int64  `json:"investment,omitempty"`
	CommitmentInShares int64  `json:"commitment_in_shares,omitempty"`
	Capital            int64  `json:"capital,omitempty"`
	CapitalDenom       string `json:"capital_denom,omitempty"`
}

type RecoverRequest struct {
	Subscriber string `json:"subscriber"`
}

type AcceptRequest struct {
	Commitment int64  `json:"commitment,omitempty"`
	Funds      []Coin `json:"funds,omitempty"`
}

type CapitalCallRequest struct {
	Amount       int64  `json:"amount"`
	DaysOfNotice uint16 `json:"days_of_notice,omitempty"`
}

type CloseCapitalCallRequest struct {
	Retroactive bool   `json:"retroactive,omitempty"`
	Funds       []Coin `json:"funds"`
}

type ExchangeRequest struct {
	Exchanges []ExchangeDelta `json:"exchanges"`
	To        string          `json:"to,omitempty"`
	Memo      string          `json:"memo,omitempty"`
}

type RedemptionRequest struct {
	Asset   int64  `json:"asset"`
	Capital int64  `json:"capital"`
	To      string `json:"to,omitempty"`
	Memo    string `json:"memo,omitempty"`
}

type DistributionRequest struct {
	Amount int64  `json:"amount"`
	To     string `json:"to,omitempty"`
	Memo   string `json:"memo,omitempty"`
}

type WithdrawalRequest struct {
	To           string `json:"to"`
	Amount       int64  `json:"amount"`
	CapitalDenom string `json:"capital_denom,omitempty"`
}

// CommandRecord is the Postgres mirror row of one submitted command.
type CommandRecord struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Payload string `json:"payload"`
	Status  string `json:"status"`
}

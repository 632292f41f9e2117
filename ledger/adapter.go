package ledger

import (
	"context"
)

// Transaction is the canonical submission payload.
type Transaction struct {
	From         string `json:"from"`
	To           string `json:"to"`
	FunctionName string `json:"function_name"`
	Args         []any  `json:"args"`
	GasLimit     int64  `json:"gas_limit"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Event is a normalized ledger event.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// TransactionResult is the canonical submission outcome. A transaction is
// final only when Status is StatusConfirmed; anything else is failure.
type TransactionResult struct {
	TransactionID string  `json:"transaction_id"`
	Status        Status  `json:"status"`
	Events        []Event `json:"events,omitempty"`
	FailureReason string  `json:"failure_reason,omitempty"`
}

// Confirmed reports whether the ledger acknowledged the transaction as final.
func (r *TransactionResult) Confirmed() bool {
	return r != nil && r.Status == StatusConfirmed
}

// StateQuery addresses a read-only contract method.
type StateQuery struct {
	Contract string `json:"contract"`
	Method   string `json:"method"`
	Params   []any  `json:"params"`
}

// EventFilter selects which ledger events a watch receives.
type EventFilter struct {
	Addresses []string `json:"addresses,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

// Adapter abstracts transaction submission and state queries against the
// ledger. All calls block; cancellation of ctx is treated by callers the
// same as adapter failure (non-fatal, retryable by the caller).
type Adapter interface {
	SubmitTransaction(ctx context.Context, tx Transaction) (*TransactionResult, error)
	QueryState(ctx context.Context, query StateQuery) (map[string]any, error)
	WatchEvents(ctx context.Context, filter EventFilter) (<-chan Event, error)
}

// Contract and method names the engine speaks against the ledger.
const (
	ReputationContract = "reputation"
	IncentivesContract = "incentives"

	MethodGetReputation  = "getReputation"
	MethodGetClaim       = "getClaim"
	FuncUpdateReputation = "updateReputation"
	FuncClaimBonus       = "claimBonus"
	FuncRegisterCampaign = "registerCampaign"
)

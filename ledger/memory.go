package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trustgraph/models"
)

// MemoryLedger is an in-process Adapter used by tests and local runs. It
// mirrors the guarantees the engine relies on from a real ledger: the claim
// existence check and the pool decrement happen atomically under one lock,
// so the ledger itself is the serialization point for concurrent claims.
type MemoryLedger struct {
	mu          sync.Mutex
	reputations map[string]*models.LedgerReputationSnapshot
	claims      map[string]int64 // campaignID\x00userID -> amount
	pools       map[string]int64
	subscribers []chan Event
	submitCount int

	// Fault injection for tests.
	QueryErr  error
	SubmitErr error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		reputations: make(map[string]*models.LedgerReputationSnapshot),
		claims:      make(map[string]int64),
		pools:       make(map[string]int64),
	}
}

func claimLedgerKey(campaignID, userID string) string {
	return campaignID + "\x00" + userID
}

// SeedReputation installs an on-ledger reputation state directly.
func (m *MemoryLedger) SeedReputation(snap *models.LedgerReputationSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reputations[snap.UserID] = snap
}

// SetPool installs an on-ledger campaign pool balance directly.
func (m *MemoryLedger) SetPool(campaignID string, balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[campaignID] = balance
}

// SeedClaim records an on-ledger claim directly, bypassing submission.
func (m *MemoryLedger) SeedClaim(campaignID, userID string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[claimLedgerKey(campaignID, userID)] = amount
}

// SubmitCount reports how many transactions were submitted, successful or not.
func (m *MemoryLedger) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitCount
}

func (m *MemoryLedger) SubmitTransaction(ctx context.Context, tx Transaction) (*TransactionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCount++

	if m.SubmitErr != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, m.SubmitErr)
	}

	switch tx.FunctionName {
	case FuncUpdateReputation:
		userID, _ := tx.Args[0].(string)
		txID := uuid.NewString()
		m.reputations[userID] = &models.LedgerReputationSnapshot{
			UserID:                    userID,
			ReputationScoreOnLedger:   toInt64(tx.Args[1]),
			VerificationLevelOnLedger: int(toInt64(tx.Args[2])),
			LastUpdatedOnLedger:       time.Now().UnixMilli(),
			SourceTransactionID:       txID,
		}
		return m.confirm(txID, tx.FunctionName, map[string]any{"user_id": userID}), nil

	case FuncClaimBonus:
		campaignID, _ := tx.Args[0].(string)
		userID, _ := tx.Args[1].(string)
		amount := toInt64(tx.Args[2])

		key := claimLedgerKey(campaignID, userID)
		if _, exists := m.claims[key]; exists {
			return &TransactionResult{Status: StatusFailed, FailureReason: "already claimed"}, nil
		}
		if m.pools[campaignID] < amount {
			return &TransactionResult{Status: StatusFailed, FailureReason: "pool exhausted"}, nil
		}
		m.pools[campaignID] -= amount
		m.claims[key] = amount
		txID := uuid.NewString()
		return m.confirm(txID, tx.FunctionName, map[string]any{
			"campaign_id": campaignID, "user_id": userID, "amount": amount,
		}), nil

	case FuncRegisterCampaign:
		campaignID, _ := tx.Args[0].(string)
		m.pools[campaignID] = toInt64(tx.Args[1])
		return m.confirm(uuid.NewString(), tx.FunctionName, map[string]any{"campaign_id": campaignID}), nil

	default:
		return &TransactionResult{Status: StatusFailed, FailureReason: "unknown function " + tx.FunctionName}, nil
	}
}

func (m *MemoryLedger) QueryState(ctx context.Context, query StateQuery) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.QueryErr != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLedgerUnavailable, m.QueryErr)
	}

	switch {
	case query.Contract == ReputationContract && query.Method == MethodGetReputation:
		userID, _ := query.Params[0].(string)
		snap, ok := m.reputations[userID]
		if !ok {
			return map[string]any{}, nil
		}
		// deliberately uses the short field names a real node emits, so the
		// normalization path is exercised end to end
		return map[string]any{
			"score":     float64(snap.ReputationScoreOnLedger),
			"level":     float64(snap.VerificationLevelOnLedger),
			"updatedAt": float64(snap.LastUpdatedOnLedger),
			"txId":      snap.SourceTransactionID,
		}, nil

	case query.Contract == IncentivesContract && query.Method == MethodGetClaim:
		campaignID, _ := query.Params[0].(string)
		userID, _ := query.Params[1].(string)
		amount, exists := m.claims[claimLedgerKey(campaignID, userID)]
		if !exists {
			return map[string]any{"claimed": false}, nil
		}
		return map[string]any{"claimed": true, "amount": float64(amount)}, nil

	default:
		return nil, fmt.Errorf("unknown query %s.%s", query.Contract, query.Method)
	}
}

func (m *MemoryLedger) WatchEvents(ctx context.Context, filter EventFilter) (<-chan Event, error) {
	ch := make(chan Event, 16)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for i, sub := range m.subscribers {
			if sub == ch {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				break
			}
		}
		m.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// confirm builds a confirmed result and fans the event out to watchers.
// Caller holds m.mu.
func (m *MemoryLedger) confirm(txID, eventType string, data map[string]any) *TransactionResult {
	event := Event{Type: eventType, Data: data}
	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
	return &TransactionResult{
		TransactionID: txID,
		Status:        StatusConfirmed,
		Events:        []Event{event},
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

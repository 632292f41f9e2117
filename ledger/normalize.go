package ledger

import (
	"strings"

	"trustgraph/models"
)

// Ledger node responses name fields inconsistently across versions
// (transactionHash vs hash vs txId). All raw payloads pass through this one
// normalization step so the engine only ever sees the canonical shapes.

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func firstInt64(raw map[string]any, keys ...string) int64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int64:
			return n
		case int:
			return int64(n)
		}
	}
	return 0
}

// NormalizeTransactionResult maps a raw submission response onto the
// canonical TransactionResult. Unknown statuses count as failed; only an
// explicit confirmed/success status is treated as final.
func NormalizeTransactionResult(raw map[string]any) *TransactionResult {
	result := &TransactionResult{
		TransactionID: firstString(raw, "transaction_id", "transactionId", "transactionHash", "hash", "txId", "tx_id"),
		FailureReason: firstString(raw, "failure_reason", "error", "reason", "message"),
	}

	switch strings.ToLower(firstString(raw, "status", "state")) {
	case "confirmed", "success", "succeeded":
		result.Status = StatusConfirmed
	case "pending", "submitted":
		result.Status = StatusPending
	default:
		result.Status = StatusFailed
	}

	if rawEvents, ok := raw["events"].([]any); ok {
		for _, re := range rawEvents {
			m, ok := re.(map[string]any)
			if !ok {
				continue
			}
			event := Event{Type: firstString(m, "type", "name")}
			if data, ok := m["data"].(map[string]any); ok {
				event.Data = data
			}
			result.Events = append(result.Events, event)
		}
	}
	return result
}

// SnapshotFromState maps a raw reputation query payload onto the canonical
// ledger snapshot. An empty payload yields a zero snapshot, which the
// synchronizer will naturally flag as divergent.
func SnapshotFromState(userID string, raw map[string]any) *models.LedgerReputationSnapshot {
	return &models.LedgerReputationSnapshot{
		UserID:                    userID,
		ReputationScoreOnLedger:   firstInt64(raw, "reputation_score", "reputationScore", "score"),
		VerificationLevelOnLedger: int(firstInt64(raw, "verification_level", "verificationLevel", "level")),
		LastUpdatedOnLedger:       firstInt64(raw, "last_updated", "lastUpdated", "updatedAt"),
		SourceTransactionID:       firstString(raw, "source_transaction_id", "sourceTransactionId", "transactionHash", "hash", "txId"),
	}
}

// ClaimedFromState reads the claim-existence answer out of a raw incentives
// query payload.
func ClaimedFromState(raw map[string]any) bool {
	if v, ok := raw["claimed"].(bool); ok {
		return v
	}
	if v, ok := raw["exists"].(bool); ok {
		return v
	}
	return false
}

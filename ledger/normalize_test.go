package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTransactionResult_FieldVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		id   string
	}{
		{"transactionId", map[string]any{"transactionId": "tx-1", "status": "confirmed"}, "tx-1"},
		{"transactionHash", map[string]any{"transactionHash": "tx-2", "status": "confirmed"}, "tx-2"},
		{"hash", map[string]any{"hash": "tx-3", "status": "success"}, "tx-3"},
		{"txId", map[string]any{"txId": "tx-4", "status": "SUCCESS"}, "tx-4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := NormalizeTransactionResult(tc.raw)
			require.Equal(t, tc.id, result.TransactionID)
			require.Equal(t, StatusConfirmed, result.Status)
			require.True(t, result.Confirmed())
		})
	}
}

func TestNormalizeTransactionResult_OnlyExplicitSuccessIsFinal(t *testing.T) {
	require.Equal(t, StatusPending,
		NormalizeTransactionResult(map[string]any{"hash": "tx", "status": "pending"}).Status)

	for _, status := range []string{"failed", "reverted", "", "bogus"} {
		result := NormalizeTransactionResult(map[string]any{"hash": "tx", "status": status})
		require.Equal(t, StatusFailed, result.Status)
		require.False(t, result.Confirmed())
	}
}

func TestNormalizeTransactionResult_FailureReasonAndEvents(t *testing.T) {
	result := NormalizeTransactionResult(map[string]any{
		"txId":   "tx-9",
		"status": "failed",
		"error":  "pool exhausted",
		"events": []any{
			map[string]any{"type": "ClaimRejected", "data": map[string]any{"campaign": "c1"}},
			"garbage",
		},
	})
	require.Equal(t, "pool exhausted", result.FailureReason)
	require.Len(t, result.Events, 1)
	require.Equal(t, "ClaimRejected", result.Events[0].Type)
	require.Equal(t, "c1", result.Events[0].Data["campaign"])
}

func TestSnapshotFromState_FieldVariants(t *testing.T) {
	snap := SnapshotFromState("u1", map[string]any{
		"score":     float64(847),
		"level":     float64(2),
		"updatedAt": float64(1700000000000),
		"txId":      "tx-7",
	})
	require.Equal(t, "u1", snap.UserID)
	require.EqualValues(t, 847, snap.ReputationScoreOnLedger)
	require.Equal(t, 2, snap.VerificationLevelOnLedger)
	require.EqualValues(t, 1700000000000, snap.LastUpdatedOnLedger)
	require.Equal(t, "tx-7", snap.SourceTransactionID)

	canonical := SnapshotFromState("u2", map[string]any{
		"reputationScore":   float64(120),
		"verificationLevel": float64(1),
	})
	require.EqualValues(t, 120, canonical.ReputationScoreOnLedger)
	require.Equal(t, 1, canonical.VerificationLevelOnLedger)
}

func TestSnapshotFromState_EmptyPayloadIsZero(t *testing.T) {
	snap := SnapshotFromState("ghost", map[string]any{})
	require.Zero(t, snap.ReputationScoreOnLedger)
	require.Zero(t, snap.VerificationLevelOnLedger)
}

func TestClaimedFromState(t *testing.T) {
	require.True(t, ClaimedFromState(map[string]any{"claimed": true}))
	require.True(t, ClaimedFromState(map[string]any{"exists": true}))
	require.False(t, ClaimedFromState(map[string]any{"claimed": false}))
	require.False(t, ClaimedFromState(map[string]any{}))
}

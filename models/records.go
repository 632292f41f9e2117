package models

import "math"

// SocialEdge is a follow/connection edge as seen from a specific viewer.
// Edges beyond two hops are not stored; absence means zero influence.
type SocialEdge struct {
	ViewerID    string  `json:"viewer_id"`
	OtherID     string  `json:"other_id"`
	HopDistance int     `json:"hop_distance"` // 1 = direct, 2 = connection-of-connection
	EdgeWeight  float64 `json:"edge_weight"`
}

// EdgeWeightForHop returns the fixed influence weight for a hop distance.
func EdgeWeightForHop(hop int) float64 {
	switch hop {
	case 1:
		return 0.75
	case 2:
		return 0.25
	default:
		return 0
	}
}

// Endorsement is a transient scoring input; it is never persisted here.
type Endorsement struct {
	EndorserID            string  `json:"endorser_id"`
	TargetContentID       string  `json:"target_content_id"`
	EndorserTrustScore    float64 `json:"endorser_trust_score"` // expected in [0,1]
	HopDistanceFromViewer int     `json:"hop_distance_from_viewer"`
}

// ScoreBreakdown explains how a trust score was assembled.
type ScoreBreakdown struct {
	DirectCount      int      `json:"direct_count"`
	IndirectCount    int      `json:"indirect_count"`
	TotalWeight      float64  `json:"total_weight"`
	ClampedEndorsers []string `json:"clamped_endorsers,omitempty"` // endorsers whose trust score fell outside [0,1]
}

// TrustScoreResult is the outcome of a single scoring request. FinalScore
// keeps full precision; DisplayScore rounds to one decimal for rendering.
type TrustScoreResult struct {
	ContentID        string         `json:"content_id"`
	ViewerID         string         `json:"viewer_id"`
	BaseScore        float64        `json:"base_score"`
	SocialMultiplier float64        `json:"social_multiplier"`
	FinalScore       float64        `json:"final_score"`
	ComputedAt       int64          `json:"computed_at"` // unix timestamp in ms
	Breakdown        ScoreBreakdown `json:"breakdown"`
}

func (r *TrustScoreResult) DisplayScore() float64 {
	return math.Round(r.FinalScore*10) / 10
}

// Normalized maps the 0-10 final score onto the [0,1] scale campaigns use.
func (r *TrustScoreResult) Normalized() float64 {
	return r.FinalScore / 10.0
}

type VerificationLevel string

const (
	VerificationBasic    VerificationLevel = "basic"
	VerificationVerified VerificationLevel = "verified"
	VerificationExpert   VerificationLevel = "expert"
)

// LedgerCode maps a verification level onto its on-ledger integer form.
// Unknown levels map to 0 so the mapping stays total.
func (v VerificationLevel) LedgerCode() int {
	switch v {
	case VerificationVerified:
		return 1
	case VerificationExpert:
		return 2
	default:
		return 0
	}
}

type SyncState string

const (
	SyncStateSynced   SyncState = "synced"
	SyncStateDiverged SyncState = "diverged"
	SyncStatePending  SyncState = "pending"
)

// ReputationRecord is the off-chain authoritative reputation snapshot.
// The activity pipeline mutates it; the synchronizer only reads it.
type ReputationRecord struct {
	UserID                string            `json:"user_id"`
	ReputationScore       float64           `json:"reputation_score"` // [0,1]
	VerificationLevel     VerificationLevel `json:"verification_level"`
	SocialConnectionCount int               `json:"social_connection_count"`
	LastUpdated           int64             `json:"last_updated"` // unix timestamp in ms
	LedgerSyncState       SyncState         `json:"ledger_sync_state"`
}

// LedgerReputationSnapshot is the read-only projection of a user's
// reputation as recorded on the ledger, in fixed-point units.
type LedgerReputationSnapshot struct {
	UserID                    string `json:"user_id"`
	ReputationScoreOnLedger   int64  `json:"reputation_score_on_ledger"`
	VerificationLevelOnLedger int    `json:"verification_level_on_ledger"`
	LastUpdatedOnLedger       int64  `json:"last_updated_on_ledger"`
	SourceTransactionID       string `json:"source_transaction_id"`
}

// ReconciliationOutcome reports a single synchronizer run. It is immutable
// once produced; the caller persists or discards it.
type ReconciliationOutcome struct {
	UserID                  string   `json:"user_id"`
	Discrepancies           []string `json:"discrepancies,omitempty"`
	Synced                  bool     `json:"synced"`
	LastSyncAttempt         int64    `json:"last_sync_attempt"` // unix timestamp in ms
	CorrectiveTransactionID string   `json:"corrective_transaction_id,omitempty"`
}

// ContentTrustStat is the latest normalized ([0,1]) trust score recorded for
// a piece of content, read by the campaign engine's progress check.
type ContentTrustStat struct {
	ContentID       string  `json:"content_id"`
	NormalizedScore float64 `json:"normalized_score"`
	UpdatedAt       int64   `json:"updated_at"` // unix timestamp in ms
}

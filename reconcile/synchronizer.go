package reconcile

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"trustgraph/ledger"
	"trustgraph/logger"
	"trustgraph/metrics"
	"trustgraph/models"
	"trustgraph/repository"
)

// Config carries the divergence tuning knobs. The defaults reproduce the
// observed production behavior; both values are awaiting product
// confirmation, hence configurable.
type Config struct {
	// ScoreScale converts the local [0,1] score into the ledger's
	// fixed-point units for both comparison and corrective writes.
	ScoreScale float64
	// ScoreTolerance is the comparison band that absorbs fixed-point
	// rounding; drift beyond it counts as divergence.
	ScoreTolerance float64
}

func DefaultConfig() Config {
	return Config{ScoreScale: 1000, ScoreTolerance: 10}
}

// Synchronizer compares the local reputation record against the ledger and
// pushes a corrective transaction when they diverge. Each Reconcile call is
// a fresh, stateless unit of work: a crash mid-run never leaves a
// half-applied invariant, and the worst case of a redundant run is a no-op
// correction. It never mutates local state; corrections flow local → ledger
// only.
type Synchronizer struct {
	repo    repository.ReputationRepositoryInterface
	adapter ledger.Adapter
	cfg     Config
}

func NewSynchronizer(repo repository.ReputationRepositoryInterface, adapter ledger.Adapter, cfg Config) *Synchronizer {
	if cfg.ScoreScale == 0 {
		cfg = DefaultConfig()
	}
	return &Synchronizer{repo: repo, adapter: adapter, cfg: cfg}
}

// Reconcile runs one Start → FetchLocal → FetchLedger → Compare →
// {NoOp | CorrectLedger} → Done pass for a user.
//
// A ledger fetch or submission failure is a non-fatal outcome, not an error:
// the returned ReconciliationOutcome is flagged unsynced and the caller is
// expected to re-invoke later. Retry and backoff belong to the caller or a
// scheduler, never to this component.
func (s *Synchronizer) Reconcile(ctx context.Context, userID string) (*models.ReconciliationOutcome, error) {
	if userID == "" {
		return nil, &models.ValidationError{Detail: "user id is required"}
	}

	outcome := &models.ReconciliationOutcome{
		UserID:          userID,
		LastSyncAttempt: time.Now().UnixMilli(),
	}

	local, err := s.repo.GetReputation(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch local reputation for %s: %w", userID, err)
	}

	data, err := s.adapter.QueryState(ctx, ledger.StateQuery{
		Contract: ledger.ReputationContract,
		Method:   ledger.MethodGetReputation,
		Params:   []any{userID},
	})
	if err != nil {
		outcome.Discrepancies = append(outcome.Discrepancies, "ledger unreachable: "+err.Error())
		metrics.ReconcileRuns.WithLabelValues("ledger_unreachable").Inc()
		return outcome, nil
	}
	snap := ledger.SnapshotFromState(userID, data)

	discrepancies := s.compare(local, snap)
	if len(discrepancies) == 0 {
		outcome.Synced = true
		metrics.ReconcileRuns.WithLabelValues("noop").Inc()
		return outcome, nil
	}
	outcome.Discrepancies = discrepancies

	// Push the local truth for the two ledger-visible fields that can
	// drift. The connection list is not recomputed here; the placeholder
	// keeps the transaction shape stable.
	result, err := s.adapter.SubmitTransaction(ctx, ledger.Transaction{
		To:           ledger.ReputationContract,
		FunctionName: ledger.FuncUpdateReputation,
		Args: []any{
			userID,
			int64(math.Round(local.ReputationScore * s.cfg.ScoreScale)),
			local.VerificationLevel.LedgerCode(),
			[]string{},
		},
	})
	if err != nil {
		outcome.Discrepancies = append(outcome.Discrepancies, "corrective transaction failed: "+err.Error())
		metrics.ReconcileRuns.WithLabelValues("correction_failed").Inc()
		return outcome, nil
	}
	if !result.Confirmed() {
		outcome.Discrepancies = append(outcome.Discrepancies,
			fmt.Sprintf("corrective transaction not confirmed (status %s): %s", result.Status, result.FailureReason))
		metrics.ReconcileRuns.WithLabelValues("correction_failed").Inc()
		return outcome, nil
	}

	outcome.Synced = true
	outcome.CorrectiveTransactionID = result.TransactionID
	metrics.ReconcileRuns.WithLabelValues("corrected").Inc()
	logger.Logger.Info("Corrected reputation divergence",
		zap.String("user_id", userID),
		zap.Strings("discrepancies", discrepancies),
		zap.String("tx_id", result.TransactionID))
	return outcome, nil
}

func (s *Synchronizer) compare(local *models.ReputationRecord, snap *models.LedgerReputationSnapshot) []string {
	var discrepancies []string

	localFixed := local.ReputationScore * s.cfg.ScoreScale
	if math.Abs(localFixed-float64(snap.ReputationScoreOnLedger)) > s.cfg.ScoreTolerance {
		discrepancies = append(discrepancies,
			fmt.Sprintf("reputation score drift: local %.0f ledger %d", localFixed, snap.ReputationScoreOnLedger))
	}

	if local.VerificationLevel.LedgerCode() != snap.VerificationLevelOnLedger {
		discrepancies = append(discrepancies,
			fmt.Sprintf("verification level mismatch: local %s(%d) ledger %d",
				local.VerificationLevel, local.VerificationLevel.LedgerCode(), snap.VerificationLevelOnLedger))
	}

	return discrepancies
}

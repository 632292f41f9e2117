package campaign

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trustgraph/ledger"
	"trustgraph/logger"
	"trustgraph/metrics"
	"trustgraph/models"
	"trustgraph/repository"
)

// Engine evaluates incentive campaign eligibility and issues bonus claims.
//
// Concurrent claims for the same (campaign, user) pair are serialized by the
// ledger's own claim-existence check, not by an in-process lock: multiple
// process instances may run this engine, so the ledger is the lock.
type Engine struct {
	campaigns  repository.CampaignRepositoryInterface
	reputation repository.ReputationRepositoryInterface
	content    repository.ContentTrustRepositoryInterface
	adapter    ledger.Adapter
}

func NewEngine(
	campaigns repository.CampaignRepositoryInterface,
	reputation repository.ReputationRepositoryInterface,
	content repository.ContentTrustRepositoryInterface,
	adapter ledger.Adapter,
) *Engine {
	return &Engine{campaigns: campaigns, reputation: reputation, content: content, adapter: adapter}
}

// ListEligibleCampaigns returns the active campaigns a user qualifies for,
// ordered by bonus multiplier descending with the soonest expiry first on
// ties, so the most time-sensitive high-value campaign surfaces first. Empty
// region/category arguments match any.
func (e *Engine) ListEligibleCampaigns(userID, region, category string) ([]*models.IncentiveCampaign, error) {
	if userID == "" {
		return nil, &models.ValidationError{Detail: "user id is required"}
	}
	user, err := e.reputation.GetReputation(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch reputation for %s: %w", userID, err)
	}

	all, err := e.campaigns.ListCampaigns()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	eligible := make([]*models.IncentiveCampaign, 0, len(all))
	for _, c := range all {
		if !c.Active(now) {
			continue
		}
		if region != "" && c.Region != region {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		if user.ReputationScore < c.MinTrustScore {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].BonusMultiplier != eligible[j].BonusMultiplier {
			return eligible[i].BonusMultiplier > eligible[j].BonusMultiplier
		}
		return eligible[i].ExpiresAt < eligible[j].ExpiresAt
	})
	return eligible, nil
}

// ClaimBonus validates a claim against the campaign rules and, when every
// precondition passes, submits the claim transaction. The preconditions run
// in a fixed order, each with its own failure mode; the double-claim check
// always queries the ledger, never a local cache, because the local store
// may be stale after a crash between submission and bookkeeping.
func (e *Engine) ClaimBonus(ctx context.Context, userID, campaignID string, contentIDs []string) (*models.ClaimResult, error) {
	if userID == "" || campaignID == "" {
		return nil, &models.ValidationError{Detail: "user id and campaign id are required"}
	}

	// 1. Campaign exists and is active.
	c, err := e.campaigns.GetCampaign(campaignID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.ClaimAttempts.WithLabelValues("inactive").Inc()
		return nil, fmt.Errorf("campaign %s: %w", campaignID, models.ErrCampaignInactive)
	}
	if err != nil {
		return nil, err
	}
	if !c.Active(time.Now().UnixMilli()) {
		metrics.ClaimAttempts.WithLabelValues("inactive").Inc()
		return nil, fmt.Errorf("campaign %s: %w", campaignID, models.ErrCampaignInactive)
	}

	// 2. No prior claim, per the authoritative ledger.
	claimed, err := e.ledgerClaimExists(ctx, campaignID, userID)
	if err != nil {
		metrics.ClaimAttempts.WithLabelValues("ledger_error").Inc()
		return nil, err
	}
	if claimed {
		if _, localErr := e.campaigns.GetClaim(campaignID, userID); errors.Is(localErr, models.ErrNotFound) {
			// The ledger knows a claim the local store does not — either a
			// crash between submission and bookkeeping, or a concurrent
			// winner whose bookkeeping has not landed yet. The ledger stays
			// authoritative: the bonus is already claimed. The integrity
			// condition is surfaced rather than silently resolved because
			// overwriting could hide fraud or a prior partial failure.
			metrics.ClaimAttempts.WithLabelValues("integrity_error").Inc()
			return nil, &models.DataIntegrityError{
				Detail: fmt.Sprintf("ledger reports a claim for campaign %s user %s with no local record", campaignID, userID),
				Cause:  models.ErrAlreadyClaimed,
			}
		}
		metrics.ClaimAttempts.WithLabelValues("already_claimed").Inc()
		return nil, models.ErrAlreadyClaimed
	}

	// 3. Enough qualifying content.
	if len(contentIDs) < c.TargetRecommendationCount {
		metrics.ClaimAttempts.WithLabelValues("insufficient").Inc()
		return nil, &models.InsufficientProgressError{
			Need:     c.TargetRecommendationCount - len(contentIDs),
			Supplied: len(contentIDs),
		}
	}
	var belowThreshold []string
	for _, contentID := range contentIDs {
		stat, err := e.content.GetContentTrust(contentID)
		if errors.Is(err, models.ErrNotFound) {
			belowThreshold = append(belowThreshold, contentID)
			continue
		}
		if err != nil {
			return nil, err
		}
		if stat.NormalizedScore < c.MinTrustScore {
			belowThreshold = append(belowThreshold, contentID)
		}
	}
	if len(belowThreshold) > 0 {
		metrics.ClaimAttempts.WithLabelValues("insufficient").Inc()
		return nil, &models.InsufficientProgressError{
			Supplied:       len(contentIDs),
			BelowThreshold: belowThreshold,
		}
	}

	// 4. Pool covers the payout. The ledger re-checks this atomically on
	// submission; this pre-check avoids submitting a doomed transaction.
	amount := c.ClaimAmount()
	if c.BonusPool < amount {
		metrics.ClaimAttempts.WithLabelValues("pool_exhausted").Inc()
		return nil, fmt.Errorf("campaign %s needs %d units: %w", campaignID, amount, models.ErrPoolExhausted)
	}

	result, err := e.adapter.SubmitTransaction(ctx, ledger.Transaction{
		To:           ledger.IncentivesContract,
		FunctionName: ledger.FuncClaimBonus,
		Args:         []any{campaignID, userID, amount, contentIDs},
	})
	if err != nil {
		metrics.ClaimAttempts.WithLabelValues("ledger_error").Inc()
		return nil, err
	}
	if !result.Confirmed() {
		return nil, e.mapRejection(result, campaignID)
	}

	// Bookkeeping after the ledger acknowledged the claim. A failure here is
	// logged, not returned: the ledger outcome stands, and the next
	// evaluation of this user re-queries the ledger rather than trusting
	// the local write.
	if err := e.campaigns.DecrementPool(campaignID, amount); err != nil {
		logger.Logger.Warn("Claim confirmed on ledger but local pool decrement failed",
			zap.String("campaign_id", campaignID), zap.Error(err))
	}
	if err := e.campaigns.SaveClaim(&models.ClaimRecord{
		ClaimID:                uuid.NewString(),
		CampaignID:             campaignID,
		UserID:                 userID,
		ClaimedAt:              time.Now().UnixMilli(),
		Amount:                 amount,
		ContributingContentIDs: contentIDs,
	}); err != nil {
		logger.Logger.Warn("Claim confirmed on ledger but local claim record write failed",
			zap.String("campaign_id", campaignID), zap.String("user_id", userID), zap.Error(err))
	}

	metrics.ClaimAttempts.WithLabelValues("success").Inc()
	return &models.ClaimResult{
		Success:       true,
		Amount:        amount,
		TransactionID: result.TransactionID,
	}, nil
}

func (e *Engine) ledgerClaimExists(ctx context.Context, campaignID, userID string) (bool, error) {
	data, err := e.adapter.QueryState(ctx, ledger.StateQuery{
		Contract: ledger.IncentivesContract,
		Method:   ledger.MethodGetClaim,
		Params:   []any{campaignID, userID},
	})
	if err != nil {
		return false, err
	}
	return ledger.ClaimedFromState(data), nil
}

// mapRejection translates a definitive ledger rejection into the matching
// business error. Two racing claims both pass the pre-checks; the loser
// learns its fate here, from the ledger's atomic check.
func (e *Engine) mapRejection(result *ledger.TransactionResult, campaignID string) error {
	reason := strings.ToLower(result.FailureReason)
	switch {
	case strings.Contains(reason, "already claimed"):
		metrics.ClaimAttempts.WithLabelValues("already_claimed").Inc()
		return models.ErrAlreadyClaimed
	case strings.Contains(reason, "pool exhausted"), strings.Contains(reason, "insufficient pool"):
		metrics.ClaimAttempts.WithLabelValues("pool_exhausted").Inc()
		return fmt.Errorf("campaign %s: %w", campaignID, models.ErrPoolExhausted)
	default:
		metrics.ClaimAttempts.WithLabelValues("ledger_error").Inc()
		return fmt.Errorf("claim transaction rejected (status %s): %s", result.Status, result.FailureReason)
	}
}

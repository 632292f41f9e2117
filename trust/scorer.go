package trust

import (
	"math"
	"time"

	"trustgraph/models"
)

const (
	// BaseScore only materializes through social proof: with no endorsements
	// the multiplier is zero and an item scores 0, not 5.0.
	BaseScore = 5.0

	// MaxSocialMultiplier caps the summed endorsement weight.
	MaxSocialMultiplier = 3.0

	// MaxFinalScore caps the displayed 0-10 scale.
	MaxFinalScore = 10.0

	// RewardEligibilityThreshold is the final score at and above which
	// content counts toward incentive payouts. Downstream policy must use
	// this constant instead of re-hardcoding the value.
	RewardEligibilityThreshold = 2.5
)

// ComputeTrustScore computes a viewer-personalized 0-10 trust score for a
// piece of content from an already-deduplicated endorsement set. Pure
// computation: no I/O, no retries.
//
// Endorser trust scores outside [0,1] are clamped rather than rejected, so a
// single bad upstream value cannot block scoring a whole item; the clamp is
// recorded in the breakdown. A nil endorsement slice or a hop distance below
// 1 is a caller bug and fails validation.
func ComputeTrustScore(viewerID, contentID string, endorsements []models.Endorsement) (*models.TrustScoreResult, error) {
	if viewerID == "" {
		return nil, &models.ValidationError{Detail: "viewer id is required"}
	}
	if contentID == "" {
		return nil, &models.ValidationError{Detail: "content id is required"}
	}
	if endorsements == nil {
		return nil, &models.ValidationError{Detail: "endorsements must not be null"}
	}

	var breakdown models.ScoreBreakdown
	var sum float64
	for _, e := range endorsements {
		if e.HopDistanceFromViewer < 1 {
			return nil, &models.ValidationError{Detail: "endorsement hop distance must be >= 1"}
		}

		score := e.EndorserTrustScore
		if score < 0 || score > 1 {
			score = math.Min(math.Max(score, 0), 1)
			breakdown.ClampedEndorsers = append(breakdown.ClampedEndorsers, e.EndorserID)
		}

		switch e.HopDistanceFromViewer {
		case 1:
			breakdown.DirectCount++
		case 2:
			breakdown.IndirectCount++
		}
		// beyond two hops the weight is zero, so the endorsement contributes nothing
		sum += models.EdgeWeightForHop(e.HopDistanceFromViewer) * score
	}
	breakdown.TotalWeight = sum

	multiplier := math.Min(sum, MaxSocialMultiplier)
	final := math.Min(BaseScore*multiplier, MaxFinalScore)

	return &models.TrustScoreResult{
		ContentID:        contentID,
		ViewerID:         viewerID,
		BaseScore:        BaseScore,
		SocialMultiplier: multiplier,
		FinalScore:       final,
		ComputedAt:       time.Now().UnixMilli(),
		Breakdown:        breakdown,
	}, nil
}

// RewardEligible reports whether a final score clears the payout threshold.
func RewardEligible(finalScore float64) bool {
	return finalScore >= RewardEligibilityThreshold
}

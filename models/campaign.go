package models

// IncentiveCampaign is a time-bounded bonus program. Immutable after
// creation except for the BonusPool decrement on claim.
type IncentiveCampaign struct {
	CampaignID                string  `json:"campaign_id"`
	Region                    string  `json:"region"`
	Category                  string  `json:"category"`
	BonusMultiplier           float64 `json:"bonus_multiplier"`
	TargetRecommendationCount int     `json:"target_recommendation_count"`
	MinTrustScore             float64 `json:"min_trust_score"` // [0,1]
	ExpiresAt                 int64   `json:"expires_at"`      // unix timestamp in ms
	BonusPool                 int64   `json:"bonus_pool"`      // integer token units
}

// Active reports whether the campaign can still pay out at the given time.
func (c *IncentiveCampaign) Active(nowMillis int64) bool {
	return nowMillis <= c.ExpiresAt && c.BonusPool > 0
}

// ClaimAmount is the payout for hitting the campaign target, in token units.
func (c *IncentiveCampaign) ClaimAmount() int64 {
	return int64(c.BonusMultiplier * float64(c.TargetRecommendationCount))
}

// ClaimRecord marks a paid-out bonus. At most one exists per
// (campaignID, userID) pair; it is never mutated or deleted.
type ClaimRecord struct {
	ClaimID                string   `json:"claim_id"`
	CampaignID             string   `json:"campaign_id"`
	UserID                 string   `json:"user_id"`
	ClaimedAt              int64    `json:"claimed_at"` // unix timestamp in ms
	Amount                 int64    `json:"amount"`
	ContributingContentIDs []string `json:"contributing_content_ids"`
}

// ClaimResult is returned to the caller of a successful or failed claim.
type ClaimResult struct {
	Success       bool   `json:"success"`
	Amount        int64  `json:"amount"`
	TransactionID string `json:"transaction_id,omitempty"`
}

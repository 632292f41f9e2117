package campaign

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trustgraph/db"
	"trustgraph/ledger"
	"trustgraph/models"
	"trustgraph/repository"
)

type engineFixture struct {
	engine    *Engine
	campaigns *repository.CampaignRepository
	content   *repository.ContentTrustRepository
	ledger    *ledger.MemoryLedger
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	ldb, err := db.NewMemoryLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })

	campaigns := repository.NewCampaignRepository(ldb)
	reputation := repository.NewReputationRepository(ldb)
	content := repository.NewContentTrustRepository(ldb)
	ml := ledger.NewMemoryLedger()

	require.NoError(t, reputation.SaveReputation(&models.ReputationRecord{
		UserID:            "alice",
		ReputationScore:   0.8,
		VerificationLevel: models.VerificationVerified,
	}))

	return &engineFixture{
		engine:    NewEngine(campaigns, reputation, content, ml),
		campaigns: campaigns,
		content:   content,
		ledger:    ml,
	}
}

func (f *engineFixture) seedCampaign(t *testing.T, c *models.IncentiveCampaign) {
	t.Helper()
	require.NoError(t, f.campaigns.SaveCampaign(c))
	f.ledger.SetPool(c.CampaignID, c.BonusPool)
}

func (f *engineFixture) seedContent(t *testing.T, score float64, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.content.SaveContentTrust(&models.ContentTrustStat{
			ContentID:       id,
			NormalizedScore: score,
			UpdatedAt:       time.Now().UnixMilli(),
		}))
	}
}

func activeCampaign(id string) *models.IncentiveCampaign {
	return &models.IncentiveCampaign{
		CampaignID:                id,
		Region:                    "eu",
		Category:                  "food",
		BonusMultiplier:           5,
		TargetRecommendationCount: 3,
		MinTrustScore:             0.4,
		ExpiresAt:                 time.Now().Add(time.Hour).UnixMilli(),
		BonusPool:                 100,
	}
}

func TestListEligibleCampaigns_FiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	highLate := activeCampaign("high-late")
	highLate.BonusMultiplier = 9
	highLate.ExpiresAt = now.Add(48 * time.Hour).UnixMilli()

	highSoon := activeCampaign("high-soon")
	highSoon.BonusMultiplier = 9
	highSoon.ExpiresAt = now.Add(2 * time.Hour).UnixMilli()

	low := activeCampaign("low")
	low.BonusMultiplier = 2

	expired := activeCampaign("expired")
	expired.ExpiresAt = now.Add(-time.Hour).UnixMilli()

	picky := activeCampaign("picky")
	picky.MinTrustScore = 0.95 // alice's 0.8 falls short

	otherRegion := activeCampaign("other-region")
	otherRegion.Region = "us"

	for _, c := range []*models.IncentiveCampaign{highLate, highSoon, low, expired, picky, otherRegion} {
		f.seedCampaign(t, c)
	}

	eligible, err := f.engine.ListEligibleCampaigns("alice", "eu", "")
	require.NoError(t, err)

	ids := make([]string, len(eligible))
	for i, c := range eligible {
		ids[i] = c.CampaignID
	}
	// highest multiplier first, soonest expiry breaking the tie
	require.Equal(t, []string{"high-soon", "high-late", "low"}, ids)
}

func TestListEligibleCampaigns_EmptyFilterMatchesAny(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))

	eligible, err := f.engine.ListEligibleCampaigns("alice", "", "")
	require.NoError(t, err)
	require.Len(t, eligible, 1)

	eligible, err = f.engine.ListEligibleCampaigns("alice", "mars", "")
	require.NoError(t, err)
	require.Empty(t, eligible)
}

func TestListEligibleCampaigns_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.ListEligibleCampaigns("ghost", "", "")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestClaimBonus_Success(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2", "p3")

	result, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.EqualValues(t, 15, result.Amount) // 5 × 3
	require.NotEmpty(t, result.TransactionID)

	// local bookkeeping followed the ledger acknowledgment
	c, err := f.campaigns.GetCampaign("c1")
	require.NoError(t, err)
	require.EqualValues(t, 85, c.BonusPool)

	rec, err := f.campaigns.GetClaim("c1", "alice")
	require.NoError(t, err)
	require.EqualValues(t, 15, rec.Amount)
	require.Equal(t, []string{"p1", "p2", "p3"}, rec.ContributingContentIDs)
}

func TestClaimBonus_UnknownOrExpiredCampaign(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.ClaimBonus(context.Background(), "alice", "nope", nil)
	require.ErrorIs(t, err, models.ErrCampaignInactive)

	expired := activeCampaign("old")
	expired.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
	f.seedCampaign(t, expired)

	_, err = f.engine.ClaimBonus(context.Background(), "alice", "old", nil)
	require.ErrorIs(t, err, models.ErrCampaignInactive)
}

func TestClaimBonus_InsufficientCount(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2")

	var perr *models.InsufficientProgressError
	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2"})
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 1, perr.Need) // target 3, supplied 2
	require.Equal(t, 2, perr.Supplied)
	require.Zero(t, f.ledger.SubmitCount())
}

func TestClaimBonus_ContentBelowThreshold(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "good1", "good2")
	f.seedContent(t, 0.1, "weak")

	var perr *models.InsufficientProgressError
	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"good1", "good2", "weak"})
	require.ErrorAs(t, err, &perr)
	require.Equal(t, []string{"weak"}, perr.BelowThreshold)
	require.Zero(t, f.ledger.SubmitCount())
}

func TestClaimBonus_UnscoredContentCountsAsBelowThreshold(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2")

	var perr *models.InsufficientProgressError
	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "never-scored"})
	require.ErrorAs(t, err, &perr)
	require.Equal(t, []string{"never-scored"}, perr.BelowThreshold)
}

func TestClaimBonus_PoolExhausted_NoTransactionSubmitted(t *testing.T) {
	f := newFixture(t)
	c := activeCampaign("c1")
	c.BonusPool = 5 // computed amount is 15
	f.seedCampaign(t, c)
	f.seedContent(t, 0.6, "p1", "p2", "p3")

	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
	require.ErrorIs(t, err, models.ErrPoolExhausted)
	require.Zero(t, f.ledger.SubmitCount())
}

func TestClaimBonus_SecondClaimRejected(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2", "p3")

	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	_, err = f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
	require.ErrorIs(t, err, models.ErrAlreadyClaimed)
}

func TestClaimBonus_ConcurrentClaims_ExactlyOneSuccess(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2", "p3")

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		// the ledger's atomic check decides the losers' fate
		require.True(t,
			errors.Is(err, models.ErrAlreadyClaimed) || errors.Is(err, models.ErrPoolExhausted),
			"unexpected error: %v", err)
	}
	require.Equal(t, 1, successes)
}

func TestClaimBonus_LedgerClaimWithoutLocalRecordIsIntegrityError(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2", "p3")

	// a crash after submission but before bookkeeping leaves exactly this state
	f.ledger.SeedClaim("c1", "alice", 15)

	var ierr *models.DataIntegrityError
	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
	require.ErrorAs(t, err, &ierr)
}

func TestClaimBonus_LedgerUnavailable(t *testing.T) {
	f := newFixture(t)
	f.seedCampaign(t, activeCampaign("c1"))
	f.seedContent(t, 0.6, "p1", "p2", "p3")
	f.ledger.QueryErr = errors.New("timeout")

	_, err := f.engine.ClaimBonus(context.Background(), "alice", "c1", []string{"p1", "p2", "p3"})
	require.ErrorIs(t, err, models.ErrLedgerUnavailable)
}

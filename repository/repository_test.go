package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trustgraph/db"
	"trustgraph/models"
)

func memDB(t *testing.T) *db.LevelDB {
	t.Helper()
	ldb, err := db.NewMemoryLevelDB()
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return ldb
}

func TestReputationRepository_RoundTrip(t *testing.T) {
	repo := NewReputationRepository(memDB(t))

	_, err := repo.GetReputation("alice")
	require.ErrorIs(t, err, models.ErrNotFound)

	rec := &models.ReputationRecord{
		UserID:                "alice",
		ReputationScore:       0.847,
		VerificationLevel:     models.VerificationExpert,
		SocialConnectionCount: 12,
		LastUpdated:           time.Now().UnixMilli(),
		LedgerSyncState:       models.SyncStateDiverged,
	}
	require.NoError(t, repo.SaveReputation(rec))

	got, err := repo.GetReputation("alice")
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestReputationRepository_ListUserIDs(t *testing.T) {
	repo := NewReputationRepository(memDB(t))
	for _, id := range []string{"alice", "bob", "carol"} {
		require.NoError(t, repo.SaveReputation(&models.ReputationRecord{UserID: id}))
	}

	ids, err := repo.ListUserIDs()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob", "carol"}, ids)
}

func TestSocialGraphRepository_EdgesPerViewer(t *testing.T) {
	repo := NewSocialGraphRepository(memDB(t))

	require.NoError(t, repo.PutEdge(&models.SocialEdge{ViewerID: "v1", OtherID: "a", HopDistance: 1}))
	require.NoError(t, repo.PutEdge(&models.SocialEdge{ViewerID: "v1", OtherID: "b", HopDistance: 2}))
	require.NoError(t, repo.PutEdge(&models.SocialEdge{ViewerID: "v2", OtherID: "a", HopDistance: 1}))

	edges, err := repo.GetEdges("v1")
	require.NoError(t, err)
	require.Len(t, edges, 2)

	// the fixed weight for the hop distance is stamped on write
	for _, edge := range edges {
		require.Equal(t, models.EdgeWeightForHop(edge.HopDistance), edge.EdgeWeight)
	}
}

func TestSocialGraphRepository_DeleteEdge(t *testing.T) {
	repo := NewSocialGraphRepository(memDB(t))
	require.NoError(t, repo.PutEdge(&models.SocialEdge{ViewerID: "v1", OtherID: "a", HopDistance: 1}))

	require.NoError(t, repo.DeleteEdge("v1", "a"))

	edges, err := repo.GetEdges("v1")
	require.NoError(t, err)
	require.Empty(t, edges)
}

func TestCampaignRepository_RoundTripAndClaims(t *testing.T) {
	repo := NewCampaignRepository(memDB(t))

	c := &models.IncentiveCampaign{
		CampaignID:                "c1",
		Region:                    "eu",
		Category:                  "food",
		BonusMultiplier:           5,
		TargetRecommendationCount: 3,
		MinTrustScore:             0.4,
		ExpiresAt:                 time.Now().Add(time.Hour).UnixMilli(),
		BonusPool:                 100,
	}
	require.NoError(t, repo.SaveCampaign(c))

	got, err := repo.GetCampaign("c1")
	require.NoError(t, err)
	require.Equal(t, c, got)

	all, err := repo.ListCampaigns()
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = repo.GetClaim("c1", "alice")
	require.ErrorIs(t, err, models.ErrNotFound)

	claim := &models.ClaimRecord{
		ClaimID:                "cl-1",
		CampaignID:             "c1",
		UserID:                 "alice",
		ClaimedAt:              time.Now().UnixMilli(),
		Amount:                 15,
		ContributingContentIDs: []string{"p1"},
	}
	require.NoError(t, repo.SaveClaim(claim))

	gotClaim, err := repo.GetClaim("c1", "alice")
	require.NoError(t, err)
	require.Equal(t, claim, gotClaim)
}

func TestCampaignRepository_DecrementPool(t *testing.T) {
	repo := NewCampaignRepository(memDB(t))
	require.NoError(t, repo.SaveCampaign(&models.IncentiveCampaign{CampaignID: "c1", BonusPool: 20}))

	require.NoError(t, repo.DecrementPool("c1", 15))

	c, err := repo.GetCampaign("c1")
	require.NoError(t, err)
	require.EqualValues(t, 5, c.BonusPool)

	// insufficient pool leaves the balance untouched
	require.ErrorIs(t, repo.DecrementPool("c1", 10), models.ErrPoolExhausted)
	c, err = repo.GetCampaign("c1")
	require.NoError(t, err)
	require.EqualValues(t, 5, c.BonusPool)
}

func TestContentTrustRepository_RoundTrip(t *testing.T) {
	repo := NewContentTrustRepository(memDB(t))

	_, err := repo.GetContentTrust("p1")
	require.ErrorIs(t, err, models.ErrNotFound)

	stat := &models.ContentTrustStat{ContentID: "p1", NormalizedScore: 0.375, UpdatedAt: time.Now().UnixMilli()}
	require.NoError(t, repo.SaveContentTrust(stat))

	got, err := repo.GetContentTrust("p1")
	require.NoError(t, err)
	require.Equal(t, stat, got)
}

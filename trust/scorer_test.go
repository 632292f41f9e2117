package trust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trustgraph/models"
)

func TestComputeTrustScore_NoEndorsements(t *testing.T) {
	result, err := ComputeTrustScore("viewer", "content", []models.Endorsement{})
	require.NoError(t, err)

	// the base score only materializes through social proof
	require.Zero(t, result.FinalScore)
	require.Zero(t, result.SocialMultiplier)
	require.Equal(t, BaseScore, result.BaseScore)
}

func TestComputeTrustScore_DirectAndIndirect(t *testing.T) {
	result, err := ComputeTrustScore("viewer", "content", []models.Endorsement{
		{EndorserID: "direct", EndorserTrustScore: 0.8, HopDistanceFromViewer: 1},
		{EndorserID: "indirect", EndorserTrustScore: 0.6, HopDistanceFromViewer: 2},
	})
	require.NoError(t, err)

	require.InDelta(t, 0.75, result.SocialMultiplier, 1e-9) // 0.75*0.8 + 0.25*0.6
	require.InDelta(t, 3.75, result.FinalScore, 1e-9)
	require.Equal(t, 1, result.Breakdown.DirectCount)
	require.Equal(t, 1, result.Breakdown.IndirectCount)
	require.InDelta(t, 0.75, result.Breakdown.TotalWeight, 1e-9)
}

func TestComputeTrustScore_BeyondTwoHopsContributesNothing(t *testing.T) {
	result, err := ComputeTrustScore("viewer", "content", []models.Endorsement{
		{EndorserID: "far", EndorserTrustScore: 1.0, HopDistanceFromViewer: 3},
	})
	require.NoError(t, err)
	require.Zero(t, result.FinalScore)
}

func TestComputeTrustScore_CapsMultiplierAndFinalScore(t *testing.T) {
	// 10 perfect direct endorsers sum to 7.5, well above both caps
	endorsements := make([]models.Endorsement, 10)
	for i := range endorsements {
		endorsements[i] = models.Endorsement{
			EndorserID:            string(rune('a' + i)),
			EndorserTrustScore:    1.0,
			HopDistanceFromViewer: 1,
		}
	}

	result, err := ComputeTrustScore("viewer", "content", endorsements)
	require.NoError(t, err)
	require.Equal(t, MaxSocialMultiplier, result.SocialMultiplier)
	require.Equal(t, MaxFinalScore, result.FinalScore)
	require.InDelta(t, 7.5, result.Breakdown.TotalWeight, 1e-9)
}

func TestComputeTrustScore_Monotonic(t *testing.T) {
	base := []models.Endorsement{
		{EndorserID: "a", EndorserTrustScore: 0.2, HopDistanceFromViewer: 1},
		{EndorserID: "b", EndorserTrustScore: 0.5, HopDistanceFromViewer: 2},
	}

	prev := -1.0
	for _, score := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		endorsements := append([]models.Endorsement(nil), base...)
		endorsements[0].EndorserTrustScore = score
		result, err := ComputeTrustScore("viewer", "content", endorsements)
		require.NoError(t, err)
		require.GreaterOrEqual(t, result.FinalScore, prev)
		prev = result.FinalScore
	}
}

func TestComputeTrustScore_ClampsOutOfRangeScores(t *testing.T) {
	result, err := ComputeTrustScore("viewer", "content", []models.Endorsement{
		{EndorserID: "hot", EndorserTrustScore: 4.2, HopDistanceFromViewer: 1},
		{EndorserID: "cold", EndorserTrustScore: -0.3, HopDistanceFromViewer: 1},
		{EndorserID: "fine", EndorserTrustScore: 0.5, HopDistanceFromViewer: 1},
	})
	require.NoError(t, err)

	// hot clamps to 1.0, cold to 0, fine stays 0.5
	require.InDelta(t, 0.75*1.0+0.75*0.5, result.SocialMultiplier, 1e-9)
	require.ElementsMatch(t, []string{"hot", "cold"}, result.Breakdown.ClampedEndorsers)
}

func TestComputeTrustScore_Validation(t *testing.T) {
	var verr *models.ValidationError

	_, err := ComputeTrustScore("viewer", "content", nil)
	require.ErrorAs(t, err, &verr)

	_, err = ComputeTrustScore("viewer", "content", []models.Endorsement{
		{EndorserID: "a", EndorserTrustScore: 0.5, HopDistanceFromViewer: 0},
	})
	require.ErrorAs(t, err, &verr)

	_, err = ComputeTrustScore("", "content", []models.Endorsement{})
	require.ErrorAs(t, err, &verr)
}

func TestComputeTrustScore_DisplayRounding(t *testing.T) {
	result, err := ComputeTrustScore("viewer", "content", []models.Endorsement{
		{EndorserID: "a", EndorserTrustScore: 0.333, HopDistanceFromViewer: 1},
	})
	require.NoError(t, err)

	// full precision internally, one decimal for display
	require.InDelta(t, 5.0*0.75*0.333, result.FinalScore, 1e-9)
	require.InDelta(t, 1.2, result.DisplayScore(), 1e-9)
}

func TestRewardEligible(t *testing.T) {
	require.False(t, RewardEligible(2.49))
	require.True(t, RewardEligible(RewardEligibilityThreshold))
	require.True(t, RewardEligible(9.9))
}

package repository

import (
	"encoding/json"
	"sync"

	"trustgraph/db"
	"trustgraph/models"
)

const (
	campaignPrefix = "campaign:"
	claimPrefix    = "claim:"
)

func claimKey(campaignID, userID string) []byte {
	return []byte(claimPrefix + campaignID + ":" + userID)
}

// CampaignRepository stores campaign definitions and claim records in
// LevelDB. Pool decrements go through a single mutex so two local claims
// cannot both read a sufficient balance.
type CampaignRepository struct {
	db     *db.LevelDB
	poolMu sync.Mutex
}

func NewCampaignRepository(db *db.LevelDB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// GetCampaign retrieves a campaign definition by id
func (r *CampaignRepository) GetCampaign(campaignID string) (*models.IncentiveCampaign, error) {
	data, err := r.db.Get([]byte(campaignPrefix + campaignID))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var c models.IncentiveCampaign
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveCampaign stores a campaign definition
func (r *CampaignRepository) SaveCampaign(c *models.IncentiveCampaign) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(campaignPrefix+c.CampaignID), data)
}

// ListCampaigns retrieves all stored campaign definitions
func (r *CampaignRepository) ListCampaigns() ([]*models.IncentiveCampaign, error) {
	iter := r.db.NewPrefixIterator([]byte(campaignPrefix))
	defer iter.Release()

	var campaigns []*models.IncentiveCampaign
	for iter.Next() {
		var c models.IncentiveCampaign
		if err := json.Unmarshal(iter.Value(), &c); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, iter.Error()
}

// DecrementPool conditionally reduces a campaign's bonus pool. The check and
// the write happen under one lock; an insufficient pool leaves the campaign
// untouched and returns ErrPoolExhausted.
func (r *CampaignRepository) DecrementPool(campaignID string, amount int64) error {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()

	c, err := r.GetCampaign(campaignID)
	if err != nil {
		return err
	}
	if c.BonusPool < amount {
		return models.ErrPoolExhausted
	}
	c.BonusPool -= amount
	return r.SaveCampaign(c)
}

// GetClaim retrieves the claim record for a (campaign, user) pair
func (r *CampaignRepository) GetClaim(campaignID, userID string) (*models.ClaimRecord, error) {
	data, err := r.db.Get(claimKey(campaignID, userID))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var rec models.ClaimRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveClaim stores a claim record
func (r *CampaignRepository) SaveClaim(rec *models.ClaimRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.db.Put(claimKey(rec.CampaignID, rec.UserID), data)
}

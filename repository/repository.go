package repository

import (
	"trustgraph/models"
)

// It abstracts the storage layer from the business logic
type ReputationRepositoryInterface interface {
	GetReputation(userID string) (*models.ReputationRecord, error)
	SaveReputation(rec *models.ReputationRecord) error
	ListUserIDs() ([]string, error)
}

// SocialGraphRepositoryInterface answers what edges a viewer has, and keeps
// them up to date on follow/unfollow
type SocialGraphRepositoryInterface interface {
	PutEdge(edge *models.SocialEdge) error
	DeleteEdge(viewerID, otherID string) error
	GetEdges(viewerID string) ([]*models.SocialEdge, error)
}

// CampaignRepositoryInterface stores campaign definitions and claim records
type CampaignRepositoryInterface interface {
	GetCampaign(campaignID string) (*models.IncentiveCampaign, error)
	SaveCampaign(c *models.IncentiveCampaign) error
	ListCampaigns() ([]*models.IncentiveCampaign, error)
	DecrementPool(campaignID string, amount int64) error
	GetClaim(campaignID, userID string) (*models.ClaimRecord, error)
	SaveClaim(rec *models.ClaimRecord) error
}

// ContentTrustRepositoryInterface stores the latest normalized trust score
// per content item
type ContentTrustRepositoryInterface interface {
	GetContentTrust(contentID string) (*models.ContentTrustStat, error)
	SaveContentTrust(stat *models.ContentTrustStat) error
}

package repository

import (
	"encoding/json"

	"trustgraph/db"
	"trustgraph/models"
)

const contentPrefix = "content:"

// ContentTrustRepository keeps the latest normalized trust score per content
// item, written by the scoring path and read by claim progress checks
type ContentTrustRepository struct {
	db *db.LevelDB
}

func NewContentTrustRepository(db *db.LevelDB) *ContentTrustRepository {
	return &ContentTrustRepository{db: db}
}

func (r *ContentTrustRepository) GetContentTrust(contentID string) (*models.ContentTrustStat, error) {
	data, err := r.db.Get([]byte(contentPrefix + contentID))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var stat models.ContentTrustStat
	if err := json.Unmarshal(data, &stat); err != nil {
		return nil, err
	}
	return &stat, nil
}

func (r *ContentTrustRepository) SaveContentTrust(stat *models.ContentTrustStat) error {
	data, err := json.Marshal(stat)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(contentPrefix+stat.ContentID), data)
}

package repository

import (
	"encoding/json"

	"trustgraph/db"
	"trustgraph/models"
)

const reputationPrefix = "rep:"

// ReputationRepository implements ReputationRepositoryInterface using
// LevelDB as the storage backend
type ReputationRepository struct {
	db *db.LevelDB
}

// NewReputationRepository creates and returns a new ReputationRepository instance
func NewReputationRepository(db *db.LevelDB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

// GetReputation retrieves a user's reputation record by user id
func (r *ReputationRepository) GetReputation(userID string) (*models.ReputationRecord, error) {
	data, err := r.db.Get([]byte(reputationPrefix + userID))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	var rec models.ReputationRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveReputation stores a reputation record
func (r *ReputationRepository) SaveReputation(rec *models.ReputationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(reputationPrefix+rec.UserID), data)
}

// ListUserIDs returns every user id with a stored reputation record,
// used by the periodic reconcile sweep
func (r *ReputationRepository) ListUserIDs() ([]string, error) {
	iter := r.db.NewPrefixIterator([]byte(reputationPrefix))
	defer iter.Release()

	var ids []string
	for iter.Next() {
		ids = append(ids, string(iter.Key())[len(reputationPrefix):])
	}
	return ids, iter.Error()
}

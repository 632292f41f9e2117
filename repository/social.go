package repository

import (
	"encoding/json"

	"trustgraph/db"
	"trustgraph/models"
)

const edgePrefix = "edge:"

func edgeKey(viewerID, otherID string) []byte {
	return []byte(edgePrefix + viewerID + ":" + otherID)
}

// SocialGraphRepository is a LevelDB-backed view over follow edges, keyed by
// viewer so a viewer's whole neighborhood is one prefix scan
type SocialGraphRepository struct {
	db *db.LevelDB
}

func NewSocialGraphRepository(db *db.LevelDB) *SocialGraphRepository {
	return &SocialGraphRepository{db: db}
}

// PutEdge stores an edge, stamping the fixed weight for its hop distance
func (r *SocialGraphRepository) PutEdge(edge *models.SocialEdge) error {
	edge.EdgeWeight = models.EdgeWeightForHop(edge.HopDistance)
	data, err := json.Marshal(edge)
	if err != nil {
		return err
	}
	return r.db.Put(edgeKey(edge.ViewerID, edge.OtherID), data)
}

// DeleteEdge removes an edge on unfollow
func (r *SocialGraphRepository) DeleteEdge(viewerID, otherID string) error {
	return r.db.Delete(edgeKey(viewerID, otherID))
}

// GetEdges retrieves all edges visible to a viewer
func (r *SocialGraphRepository) GetEdges(viewerID string) ([]*models.SocialEdge, error) {
	iter := r.db.NewPrefixIterator([]byte(edgePrefix + viewerID + ":"))
	defer iter.Release()

	var edges []*models.SocialEdge
	for iter.Next() {
		var edge models.SocialEdge
		if err := json.Unmarshal(iter.Value(), &edge); err != nil {
			return nil, err
		}
		edges = append(edges, &edge)
	}
	return edges, iter.Error()
}

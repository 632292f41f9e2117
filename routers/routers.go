package routers

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustgraph/handlers"
)

// RegisterRoutes sets up all the HTTP routes for the trust engine
func RegisterRoutes(r *mux.Router, h *handlers.Handler) {

	// Computes a viewer-personalized trust score for a piece of content
	r.HandleFunc("/trust/score", h.ComputeScore).Methods("POST")

	// Records that a new endorsement landed, invalidating cached scores
	r.HandleFunc("/content/{contentID}/endorsements", h.RecordEndorsement).Methods("POST")

	// Triggers one reconciliation run against the ledger for a user
	r.HandleFunc("/reconcile/{userID}", h.Reconcile).Methods("POST")

	// Lists active campaigns the user currently qualifies for
	r.HandleFunc("/campaigns/eligible", h.ListEligibleCampaigns).Methods("GET")

	// Claims a campaign bonus once the target is reached
	r.HandleFunc("/campaigns/{campaignID}/claim", h.ClaimBonus).Methods("POST")

	// Administrative campaign seeding
	r.HandleFunc("/campaigns", h.UpsertCampaign).Methods("POST")

	// Entry point for the external activity pipeline's reputation updates
	r.HandleFunc("/reputation", h.UpsertReputation).Methods("POST")

	// Social graph edge upkeep (follow / unfollow)
	r.HandleFunc("/graph/edges", h.PutEdge).Methods("POST")
	r.HandleFunc("/graph/edges/{viewerID}/{otherID}", h.DeleteEdge).Methods("DELETE")
	r.HandleFunc("/graph/edges/{viewerID}", h.GetEdges).Methods("GET")

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trustgraph/campaign"
	"trustgraph/ledger"
	"trustgraph/logger"
	"trustgraph/metrics"
	"trustgraph/models"
	"trustgraph/reconcile"
	"trustgraph/repository"
	"trustgraph/trust"
)

// Handler contains the HTTP handlers for the trust engine API endpoints.
// Serialization stops here; the engine components only see plain records.
type Handler struct {
	Cache      *trust.ScoreCache
	Content    repository.ContentTrustRepositoryInterface
	Reputation repository.ReputationRepositoryInterface
	Graph      repository.SocialGraphRepositoryInterface
	Campaigns  repository.CampaignRepositoryInterface
	Sync       *reconcile.Synchronizer
	Engine     *campaign.Engine
	Adapter    ledger.Adapter
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type scoreRequest struct {
	ViewerID     string               `json:"viewer_id"`
	ContentID    string               `json:"content_id"`
	Endorsements []models.Endorsement `json:"endorsements"`
}

// ComputeScore handles POST requests to score a piece of content for a
// viewer. Results are served from the TTL cache when fresh.
func (h *Handler) ComputeScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("Failed to decode score request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if cached, ok := h.Cache.Get(req.ContentID, req.ViewerID); ok {
		metrics.ScoreCacheHits.Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	metrics.ScoreCacheMisses.Inc()

	result, err := trust.ComputeTrustScore(req.ViewerID, req.ContentID, req.Endorsements)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Logger.Error("Failed to compute trust score", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.ScoresComputed.Inc()
	h.Cache.Put(result)

	if err := h.Content.SaveContentTrust(&models.ContentTrustStat{
		ContentID:       result.ContentID,
		NormalizedScore: result.Normalized(),
		UpdatedAt:       result.ComputedAt,
	}); err != nil {
		logger.Logger.Warn("Failed to persist content trust stat",
			zap.String("content_id", result.ContentID), zap.Error(err))
	}

	writeJSON(w, http.StatusOK, result)
}

// RecordEndorsement handles the endorsement-recorded trigger: the cached
// scores for that content are stale the moment a new endorsement lands.
func (h *Handler) RecordEndorsement(w http.ResponseWriter, r *http.Request) {
	contentID := mux.Vars(r)["contentID"]
	h.Cache.InvalidateContent(contentID)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Endorsement recorded, cached scores invalidated",
	})
}

// Reconcile handles POST requests triggering a single reconciliation run
// for a user. An unreachable ledger still yields a 200 with a clearly
// flagged "not synced, retry later" outcome.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	outcome, err := h.Sync.Reconcile(r.Context(), userID)
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			logger.Logger.Error("Reconcile failed", zap.String("user_id", userID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// ListEligibleCampaigns handles GET requests for the campaigns a user
// currently qualifies for.
func (h *Handler) ListEligibleCampaigns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	campaigns, err := h.Engine.ListEligibleCampaigns(q.Get("user_id"), q.Get("region"), q.Get("category"))
	if err != nil {
		var verr *models.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			logger.Logger.Error("Failed to list eligible campaigns", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

type claimRequest struct {
	UserID     string   `json:"user_id"`
	ContentIDs []string `json:"content_ids"`
}

// ClaimBonus handles POST requests claiming a campaign bonus. Rejections
// map to distinct statuses so the UI can render the reason verbatim.
func (h *Handler) ClaimBonus(w http.ResponseWriter, r *http.Request) {
	campaignID := mux.Vars(r)["campaignID"]

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Logger.Error("Failed to decode claim request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := h.Engine.ClaimBonus(r.Context(), req.UserID, campaignID, req.ContentIDs)
	if err != nil {
		var verr *models.ValidationError
		var perr *models.InsufficientProgressError
		var ierr *models.DataIntegrityError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &ierr):
			logger.Logger.Error("Claim hit data integrity violation", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		case errors.Is(err, models.ErrCampaignInactive):
			writeError(w, http.StatusGone, err.Error())
		case errors.Is(err, models.ErrAlreadyClaimed), errors.Is(err, models.ErrPoolExhausted):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &perr):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, models.ErrLedgerUnavailable):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			logger.Logger.Error("Claim failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	logger.Logger.Info("Bonus claimed",
		zap.String("campaign_id", campaignID),
		zap.String("user_id", req.UserID),
		zap.Int64("amount", result.Amount))
	writeJSON(w, http.StatusOK, result)
}

// UpsertCampaign handles administrative campaign seeding. The pool is
// registered on the ledger first so claims have an authoritative balance.
func (h *Handler) UpsertCampaign(w http.ResponseWriter, r *http.Request) {
	var c models.IncentiveCampaign
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		logger.Logger.Error("Failed to decode campaign", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if c.CampaignID == "" {
		writeError(w, http.StatusBadRequest, "campaign_id is required")
		return
	}

	result, err := h.Adapter.SubmitTransaction(r.Context(), ledger.Transaction{
		To:           ledger.IncentivesContract,
		FunctionName: ledger.FuncRegisterCampaign,
		Args:         []any{c.CampaignID, c.BonusPool},
	})
	if err != nil || !result.Confirmed() {
		logger.Logger.Error("Failed to register campaign pool on ledger",
			zap.String("campaign_id", c.CampaignID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "ledger unavailable")
		return
	}

	if err := h.Campaigns.SaveCampaign(&c); err != nil {
		logger.Logger.Error("Failed to save campaign", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Campaign saved",
		"campaign": c,
	})
}

// UpsertReputation is the activity pipeline's entry point for reputation
// record updates. The synchronizer never writes here; it only reads.
func (h *Handler) UpsertReputation(w http.ResponseWriter, r *http.Request) {
	var rec models.ReputationRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		logger.Logger.Error("Failed to decode reputation record", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if rec.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if rec.LastUpdated == 0 {
		rec.LastUpdated = time.Now().UnixMilli()
	}
	if rec.LedgerSyncState == "" {
		rec.LedgerSyncState = models.SyncStatePending
	}

	if err := h.Reputation.SaveReputation(&rec); err != nil {
		logger.Logger.Error("Failed to save reputation record", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Reputation record saved",
		"record":  rec,
	})
}

// PutEdge handles follow events: an edge is created with the fixed weight
// for its hop distance.
func (h *Handler) PutEdge(w http.ResponseWriter, r *http.Request) {
	var edge models.SocialEdge
	if err := json.NewDecoder(r.Body).Decode(&edge); err != nil {
		logger.Logger.Error("Failed to decode edge", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if edge.ViewerID == "" || edge.OtherID == "" {
		writeError(w, http.StatusBadRequest, "viewer_id and other_id are required")
		return
	}
	if edge.HopDistance != 1 && edge.HopDistance != 2 {
		writeError(w, http.StatusBadRequest, "hop_distance must be 1 or 2")
		return
	}

	if err := h.Graph.PutEdge(&edge); err != nil {
		logger.Logger.Error("Failed to save edge", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Edge saved",
		"edge":    edge,
	})
}

// DeleteEdge handles unfollow events.
func (h *Handler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Graph.DeleteEdge(vars["viewerID"], vars["otherID"]); err != nil {
		logger.Logger.Error("Failed to delete edge", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Edge removed"})
}

// GetEdges returns all edges visible to a viewer.
func (h *Handler) GetEdges(w http.ResponseWriter, r *http.Request) {
	viewerID := mux.Vars(r)["viewerID"]
	edges, err := h.Graph.GetEdges(viewerID)
	if err != nil {
		logger.Logger.Error("Failed to load edges", zap.String("viewer_id", viewerID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

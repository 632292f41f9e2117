package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoresComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trustgraph_scores_computed_total",
			Help: "Total number of trust scores computed (cache misses included)",
		},
	)

	ScoreCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trustgraph_score_cache_hits_total",
			Help: "Total number of trust score requests served from cache",
		},
	)

	ScoreCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trustgraph_score_cache_misses_total",
			Help: "Total number of trust score requests that missed the cache",
		},
	)

	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustgraph_reconcile_runs_total",
			Help: "Total reconcile runs by outcome",
		},
		[]string{"outcome"}, // "noop", "corrected", "correction_failed", "ledger_unreachable"
	)

	ClaimAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustgraph_claim_attempts_total",
			Help: "Total bonus claim attempts by result",
		},
		[]string{"result"}, // "success", "inactive", "already_claimed", "insufficient", "pool_exhausted", "ledger_error", "integrity_error"
	)
)

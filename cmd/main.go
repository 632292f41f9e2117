package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"trustgraph/campaign"
	"trustgraph/db"
	"trustgraph/handlers"
	"trustgraph/ledger"
	"trustgraph/logger"
	"trustgraph/reconcile"
	"trustgraph/repository"
	"trustgraph/routers"
	"trustgraph/trust"
)

func main() {
	// Load config
	viper.SetConfigFile("config/config.yaml")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("leveldb.path", "data/trustgraph")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("ledger.mode", "memory")
	viper.SetDefault("ledger.timeout_seconds", 10)
	viper.SetDefault("trust.cache_ttl_seconds", 300)
	viper.SetDefault("reconcile.score_scale", 1000)
	viper.SetDefault("reconcile.score_tolerance", 10)
	viper.SetDefault("reconcile.sweep_interval_seconds", 0)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("Config file error:", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(viper.GetString("log.app_log_file"), viper.GetString("log.level")); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}

	logger.Logger.Info("Starting trust engine...")

	// Connect to LevelDB
	ldb, err := db.NewLevelDB(viper.GetString("leveldb.path"))
	if err != nil {
		logger.Logger.Fatal("Failed to open leveldb", zap.Error(err))
	}
	defer ldb.Close()

	// Initialize repositories
	reputationRepo := repository.NewReputationRepository(ldb)
	graphRepo := repository.NewSocialGraphRepository(ldb)
	campaignRepo := repository.NewCampaignRepository(ldb)
	contentRepo := repository.NewContentTrustRepository(ldb)

	// Ledger adapter: a real node over HTTP, or the in-process ledger for
	// local runs
	var adapter ledger.Adapter
	if viper.GetString("ledger.mode") == "http" {
		adapter = ledger.NewClient(
			viper.GetString("ledger.endpoint"),
			time.Duration(viper.GetInt("ledger.timeout_seconds"))*time.Second,
		)
	} else {
		adapter = ledger.NewMemoryLedger()
	}

	// Engine components
	cache := trust.NewScoreCache(time.Duration(viper.GetInt("trust.cache_ttl_seconds")) * time.Second)
	defer cache.Close()

	synchronizer := reconcile.NewSynchronizer(reputationRepo, adapter, reconcile.Config{
		ScoreScale:     viper.GetFloat64("reconcile.score_scale"),
		ScoreTolerance: viper.GetFloat64("reconcile.score_tolerance"),
	})
	engine := campaign.NewEngine(campaignRepo, reputationRepo, contentRepo, adapter)

	// Initialize HTTP handlers
	h := &handlers.Handler{
		Cache:      cache,
		Content:    contentRepo,
		Reputation: reputationRepo,
		Graph:      graphRepo,
		Campaigns:  campaignRepo,
		Sync:       synchronizer,
		Engine:     engine,
		Adapter:    adapter,
	}

	// Setup router
	r := mux.NewRouter()
	routers.RegisterRoutes(r, h)

	// HTTP Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Logger.Info("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", viper.GetInt("server.port")))

	// Periodic reconcile sweep. The synchronizer stays single-shot; retry
	// simply means the next tick picks the user up again.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if interval := viper.GetInt("reconcile.sweep_interval_seconds"); interval > 0 {
		go reconcileSweep(ctx, reputationRepo, synchronizer, time.Duration(interval)*time.Second)
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")
	cancel()
	srv.Close()
}

func reconcileSweep(ctx context.Context, repo repository.ReputationRepositoryInterface, s *reconcile.Synchronizer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		userIDs, err := repo.ListUserIDs()
		if err != nil {
			logger.Logger.Error("Reconcile sweep failed to list users", zap.Error(err))
			continue
		}
		for _, userID := range userIDs {
			outcome, err := s.Reconcile(ctx, userID)
			if err != nil {
				logger.Logger.Error("Reconcile sweep failed for user",
					zap.String("user_id", userID), zap.Error(err))
				continue
			}
			if !outcome.Synced {
				logger.Logger.Warn("User not synced, will retry next sweep",
					zap.String("user_id", userID),
					zap.Strings("discrepancies", outcome.Discrepancies))
			}
		}
	}
}

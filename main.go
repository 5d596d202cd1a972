package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "auction-engine/internal/biddingService"
	"auction-engine/internal/clock"
	"auction-engine/internal/config"
	"auction-engine/internal/database"
	"auction-engine/internal/events"
	"auction-engine/internal/metrics"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("Failed to load config", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.Log.Level); err != nil {
		utils.Fatal("Invalid log level", map[string]any{"error": err.Error()})
	}
	gin.SetMode(gin.ReleaseMode)

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(startCtx, cfg)
	if err != nil {
		utils.Fatal("Failed to open store", map[string]any{"driver": cfg.Store.Driver, "error": err.Error()})
	}
	defer store.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	var publisher events.Publisher = events.LogPublisher{}
	if cfg.Events.Enabled && store.redis != nil {
		publisher = events.NewRedisPublisher(store.redis, cfg.Events.Channel)
	}

	biddingSvc := bidding.NewBiddingService(store.repo,
		bidding.WithClock(clock.System{}),
		bidding.WithMetrics(collector),
		bidding.WithPublisher(publisher),
		bidding.WithOptions(bidding.OptionsFromConfig(cfg.Bidding, cfg.Store.Timeout)),
	)

	limiter := server.NewBidLimiter(cfg.RateLimit.BidsPerSecond, cfg.RateLimit.Burst)
	defer limiter.Stop()

	router := server.SetupRouter(biddingSvc, server.Dependencies{
		Metrics:    collector,
		Gatherer:   reg,
		BidLimiter: limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("Starting auction server", map[string]any{"address": srv.Addr, "store": cfg.Store.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("Failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Info("Shutting down auction server", nil)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}

	utils.Info("Auction server stopped", nil)
}

type openedStore struct {
	repo  repository.AuctionDB
	redis *redis.Client
	close func()
}

// openStore connects the configured backend. The memory store is seeded with demo data when enabled.
func openStore(ctx context.Context, cfg *config.Config) (*openedStore, error) {
	switch cfg.Store.Driver {
	case config.DriverRedis:
		client, err := database.OpenRedis(ctx, cfg.Redis, cfg.Store.Timeout)
		if err != nil {
			return nil, err
		}
		return &openedStore{
			repo:  repository.NewRedisRepo(client),
			redis: client,
			close: func() { _ = client.Close() },
		}, nil

	case config.DriverPostgres:
		if cfg.Postgres.Migrate {
			if err := database.RunMigrations(cfg.Postgres.URL); err != nil {
				return nil, err
			}
			utils.Info("Database migrations applied", nil)
		}
		db, err := database.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return &openedStore{
			repo:  repository.NewPostgresRepo(db),
			close: func() { _ = db.Close() },
		}, nil

	default:
		repo := repository.NewMemoryRepo()
		if cfg.Seed.DemoData {
			prepopulate(repo, time.Now().UTC())
		}
		return &openedStore{repo: repo, close: func() {}}, nil
	}
}

// prepopulate adds sample users and items to the in-memory repo
func prepopulate(repo *repository.MemoryRepo, now time.Time) {
	users := []model.User{
		{UserID: "user1", Email: "user1@example.com"},
		{UserID: "user2", Phone: "+15550100"},
		{UserID: "user3", Email: "user3@example.com", Phone: "+15550101"},
	}
	for _, user := range users {
		repo.AddUser(user)
	}

	items := []model.Item{
		{ItemID: "item1", Name: "Vintage camera", Description: "Leica M3, 1956", StartingPrice: 100, EndDate: now.Add(time.Hour), SellerID: "user1"},
		{ItemID: "item2", Name: "Oak desk", Description: "Solid oak writing desk", StartingPrice: 200, EndDate: now.Add(10 * time.Minute), SellerID: "user2"},
		{ItemID: "item3", Name: "Brass lamp", Description: "Art deco table lamp", StartingPrice: 150, EndDate: now.Add(24 * time.Hour), SellerID: "user3"},
	}
	for i, item := range items {
		item.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		repo.AddItem(item)
	}
	utils.Info("Seeded demo data", map[string]any{"users": len(users), "items": len(items)})
}

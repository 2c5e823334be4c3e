package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bidding-engine/internal/api/handlers"
	"bidding-engine/internal/config"
	"bidding-engine/internal/infrastructure/leader"
	"bidding-engine/internal/infrastructure/mysql"
	"bidding-engine/internal/infrastructure/redis"
	"bidding-engine/internal/infrastructure/websocket"
	"bidding-engine/internal/services"
	"bidding-engine/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New()
	if cfg.Logging.File != "" {
		log = logger.NewWithFile(cfg.Logging.File)
	}
	log.Info("Starting bidding service")

	// Redis holds the hot bid ledger and the status cache.
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// MySQL holds the auction catalog and the bid event archive.
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", "error", err)
		}
	}(db)

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Wire the bidding core.
	ledger := redis.NewBidLedger(rdb)
	stateCache := redis.NewStateCache(rdb, cfg.Bidding.StatusCacheTTL)
	eventPublisher := redis.NewEventPublisher(rdb)
	catalog := mysql.NewCatalogRepository(db)
	archive := mysql.NewBidArchive(db)

	bidService := services.NewBidService(ledger, catalog, stateCache, eventPublisher,
		cfg.Bidding.HistoryPageSize, log)

	// One instance at a time runs the archive sweep.
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)
	sweeper := services.NewArchiveSweeper(ledger, archive, stateCache, leaderElection, cfg.Instance.ID, log)

	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
			} else if became {
				log.Info("Became archive sweeper leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	// Live fan-out: accepted bids reach every watcher of the auction.
	connManager := websocket.NewConnectionManager(log)
	subscriber := redis.NewEventSubscriber(rdb, log)

	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	go func() {
		if err := subscriber.SubscribeToBidEvents(subCtx, websocket.BidEventRelay(connManager)); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Bid event subscriber exited", "error", err)
		}
	}()

	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("Failed to start archive sweeper", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())

	bidHandler := handlers.NewBidHandler(bidService, log)
	wsHandler := websocket.NewHandler(bidService, connManager, log)

	api := e.Group("/api/v1")
	api.POST("/auctions/:id/bids", bidHandler.PlaceBid)
	api.GET("/auctions/:id/bids/current", bidHandler.GetCurrentBid)
	api.GET("/auctions/:id/bids", bidHandler.GetBidHistory)

	e.GET("/ws/auctions/:id", wsHandler.HandleConnection)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidding-engine",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting bidding server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidding service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	subCancel()
	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop archive sweeper", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Bidding service stopped")
}

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

	"bidbout/internal/api/handlers"
	"bidbout/internal/config"
	"bidbout/internal/infrastructure/leader"
	"bidbout/internal/infrastructure/mysql"
	redisinfra "bidbout/internal/infrastructure/redis"
	"bidbout/internal/infrastructure/websocket"
	"bidbout/internal/services"
	"bidbout/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	log := logger.New()
	log.Info("Starting bidbout service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

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

	// Storage
	lotRepo := mysql.NewMySQLLotRepository(db)
	ledger := mysql.NewMySQLBidLedger(db)
	autoBidStore := mysql.NewMySQLAutoBidStore(db)
	schedulerRepo := mysql.NewMySQLSchedulerRepository(db)

	// Redis-backed components
	priceCache := redisinfra.NewPriceCache(rdb)
	stateCache := redisinfra.NewStateCache(rdb)
	eventPublisher := redisinfra.NewEventPublisher(rdb)
	eventSubscriber := redisinfra.NewEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// Core services
	resolver := services.NewResolver(lotRepo, ledger, autoBidStore, log)
	bidService := services.NewBidService(resolver, ledger, priceCache, eventPublisher, log)

	lotManager := services.NewLotManager(
		lotRepo, stateCache, eventPublisher, nil, leaderElection, cfg.Instance.ID, log)
	scheduler := services.NewCronLotScheduler(schedulerRepo, lotManager, log)
	lotManager.SetScheduler(scheduler)

	// Live feed
	connManager := websocket.NewManager(log)
	feed := websocket.NewFeed(connManager, log)

	// HTTP server
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))

	lotHandler := handlers.NewLotHandler(lotManager, priceCache, log)
	bidHandler := handlers.NewBidHandler(bidService, log)
	wsHandler := handlers.NewWebSocketHandler(lotManager, priceCache, connManager, log)

	api := e.Group("/api/v1")
	api.POST("/lots", lotHandler.CreateLot)
	api.GET("/lots", lotHandler.ListLots)
	api.GET("/lots/:id", lotHandler.GetLot)
	api.POST("/lots/:id/cancel", lotHandler.CancelLot)
	api.GET("/lots/:id/bids", bidHandler.GetBidHistory)
	api.POST("/bids", bidHandler.PlaceBid)
	api.POST("/bids/auto", bidHandler.SetAutoBid)

	e.GET("/ws/lots/:id", wsHandler.HandleConnection)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "bidbout",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Background services
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()

	go func() {
		if err := eventSubscriber.SubscribeToBidEvents(subCtx, feed.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event subscriber exited", "error", err)
		}
	}()

	go func() {
		if err := scheduler.Start(context.Background()); err != nil {
			log.Error("Failed to start scheduler", "error", err)
		}
	}()

	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became lifecycle leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting HTTP server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down bidbout service...")

	subCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := scheduler.Stop(); err != nil {
		log.Error("Failed to stop scheduler", "error", err)
	}
	if err := leaderElection.ReleaseLeadership(shutdownCtx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("bidbout service stopped")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"subastas-service/internal/adapters/broadcaster"
	"subastas-service/internal/adapters/db"
	"subastas-service/internal/adapters/imghost"
	"subastas-service/internal/adapters/redis"
	"subastas-service/internal/adapters/scheduler"
	"subastas-service/internal/adapters/ws"
	"subastas-service/internal/app"
	"subastas-service/internal/config"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Subastas Service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn)
	auctionRepo := repoFactory.GetAuctionRepository()
	bidRepo := repoFactory.GetBidRepository()
	userRepo := repoFactory.GetUserRepository()
	requestRepo := repoFactory.GetRequestRepository()
	notificationRepo := repoFactory.GetNotificationRepository()

	log.Info().Msg("Database repositories initialized")

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	sessionStore := redis.NewSessionStore(redis.SessionStoreParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})

	// Create Redis broadcaster
	redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})
	log.Info().Msg("Redis broadcaster initialized")

	imageHost := imghost.NewClient(imghost.ClientParams{
		Config: cfg,
		Logger: log.Logger,
	})

	// Create business services
	authService := app.NewAuthService(app.AuthServiceParams{
		UserRepo:     userRepo,
		SessionStore: sessionStore,
		Config:       cfg,
		Logger:       log.Logger,
	})
	auctionService := app.NewAuctionService(app.AuctionServiceParams{
		AuctionRepo: auctionRepo,
		BidRepo:     bidRepo,
		Broadcaster: redisBroadcaster,
		Logger:      log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		BidRepo:     bidRepo,
		AuctionRepo: auctionRepo,
		Broadcaster: redisBroadcaster,
		Logger:      log.Logger,
	})
	requestService := app.NewRequestService(app.RequestServiceParams{
		RequestRepo:      requestRepo,
		AuctionRepo:      auctionRepo,
		UserRepo:         userRepo,
		NotificationRepo: notificationRepo,
		Broadcaster:      redisBroadcaster,
		Logger:           log.Logger,
	})
	notificationService := app.NewNotificationService(app.NotificationServiceParams{
		NotificationRepo: notificationRepo,
		Logger:           log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Create auction scheduler
	auctionScheduler := scheduler.NewAuctionScheduler(
		scheduler.AuctionSchedulerParams{
			RedisClient:   redisClient,
			ExpiryHandler: auctionService,
			Broadcaster:   redisBroadcaster,
			Logger:        log.Logger,
		},
	)

	// Start auction scheduler
	auctionScheduler.Start()
	log.Info().Msg("Auction scheduler started")

	// Update services with scheduler
	auctionService.SetScheduler(auctionScheduler)
	requestService.SetScheduler(auctionScheduler)

	server := ws.NewServer(ws.ServerParams{
		Config:              cfg,
		AuthService:         authService,
		AuctionService:      auctionService,
		BidService:          bidService,
		RequestService:      requestService,
		NotificationService: notificationService,
		Broadcaster:         redisBroadcaster,
		ImageHost:           imageHost,
		Logger:              log.Logger,
	})

	log.Info().Msg("Server initialized")

	// Start server
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop auction scheduler
	auctionScheduler.Stop()
	log.Info().Msg("Auction scheduler stopped")

	// Drain pending admin notifications
	requestService.Stop()

	// Stop server
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping server")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.Logging.Format == "json" {
		// JSON format (default)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global logger
	zerolog.DefaultContextLogger = &log.Logger
}

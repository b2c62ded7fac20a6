package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoe-market-backend/internal/config"
	"shoe-market-backend/internal/handlers"
	"shoe-market-backend/internal/repository"
	"shoe-market-backend/internal/repository/memory"
	"shoe-market-backend/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	startedAt := time.Now()

	// Load configuration
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	stores, err := openStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("Store ready")

	// Initialize services
	hasher := services.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := services.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	userService := services.NewUserService(stores.Users, hasher)
	authService := services.NewAuthService(userService, hasher, tokens, cfg.Auth.AdminPhones)
	shoeService := services.NewShoeService(stores.Shoes)
	bookkeeper := services.NewBookkeeper(cfg.Bookkeeping.Workers, cfg.Bookkeeping.QueueSize, cfg.Bookkeeping.Timeout)
	wsHub := services.NewWSHub()
	recordService := services.NewRecordService(
		stores.Records,
		stores.Users,
		stores.Shoes,
		bookkeeper,
		wsHub,
		newNotifier(cfg),
	)
	imageService := newImageService(cfg)

	router := handlers.NewRouter(handlers.Services{
		Auth:       authService,
		Users:      userService,
		Shoes:      shoeService,
		Records:    recordService,
		Images:     imageService,
		Hub:        wsHub,
		Bookkeeper: bookkeeper,
	}, handlers.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
		StartedAt:      startedAt,
		RequestLogging: true,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain queued back-reference writes before the store goes away
	bookkeeper.Close()
	stats := bookkeeper.Stats()
	log.Info().
		Int64("completed", stats.Completed).
		Int64("failed", stats.Failed).
		Int64("dropped", stats.Dropped).
		Msg("Bookkeeping drained")

	stores.Close()

	log.Info().Msg("Server exited")
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func openStores(cfg *config.Config) (*repository.Stores, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory store; data is lost on exit")
		return memory.New(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return repository.Open(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.QueryTimeout)
}

func newNotifier(cfg *config.Config) services.PushNotifier {
	if cfg.APNs.CertPath == "" {
		log.Info().Msg("APNs not configured; delivery pushes disabled")
		return services.NoopNotifier{}
	}

	notifier, err := services.NewAPNsNotifier(cfg.APNs.CertPath, cfg.APNs.CertPassword, cfg.APNs.Topic, cfg.APNs.Production)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create APNs notifier; delivery pushes disabled")
		return services.NoopNotifier{}
	}
	return notifier
}

func newImageService(cfg *config.Config) *services.ImageService {
	if cfg.AWS.S3Bucket == "" {
		log.Info().Msg("S3 bucket not configured; image uploads disabled")
		return nil
	}

	imageService, err := services.NewImageService(context.Background(), services.ImageStorageConfig{
		Region:    cfg.AWS.Region,
		Bucket:    cfg.AWS.S3Bucket,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
		Endpoint:  cfg.AWS.Endpoint,
		Expiry:    cfg.AWS.UploadExpiry,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image service")
	}
	return imageService
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/resellai/resell-api/internal/config"
	"github.com/resellai/resell-api/internal/domain/auth"
	"github.com/resellai/resell-api/internal/domain/credit"
	"github.com/resellai/resell-api/internal/domain/listing"
	"github.com/resellai/resell-api/internal/domain/order"
	"github.com/resellai/resell-api/internal/domain/user"
	"github.com/resellai/resell-api/internal/domain/valuation"
	"github.com/resellai/resell-api/internal/middleware"
	"github.com/resellai/resell-api/internal/pkg/database"
	"github.com/resellai/resell-api/internal/pkg/jwt"
	"github.com/resellai/resell-api/internal/pkg/razorpay"
	"github.com/resellai/resell-api/internal/pkg/scorer"
	"github.com/resellai/resell-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()

	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting resell API server")

	// ---------- Infrastructure ----------
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, idempotency falls back to database guards")
		redisClient = nil
	}
	defer database.CloseRedis(redisClient)

	store, err := buildStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage backend")
	}

	gateway := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	})

	phoneScorer := buildScorer(cfg)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	revoker := auth.NewRedisRevoker(redisClient)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)

	// ---------- Services ----------
	creditService := credit.NewService(db)
	authService := auth.NewService(userRepo, creditService, jwtService, revoker, cfg.StarterCredits)
	valuationService := valuation.NewService(db, creditService, phoneScorer, store)

	feed := listing.NewFeed(redisClient)
	go feed.Run()

	listingService := listing.NewService(db, valuationService, store, feed)
	orderService := order.NewService(db, gateway, creditService, listingService, redisClient)

	// ---------- Handlers ----------
	authHandler := auth.NewHandler(authService, jwtService)
	creditHandler := credit.NewHandler(creditService)
	valuationHandler := valuation.NewHandler(valuationService)
	listingHandler := listing.NewHandler(listingService)
	orderHandler := order.NewHandler(orderService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(middleware.Metrics)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	if cfg.StorageBackend == "local" {
		fileServer := http.StripPrefix(cfg.UploadBaseURL, http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get(cfg.UploadBaseURL+"/*", fileServer.ServeHTTP)
	}

	auth.PublicRoutes(r, authHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(jwtService, revoker))

		auth.ProtectedRoutes(r, authHandler)
		credit.Routes(r, creditHandler)
		valuation.Routes(r, valuationHandler)
		listing.Routes(r, listingHandler, feed)
		order.Routes(r, orderHandler)
	})

	// ---------- Server ----------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	feed.Shutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}

func buildStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.StorageBackend == "s3" {
		return storage.NewS3Storage(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.UploadDir, cfg.UploadBaseURL)
}

func buildScorer(cfg *config.Config) scorer.Scorer {
	if cfg.InferenceBaseURL != "" {
		return scorer.NewHTTPScorer(cfg.InferenceBaseURL, cfg.InferenceToken, 30*time.Second)
	}
	log.Warn().Msg("INFERENCE_BASE_URL not set, using deterministic offline scorer")
	return scorer.NewStaticScorer(cfg.DetectionThreshold)
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/musicengine/auth-server-go/internal/config"
	"github.com/musicengine/auth-server-go/internal/database"
	"github.com/musicengine/auth-server-go/internal/handler"
	"github.com/musicengine/auth-server-go/internal/jobs"
	"github.com/musicengine/auth-server-go/internal/middleware"
	"github.com/musicengine/auth-server-go/internal/redis"
	"github.com/musicengine/auth-server-go/internal/repository"
	"github.com/musicengine/auth-server-go/internal/service"
	"github.com/musicengine/auth-server-go/internal/sink"
	"github.com/musicengine/auth-server-go/internal/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != "" || os.Getenv("ENV") == "production"
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	var redisClient *redis.Client
	var sessionRepo repository.SessionRepository
	var resetRepo repository.ResetTokenRepository

	switch cfg.SessionStore {
	case "redis":
		redisClient, err = redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		sessionRepo = repository.NewRedisSessionRepository(redisClient)
		resetRepo = repository.NewRedisResetTokenRepository(redisClient)
	case "memory":
		sessionRepo = repository.NewMemorySessionRepository()
		resetRepo = repository.NewMemoryResetTokenRepository()
		log.Info().Msg("using in-memory session store")
	}

	userRepo := repository.NewUserRepository(db.DB)
	regRepo := repository.NewRegistrationRepository(db.DB)

	issuer := token.NewIssuer(cfg.JWTSecret, config.AccessTokenExpiry)

	var sheetSink sink.Sink
	if cfg.SpreadsheetSinkURL != "" {
		sheetSink = sink.NewSpreadsheetSink(cfg.SpreadsheetSinkURL, cfg.SinkTimeout())
	}

	sessionService := service.NewSessionService(
		sessionRepo, userRepo, issuer, cfg.SessionTTL(), cfg.MobileAuthBaseURL,
	)
	resetService := service.NewResetService(resetRepo, userRepo, issuer, cfg.ResetTokenTTL())
	userService := service.NewUserService(userRepo)
	regService := service.NewRegistrationService(regRepo, sheetSink)

	var rateLimitRedis *goredis.Client
	if redisClient != nil {
		rateLimitRedis = redisClient.Client
	}
	// A nil redis client disables rate limiting (memory store deployments).
	rateLimitMiddleware := middleware.NewIPRateLimitMiddleware(rateLimitRedis, config.AuthRateLimitPerMin)
	adminAuthMiddleware := middleware.NewAdminAuthMiddleware(cfg.AdminPasswordHash)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	sessionHandler := handler.NewSessionHandler(sessionService)
	mobileAuthHandler := handler.NewMobileAuthHandler(sessionService, cfg.MobileAuthBaseURL)
	resetHandler := handler.NewResetHandler(resetService, cfg.MobileAuthBaseURL)
	usersHandler := handler.NewUsersHandler(userService)
	registerHandler := handler.NewRegisterHandler(regService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(middleware.CORS)
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api/auth/session", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", sessionHandler.Routes())
	})

	r.Route("/api/mobile-auth", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", mobileAuthHandler.Routes())
	})

	r.Route("/api/password-reset", func(r chi.Router) {
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", resetHandler.Routes())
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(adminAuthMiddleware.Handler)
		r.Mount("/", usersHandler.Routes())
	})

	r.Route("/api/register", func(r chi.Router) {
		r.Mount("/", registerHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, resetRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
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

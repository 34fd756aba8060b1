// Command api serves the visit-tracking REST API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"iptrack/internal/auth"
	"iptrack/internal/domains"
	"iptrack/internal/handler"
	"iptrack/internal/lookup"
	"iptrack/internal/middleware"
	"iptrack/internal/repository/postgres"
	"iptrack/internal/visit"
	"iptrack/pkg/config"
	"iptrack/pkg/logger"
	"iptrack/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.NewWithLevel("iptrack-api", cfg.LogLevel)

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	// Connect to database
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := postgres.Open(connectCtx, cfg.Database.DSN(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	cancelConnect()
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer db.Close()

	if cfg.Database.AutoSchema {
		schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
		err := postgres.EnsureSchema(schemaCtx, db)
		cancelSchema()
		if err != nil {
			log.Fatal("Failed to apply schema", map[string]interface{}{"error": err.Error()})
		}
		log.Info("Schema ready", nil)
	}

	// Redis is optional; without it submissions are not replay-protected.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := cfg.Redis.Options()
		if err != nil {
			log.Fatal("Invalid Redis configuration", map[string]interface{}{"error": err.Error()})
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unavailable, idempotent replay disabled until it recovers", map[string]interface{}{"error": err.Error()})
		}
		defer redisClient.Close()
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db, cfg.Database.QueryTimeout)
	visitRepo := postgres.NewVisitRepository(db, cfg.Database.QueryTimeout)
	domainRepo := postgres.NewDomainRepository(db, cfg.Database.QueryTimeout)

	// Lookup clients
	geo := lookup.NewGeoResolver(
		lookup.NewCountryClient(cfg.Lookup.CountriesURL, cfg.Lookup.Timeout, log),
		lookup.NewReverseGeocoder(cfg.Lookup.GeocodeURL, cfg.Lookup.GeocodeAPIKey, cfg.Lookup.Timeout, log),
	)
	devices := lookup.NewDeviceClient(cfg.Lookup.DeviceURL, cfg.Lookup.DeviceAPIKey, cfg.Lookup.Timeout, log)

	// Initialize services
	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiration)
	authService := auth.NewService(userRepo, tokens, cfg.Auth.BcryptCost, log)
	visitService := visit.NewService(visitRepo, geo, devices, log)
	domainService := domains.NewService(domainRepo, log)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:        authService,
		Visits:      visitService,
		Domains:     domainService,
		System:      handler.NewSystemHandler(db, redisClient, log),
		Idempotency: middleware.NewIdempotencyMiddleware(redisClient, cfg.Redis.IdempotencyTTL, log),
		Validator:   validator.New(),
		Logger:      log,
		CORSOrigins: cfg.CORS.Origins(),
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		log.Info("API starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Server stopped", nil)
}

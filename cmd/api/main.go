// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Marga-Ghale/ora-training-backend/internal/api"
	"github.com/Marga-Ghale/ora-training-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-training-backend/internal/auth"
	"github.com/Marga-Ghale/ora-training-backend/internal/config"
	"github.com/Marga-Ghale/ora-training-backend/internal/cron"
	"github.com/Marga-Ghale/ora-training-backend/internal/db"
	"github.com/Marga-Ghale/ora-training-backend/internal/logs"
	"github.com/Marga-Ghale/ora-training-backend/internal/repository"
	"github.com/Marga-Ghale/ora-training-backend/internal/seed"
	"github.com/Marga-Ghale/ora-training-backend/internal/service"
	"github.com/Marga-Ghale/ora-training-backend/internal/socket"
	"github.com/Marga-Ghale/ora-training-backend/internal/storage"
)

func main() {
	// ============================================
	// Load environment variables and configuration
	// ============================================
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logs.Logger.Fatalf("❌ Invalid configuration: %v", err)
	}

	logs.Init(logs.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if envErr != nil {
		logs.Logger.Info("No .env file found, using environment variables")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	health := map[string]api.HealthCheck{}

	// ============================================
	// Database (PostgreSQL, or in-memory for development)
	// ============================================
	var repos *repository.Repositories
	if cfg.DatabaseURL != "" {
		logs.Logger.Info("🔄 Running database migrations...")
		if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			logs.Logger.Fatalf("❌ Migration failed: %v", err)
		}

		pg, err := db.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			logs.Logger.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
		}
		defer pg.Close()

		repos = repository.NewRepositories(pg.Pool, pg.SQL)
		health["database"] = pg.Ping
	} else {
		logs.Logger.Warn("⚠️  DATABASE_URL not set, using in-memory repositories")
		repos = repository.NewMemoryRepositories()
	}

	// ============================================
	// Redis login sessions (optional)
	// ============================================
	var sessionStore auth.SessionStore
	if cfg.RedisURL != "" {
		redisDB, err := db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			logs.Logger.Warnf("⚠️ Failed to connect to Redis: %v (cookie sessions disabled)", err)
		} else {
			defer redisDB.Close()
			sessionStore = auth.NewRedisSessionStore(redisDB)
			health["redis"] = redisDB.Ping
		}
	}

	// ============================================
	// Identity provider
	// ============================================
	audiences := []string{}
	if cfg.AuthAudience != "" {
		audiences = append(audiences, cfg.AuthAudience)
	}
	if cfg.AuthClientID != "" {
		audiences = append(audiences, cfg.AuthClientID)
	}
	verifier, err := auth.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthPublicKeyPEM, cfg.AuthIssuer, audiences...)
	if err != nil {
		logs.Logger.Fatalf("❌ Invalid token verification settings: %v", err)
	}

	var provider service.IdentityProvider
	if cfg.LoginConfigured() {
		provider = auth.NewProvider(auth.ProviderConfig{
			Issuer:       cfg.AuthIssuer,
			ClientID:     cfg.AuthClientID,
			ClientSecret: cfg.AuthClientSecret,
			RedirectURL:  cfg.AuthRedirectURL,
			ReturnTo:     cfg.FrontendURL,
		}, verifier)
		logs.Logger.Info("🔐 Interactive login enabled")
	}

	// ============================================
	// Blob storage (Azure, or in-memory for development)
	// ============================================
	var blobs storage.BlobStore
	if cfg.AzureConfigured() {
		azure, err := storage.NewAzureBlobStore(cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureStorageURL)
		if err != nil {
			logs.Logger.Fatalf("❌ Failed to configure Azure storage: %v", err)
		}
		blobs = azure
	} else {
		logs.Logger.Warn("⚠️  Azure storage not configured, using in-memory blob store")
		blobs = storage.NewMemoryBlobStore()
	}

	// ============================================
	// WebSocket hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run(ctx)
	broadcaster := socket.NewBroadcaster(hub)

	// ============================================
	// Services and handlers
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		Blobs:    blobs,
		Events:   broadcaster,
		Provider: provider,
		Sessions: sessionStore,
	})
	logs.Logger.Info("✨ All services initialized")

	if !cfg.IsProduction() {
		if err := seed.SeedData(ctx, repos, blobs, cfg.BuildsContainer); err != nil {
			logs.Logger.Warnf("⚠️ Seeding failed: %v", err)
		}
	}

	h := handlers.NewHandlers(services, handlers.AuthOptions{
		FrontendURL:  cfg.FrontendURL,
		SecureCookie: cfg.IsProduction(),
	})

	resolver := auth.NewResolver(verifier, sessionStore)
	wsHandler := socket.NewHandler(hub, resolver, services.User, services.Organization, services.Authority, cfg.CORSAllowedOrigins)

	// ============================================
	// Cron jobs
	// ============================================
	scheduler := cron.NewScheduler(services.Invitation, services.Session, time.Duration(cfg.StaleSessionHours)*time.Hour)
	if err := scheduler.Start(); err != nil {
		logs.Logger.Fatalf("❌ Failed to schedule jobs: %v", err)
	}

	// ============================================
	// HTTP server
	// ============================================
	router := api.NewRouter(api.RouterDeps{
		Services:       services,
		Handlers:       h,
		Resolver:       resolver,
		WebSocket:      wsHandler.HandleWebSocket,
		Health:         health,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logs.Logger.Infof("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logs.Logger.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logs.Logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logs.Logger.Errorf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}
	logs.Logger.Info("✅ Server exited properly")
}

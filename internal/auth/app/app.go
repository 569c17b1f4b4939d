package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/Rapter1990/carservice-sub000/internal/auth/http"
	"github.com/Rapter1990/carservice-sub000/internal/auth/service"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store/drivers/postgres"
	redisstore "github.com/Rapter1990/carservice-sub000/internal/auth/store/drivers/redis"
	"github.com/Rapter1990/carservice-sub000/internal/auth/store/drivers/sqlite"
	"github.com/Rapter1990/carservice-sub000/pkg/cryptox"
	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

const serviceName = "carservice-auth"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	revocation store.RevocationStore
	codec      *jwtx.Codec

	// Services
	tokenService        *service.TokenService
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: serviceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
// On error everything opened so far is closed again.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}

	app := &Application{cfg: cfg, logger: logger}

	keys, err := LoadKeys(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	app.codec, err = jwtx.NewCodec(keys, jwtx.CodecOptions{
		Issuer: cfg.Issuer,
		Leeway: cfg.TokenLeeway,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	if cfg.TokenLeeway > 0 {
		logger.Warn("token expiry leeway enabled", "leeway", cfg.TokenLeeway)
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initRevocation(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()

	if err := app.bootstrapAdmin(ctx); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"revocation", app.cfg.RevocationDriver,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.closeStores()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close releases the stores without touching the HTTP server, for callers
// that never called Run.
func (app *Application) Close() error {
	return app.closeStores()
}

func (app *Application) closeStores() error {
	var errs []error
	if app.revocation != nil && app.revocation != store.RevocationStore(app.db) {
		if err := app.revocation.Close(); err != nil {
			app.logger.Error("error closing revocation store", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the user directory and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DatabaseDriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(app.cfg.DatabaseFile)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRevocation picks where revoked token ids live: the user database by
// default, or redis.
func (app *Application) initRevocation(ctx context.Context) error {
	if app.cfg.RevocationDriver != RevocationDriverRedis {
		app.revocation = app.db
		return nil
	}

	rs, err := redisstore.NewStore(ctx, redisstore.Config{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
		Leeway:   app.cfg.TokenLeeway,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize revocation store: %w", err)
	}
	app.revocation = rs

	app.logger.Info("redis revocation store connected", "addr", app.cfg.RedisAddr)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Codec:      app.codec,
		Revoked:    app.revocation.RevokedTokens(),
		AccessTTL:  app.cfg.AccessTTL(),
		RefreshTTL: app.cfg.RefreshTTL(),
	}

	app.authService = &service.AuthService{
		Store:  app.db,
		Tokens: app.tokenService,
		Hasher: cryptox.PasswordHasher{Pepper: app.cfg.PasswordPepper},
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.revocation.RevokedTokens(),
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	app.housekeepingService.Leeway = app.codec.Leeway()
}

func (app *Application) bootstrapAdmin(ctx context.Context) error {
	if app.cfg.BootstrapAdminEmail == "" {
		return nil
	}

	ctx = slogx.WithContext(ctx, app.logger)
	if _, err := app.authService.EnsureAdmin(ctx, service.BootstrapAdmin{
		Email:    app.cfg.BootstrapAdminEmail,
		Password: app.cfg.BootstrapAdminPassword,
	}); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	// Validate already rejected malformed entries.
	trusted, _ := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)

	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.revocation,
		app.logger,
	)

	router.TokenService = app.tokenService
	router.AuthService = app.authService
	router.CredentialLimit = perMinute(app.cfg.RateLimitCredential)
	router.UserLimit = perMinute(app.cfg.RateLimitUser)
	router.PublicLimit = perMinute(app.cfg.RateLimitPublic)
	router.ClientIP = httpx.ClientIPKeyExtractor(trusted)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

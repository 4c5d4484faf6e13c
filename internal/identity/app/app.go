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

	"github.com/aussiebroadwan/fortress/internal/identity/domain"
	httpapi "github.com/aussiebroadwan/fortress/internal/identity/http"
	"github.com/aussiebroadwan/fortress/internal/identity/service"
	"github.com/aussiebroadwan/fortress/internal/identity/store"
	"github.com/aussiebroadwan/fortress/internal/identity/store/drivers/sqlite"
	"github.com/aussiebroadwan/fortress/pkg/cryptox"
	"github.com/aussiebroadwan/fortress/pkg/httpx"
	"github.com/aussiebroadwan/fortress/pkg/jwtx"
	"github.com/aussiebroadwan/fortress/pkg/slogx"
	"github.com/aussiebroadwan/fortress/pkg/totpx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application holds the identity service and everything it depends on.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	hasher   *cryptox.Hasher
	totp     *totpx.Provider
	signer   *jwtx.HS256Signer
	verifier *jwtx.HS256Verifier

	authService    *service.AuthService
	mfaService     *service.MFAService
	rolesService   *service.RolesService
	accountService *service.AccountService

	server *http.Server
	router *httpapi.Router
}

// New builds the application: database and migrations, credentials,
// services and the HTTP server.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initCredentials(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run serves until SIGINT/SIGTERM or a server error.
func (app *Application) Run() error {
	app.bootstrapAdmin(context.Background())

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
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

// Shutdown drains in-flight requests then closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(app.cfg.ShutdownGracePeriod))
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

// Handler exposes the routed handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCredentials() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(app.cfg.HashParams(), pepper)
	app.totp = totpx.New(app.cfg.TOTPOptions())

	secret := []byte(app.cfg.JWTSecret)
	if app.signer, err = jwtx.NewHS256Signer(secret); err != nil {
		return fmt.Errorf("failed to build token signer: %w", err)
	}
	app.verifier, err = jwtx.NewHS256Verifier(secret, jwtx.VerifyOptions{
		Issuer:   app.cfg.JWTIssuer,
		Audience: app.cfg.JWTAudience,
		Leeway:   30 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to build token verifier: %w", err)
	}

	app.logger.Info("credentials ready",
		"hash_time", app.cfg.HashTime,
		"hash_memory_kb", app.cfg.HashMemoryKB,
		"hash_parallelism", app.cfg.HashParallelism,
		"peppered", pepper != "",
		"mfa_skew", app.totp.Options().Skew,
	)
	return nil
}

func (app *Application) initServices() {
	tokens := service.NewTokenIssuer(app.signer, app.cfg.TokenConfig())

	app.authService = service.NewAuthService(app.db, app.hasher, app.totp, tokens)
	app.mfaService = service.NewMFAService(app.db, app.totp, httpx.ContextIdentity{}, app.cfg.MFAIssuer)
	app.rolesService = service.NewRolesService(app.db)
	app.accountService = service.NewAccountService(app.db, app.hasher)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.verifier, BuildVersion, app.db, app.logger)

	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.RolesService = app.rolesService
	router.AccountService = app.accountService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// bootstrapAdmin grants Admin to BOOTSTRAP_ADMIN_EMAIL when that account
// exists. Safe to run on every start.
func (app *Application) bootstrapAdmin(ctx context.Context) {
	email := app.cfg.BootstrapAdminEmail
	if email == "" {
		return
	}
	log := app.logger.With("email", email)

	err := app.rolesService.AssignRoleByEmail(ctx, email, domain.RoleAdmin.String())
	switch {
	case err == nil:
		log.Info("bootstrap admin granted")
	case errors.Is(err, domain.ErrConflict):
		log.Debug("bootstrap admin already granted")
	case errors.Is(err, domain.ErrNotFound):
		log.Warn("bootstrap admin account not registered yet")
	default:
		log.Error("bootstrap admin failed", "error", err)
	}
}

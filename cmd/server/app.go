package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/ratelimit"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/redis/go-redis/v9"
)

// application holds the shared dependencies and releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the transactor is not backed by Postgres.
	db    *sql.DB
	redis *redis.Client

	tx           store.Transactor
	jwtService   auth.JWTService
	authService  *auth.Service
	eventEmitter *events.InMemoryEventEmitter

	userService    *service.UserServiceImpl
	taskService    *service.TaskServiceImpl
	projectService *service.ProjectServiceImpl

	// loginLimiter is nil when no Redis address is configured.
	loginLimiter *ratelimit.Limiter
}

// newApplication builds the services on top of tx.
func newApplication(cfg *config.Config, logger *slog.Logger, tx store.Transactor) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		tx:     tx,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	verifier := auth.NewBcryptVerifier()
	hasher := auth.NewBcryptHasher(cfg.Auth.BCryptCost)
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare login hash: %w", err)
	}
	app.authService = auth.NewService(tx, verifier, app.jwtService, logger).WithDummyHash(dummyHash)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditHandler(logger))

	app.userService, err = service.NewUserService(tx, hasher, verifier, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}
	app.taskService, err = service.NewTaskService(tx, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	app.projectService, err = service.NewProjectService(tx, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create project service: %w", err)
	}

	if cfg.Redis.Addr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		app.loginLimiter = ratelimit.NewLimiter(app.redis, "tasker:login:",
			cfg.Redis.LoginRatePerMinute, cfg.Redis.LoginBurst, logger)
		logger.Info("login rate limiting enabled",
			slog.Int("per_minute", cfg.Redis.LoginRatePerMinute),
			slog.Int("burst", cfg.Redis.LoginBurst))
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// seedAdmin creates the configured administrator when a password is set and
// no user with that name exists yet.
func (app *application) seedAdmin(ctx context.Context) error {
	name, password := app.config.Auth.AdminName, app.config.Auth.AdminPassword
	if password == "" {
		return nil
	}

	_, err := app.userService.FindByName(ctx, name)
	switch {
	case err == nil:
		return nil
	case !store.IsNotFoundError(err):
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	system := domain.Identity{Name: "system", Roles: []string{domain.RoleAdmin}}
	_, err = app.userService.Create(ctx, system, service.UserDraft{
		Name:     name,
		Password: password,
		Roles:    []string{domain.RoleAdmin},
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	app.logger.Info("admin user seeded", slog.String("name", name))
	return nil
}

// Run seeds the admin user and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.seedAdmin(ctx); err != nil {
		return err
	}

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the database pool and the Redis client.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}

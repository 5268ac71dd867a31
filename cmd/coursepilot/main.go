package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/coursepilot/coursepilot/cmd/coursepilot/cli"
	"github.com/coursepilot/coursepilot/internal/app"
	"github.com/coursepilot/coursepilot/internal/auth"
	"github.com/coursepilot/coursepilot/internal/categories"
	"github.com/coursepilot/coursepilot/internal/observability"
	"github.com/coursepilot/coursepilot/internal/permissions"
	"github.com/coursepilot/coursepilot/internal/platform/cache"
	"github.com/coursepilot/coursepilot/internal/platform/db"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/roles"
	"github.com/coursepilot/coursepilot/internal/shared"
	"github.com/coursepilot/coursepilot/internal/users"
	"github.com/coursepilot/coursepilot/internal/view"
	"github.com/coursepilot/coursepilot/jobs"
)

const sessionCookie = "coursepilot_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 {
		os.Exit(cli.Run(ctx, cfg.RedisAddr, os.Args[1:], os.Stdout, os.Stderr))
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	tokens := rbac.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	resolver := rbac.NewResolver(tokens)
	guard := &rbac.Guard{Resolver: resolver, Logger: logger, Recorder: metrics}
	rbacMiddleware := rbac.Middleware{Guard: guard, Logger: logger}
	edgeGuard := rbac.NewEdgeGuard(resolver, rbac.CORSConfig{AllowedOrigin: cfg.CORSAllowedOrigin}, logger)
	edgeGuard.Recorder = metrics

	engine, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	pages := &view.Pages{Engine: engine, CSRF: csrfManager, Logger: logger}

	authService := auth.NewService(auth.NewRepository(dbpool), tokens)
	authHandler := auth.NewHandler(logger, authService, pages, sessionManager, csrfManager, resolver)

	permissionsService := permissions.NewService(permissions.NewRepository(dbpool))
	permissionsHandler := permissions.NewHandler(logger, permissionsService, pages, rbacMiddleware)

	rolesService := roles.NewService(roles.NewRepository(dbpool))
	rolesHandler := roles.NewHandler(logger, rolesService, pages, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, pages, rbacMiddleware)

	categoriesService := categories.NewService(categories.NewRepository(dbpool))
	categoriesHandler := categories.NewHandler(logger, categoriesService, pages, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Pages:              pages,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		EdgeGuard:          edgeGuard,
		AuthHandler:        authHandler,
		PermissionsHandler: permissionsHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		CategoriesHandler:  categoriesHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
		HealthCheck: func(r *http.Request) error {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return dbpool.Ping(pingCtx)
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

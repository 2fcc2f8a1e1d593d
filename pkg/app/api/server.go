// Package api implements app.Runner for the factory server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/chainsafe/account-factory/pkg/app/http"
	"github.com/chainsafe/account-factory/pkg/auth"
	"github.com/chainsafe/account-factory/pkg/config"
	"github.com/chainsafe/account-factory/pkg/executor"
	"github.com/chainsafe/account-factory/pkg/factory/service"
	"github.com/chainsafe/account-factory/pkg/gateway"
	"github.com/chainsafe/account-factory/pkg/pgutil"
)

const defaultRequestTimeout = 60 * time.Second

// Server holds cfg to init the factory server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes a new factory server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("factory server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting factory server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	engine := executor.NewEngine(db, logger)

	if cfg.Bootstrap.Enabled() {
		if err := engine.EnsureConfig(ctx, &cfg.Bootstrap); err != nil {
			return fmt.Errorf("bootstrap factory config: %w", err)
		}
	}

	var gw *gateway.Engine
	if cfg.Gateway.Enabled {
		gw = gateway.NewEngine(cfg.Gateway, engine, gateway.NewStore(db), logger)
		gw.Start(ctx)
		// Safety net; the explicit Stop below runs first and is idempotent.
		defer gw.Stop()
	}

	router := s.setupRouter(service.NewLog(engine, logger), engine, logger)

	err = apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)

	// Stop background work before deferred DB closes kick in.
	if gw != nil {
		gw.Stop()
	}

	return err
}

func (s *Server) setupRouter(
	svc service.Service,
	engine *executor.Engine,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Creations cannot run before the factory is configured.
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if _, err := engine.Config(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT_READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("metrics enabled", zap.String("path", "/metrics"))
	}

	validator := auth.NewJWTValidator(s.cfg.Auth.JWKSURL, s.cfg.Auth.Issuer)
	authn := auth.NewMiddleware(validator, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authn.Authenticate)
		service.RegisterRoutes(r, svc, logger)
	})

	return r
}

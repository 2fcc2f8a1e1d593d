package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/account-factory/internal/metrics"
	apperrors "github.com/chainsafe/account-factory/pkg/app/errors"
	"github.com/chainsafe/account-factory/pkg/config"
	"github.com/chainsafe/account-factory/pkg/factory"
)

// Executor drives creation runs for replayed requests.
type Executor interface {
	CreateAccount(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error)
	Config(ctx context.Context) (*factory.Config, error)
}

// Engine polls the remote request queue and replays each request
// through the creation protocol under the configured gateway identity.
type Engine struct {
	cfg      config.GatewayConfig
	executor Executor
	store    RequestStore
	logger   *zap.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewEngine creates a new gateway engine.
func NewEngine(cfg config.GatewayConfig, executor Executor, store RequestStore, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		executor: executor,
		store:    store,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the polling loop.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("starting gateway engine",
		zap.Duration("poll_interval", e.cfg.PollInterval),
		zap.Int("batch_size", e.cfg.BatchSize))

	e.wg.Add(1)
	go e.poll(ctx)
}

// Stop stops the polling loop and waits for an in-flight sweep to
// finish. Safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.logger.Info("stopping gateway engine")
		close(e.stopCh)
		e.wg.Wait()
		e.logger.Info("gateway engine stopped")
	})
}

func (e *Engine) poll(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			if err := e.sweep(ctx); err != nil {
				e.logger.Error("gateway sweep failed", zap.Error(err))
				metrics.ErrorsTotal.WithLabelValues("gateway", "sweep").Inc()
			}
		}
	}
}

// sweep replays one batch of pending requests.
func (e *Engine) sweep(ctx context.Context) error {
	cfg, err := e.executor.Config(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.CategoryResourceNotFound) {
			// Not bootstrapped yet; requests stay queued.
			return nil
		}
		return fmt.Errorf("failed to load factory config: %w", err)
	}
	if cfg.GatewayAddress == "" {
		// No gateway identity configured; requests stay queued.
		return nil
	}

	pending, err := e.store.PendingRequests(ctx, e.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}
	metrics.PendingRemoteRequests.Set(float64(len(pending)))

	for _, req := range pending {
		e.replay(ctx, cfg.GatewayAddress, req)
	}

	return nil
}

// replay drives one queued request through a creation run. The queued
// identifier always wins over whatever the body carries.
func (e *Engine) replay(ctx context.Context, gatewayAddress string, req *Request) {
	createReq := new(factory.CreateAccountRequest)
	if err := json.Unmarshal(req.Body, createReq); err != nil {
		// A body that does not decode will never succeed.
		e.abandon(ctx, req, fmt.Errorf("invalid request body: %w", err))
		return
	}
	createReq.Caller = gatewayAddress
	id := req.AccountID
	createReq.AccountID = &id

	conf, err := e.executor.CreateAccount(ctx, createReq)
	if err != nil {
		// Protocol refusals are deterministic, so replaying yields the
		// same answer. Only internal failures earn a retry.
		if apperrors.IsInternalError(err) && req.Attempts+1 < e.cfg.MaxAttempts {
			e.requeue(ctx, req, err)
			return
		}
		e.abandon(ctx, req, err)
		return
	}

	if err := e.store.MarkCompleted(ctx, req.ID, conf.RunID); err != nil {
		e.logger.Error("failed to mark request completed",
			zap.Int64("request_id", req.ID), zap.Error(err))
		return
	}

	metrics.RemoteRequestsTotal.WithLabelValues("completed").Inc()
	e.logger.Info("remote creation replayed",
		zap.Int64("request_id", req.ID),
		zap.String("account", conf.AccountID.String()),
		zap.String("run_id", conf.RunID))
}

func (e *Engine) requeue(ctx context.Context, req *Request, cause error) {
	if err := e.store.MarkFailed(ctx, req.ID, cause.Error(), true); err != nil {
		e.logger.Error("failed to requeue request",
			zap.Int64("request_id", req.ID), zap.Error(err))
		return
	}

	metrics.RemoteRequestsTotal.WithLabelValues("retried").Inc()
	e.logger.Warn("remote creation will be retried",
		zap.Int64("request_id", req.ID),
		zap.Int("attempts", req.Attempts+1),
		zap.Error(cause))
}

func (e *Engine) abandon(ctx context.Context, req *Request, cause error) {
	if err := e.store.MarkFailed(ctx, req.ID, cause.Error(), false); err != nil {
		e.logger.Error("failed to mark request failed",
			zap.Int64("request_id", req.ID), zap.Error(err))
		return
	}

	metrics.RemoteRequestsTotal.WithLabelValues("failed").Inc()
	e.logger.Error("remote creation abandoned",
		zap.Int64("request_id", req.ID),
		zap.Int("attempts", req.Attempts+1),
		zap.Error(cause))
}

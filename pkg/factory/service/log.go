package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/factory"
	"github.com/chainsafe/account-factory/pkg/registry"
)

const serviceName = "FactoryService"

// logService wraps Service with automatic logging of all method calls
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the factory Service.
// It logs method entry/exit, duration and errors.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

// CreateAccount wraps the service method with logging
func (ls *logService) CreateAccount(
	ctx context.Context,
	req *factory.CreateAccountRequest,
) (conf *factory.Confirmation, err error) {
	start := time.Now()

	ls.logger.Info("CreateAccount started",
		zap.String("service", serviceName),
		zap.String("method", "CreateAccount"),
		zap.String("caller", req.Caller),
		zap.String("governance", string(req.Governance.Kind)),
		zap.String("name", req.Name),
		zap.String("namespace", req.Namespace),
		zap.String("pinned_id", pinnedID(req.AccountID)),
		zap.Int("installs", len(req.Installs)),
		zap.String("deposit", req.Deposit.String()),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("CreateAccount failed",
				zap.String("service", serviceName),
				zap.String("method", "CreateAccount"),
				zap.String("caller", req.Caller),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("CreateAccount completed",
				zap.String("service", serviceName),
				zap.String("method", "CreateAccount"),
				zap.String("run_id", conf.RunID),
				zap.String("account_id", conf.AccountID.String()),
				zap.String("controller", conf.Controller),
				zap.String("proxy", conf.Proxy),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.CreateAccount(ctx, req)
}

// Account wraps the service method with logging
func (ls *logService) Account(ctx context.Context, id account.ID) (reg *registry.Registration, err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Debug("Account lookup failed",
				zap.String("service", serviceName),
				zap.String("method", "Account"),
				zap.String("account_id", id.String()),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.Account(ctx, id)
}

// Config wraps the service method with logging
func (ls *logService) Config(ctx context.Context) (cfg *factory.Config, err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Debug("Config read failed",
				zap.String("service", serviceName),
				zap.String("method", "Config"),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.Config(ctx)
}

// UpdateConfig wraps the service method with logging
func (ls *logService) UpdateConfig(
	ctx context.Context,
	caller string,
	patch factory.ConfigPatch,
) (cfg *factory.Config, err error) {
	start := time.Now()

	ls.logger.Info("UpdateConfig started",
		zap.String("service", serviceName),
		zap.String("method", "UpdateConfig"),
		zap.String("caller", caller),
		zap.Bool("patches_registry", patch.RegistryAddress != nil),
		zap.Bool("patches_component_factory", patch.ComponentFactoryAddress != nil),
		zap.Bool("patches_gateway", patch.GatewayAddress != nil),
	)

	defer func() {
		duration := time.Since(start)

		if err != nil {
			ls.logger.Error("UpdateConfig failed",
				zap.String("service", serviceName),
				zap.String("method", "UpdateConfig"),
				zap.String("caller", caller),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		} else {
			ls.logger.Info("UpdateConfig completed",
				zap.String("service", serviceName),
				zap.String("method", "UpdateConfig"),
				zap.String("registry", cfg.RegistryAddress),
				zap.String("component_factory", cfg.ComponentFactoryAddress),
				zap.String("gateway", cfg.GatewayAddress),
				zap.Duration("duration", duration),
			)
		}
	}()

	return ls.svc.UpdateConfig(ctx, caller, patch)
}

// NextSequence wraps the service method with logging
func (ls *logService) NextSequence(ctx context.Context) (next uint32, err error) {
	start := time.Now()

	defer func() {
		if err != nil {
			ls.logger.Debug("NextSequence read failed",
				zap.String("service", serviceName),
				zap.String("method", "NextSequence"),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}()

	return ls.svc.NextSequence(ctx)
}

func pinnedID(id *account.ID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

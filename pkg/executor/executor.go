// Package executor hosts creation runs: it owns the transaction
// boundary, executes a plan's operations in order and fires the
// deferred validator, so one request maps to one atomic run.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/chainsafe/account-factory/internal/metrics"
	"github.com/chainsafe/account-factory/pkg/account"
	apperrors "github.com/chainsafe/account-factory/pkg/app/errors"
	"github.com/chainsafe/account-factory/pkg/config"
	"github.com/chainsafe/account-factory/pkg/entitystore"
	"github.com/chainsafe/account-factory/pkg/factory"
	"github.com/chainsafe/account-factory/pkg/factory/service"
	"github.com/chainsafe/account-factory/pkg/factorystore"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
	"github.com/chainsafe/account-factory/pkg/registrystore"
)

// creationLockKey is the advisory lock serializing creation runs across
// connections. Transaction-scoped, so a rollback releases it with the
// rest of the run.
const creationLockKey = 0x66616374

// Engine drives the creation protocol against the database. Every
// entry point runs inside one transaction with stores scoped to it.
type Engine struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewEngine creates an executor over the given database handle.
func NewEngine(db *bun.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// CreateAccount runs one creation end to end: plans the run, executes
// the planned operations in order and fires the deferred validator,
// all within one transaction. Any failure rolls the whole run back.
func (e *Engine) CreateAccount(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error) {
	runID := uuid.NewString()
	origin := originLabel(req.AccountID)
	start := time.Now()

	var conf *factory.Confirmation
	err := e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(?)", creationLockKey); err != nil {
			return fmt.Errorf("failed to acquire creation lock: %w", err)
		}

		entities := entitystore.NewStore(tx)
		reg := registrystore.NewStore(tx, entities)
		protocol := service.NewProtocol(factorystore.NewStore(tx), reg, reg, e.logger)

		plan, err := protocol.Begin(ctx, req)
		if err != nil {
			return err
		}

		// The creation event is observable before the run is confirmed;
		// aborting the transaction retracts it with the rest of the run.
		e.logger.Info("account creation event",
			zap.String("run_id", runID),
			zap.Uint32("account_sequence", plan.Event.Sequence),
			zap.String("trace", plan.Event.Trace),
			zap.String("governance", string(plan.Event.Governance)),
			zap.String("name", plan.Event.Name),
		)

		conf, err = e.executePlan(ctx, protocol, reg, entities, plan)
		return err
	})
	if err != nil {
		metrics.CreationsTotal.WithLabelValues(origin, "failed").Inc()
		return nil, err
	}

	conf.RunID = runID
	metrics.CreationsTotal.WithLabelValues(origin, "confirmed").Inc()
	metrics.CreationDuration.WithLabelValues(origin).Observe(time.Since(start).Seconds())
	if conf.AccountID.IsLocal() {
		metrics.NextSequence.Set(float64(conf.AccountID.Sequence) + 1)
	}

	return conf, nil
}

// executePlan performs the plan's operations strictly in order. The
// operation marked deferred triggers the validator with the addresses
// the instantiations actually landed on.
func (e *Engine) executePlan(
	ctx context.Context,
	protocol *service.Protocol,
	reg registry.Registry,
	entities entitystore.Store,
	plan *factory.Plan,
) (*factory.Confirmation, error) {
	var outcome factory.Outcome
	var conf *factory.Confirmation

	for _, op := range plan.Operations {
		switch op := op.(type) {
		case factory.RegisterAccountOp:
			if err := reg.RegisterAccount(ctx, op.Registration); err != nil {
				return nil, classifyRegisterErr(err)
			}

		case factory.InstantiateOp:
			entity := &entitystore.Entity{
				Address:   op.Address,
				AccountID: op.AccountID,
				Module:    op.Module,
				Admin:     op.Admin,
				Label:     op.Label,
			}
			if err := entities.CreateEntity(ctx, entity); err != nil {
				if errors.Is(err, entitystore.ErrEntityExists) {
					return nil, apperrors.ConflictError(err, err.Error())
				}
				return nil, fmt.Errorf("failed to instantiate %q: %w", op.Label, err)
			}

			if !op.Deferred {
				outcome.Proxy = op.Address
				continue
			}

			// Deferred continuation: fires in-transaction once the final
			// instantiation committed.
			outcome.Controller = op.Address
			confirmed, err := protocol.Complete(ctx, outcome)
			if err != nil {
				return nil, err
			}
			conf = confirmed

		default:
			return nil, apperrors.InternalConsistencyError(nil,
				fmt.Sprintf("unknown operation kind %q", op.Kind()))
		}
	}

	if conf == nil {
		return nil, apperrors.InternalConsistencyError(nil, "plan finished without a deferred validation")
	}
	return conf, nil
}

// Account returns the registered account record for the identifier.
func (e *Engine) Account(ctx context.Context, id account.ID) (*registry.Registration, error) {
	store := registrystore.NewStore(e.db, entitystore.NewStore(e.db))

	reg, err := store.Account(ctx, id)
	if err != nil {
		if errors.Is(err, registrystore.ErrAccountNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, fmt.Sprintf("account %s not found", id))
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	return reg, nil
}

// Config returns the factory configuration.
func (e *Engine) Config(ctx context.Context) (*factory.Config, error) {
	cfg, err := factorystore.NewStore(e.db).Config(ctx)
	if err != nil {
		if errors.Is(err, factorystore.ErrConfigNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, service.ErrNotConfigured.Error())
		}
		return nil, fmt.Errorf("failed to load factory config: %w", err)
	}
	return cfg, nil
}

// UpdateConfig patches the mutable collaborator addresses. Owner only.
func (e *Engine) UpdateConfig(ctx context.Context, caller string, patch factory.ConfigPatch) (*factory.Config, error) {
	var cfg *factory.Config
	err := e.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		entities := entitystore.NewStore(tx)
		reg := registrystore.NewStore(tx, entities)
		protocol := service.NewProtocol(factorystore.NewStore(tx), reg, reg, e.logger)

		var err error
		cfg, err = protocol.UpdateConfig(ctx, caller, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// NextSequence returns the next allocatable local sequence.
func (e *Engine) NextSequence(ctx context.Context) (uint32, error) {
	next, err := factorystore.NewStore(e.db).NextSequence(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read account sequence: %w", err)
	}

	metrics.NextSequence.Set(float64(next))
	return next, nil
}

// EnsureConfig writes the bootstrap identity when the database holds no
// configuration yet. An existing config always wins, so restarting with
// a different bootstrap file cannot rewire a live deployment.
func (e *Engine) EnsureConfig(ctx context.Context, boot *config.BootstrapConfig) error {
	store := factorystore.NewStore(e.db)

	_, err := store.Config(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, factorystore.ErrConfigNotFound) {
		return fmt.Errorf("failed to load factory config: %w", err)
	}

	cfg := &factory.Config{}
	if cfg.Owner, err = account.ValidateAddress(boot.Owner); err != nil {
		return fmt.Errorf("bootstrap owner: %w", err)
	}
	if cfg.FactoryAddress, err = account.ValidateAddress(boot.FactoryAddress); err != nil {
		return fmt.Errorf("bootstrap factory address: %w", err)
	}
	if cfg.RegistryAddress, err = account.ValidateAddress(boot.RegistryAddress); err != nil {
		return fmt.Errorf("bootstrap registry address: %w", err)
	}
	if cfg.ComponentFactoryAddress, err = account.ValidateAddress(boot.ComponentFactoryAddress); err != nil {
		return fmt.Errorf("bootstrap component factory address: %w", err)
	}
	if boot.GatewayAddress != "" {
		if cfg.GatewayAddress, err = account.ValidateAddress(boot.GatewayAddress); err != nil {
			return fmt.Errorf("bootstrap gateway address: %w", err)
		}
	}

	if err := store.SaveConfig(ctx, cfg); err != nil {
		return err
	}

	e.logger.Info("factory configuration bootstrapped",
		zap.String("owner", cfg.Owner),
		zap.String("factory_address", cfg.FactoryAddress),
	)
	return nil
}

func originLabel(id *account.ID) string {
	if id != nil && !id.IsLocal() {
		return "remote"
	}
	return "local"
}

func classifyRegisterErr(err error) error {
	if errors.Is(err, registry.ErrNamespaceTaken) || errors.Is(err, registry.ErrAccountExists) {
		return apperrors.ConflictError(err, err.Error())
	}
	var feeErr *funds.FeeMismatchError
	if errors.As(err, &feeErr) {
		return apperrors.FeeMismatchError(err, feeErr.Error())
	}
	return fmt.Errorf("failed to register account: %w", err)
}

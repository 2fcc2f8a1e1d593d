// Package service implements the account creation orchestrator: the
// two-phase provisioning protocol over the factory state store and the
// registry collaborators, plus the configuration and directory
// operations the factory exposes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/address"
	apperrors "github.com/chainsafe/account-factory/pkg/app/errors"
	"github.com/chainsafe/account-factory/pkg/factory"
	"github.com/chainsafe/account-factory/pkg/factorystore"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

var (
	ErrNotConfigured     = errors.New("factory configuration not initialized")
	ErrBootstrapNotOwner = errors.New("bootstrap sequence is reserved for the factory owner")
	ErrGatewayOnly       = errors.New("remote identifiers are accepted only from the configured gateway")
	ErrSequenceMismatch  = errors.New("account identifier does not match the next sequence")
	ErrNotOwner          = errors.New("caller is not the factory owner")
)

// Store is the narrow factory-state interface the orchestrator runs
// against. Defined here to keep the protocol decoupled from the
// factorystore implementation; the executor injects transaction-scoped
// instances.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	Config(ctx context.Context) (*factory.Config, error)
	SaveConfig(ctx context.Context, cfg *factory.Config) error
	NextSequence(ctx context.Context) (uint32, error)
	IncrementSequence(ctx context.Context, allocated uint32) error
	SaveContext(ctx context.Context, pending *factory.Context) error
	TakeContext(ctx context.Context) (*factory.Context, error)
}

// Service defines the interface for the account factory business logic
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	// CreateAccount runs one creation end to end: planning, operation
	// execution and deferred validation, all in one atomic run.
	CreateAccount(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error)

	// Account returns the registered account record for the identifier.
	Account(ctx context.Context, id account.ID) (*registry.Registration, error)

	// Config returns the factory configuration.
	Config(ctx context.Context) (*factory.Config, error)

	// UpdateConfig patches the mutable collaborator addresses. Owner only.
	UpdateConfig(ctx context.Context, caller string, patch factory.ConfigPatch) (*factory.Config, error)

	// NextSequence returns the next allocatable local sequence.
	NextSequence(ctx context.Context) (uint32, error)
}

// Protocol is the creation state machine. Begin plans a run and parks
// its context; Complete consumes the context and validates what the
// operations instantiated. Both phases, and the operations between
// them, must share one transaction; the executor owns that boundary.
type Protocol struct {
	store      Store
	registry   registry.Registry
	components registry.ComponentFactory
	logger     *zap.Logger
}

// NewProtocol creates a creation protocol over the given collaborators.
func NewProtocol(
	store Store,
	reg registry.Registry,
	components registry.ComponentFactory,
	logger *zap.Logger,
) *Protocol {
	return &Protocol{
		store:      store,
		registry:   reg,
		components: components,
		logger:     logger,
	}
}

// Begin runs phase 1 of a creation run:
//  1. Loads the factory configuration
//  2. Validates the account metadata
//  3. Verifies the governance spec against the caller
//  4. Allocates the next local identifier, or checks a pinned one
//  5. Resolves the controller and proxy modules
//  6. Predicts the deterministic address pair
//  7. Quotes the install cost and namespace fee
//  8. Partitions the deposit into the fee buckets
//  9. Parks the run's context for deferred validation
//
// The returned plan's operations must be executed strictly in order
// within the same transaction that persisted the context.
func (p *Protocol) Begin(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Plan, error) {
	cfg, err := p.store.Config(ctx)
	if err != nil {
		if errors.Is(err, factorystore.ErrConfigNotFound) {
			return nil, apperrors.GeneralError(ErrNotConfigured)
		}
		return nil, fmt.Errorf("failed to load factory config: %w", err)
	}

	caller, err := account.ValidateAddress(req.Caller)
	if err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid caller address")
	}

	if err := validateMetadata(req); err != nil {
		return nil, apperrors.BadRequestError(err, err.Error())
	}

	resolved, err := req.Governance.Verify(caller)
	if err != nil {
		var authErr *account.SubAccountAuthorizationError
		if errors.As(err, &authErr) {
			return nil, apperrors.ForbiddenError(err, err.Error())
		}
		return nil, apperrors.BadRequestError(err, err.Error())
	}

	id, err := p.resolveIdentifier(ctx, cfg, caller, req.AccountID)
	if err != nil {
		return nil, err
	}

	controllerMod, proxyMod, err := p.resolveBaseModules(ctx)
	if err != nil {
		return nil, err
	}

	base, err := predictBase(cfg.FactoryAddress, id, controllerMod, proxyMod)
	if err != nil {
		return nil, err
	}

	buckets, err := p.partitionDeposit(ctx, req)
	if err != nil {
		return nil, err
	}

	plan := &factory.Plan{
		AccountID: id,
		Base:      base,
		Operations: []factory.Operation{
			factory.RegisterAccountOp{
				Registration: registry.Registration{
					AccountID:   id,
					Base:        base,
					Governance:  resolved,
					Name:        req.Name,
					Description: req.Description,
					Link:        req.Link,
					Namespace:   req.Namespace,
					BaseAsset:   req.BaseAsset,
					Fee:         buckets.Namespace,
				},
			},
			factory.InstantiateOp{
				AccountID: id,
				Module:    proxyMod,
				Address:   base.Proxy,
				Admin:     base.Controller,
				Label:     factory.ProxyLabel(id),
				Funds:     buckets.Residual,
			},
			factory.InstantiateOp{
				AccountID: id,
				Module:    controllerMod,
				Address:   base.Controller,
				Admin:     resolved.Owner,
				Label:     factory.ControllerLabel(id),
				Funds:     buckets.Install,
				Installs:  req.Installs,
				Deferred:  true,
			},
		},
		Event: factory.CreationEvent{
			Sequence:    id.Sequence,
			Trace:       id.Trace.String(),
			Governance:  resolved.Kind,
			Name:        req.Name,
			Description: req.Description,
			Link:        req.Link,
			Namespace:   req.Namespace,
			BaseAsset:   req.BaseAsset,
		},
	}

	pending := &factory.Context{
		AccountID:        id,
		Base:             base,
		ControllerModule: controllerMod,
		ProxyModule:      proxyMod,
	}
	if err := p.store.SaveContext(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to save creation context: %w", err)
	}

	p.logger.Info("creation planned",
		zap.String("account_id", id.String()),
		zap.String("governance", string(resolved.Kind)),
		zap.String("controller", base.Controller),
		zap.String("proxy", base.Proxy),
	)

	return plan, nil
}

// Complete runs phase 2 of a creation run: consumes the pending
// context, checks the instantiated entities against what the plan
// promised and advances the sequence counter for local identifiers.
func (p *Protocol) Complete(ctx context.Context, outcome factory.Outcome) (*factory.Confirmation, error) {
	pending, err := p.store.TakeContext(ctx)
	if err != nil {
		if errors.Is(err, factorystore.ErrContextNotFound) {
			return nil, apperrors.InternalConsistencyError(err, "no creation run awaits validation")
		}
		return nil, fmt.Errorf("failed to take creation context: %w", err)
	}

	// The outcome is fed back by the executor from its own operations, so
	// divergence from the planned base means the run itself is broken.
	if outcome.Controller != pending.Base.Controller || outcome.Proxy != pending.Base.Proxy {
		return nil, apperrors.InternalConsistencyError(registry.ErrDeploymentMismatch,
			fmt.Sprintf("instantiated at (%s, %s), planned (%s, %s)",
				outcome.Controller, outcome.Proxy, pending.Base.Controller, pending.Base.Proxy))
	}

	if err := p.registry.AssertModuleValidity(ctx, pending.ControllerModule, outcome.Controller); err != nil {
		return nil, classifyValidityErr(err, "controller")
	}
	if err := p.registry.AssertModuleValidity(ctx, pending.ProxyModule, outcome.Proxy); err != nil {
		return nil, classifyValidityErr(err, "proxy")
	}

	if pending.AccountID.IsLocal() {
		if err := p.store.IncrementSequence(ctx, pending.AccountID.Sequence); err != nil {
			if errors.Is(err, factorystore.ErrSequenceConflict) {
				return nil, apperrors.InternalConsistencyError(err, err.Error())
			}
			return nil, fmt.Errorf("failed to advance account sequence: %w", err)
		}
	}

	p.logger.Info("creation validated",
		zap.String("account_id", pending.AccountID.String()),
		zap.String("controller", outcome.Controller),
		zap.String("proxy", outcome.Proxy),
	)

	return &factory.Confirmation{
		AccountID:  pending.AccountID,
		Controller: outcome.Controller,
		Proxy:      outcome.Proxy,
	}, nil
}

// UpdateConfig patches the mutable collaborator addresses. Only the
// configured owner may call it; the factory's own address and owner are
// fixed at bootstrap.
func (p *Protocol) UpdateConfig(ctx context.Context, caller string, patch factory.ConfigPatch) (*factory.Config, error) {
	cfg, err := p.store.Config(ctx)
	if err != nil {
		if errors.Is(err, factorystore.ErrConfigNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, ErrNotConfigured.Error())
		}
		return nil, fmt.Errorf("failed to load factory config: %w", err)
	}

	normCaller, err := account.ValidateAddress(caller)
	if err != nil {
		return nil, apperrors.UnAuthorizedError(err, "invalid caller address")
	}
	if normCaller != cfg.Owner {
		return nil, apperrors.ForbiddenError(ErrNotOwner, "only the factory owner can update the configuration")
	}

	if patch.RegistryAddress != nil {
		addr, err := account.ValidateAddress(*patch.RegistryAddress)
		if err != nil {
			return nil, apperrors.BadRequestError(err, "invalid registry_address")
		}
		cfg.RegistryAddress = addr
	}
	if patch.ComponentFactoryAddress != nil {
		addr, err := account.ValidateAddress(*patch.ComponentFactoryAddress)
		if err != nil {
			return nil, apperrors.BadRequestError(err, "invalid component_factory_address")
		}
		cfg.ComponentFactoryAddress = addr
	}
	if patch.GatewayAddress != nil {
		// Clearing the gateway address disables the remote creation path.
		if *patch.GatewayAddress == "" {
			cfg.GatewayAddress = ""
		} else {
			addr, err := account.ValidateAddress(*patch.GatewayAddress)
			if err != nil {
				return nil, apperrors.BadRequestError(err, "invalid gateway_address")
			}
			cfg.GatewayAddress = addr
		}
	}

	if err := p.store.SaveConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save factory config: %w", err)
	}

	p.logger.Info("factory configuration updated", zap.String("caller", normCaller))
	return cfg, nil
}

// resolveIdentifier allocates the next local identifier, or checks a
// pinned one against the allocation rules: a pinned local identifier
// must match the allocator's prediction, a remote one is accepted only
// from the gateway, and the bootstrap sequence only from the owner.
func (p *Protocol) resolveIdentifier(
	ctx context.Context,
	cfg *factory.Config,
	caller string,
	pinned *account.ID,
) (account.ID, error) {
	next, err := p.store.NextSequence(ctx)
	if err != nil {
		return account.ID{}, fmt.Errorf("failed to read account sequence: %w", err)
	}

	var id account.ID
	switch {
	case pinned == nil:
		id = account.NewLocalID(next)

	case pinned.IsLocal():
		if pinned.Sequence != next {
			return account.ID{}, apperrors.IdentifierMismatchError(ErrSequenceMismatch,
				fmt.Sprintf("requested local sequence %d, next allocatable is %d", pinned.Sequence, next))
		}
		id = *pinned

	default:
		if err := pinned.Trace.Verify(); err != nil {
			return account.ID{}, apperrors.TraceInvalidError(err, err.Error())
		}
		if cfg.GatewayAddress == "" || caller != cfg.GatewayAddress {
			return account.ID{}, apperrors.ForbiddenError(ErrGatewayOnly, ErrGatewayOnly.Error())
		}
		id = *pinned
	}

	if id.IsLocal() && id.Sequence == factory.BootstrapSequence && caller != cfg.Owner {
		return account.ID{}, apperrors.ForbiddenError(ErrBootstrapNotOwner, ErrBootstrapNotOwner.Error())
	}

	return id, nil
}

// resolveBaseModules resolves the controller and proxy artifacts and
// checks their kind.
func (p *Protocol) resolveBaseModules(ctx context.Context) (controller, proxy account.ModuleDescriptor, err error) {
	descs, err := p.registry.ResolveModules(ctx, []string{factory.ControllerModuleID, factory.ProxyModuleID})
	if err != nil {
		return account.ModuleDescriptor{}, account.ModuleDescriptor{},
			classifyRegistryErr(err, "failed to resolve base modules")
	}

	for _, desc := range descs {
		if desc.Kind != account.ModuleKindAccountBase {
			kindErr := &account.WrongModuleKindError{
				ModuleID: desc.ID,
				Kind:     desc.Kind,
				Expected: account.ModuleKindAccountBase,
			}
			return account.ModuleDescriptor{}, account.ModuleDescriptor{},
				apperrors.ModuleResolutionError(kindErr, kindErr.Error())
		}
	}

	return descs[0], descs[1], nil
}

// partitionDeposit quotes the install cost and namespace fee, then
// splits the deposit into the plan's fund buckets.
func (p *Protocol) partitionDeposit(ctx context.Context, req *factory.CreateAccountRequest) (funds.Buckets, error) {
	if err := req.Deposit.Valid(); err != nil {
		return funds.Buckets{}, apperrors.BadRequestError(err, fmt.Sprintf("invalid deposit: %s", err))
	}

	installCost := funds.New()
	if len(req.Installs) > 0 {
		var err error
		installCost, err = p.components.SimulateInstallCost(ctx, req.Installs)
		if err != nil {
			return funds.Buckets{}, classifyRegistryErr(err, "failed to price module installs")
		}
	}

	namespaceFee := funds.New()
	if req.Namespace != "" {
		var err error
		namespaceFee, err = p.registry.NamespaceFee(ctx)
		if err != nil {
			return funds.Buckets{}, fmt.Errorf("failed to quote namespace fee: %w", err)
		}
	}

	buckets, err := funds.Partition(req.Deposit, installCost, namespaceFee)
	if err != nil {
		return funds.Buckets{}, apperrors.FeeMismatchError(err, err.Error())
	}

	return buckets, nil
}

// predictBase derives the deterministic controller and proxy addresses
// for the identifier.
func predictBase(
	factoryAddress string,
	id account.ID,
	controllerMod, proxyMod account.ModuleDescriptor,
) (account.Base, error) {
	salt, err := address.Salt(id)
	if err != nil {
		return account.Base{}, fmt.Errorf("failed to derive salt for %s: %w", id, err)
	}

	origin := common.HexToAddress(factoryAddress)
	controllerAddr, err := address.Predict(origin, controllerMod.Checksum, salt)
	if err != nil {
		return account.Base{}, apperrors.ModuleResolutionError(err, fmt.Sprintf("module %s: %s", controllerMod, err))
	}
	proxyAddr, err := address.Predict(origin, proxyMod.Checksum, salt)
	if err != nil {
		return account.Base{}, apperrors.ModuleResolutionError(err, fmt.Sprintf("module %s: %s", proxyMod, err))
	}

	return account.Base{Controller: controllerAddr.Hex(), Proxy: proxyAddr.Hex()}, nil
}

func validateMetadata(req *factory.CreateAccountRequest) error {
	if err := account.ValidateName(req.Name); err != nil {
		return err
	}
	if err := account.ValidateDescription(req.Description); err != nil {
		return err
	}
	if err := account.ValidateLink(req.Link); err != nil {
		return err
	}
	if req.Namespace != "" {
		if err := registry.ValidateNamespace(req.Namespace); err != nil {
			return err
		}
	}
	return nil
}

// classifyRegistryErr maps collaborator failures onto the error
// taxonomy. Remote registry implementations surface gRPC statuses; the
// Postgres reference implementation returns the registry sentinels.
func classifyRegistryErr(err error, message string) error {
	if errors.Is(err, registry.ErrModuleNotFound) {
		return apperrors.ModuleResolutionError(err, err.Error())
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return apperrors.ModuleResolutionError(err, st.Message())
	}
	return fmt.Errorf("%s: %w", message, err)
}

func classifyValidityErr(err error, entity string) error {
	var kindErr *account.WrongModuleKindError
	if errors.Is(err, registry.ErrDeploymentMismatch) || errors.As(err, &kindErr) {
		return apperrors.ModuleValidityError(err, fmt.Sprintf("%s failed validation: %s", entity, err))
	}
	return fmt.Errorf("failed to validate %s deployment: %w", entity, err)
}

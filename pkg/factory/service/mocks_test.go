package service

// TODO: remove the mock impl and use mockery to generate mock

import (
	"context"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/factory"
	"github.com/chainsafe/account-factory/pkg/factorystore"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	ConfigFunc            func(ctx context.Context) (*factory.Config, error)
	SaveConfigFunc        func(ctx context.Context, cfg *factory.Config) error
	NextSequenceFunc      func(ctx context.Context) (uint32, error)
	IncrementSequenceFunc func(ctx context.Context, allocated uint32) error
	SaveContextFunc       func(ctx context.Context, pending *factory.Context) error
	TakeContextFunc       func(ctx context.Context) (*factory.Context, error)
}

func (m *MockStore) Config(ctx context.Context) (*factory.Config, error) {
	if m.ConfigFunc != nil {
		return m.ConfigFunc(ctx)
	}
	return nil, factorystore.ErrConfigNotFound
}

func (m *MockStore) SaveConfig(ctx context.Context, cfg *factory.Config) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, cfg)
	}
	return nil
}

func (m *MockStore) NextSequence(ctx context.Context) (uint32, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx)
	}
	return 0, nil
}

func (m *MockStore) IncrementSequence(ctx context.Context, allocated uint32) error {
	if m.IncrementSequenceFunc != nil {
		return m.IncrementSequenceFunc(ctx, allocated)
	}
	return nil
}

func (m *MockStore) SaveContext(ctx context.Context, pending *factory.Context) error {
	if m.SaveContextFunc != nil {
		return m.SaveContextFunc(ctx, pending)
	}
	return nil
}

func (m *MockStore) TakeContext(ctx context.Context) (*factory.Context, error) {
	if m.TakeContextFunc != nil {
		return m.TakeContextFunc(ctx)
	}
	return nil, factorystore.ErrContextNotFound
}

// MockRegistry is a mock implementation of registry.Registry
type MockRegistry struct {
	ResolveModuleFunc        func(ctx context.Context, moduleID string) (account.ModuleDescriptor, error)
	ResolveModulesFunc       func(ctx context.Context, moduleIDs []string) ([]account.ModuleDescriptor, error)
	RegisterAccountFunc      func(ctx context.Context, reg registry.Registration) error
	NamespaceFeeFunc         func(ctx context.Context) (funds.Funds, error)
	AssertModuleValidityFunc func(ctx context.Context, desc account.ModuleDescriptor, deployed string) error
}

func (m *MockRegistry) ResolveModule(ctx context.Context, moduleID string) (account.ModuleDescriptor, error) {
	if m.ResolveModuleFunc != nil {
		return m.ResolveModuleFunc(ctx, moduleID)
	}
	return account.ModuleDescriptor{}, nil
}

func (m *MockRegistry) ResolveModules(ctx context.Context, moduleIDs []string) ([]account.ModuleDescriptor, error) {
	if m.ResolveModulesFunc != nil {
		return m.ResolveModulesFunc(ctx, moduleIDs)
	}
	return make([]account.ModuleDescriptor, len(moduleIDs)), nil
}

func (m *MockRegistry) RegisterAccount(ctx context.Context, reg registry.Registration) error {
	if m.RegisterAccountFunc != nil {
		return m.RegisterAccountFunc(ctx, reg)
	}
	return nil
}

func (m *MockRegistry) NamespaceFee(ctx context.Context) (funds.Funds, error) {
	if m.NamespaceFeeFunc != nil {
		return m.NamespaceFeeFunc(ctx)
	}
	return funds.New(), nil
}

func (m *MockRegistry) AssertModuleValidity(ctx context.Context, desc account.ModuleDescriptor, deployed string) error {
	if m.AssertModuleValidityFunc != nil {
		return m.AssertModuleValidityFunc(ctx, desc, deployed)
	}
	return nil
}

// MockComponentFactory is a mock implementation of registry.ComponentFactory
type MockComponentFactory struct {
	SimulateInstallCostFunc func(ctx context.Context, installs []registry.ModuleInstall) (funds.Funds, error)
}

func (m *MockComponentFactory) SimulateInstallCost(ctx context.Context, installs []registry.ModuleInstall) (funds.Funds, error) {
	if m.SimulateInstallCostFunc != nil {
		return m.SimulateInstallCostFunc(ctx, installs)
	}
	return funds.New(), nil
}

// MockService is a mock implementation of Service
type MockService struct {
	CreateAccountFunc func(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error)
	AccountFunc       func(ctx context.Context, id account.ID) (*registry.Registration, error)
	ConfigFunc        func(ctx context.Context) (*factory.Config, error)
	UpdateConfigFunc  func(ctx context.Context, caller string, patch factory.ConfigPatch) (*factory.Config, error)
	NextSequenceFunc  func(ctx context.Context) (uint32, error)
}

func (m *MockService) CreateAccount(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockService) Account(ctx context.Context, id account.ID) (*registry.Registration, error) {
	if m.AccountFunc != nil {
		return m.AccountFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockService) Config(ctx context.Context) (*factory.Config, error) {
	if m.ConfigFunc != nil {
		return m.ConfigFunc(ctx)
	}
	return nil, nil
}

func (m *MockService) UpdateConfig(ctx context.Context, caller string, patch factory.ConfigPatch) (*factory.Config, error) {
	if m.UpdateConfigFunc != nil {
		return m.UpdateConfigFunc(ctx, caller, patch)
	}
	return nil, nil
}

func (m *MockService) NextSequence(ctx context.Context) (uint32, error) {
	if m.NextSequenceFunc != nil {
		return m.NextSequenceFunc(ctx)
	}
	return 0, nil
}

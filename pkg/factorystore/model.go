package factorystore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/factory"
)

// singletonRowID keys the single-row tables of this package.
const singletonRowID = 1

// ConfigDao is a data access object that maps directly to the 'factory_config' table in PostgreSQL.
// A deployment holds exactly one row.
type ConfigDao struct {
	bun.BaseModel           `bun:"table:factory_config,alias:fc"`
	ID                      int64     `bun:"id,pk"`
	Owner                   string    `bun:"owner,notnull,type:varchar(42)"`
	FactoryAddress          string    `bun:"factory_address,notnull,type:varchar(42)"`
	RegistryAddress         string    `bun:"registry_address,notnull,type:varchar(42)"`
	ComponentFactoryAddress string    `bun:"component_factory_address,notnull,type:varchar(42)"`
	GatewayAddress          *string   `bun:"gateway_address,type:varchar(42)"`
	UpdatedAt               time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// SequenceDao is a data access object that maps directly to the 'account_sequence' table in PostgreSQL.
// The counter is stored in an int64 column; values stay within uint32 range.
type SequenceDao struct {
	bun.BaseModel `bun:"table:account_sequence,alias:seq"`
	ID            int64     `bun:"id,pk"`
	NextSequence  int64     `bun:"next_sequence,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}

// ContextDao is a data access object that maps directly to the 'creation_contexts' table in PostgreSQL.
// The table is a single slot: one pending context at most, keyed by singletonRowID.
type ContextDao struct {
	bun.BaseModel     `bun:"table:creation_contexts,alias:cc"`
	ID                int64           `bun:"id,pk"`
	AccountSequence   int64           `bun:"account_sequence,notnull"`
	AccountTrace      string          `bun:"account_trace,notnull,type:varchar(512)"`
	ControllerAddress string          `bun:"controller_address,notnull,type:varchar(42)"`
	ProxyAddress      string          `bun:"proxy_address,notnull,type:varchar(42)"`
	ControllerModule  json.RawMessage `bun:"controller_module,notnull,type:jsonb"`
	ProxyModule       json.RawMessage `bun:"proxy_module,notnull,type:jsonb"`
	CreatedAt         time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
}

// toConfigDao converts a factory.Config to ConfigDao.
func toConfigDao(cfg *factory.Config) *ConfigDao {
	dao := &ConfigDao{
		ID:                      singletonRowID,
		Owner:                   cfg.Owner,
		FactoryAddress:          cfg.FactoryAddress,
		RegistryAddress:         cfg.RegistryAddress,
		ComponentFactoryAddress: cfg.ComponentFactoryAddress,
	}

	if cfg.GatewayAddress != "" {
		dao.GatewayAddress = &cfg.GatewayAddress
	}

	return dao
}

// toConfig converts a ConfigDao to factory.Config.
func toConfig(dao *ConfigDao) *factory.Config {
	cfg := &factory.Config{
		Owner:                   dao.Owner,
		FactoryAddress:          dao.FactoryAddress,
		RegistryAddress:         dao.RegistryAddress,
		ComponentFactoryAddress: dao.ComponentFactoryAddress,
	}

	if dao.GatewayAddress != nil {
		cfg.GatewayAddress = *dao.GatewayAddress
	}

	return cfg
}

// toContextDao converts a factory.Context to ContextDao.
func toContextDao(pending *factory.Context) (*ContextDao, error) {
	controllerModule, err := json.Marshal(pending.ControllerModule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode controller module: %w", err)
	}
	proxyModule, err := json.Marshal(pending.ProxyModule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proxy module: %w", err)
	}

	return &ContextDao{
		ID:                singletonRowID,
		AccountSequence:   int64(pending.AccountID.Sequence),
		AccountTrace:      pending.AccountID.Trace.String(),
		ControllerAddress: pending.Base.Controller,
		ProxyAddress:      pending.Base.Proxy,
		ControllerModule:  controllerModule,
		ProxyModule:       proxyModule,
	}, nil
}

// toContext converts a ContextDao to factory.Context.
func toContext(dao *ContextDao) (*factory.Context, error) {
	trace, err := account.ParseTrace(dao.AccountTrace)
	if err != nil {
		return nil, fmt.Errorf("failed to decode context trace: %w", err)
	}

	pending := &factory.Context{
		AccountID: account.ID{Sequence: uint32(dao.AccountSequence), Trace: trace},
		Base: account.Base{
			Controller: dao.ControllerAddress,
			Proxy:      dao.ProxyAddress,
		},
	}

	if err := json.Unmarshal(dao.ControllerModule, &pending.ControllerModule); err != nil {
		return nil, fmt.Errorf("failed to decode controller module: %w", err)
	}
	if err := json.Unmarshal(dao.ProxyModule, &pending.ProxyModule); err != nil {
		return nil, fmt.Errorf("failed to decode proxy module: %w", err)
	}

	return pending, nil
}

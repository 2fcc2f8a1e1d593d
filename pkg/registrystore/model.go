package registrystore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/funds"
	"github.com/chainsafe/account-factory/pkg/registry"
)

// paramsRowID keys the single registry_params row.
const paramsRowID = 1

// ModuleDao is a data access object that maps directly to the 'modules' table in PostgreSQL.
type ModuleDao struct {
	bun.BaseModel `bun:"table:modules,alias:m"`
	ID            int64           `bun:"id,pk,autoincrement"`
	ModuleID      string          `bun:"module_id,notnull,type:varchar(128)"`
	Version       string          `bun:"version,notnull,type:varchar(32)"`
	Kind          string          `bun:"kind,notnull,type:varchar(64)"`
	CodeID        int64           `bun:"code_id,notnull"`
	Checksum      []byte          `bun:"checksum,notnull,type:bytea"`
	InstallFee    json.RawMessage `bun:"install_fee,nullzero,type:jsonb"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
}

// ParamsDao is a data access object that maps directly to the 'registry_params' table in PostgreSQL.
// A deployment holds exactly one row; a NULL namespace fee means namespaces are free.
type ParamsDao struct {
	bun.BaseModel `bun:"table:registry_params,alias:rp"`
	ID            int64           `bun:"id,pk"`
	NamespaceFee  json.RawMessage `bun:"namespace_fee,nullzero,type:jsonb"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

// AccountDao is a data access object that maps directly to the 'accounts' table in PostgreSQL.
type AccountDao struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`
	ID            int64           `bun:"id,pk,autoincrement"`
	AccountID     string          `bun:"account_id,unique,notnull,type:varchar(512)"`
	Sequence      int64           `bun:"sequence,notnull"`
	Trace         string          `bun:"trace,notnull,type:varchar(512)"`
	Controller    string          `bun:"controller_address,notnull,type:varchar(42)"`
	Proxy         string          `bun:"proxy_address,notnull,type:varchar(42)"`
	Governance    string          `bun:"governance,notnull,type:varchar(32)"`
	Owner         string          `bun:"owner,notnull,type:varchar(42)"`
	Name          string          `bun:"name,notnull,type:varchar(64)"`
	Description   *string         `bun:"description,type:varchar(256)"`
	Link          *string         `bun:"link,type:varchar(128)"`
	Namespace     *string         `bun:"namespace,type:varchar(64)"`
	BaseAsset     *string         `bun:"base_asset,type:varchar(64)"`
	Fee           json.RawMessage `bun:"fee,nullzero,type:jsonb"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
}

// marshalFunds encodes funds for a jsonb column, NULL when empty.
func marshalFunds(f funds.Funds) (json.RawMessage, error) {
	if len(f) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode funds: %w", err)
	}
	return raw, nil
}

// unmarshalFunds decodes a jsonb funds column, treating NULL as empty.
func unmarshalFunds(raw json.RawMessage) (funds.Funds, error) {
	if len(raw) == 0 {
		return funds.New(), nil
	}
	f := funds.New()
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode funds: %w", err)
	}
	return f, nil
}

// toModuleDao converts a Module to ModuleDao.
func toModuleDao(module *Module) (*ModuleDao, error) {
	fee, err := marshalFunds(module.InstallFee)
	if err != nil {
		return nil, err
	}

	return &ModuleDao{
		ModuleID:   module.Descriptor.ID,
		Version:    module.Descriptor.Version,
		Kind:       module.Descriptor.Kind,
		CodeID:     int64(module.Descriptor.CodeID),
		Checksum:   module.Descriptor.Checksum,
		InstallFee: fee,
	}, nil
}

// toDescriptor converts a ModuleDao to the resolvable descriptor.
func toDescriptor(dao *ModuleDao) account.ModuleDescriptor {
	return account.ModuleDescriptor{
		ID:       dao.ModuleID,
		Version:  dao.Version,
		Kind:     dao.Kind,
		CodeID:   uint64(dao.CodeID),
		Checksum: dao.Checksum,
	}
}

// toAccountDao converts a registry.Registration to AccountDao.
func toAccountDao(reg *registry.Registration) (*AccountDao, error) {
	fee, err := marshalFunds(reg.Fee)
	if err != nil {
		return nil, err
	}

	dao := &AccountDao{
		AccountID:  reg.AccountID.String(),
		Sequence:   int64(reg.AccountID.Sequence),
		Trace:      reg.AccountID.Trace.String(),
		Controller: reg.Base.Controller,
		Proxy:      reg.Base.Proxy,
		Governance: string(reg.Governance.Kind),
		Owner:      reg.Governance.Owner,
		Name:       reg.Name,
		Fee:        fee,
	}

	if reg.Description != "" {
		dao.Description = &reg.Description
	}
	if reg.Link != "" {
		dao.Link = &reg.Link
	}
	if reg.Namespace != "" {
		dao.Namespace = &reg.Namespace
	}
	if reg.BaseAsset != "" {
		dao.BaseAsset = &reg.BaseAsset
	}

	return dao, nil
}

// toRegistration converts an AccountDao to registry.Registration.
func toRegistration(dao *AccountDao) (*registry.Registration, error) {
	id, err := account.ParseID(dao.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode account id: %w", err)
	}
	fee, err := unmarshalFunds(dao.Fee)
	if err != nil {
		return nil, err
	}

	reg := &registry.Registration{
		AccountID: id,
		Base: account.Base{
			Controller: dao.Controller,
			Proxy:      dao.Proxy,
		},
		Governance: account.ResolvedGovernance{
			Kind:  account.GovernanceKind(dao.Governance),
			Owner: dao.Owner,
		},
		Name: dao.Name,
		Fee:  fee,
	}

	if dao.Description != nil {
		reg.Description = *dao.Description
	}
	if dao.Link != nil {
		reg.Link = *dao.Link
	}
	if dao.Namespace != nil {
		reg.Namespace = *dao.Namespace
	}
	if dao.BaseAsset != nil {
		reg.BaseAsset = *dao.BaseAsset
	}

	return reg, nil
}

package entitystore

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/account-factory/pkg/account"
)

// EntityDao is a data access object that maps directly to the 'entities' table in PostgreSQL.
type EntityDao struct {
	bun.BaseModel `bun:"table:entities,alias:e"`
	Address       string    `bun:"address,pk,type:varchar(42)"`
	AccountID     string    `bun:"account_id,notnull,type:varchar(512)"`
	ModuleID      string    `bun:"module_id,notnull,type:varchar(128)"`
	Version       string    `bun:"version,notnull,type:varchar(32)"`
	Kind          string    `bun:"kind,notnull,type:varchar(64)"`
	CodeID        int64     `bun:"code_id,notnull"`
	Checksum      []byte    `bun:"checksum,notnull,type:bytea"`
	Admin         string    `bun:"admin,notnull,type:varchar(42)"`
	Label         string    `bun:"label,notnull,type:varchar(128)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

// toEntityDao converts an Entity to EntityDao.
func toEntityDao(entity *Entity) *EntityDao {
	return &EntityDao{
		Address:   entity.Address,
		AccountID: entity.AccountID.String(),
		ModuleID:  entity.Module.ID,
		Version:   entity.Module.Version,
		Kind:      entity.Module.Kind,
		CodeID:    int64(entity.Module.CodeID),
		Checksum:  entity.Module.Checksum,
		Admin:     entity.Admin,
		Label:     entity.Label,
	}
}

// toEntity converts an EntityDao to Entity.
func toEntity(dao *EntityDao) (*Entity, error) {
	id, err := account.ParseID(dao.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode entity account id: %w", err)
	}

	return &Entity{
		Address:   dao.Address,
		AccountID: id,
		Module: account.ModuleDescriptor{
			ID:       dao.ModuleID,
			Version:  dao.Version,
			Kind:     dao.Kind,
			CodeID:   uint64(dao.CodeID),
			Checksum: dao.Checksum,
		},
		Admin:     dao.Admin,
		Label:     dao.Label,
		CreatedAt: dao.CreatedAt,
	}, nil
}

package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/account-factory/pkg/account"
)

// RequestDao is a data access object that maps directly to the 'remote_requests' table in PostgreSQL.
type RequestDao struct {
	bun.BaseModel `bun:"table:remote_requests,alias:rr"`
	ID            int64           `bun:"id,pk,autoincrement"`
	AccountID     string          `bun:"account_id,notnull,type:varchar(512)"`
	Body          json.RawMessage `bun:"body,notnull,type:jsonb"`
	Status        string          `bun:"status,notnull,type:varchar(16)"`
	Attempts      int             `bun:"attempts,notnull"`
	RunID         *string         `bun:"run_id,type:varchar(36)"`
	LastError     *string         `bun:"last_error,type:text"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

// toRequest converts a RequestDao to Request.
func toRequest(dao *RequestDao) (*Request, error) {
	id, err := account.ParseID(dao.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode request account id: %w", err)
	}

	req := &Request{
		ID:        dao.ID,
		AccountID: id,
		Body:      dao.Body,
		Status:    RequestStatus(dao.Status),
		Attempts:  dao.Attempts,
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}

	if dao.RunID != nil {
		req.RunID = *dao.RunID
	}
	if dao.LastError != nil {
		req.LastError = *dao.LastError
	}

	return req, nil
}

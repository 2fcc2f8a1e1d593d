package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/chainsafe/account-factory/pkg/account"
)

type pgStore struct {
	db bun.IDB
}

// NewStore creates a new postgres implementation of the remote request queue.
func NewStore(db bun.IDB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Enqueue(ctx context.Context, accountID account.ID, body json.RawMessage) (*Request, error) {
	dao := &RequestDao{
		AccountID: accountID.String(),
		Body:      body,
		Status:    string(StatusPending),
	}

	_, err := s.db.NewInsert().
		Model(dao).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue remote request: %w", err)
	}

	return toRequest(dao)
}

func (s *pgStore) PendingRequests(ctx context.Context, limit int) ([]*Request, error) {
	var daos []RequestDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("status = ?", string(StatusPending)).
		Order("id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	requests := make([]*Request, len(daos))
	for i := range daos {
		req, err := toRequest(&daos[i])
		if err != nil {
			return nil, err
		}
		requests[i] = req
	}

	return requests, nil
}

func (s *pgStore) MarkCompleted(ctx context.Context, id int64, runID string) error {
	res, err := s.db.NewUpdate().
		Model((*RequestDao)(nil)).
		Set("status = ?", string(StatusCompleted)).
		Set("run_id = ?", runID).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark request completed: %w", err)
	}

	return requireUpdated(res, id)
}

func (s *pgStore) MarkFailed(ctx context.Context, id int64, cause string, requeue bool) error {
	status := StatusFailed
	if requeue {
		status = StatusPending
	}

	res, err := s.db.NewUpdate().
		Model((*RequestDao)(nil)).
		Set("status = ?", string(status)).
		Set("attempts = attempts + 1").
		Set("last_error = ?", cause).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark request failed: %w", err)
	}

	return requireUpdated(res, id)
}

func requireUpdated(res sql.Result, id int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("request %d: %w", id, ErrRequestNotFound)
	}
	return nil
}

package gateway

// TODO: remove the mock impl and use mockery to generate mock

import (
	"context"
	"encoding/json"

	"github.com/chainsafe/account-factory/pkg/account"
	"github.com/chainsafe/account-factory/pkg/factory"
)

// MockExecutor is a mock implementation of Executor
type MockExecutor struct {
	CreateAccountFunc func(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error)
	ConfigFunc        func(ctx context.Context) (*factory.Config, error)
}

func (m *MockExecutor) CreateAccount(ctx context.Context, req *factory.CreateAccountRequest) (*factory.Confirmation, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, req)
	}
	return &factory.Confirmation{}, nil
}

func (m *MockExecutor) Config(ctx context.Context) (*factory.Config, error) {
	if m.ConfigFunc != nil {
		return m.ConfigFunc(ctx)
	}
	return &factory.Config{}, nil
}

// MockRequestStore is a mock implementation of RequestStore
type MockRequestStore struct {
	EnqueueFunc         func(ctx context.Context, accountID account.ID, body json.RawMessage) (*Request, error)
	PendingRequestsFunc func(ctx context.Context, limit int) ([]*Request, error)
	MarkCompletedFunc   func(ctx context.Context, id int64, runID string) error
	MarkFailedFunc      func(ctx context.Context, id int64, cause string, requeue bool) error
}

func (m *MockRequestStore) Enqueue(ctx context.Context, accountID account.ID, body json.RawMessage) (*Request, error) {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, accountID, body)
	}
	return &Request{}, nil
}

func (m *MockRequestStore) PendingRequests(ctx context.Context, limit int) ([]*Request, error) {
	if m.PendingRequestsFunc != nil {
		return m.PendingRequestsFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockRequestStore) MarkCompleted(ctx context.Context, id int64, runID string) error {
	if m.MarkCompletedFunc != nil {
		return m.MarkCompletedFunc(ctx, id, runID)
	}
	return nil
}

func (m *MockRequestStore) MarkFailed(ctx context.Context, id int64, cause string, requeue bool) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id, cause, requeue)
	}
	return nil
}

// Package gateway relays remote-origin creation requests into the local
// deployment. Requests arrive from origin-chain outboxes into a queue
// table; a polling engine replays them through the creation protocol
// under the configured gateway identity.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chainsafe/account-factory/pkg/account"
)

// ErrRequestNotFound is returned when a queue update targets an unknown request.
var ErrRequestNotFound = errors.New("remote request not found")

// RequestStatus tracks a queued remote request through its lifecycle.
type RequestStatus string

const (
	// StatusPending marks a request waiting to be replayed.
	StatusPending RequestStatus = "pending"
	// StatusCompleted marks a request whose creation run committed.
	StatusCompleted RequestStatus = "completed"
	// StatusFailed marks a request abandoned after exhausting retries.
	StatusFailed RequestStatus = "failed"
)

// Request is one remote-origin creation request. Body carries the
// creation payload as received from the origin outbox; AccountID is the
// identifier the origin pinned for the account.
type Request struct {
	ID        int64
	AccountID account.ID
	Body      json.RawMessage
	Status    RequestStatus
	Attempts  int
	RunID     string
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestStore defines the interface for the remote request queue
type RequestStore interface {
	Enqueue(ctx context.Context, accountID account.ID, body json.RawMessage) (*Request, error)
	PendingRequests(ctx context.Context, limit int) ([]*Request, error)
	// MarkCompleted finalizes a request with the creation run that
	// confirmed it.
	MarkCompleted(ctx context.Context, id int64, runID string) error
	// MarkFailed records a failed attempt. With requeue the request goes
	// back to pending for another try, otherwise it is abandoned.
	MarkFailed(ctx context.Context, id int64, cause string, requeue bool) error
}

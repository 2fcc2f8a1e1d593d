package factorystore

import (
	"context"
	"errors"

	"github.com/chainsafe/account-factory/pkg/factory"
)

// ErrConfigNotFound is returned when the factory configuration record has
// not been bootstrapped yet.
var ErrConfigNotFound = errors.New("factory config not found")

// ErrContextNotFound is returned when no pending creation context is stored.
var ErrContextNotFound = errors.New("creation context not found")

// ErrSequenceConflict is returned when the stored sequence counter no longer
// matches the allocation being confirmed.
var ErrSequenceConflict = errors.New("account sequence conflict")

// ErrSequenceOverflow is returned when advancing the sequence counter would
// exceed the 32-bit identifier space.
var ErrSequenceOverflow = errors.New("account sequence overflow")

// ConfigStore persists the factory configuration record.
type ConfigStore interface {
	Config(ctx context.Context) (*factory.Config, error)
	SaveConfig(ctx context.Context, cfg *factory.Config) error
}

// SequenceStore persists the monotonic account sequence counter. The counter
// holds the next sequence to hand out; an unset counter reads as zero.
type SequenceStore interface {
	NextSequence(ctx context.Context) (uint32, error)
	IncrementSequence(ctx context.Context, allocated uint32) error
}

// ContextStore persists the creation context bridging the two phases of a
// creation run. The slot holds at most one context at a time.
type ContextStore interface {
	SaveContext(ctx context.Context, pending *factory.Context) error
	TakeContext(ctx context.Context) (*factory.Context, error)
}

// Store defines the interface for factory state persistence
type Store interface {
	ConfigStore
	SequenceStore
	ContextStore
}

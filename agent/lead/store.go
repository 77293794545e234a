package lead

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Fetch only; Get mints a default record
	// instead so ordinary turn processing never sees "not found".
	ErrNotFound = errors.New("lead memory not found")

	// ErrVersionConflict marks a lost compare-and-swap race: another writer
	// saved the document since this record was read.
	ErrVersionConflict = errors.New("lead memory version conflict")

	ErrInvalidSession = errors.New("session id is empty")
	ErrNilMemory      = errors.New("lead memory is nil")
)

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `envconfig:"DRIVER" split_words:"true" default:"mongo"`
}

// Store persists one Memory document per session.
type Store interface {
	// Get returns the stored record, or a freshly minted default record
	// when none exists. It fails only on storage-level errors.
	Get(ctx context.Context, sessionID string) (*Memory, error)

	// Fetch is the explicit existence check used by inspection endpoints;
	// it returns ErrNotFound when no record exists.
	Fetch(ctx context.Context, sessionID string) (*Memory, error)

	// Save upserts the record with compare-and-swap on Version. A record
	// with Version 0 is inserted (CreatedAt stamped once); otherwise the
	// stored document is replaced only if its version still matches, and
	// ErrVersionConflict is returned on a lost race. LastUpdated is
	// stamped on every successful save and Version is incremented.
	Save(ctx context.Context, m *Memory) error

	// Delete removes the record and reports whether one existed.
	Delete(ctx context.Context, sessionID string) (bool, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

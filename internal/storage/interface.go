package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotInitialized is returned by Load when the backend has never been initialized.
	ErrNotInitialized = errors.New("storage not initialized, run 'stride init' first")
	// ErrNotLoaded is returned when a provider is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// Provider is a persistent key-value backend. Values are opaque byte
// documents; keys missing from the backend are absent from Get results.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Entries
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)
	// PutAll writes every entry or none of them.
	PutAll(ctx context.Context, entries map[string][]byte) error

	// Utils
	GetConfigPath() string
}

// Revisioned is implemented by providers that keep a write counter. The
// counter increases on every PutAll, including those from other processes.
type Revisioned interface {
	Revision(ctx context.Context) (int64, error)
}

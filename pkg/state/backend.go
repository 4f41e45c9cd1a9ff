package state

import (
	"context"
	"errors"
)

var (
	// ErrCorruptSnapshot marks a stored value that cannot be read back.
	ErrCorruptSnapshot = errors.New("state: corrupt snapshot")
	// ErrClosed is returned by backends used after Close.
	ErrClosed = errors.New("state: backend closed")
)

// Backend stores raw values by key.
type Backend interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

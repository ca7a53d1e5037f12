// Package storage defines the durable key-value contract the data
// layer persists through, a JSON serialization adapter over it, and
// the available backends (memory, file, redis).
package storage

import (
	"context"
	"fmt"
)

// KV is the minimal async string-keyed store contract. Absence is not
// an error: Get reports it through its bool, MultiGet omits the key.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	ListKeys(ctx context.Context) ([]string, error)
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)
	MultiSet(ctx context.Context, pairs map[string]string) error
}

// StorageError normalizes backend I/O failures and decode failures
// into one signal carrying the attempted operation, the key when
// applicable, and the originating cause.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op, key string, err error) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err}
}

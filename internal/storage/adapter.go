package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// The adapter functions convert structured values to and from the
// JSON text the KV backends persist. Backend failures and decode
// failures both surface as *StorageError.

// GetRaw returns the stored JSON for key, nil when absent. The blob is
// checked for well-formedness so callers can validate its shape
// without re-handling syntax errors.
func GetRaw(ctx context.Context, kv KV, key string) (json.RawMessage, error) {
	value, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	if !found {
		return nil, nil
	}
	raw := json.RawMessage(value)
	if !json.Valid(raw) {
		return nil, storageErr("get", key, fmt.Errorf("malformed JSON value"))
	}
	return raw, nil
}

// GetJSON decodes the value stored at key into T, returning nil when
// the key is absent.
func GetJSON[T any](ctx context.Context, kv KV, key string) (*T, error) {
	value, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, storageErr("get", key, err)
	}
	if !found {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return nil, storageErr("get", key, err)
	}
	return &v, nil
}

// SetJSON serializes v and stores it at key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return storageErr("set", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

// SetRaw stores an already-serialized JSON blob at key.
func SetRaw(ctx context.Context, kv KV, key string, raw json.RawMessage) error {
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return storageErr("set", key, err)
	}
	return nil
}

// Remove deletes key from the store.
func Remove(ctx context.Context, kv KV, key string) error {
	if err := kv.Remove(ctx, key); err != nil {
		return storageErr("remove", key, err)
	}
	return nil
}

// Clear wipes the entire store.
func Clear(ctx context.Context, kv KV) error {
	if err := kv.Clear(ctx); err != nil {
		return storageErr("clear", "", err)
	}
	return nil
}

// ListKeys returns every stored key.
func ListKeys(ctx context.Context, kv KV) ([]string, error) {
	keys, err := kv.ListKeys(ctx)
	if err != nil {
		return nil, storageErr("listKeys", "", err)
	}
	return keys, nil
}

// MultiGetRaw fetches several keys at once. Every requested key is
// present in the result; an absent key or a key holding malformed JSON
// maps to nil without failing the batch.
func MultiGetRaw(ctx context.Context, kv KV, keys []string) (map[string]json.RawMessage, error) {
	values, err := kv.MultiGet(ctx, keys)
	if err != nil {
		return nil, storageErr("multiGet", "", err)
	}
	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		value, found := values[key]
		if !found {
			result[key] = nil
			continue
		}
		raw := json.RawMessage(value)
		if !json.Valid(raw) {
			result[key] = nil
			continue
		}
		result[key] = raw
	}
	return result, nil
}

// MultiSetJSON serializes and stores several key-value pairs at once.
func MultiSetJSON(ctx context.Context, kv KV, pairs map[string]any) error {
	encoded := make(map[string]string, len(pairs))
	for key, v := range pairs {
		data, err := json.Marshal(v)
		if err != nil {
			return storageErr("multiSet", key, err)
		}
		encoded[key] = string(data)
	}
	if err := kv.MultiSet(ctx, encoded); err != nil {
		return storageErr("multiSet", "", err)
	}
	return nil
}

// Info describes the current store contents.
type Info struct {
	TotalKeys     int      `json:"totalKeys"`
	Keys          []string `json:"keys"`
	EstimatedSize int      `json:"estimatedSize"` // bytes of keys + serialized values
}

// GetInfo sums key and value sizes across the store.
func GetInfo(ctx context.Context, kv KV) (*Info, error) {
	keys, err := ListKeys(ctx, kv)
	if err != nil {
		return nil, err
	}
	values, err := kv.MultiGet(ctx, keys)
	if err != nil {
		return nil, storageErr("multiGet", "", err)
	}
	size := 0
	for _, key := range keys {
		size += len(key)
		size += len(values[key])
	}
	return &Info{TotalKeys: len(keys), Keys: keys, EstimatedSize: size}, nil
}

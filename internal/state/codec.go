package state

import (
	"context"
	"encoding/json"
	"strings"
)

func load(ctx context.Context, store Store, key string, v any) (bool, error) {
	if store == nil {
		return false, &StorageError{Op: "get", Key: key, Err: errNoStore}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, &StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, &StorageError{Op: "decode", Key: key, Err: err}
	}
	return true, nil
}

func save(ctx context.Context, store Store, key string, v any) error {
	if store == nil {
		return &StorageError{Op: "set", Key: key, Err: errNoStore}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return &StorageError{Op: "encode", Key: key, Err: err}
	}
	if err := store.Set(ctx, key, string(payload)); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

type record struct {
	key   string
	value any
}

// saveBatch writes every record in one atomic batch.
func saveBatch(ctx context.Context, batcher Batcher, records ...record) error {
	if len(records) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec.value)
		if err != nil {
			return &StorageError{Op: "encode", Key: rec.key, Err: err}
		}
		entries = append(entries, Entry{Key: rec.key, Value: string(payload)})
	}
	if err := batcher.SetBatch(ctx, entries); err != nil {
		return &StorageError{Op: "batch", Key: entries[0].Key, Err: err}
	}
	return nil
}

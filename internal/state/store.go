package state

//go:generate mockgen -source store.go -destination store_mock.go -package state

import "context"

// Store is the persistent key-value backend shared by every keyspace of the
// registry. Implementations live in the sqlite, postgres and leveldb
// subpackages.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

type Entry struct {
	Key   string
	Value string
}

// Batcher is implemented by stores that can apply several writes atomically.
// Writes spanning more than one key go through it when available.
type Batcher interface {
	SetBatch(ctx context.Context, entries []Entry) error
}

package leveldb

import (
	"context"
	"errors"

	"scoria/internal/state"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Store is a goleveldb-backed state.Store. An empty path opens an in-memory
// database that is discarded on Close.
type Store struct {
	db *leveldb.DB
}

func New(path string) (*Store, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(value), true, nil
}

// Set writes synchronously so an acknowledged update survives a crash.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Put([]byte(key), []byte(value), &opt.WriteOptions{Sync: true})
}

func (s *Store) SetBatch(ctx context.Context, entries []state.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, entry := range entries {
		batch.Put([]byte(entry.Key), []byte(entry.Value))
	}
	return s.db.Write(batch, &opt.WriteOptions{Sync: true})
}

func (s *Store) Close() error {
	return s.db.Close()
}

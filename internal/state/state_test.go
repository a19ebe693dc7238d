package state

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]string
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.items[key]
	return val, ok, nil
}

func (m *memoryStore) Set(ctx context.Context, key, value string) error {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string]string)
	}
	m.items[key] = value
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

func TestOwnerRoundTrip(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	if err := Initialize(ctx, store, "creator"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	owner, err := LoadOwner(ctx, store)
	if err != nil {
		t.Fatalf("load owner: %v", err)
	}
	if owner != "creator" {
		t.Fatalf("unexpected owner: %q", owner)
	}
	if store.items[StateKey] != `{"owner":"creator"}` {
		t.Fatalf("unexpected owner record: %s", store.items[StateKey])
	}
}

func TestLoadOwnerUninitialized(t *testing.T) {
	_, err := LoadOwner(context.Background(), &memoryStore{})
	if !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}

func TestLoadOwnerInvalidRecord(t *testing.T) {
	store := &memoryStore{items: map[string]string{StateKey: "{"}}
	_, err := LoadOwner(context.Background(), store)
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "decode" {
		t.Fatalf("expected decode storage error, got %#v", err)
	}
}

func TestNilStore(t *testing.T) {
	if _, err := LoadOwner(context.Background(), nil); !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if err := SaveScore(context.Background(), nil, "alice", 1); !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}

func TestScoreRoundTrip(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	for _, score := range []int32{0, 3, -5, math.MaxInt32, math.MinInt32} {
		if err := SaveScore(ctx, store, "alice", score); err != nil {
			t.Fatalf("save score: %v", err)
		}
		got, ok, err := LoadScore(ctx, store, "alice")
		if err != nil {
			t.Fatalf("load score: %v", err)
		}
		if !ok || got != score {
			t.Fatalf("expected %d, got %d (ok=%v)", score, got, ok)
		}
	}
	if len(store.items) != 1 {
		t.Fatalf("expected a single score entry, got %d keys", len(store.items))
	}
}

func TestLoadScoreDistinguishesZeroFromAbsent(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	_, ok, err := LoadScore(ctx, store, "nobody")
	if err != nil {
		t.Fatalf("load score: %v", err)
	}
	if ok {
		t.Fatalf("expected no score")
	}
	if err := SaveScore(ctx, store, "nobody", 0); err != nil {
		t.Fatalf("save score: %v", err)
	}
	score, ok, err := LoadScore(ctx, store, "nobody")
	if err != nil {
		t.Fatalf("load score: %v", err)
	}
	if !ok || score != 0 {
		t.Fatalf("expected a zero score to be present")
	}
}

func TestScoreKeyIsByteExact(t *testing.T) {
	if ScoreKey("Alice") == ScoreKey("alice") {
		t.Fatalf("expected case-sensitive keys")
	}
	if ScoreKey("alice") != "scores:alice" {
		t.Fatalf("unexpected key: %s", ScoreKey("alice"))
	}
}

func TestStoreFailureIsWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	boom := errors.New("disk full")
	store.EXPECT().Set(gomock.Any(), ScoreKey("alice"), "7").Return(boom)

	err := SaveScore(context.Background(), store, "alice", 7)
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected underlying error to be preserved, got %v", err)
	}
}

func TestContractVersion(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	if _, ok, err := GetContractVersion(ctx, store); err != nil || ok {
		t.Fatalf("expected no contract info, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := AssertContract(ctx, store, "scoria"); err != nil || ok {
		t.Fatalf("expected empty store to pass, got ok=%v err=%v", ok, err)
	}
	if err := SetContractVersion(ctx, store, "scoria", "1"); err != nil {
		t.Fatalf("set contract version: %v", err)
	}
	info, ok, err := AssertContract(ctx, store, "scoria")
	if err != nil || !ok {
		t.Fatalf("assert contract: ok=%v err=%v", ok, err)
	}
	if info != (ContractVersion{Contract: "scoria", Version: "1"}) {
		t.Fatalf("unexpected contract info: %#v", info)
	}
	if _, _, err := AssertContract(ctx, store, "other"); err == nil {
		t.Fatalf("expected contract mismatch error")
	}
}

type batchStore struct {
	memoryStore
	batches int
	err     error
}

func (b *batchStore) SetBatch(ctx context.Context, entries []Entry) error {
	b.batches++
	if b.err != nil {
		return b.err
	}
	for _, entry := range entries {
		if err := b.Set(ctx, entry.Key, entry.Value); err != nil {
			return err
		}
	}
	return nil
}

func TestInitializeContractUsesBatch(t *testing.T) {
	store := &batchStore{}
	ctx := context.Background()
	if err := InitializeContract(ctx, store, "creator", ContractVersion{Contract: "scoria", Version: "1"}); err != nil {
		t.Fatalf("initialize contract: %v", err)
	}
	if store.batches != 1 {
		t.Fatalf("expected one batch write, got %d", store.batches)
	}
	owner, err := LoadOwner(ctx, store)
	if err != nil || owner != "creator" {
		t.Fatalf("unexpected owner %q (err=%v)", owner, err)
	}
	info, ok, err := GetContractVersion(ctx, store)
	if err != nil || !ok || info.Contract != "scoria" {
		t.Fatalf("unexpected contract info %#v (ok=%v err=%v)", info, ok, err)
	}
}

func TestInitializeContractSequentialFallback(t *testing.T) {
	store := &memoryStore{}
	ctx := context.Background()
	if err := InitializeContract(ctx, store, "creator", ContractVersion{Contract: "scoria", Version: "1"}); err != nil {
		t.Fatalf("initialize contract: %v", err)
	}
	if len(store.items) != 2 {
		t.Fatalf("expected owner and contract info, got %v", store.items)
	}
	owner, err := LoadOwner(ctx, store)
	if err != nil || owner != "creator" {
		t.Fatalf("unexpected owner %q (err=%v)", owner, err)
	}
}

func TestInitializeContractBatchFailure(t *testing.T) {
	boom := errors.New("disk full")
	store := &batchStore{err: boom}
	ctx := context.Background()

	err := InitializeContract(ctx, store, "creator", ContractVersion{Contract: "scoria", Version: "1"})
	if !errors.Is(err, ErrStorageFailure) || !errors.Is(err, boom) {
		t.Fatalf("expected storage failure wrapping disk full, got %v", err)
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "batch" {
		t.Fatalf("expected batch storage error, got %#v", err)
	}
	if _, err := LoadOwner(ctx, store); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected no owner after failed batch, got %v", err)
	}
	if _, ok, _ := GetContractVersion(ctx, store); ok {
		t.Fatalf("expected no contract info after failed batch")
	}
}

func TestInitializeContractOwnerWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	store.EXPECT().Set(gomock.Any(), StateKey, gomock.Any()).Return(errors.New("disk full"))

	err := InitializeContract(context.Background(), store, "creator", ContractVersion{Contract: "scoria", Version: "1"})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected storage failure, got %v", err)
	}
}

func TestInitializeContractInfoWriteFailureIsRetryable(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	gomock.InOrder(
		store.EXPECT().Set(gomock.Any(), StateKey, `{"owner":"creator"}`).Return(nil),
		store.EXPECT().Set(gomock.Any(), ContractInfoKey, gomock.Any()).Return(errors.New("disk full")),
		store.EXPECT().Get(gomock.Any(), ContractInfoKey).Return("", false, nil),
	)
	ctx := context.Background()

	err := InitializeContract(ctx, store, "creator", ContractVersion{Contract: "scoria", Version: "1"})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	// Contract info is the last write, so the store does not read as
	// instantiated and a retry is allowed.
	if _, ok, err := GetContractVersion(ctx, store); err != nil || ok {
		t.Fatalf("expected no contract info, got ok=%v err=%v", ok, err)
	}
}

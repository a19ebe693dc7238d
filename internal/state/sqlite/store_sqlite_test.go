package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"scoria/internal/state"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "key", "value"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "key", "other"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	val, ok, err := store.Get(ctx, "key")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || val != "other" {
		t.Fatalf("unexpected value: %v (ok=%v)", val, ok)
	}
	_, ok, err = store.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}
}

func TestStorePersistsOwnerAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scoria.db")
	ctx := context.Background()

	store, err := New(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := state.Initialize(ctx, store, "creator"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := state.SaveScore(ctx, store, "creator", -42); err != nil {
		t.Fatalf("save score: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()
	owner, err := state.LoadOwner(ctx, reopened)
	if err != nil {
		t.Fatalf("load owner: %v", err)
	}
	if owner != "creator" {
		t.Fatalf("unexpected owner: %q", owner)
	}
	score, ok, err := state.LoadScore(ctx, reopened, "creator")
	if err != nil || !ok || score != -42 {
		t.Fatalf("unexpected score %d (ok=%v err=%v)", score, ok, err)
	}
}

func TestStoreClosedSurfacesError(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	_ = store.Close()
	_, err = state.LoadOwner(context.Background(), store)
	if !errors.Is(err, state.ErrStorageFailure) {
		t.Fatalf("expected storage failure, got %v", err)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestStoreSetBatch(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	err = state.InitializeContract(ctx, store, "creator", state.ContractVersion{Contract: "scoria", Version: "1"})
	if err != nil {
		t.Fatalf("initialize contract: %v", err)
	}
	info, ok, err := state.GetContractVersion(ctx, store)
	if err != nil || !ok || info.Version != "1" {
		t.Fatalf("unexpected contract info %#v (ok=%v err=%v)", info, ok, err)
	}
	owner, err := state.LoadOwner(ctx, store)
	if err != nil || owner != "creator" {
		t.Fatalf("unexpected owner %q (err=%v)", owner, err)
	}
}

package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scoria/internal/client"
	"scoria/internal/config"
	"scoria/internal/registry"
	"scoria/internal/state"
	"scoria/internal/state/sqlite"
	"scoria/internal/tx"

	"go.uber.org/zap"
)

const ownerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func memoryConfig(t *testing.T) *config.Config {
	return loadConfig(t, "state:\n  backend: leveldb\n")
}

func TestHandlerServesRegistryAndMetrics(t *testing.T) {
	a, err := New(memoryConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	server := httptest.NewServer(a.Handler())
	defer server.Close()

	signer, err := tx.NewSigner(ownerKey)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	c := client.New(server.URL, 2*time.Second, signer, a.cfg.Server.ChainID)
	ctx := context.Background()
	if _, err := c.Instantiate(ctx); err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	if _, err := c.UpdateScore(ctx, signer.Address().Hex(), 9999999); err != nil {
		t.Fatalf("update: %v", err)
	}
	score, err := c.GetScore(ctx, signer.Address().Hex())
	if err != nil || score != 9999999 {
		t.Fatalf("expected 9999999, got %d (err=%v)", score, err)
	}
	if _, err := c.GetScore(ctx, "0x0000000000000000000000000000000000000001"); !errors.Is(err, registry.ErrAddressNotFound) {
		t.Fatalf("expected address not found, got %v", err)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
	for _, want := range []string{"scoria_instantiations_total 1", "scoria_scores_updated_total 1", "scoria_queries_not_found_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestMetricsAndEventsCanBeDisabled(t *testing.T) {
	cfg := loadConfig(t, "state:\n  backend: leveldb\nmetrics:\n  enabled: false\nevents:\n  enabled: false\n")
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()
	server := httptest.NewServer(a.Handler())
	defer server.Close()

	for _, path := range []string{"/metrics", "/events"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, resp.StatusCode)
		}
	}
}

func TestNewRejectsForeignStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoria.db")
	store, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := state.SetContractVersion(context.Background(), store, "other", "1"); err != nil {
		t.Fatalf("seed contract info: %v", err)
	}
	store.Close()

	cfg := loadConfig(t, "state:\n  backend: sqlite\n  sqlite_path: "+path+"\n")
	if _, err := New(cfg, zap.NewNop()); err == nil || !strings.Contains(err.Error(), "other") {
		t.Fatalf("expected foreign contract error, got %v", err)
	}
}

func TestNewRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoria.db")
	store, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := state.SetContractVersion(context.Background(), store, registry.ContractName, "0"); err != nil {
		t.Fatalf("seed contract info: %v", err)
	}
	store.Close()

	cfg := loadConfig(t, "state:\n  backend: sqlite\n  sqlite_path: "+path+"\n")
	if _, err := New(cfg, zap.NewNop()); err == nil || !strings.Contains(err.Error(), "version 0") {
		t.Fatalf("expected version mismatch error, got %v", err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	if _, err := openStore(config.StateConfig{Backend: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	a, err := New(memoryConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.Serve(ctx, ln)
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("healthz status %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became ready: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

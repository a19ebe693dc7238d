// Package host delivers transactions to the registry over HTTP. It derives
// the caller from the transaction signature, enforces nonces, serializes
// every call against the store and publishes events for applied writes.
package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"scoria/internal/events"
	"scoria/internal/metrics"
	"scoria/internal/registry"
	"scoria/internal/state"
	"scoria/internal/tx"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Options struct {
	ChainID      int64
	MaxBodyBytes int64
	Hub          *events.Hub
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

type Server struct {
	registry *registry.Registry
	store    state.Store
	nonces   *NonceTracker
	hub      *events.Hub
	metrics  *metrics.Metrics
	log      *zap.Logger
	chainID  int64
	maxBody  int64
	now      func() time.Time

	mu sync.Mutex
}

// TxResult is returned for every applied transaction.
type TxResult struct {
	TxID       string               `json:"tx_id"`
	Sender     string               `json:"sender"`
	Attributes []registry.Attribute `json:"attributes"`
}

// ContractInfo describes the instantiated registry.
type ContractInfo struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
	Owner    string `json:"owner"`
}

func NewServer(reg *registry.Registry, store state.Store, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Server{
		registry: reg,
		store:    store,
		nonces:   NewNonceTracker(store),
		hub:      opts.Hub,
		metrics:  m,
		log:      log,
		chainID:  opts.ChainID,
		maxBody:  opts.MaxBodyBytes,
		now:      time.Now,
	}
}

// Register mounts the registry endpoints on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /instantiate", s.handleInstantiate)
	mux.HandleFunc("POST /execute", s.handleExecute)
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /scores/{address}", s.handleGetScore)
	mux.HandleFunc("GET /contract", s.handleContract)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (s *Server) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	txID := uuid.NewString()
	var signed tx.SignedTx
	if err := s.decode(w, r, &signed); err != nil {
		s.reject(w, txID, "instantiate", err)
		return
	}
	sender, err := tx.Recover(tx.InstantiateAction(), signed.Nonce, s.chainID, signed.Signature)
	if err != nil {
		s.reject(w, txID, "instantiate", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()
	if _, ok, err := state.GetContractVersion(ctx, s.store); err != nil {
		s.fail(w, txID, "instantiate", sender, err)
		return
	} else if ok {
		s.fail(w, txID, "instantiate", sender, ErrAlreadyInstantiated)
		return
	}
	// Nonces are host state; a call refused by the registry still burns its nonce.
	if err := s.nonces.Use(ctx, sender, signed.Nonce); err != nil {
		s.fail(w, txID, "instantiate", sender, err)
		return
	}
	resp, err := s.registry.Instantiate(ctx, registry.MessageInfo{Sender: state.Identifier(sender.Hex())})
	if err != nil {
		s.fail(w, txID, "instantiate", sender, err)
		return
	}
	s.applied(w, txID, "instantiate", sender, resp)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	txID := uuid.NewString()
	var signed tx.SignedTx
	if err := s.decode(w, r, &signed); err != nil {
		s.reject(w, txID, "execute", err)
		return
	}
	var msg registry.ExecuteMsg
	if err := decodeStrict(signed.Msg, &msg); err != nil {
		s.reject(w, txID, "execute", err)
		return
	}
	action, err := tx.ExecuteAction(msg)
	if err != nil {
		s.reject(w, txID, "execute", err)
		return
	}
	sender, err := tx.Recover(action, signed.Nonce, s.chainID, signed.Signature)
	if err != nil {
		s.reject(w, txID, "execute", err)
		return
	}
	if msg.UpdateScore != nil {
		target, err := canonicalAddress(msg.UpdateScore.Address.String())
		if err != nil {
			s.reject(w, txID, "execute", err)
			return
		}
		msg.UpdateScore.Address = target
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()
	// Nonces are host state; a call refused by the registry still burns its nonce.
	if err := s.nonces.Use(ctx, sender, signed.Nonce); err != nil {
		s.fail(w, txID, "execute", sender, err)
		return
	}
	resp, err := s.registry.Execute(ctx, registry.MessageInfo{Sender: state.Identifier(sender.Hex())}, msg)
	if err != nil {
		s.fail(w, txID, "execute", sender, err)
		return
	}
	s.applied(w, txID, "execute", sender, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var msg registry.QueryMsg
	if err := s.decode(w, r, &msg); err != nil {
		s.writeError(w, err)
		return
	}
	if msg.GetScore != nil {
		target, err := canonicalAddress(msg.GetScore.Address.String())
		if err != nil {
			s.writeError(w, err)
			return
		}
		msg.GetScore.Address = target
	}
	s.mu.Lock()
	resp, err := s.registry.Query(r.Context(), msg)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	target, err := canonicalAddress(r.PathValue("address"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	score, err := s.registry.QueryScore(r.Context(), target)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registry.ScoreResponse{Score: score})
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := r.Context()
	info, ok, err := state.GetContractVersion(ctx, s.store)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, registry.ErrUninitialized)
		return
	}
	owner, err := s.registry.Owner(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ContractInfo{Contract: info.Contract, Version: info.Version, Owner: owner.String()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := r.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func decodeStrict(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: msg is required", ErrBadRequest)
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: msg: %v", ErrBadRequest, err)
	}
	return nil
}

// canonicalAddress validates a hex address and returns its checksummed form.
func canonicalAddress(raw string) (state.Identifier, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("%w: invalid address %q", ErrBadRequest, raw)
	}
	return state.Identifier(common.HexToAddress(trimmed).Hex()), nil
}

func (s *Server) applied(w http.ResponseWriter, txID, method string, sender common.Address, resp registry.Response) {
	s.log.Info("tx applied",
		zap.String("tx_id", txID),
		zap.String("method", method),
		zap.String("sender", sender.Hex()),
		zap.Any("attributes", resp.Attributes),
	)
	s.hub.Publish(events.Event{
		TxID:       txID,
		Sender:     sender.Hex(),
		Attributes: resp.Attributes,
		Time:       s.now().UTC(),
	})
	writeJSON(w, http.StatusOK, TxResult{TxID: txID, Sender: sender.Hex(), Attributes: resp.Attributes})
}

// reject handles transactions refused before they reach the registry.
func (s *Server) reject(w http.ResponseWriter, txID, method string, err error) {
	s.metrics.TxRejected.Inc()
	s.log.Warn("tx rejected", zap.String("tx_id", txID), zap.String("method", method), zap.Error(err))
	s.writeError(w, err)
}

func (s *Server) fail(w http.ResponseWriter, txID, method string, sender common.Address, err error) {
	if errors.Is(err, ErrStaleNonce) || errors.Is(err, ErrAlreadyInstantiated) {
		s.metrics.TxRejected.Inc()
	}
	s.log.Warn("tx failed",
		zap.String("tx_id", txID),
		zap.String("method", method),
		zap.String("sender", sender.Hex()),
		zap.Error(err),
	)
	s.writeError(w, err)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, status := Classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("code", code), zap.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorBody{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

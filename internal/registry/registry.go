// Package registry holds the state transitions of the score registry: owner
// assignment at instantiation, the owner-only upsert and the open query.
//
// Calls are expected to be serialized by the host; the registry itself takes
// no locks and performs at most one store write per call.
package registry

import (
	"context"
	"errors"
	"strconv"

	"scoria/internal/metrics"
	"scoria/internal/state"

	"go.uber.org/zap"
)

const (
	ContractName    = "scoria"
	ContractVersion = "1"
)

type Registry struct {
	store   state.Store
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(store state.Store, log *zap.Logger, m *metrics.Metrics) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Registry{store: store, log: log, metrics: m}
}

// Instantiate tags the store with the contract name/version and makes the
// sender the owner.
func (r *Registry) Instantiate(ctx context.Context, info MessageInfo) (Response, error) {
	version := state.ContractVersion{Contract: ContractName, Version: ContractVersion}
	if err := state.InitializeContract(ctx, r.store, info.Sender, version); err != nil {
		return Response{}, r.fail(err)
	}
	r.metrics.Instantiations.Inc()
	r.log.Info("registry instantiated", zap.String("owner", info.Sender.String()))
	return NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("owner", info.Sender.String()), nil
}

func (r *Registry) Execute(ctx context.Context, info MessageInfo, msg ExecuteMsg) (Response, error) {
	switch {
	case msg.UpdateScore != nil:
		return r.UpdateScore(ctx, info.Sender, msg.UpdateScore.Address, msg.UpdateScore.Score)
	default:
		return Response{}, ErrUnknownMessage
	}
}

// UpdateScore sets the score of target. Only the owner may call it; any
// int32 is accepted and an existing score is overwritten.
func (r *Registry) UpdateScore(ctx context.Context, caller, target state.Identifier, score int32) (Response, error) {
	owner, err := state.LoadOwner(ctx, r.store)
	if err != nil {
		return Response{}, r.fail(err)
	}
	if caller != owner {
		r.metrics.UpdatesRejected.Inc()
		r.log.Warn("unauthorized score update",
			zap.String("caller", caller.String()),
			zap.String("address", target.String()),
		)
		return Response{}, ErrUnauthorized
	}
	if err := state.SaveScore(ctx, r.store, target, score); err != nil {
		return Response{}, r.fail(err)
	}
	r.metrics.ScoresUpdated.Inc()
	return NewResponse().
		AddAttribute("method", "try_update_score").
		AddAttribute("address", target.String()).
		AddAttribute("score", strconv.FormatInt(int64(score), 10)), nil
}

func (r *Registry) Query(ctx context.Context, msg QueryMsg) (ScoreResponse, error) {
	switch {
	case msg.GetScore != nil:
		score, err := r.QueryScore(ctx, msg.GetScore.Address)
		if err != nil {
			return ScoreResponse{}, err
		}
		return ScoreResponse{Score: score}, nil
	default:
		return ScoreResponse{}, ErrUnknownMessage
	}
}

// QueryScore returns the stored score of target. It never consults the owner.
func (r *Registry) QueryScore(ctx context.Context, target state.Identifier) (int32, error) {
	score, ok, err := state.LoadScore(ctx, r.store, target)
	if err != nil {
		return 0, r.fail(err)
	}
	if !ok {
		r.metrics.QueriesNotFound.Inc()
		return 0, ErrAddressNotFound
	}
	r.metrics.QueriesServed.Inc()
	return score, nil
}

// Owner exposes the owner record for the host's contract info endpoint.
func (r *Registry) Owner(ctx context.Context) (state.Identifier, error) {
	owner, err := state.LoadOwner(ctx, r.store)
	if err != nil {
		return "", r.fail(err)
	}
	return owner, nil
}

func (r *Registry) fail(err error) error {
	if errors.Is(err, state.ErrStorageFailure) {
		r.metrics.StorageFailures.Inc()
		r.log.Error("storage failure", zap.Error(err))
	}
	return err
}

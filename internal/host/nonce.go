package host

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"scoria/internal/state"

	"github.com/ethereum/go-ethereum/common"
)

const noncePrefix = "host:nonce:"

// NonceTracker enforces strictly increasing nonces per sender. Nonces live
// in the same store as the registry under their own prefix.
type NonceTracker struct {
	store state.Store
}

func NewNonceTracker(store state.Store) *NonceTracker {
	return &NonceTracker{store: store}
}

func nonceKey(addr common.Address) string {
	return noncePrefix + strings.ToLower(addr.Hex())
}

func (n *NonceTracker) Last(ctx context.Context, addr common.Address) (uint64, error) {
	key := nonceKey(addr)
	raw, ok, err := n.store.Get(ctx, key)
	if err != nil {
		return 0, &state.StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return 0, nil
	}
	last, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &state.StorageError{Op: "decode", Key: key, Err: fmt.Errorf("invalid stored nonce %q: %w", raw, err)}
	}
	return last, nil
}

// Use consumes nonce for addr, failing with ErrStaleNonce unless it is
// greater than every nonce seen before.
func (n *NonceTracker) Use(ctx context.Context, addr common.Address, nonce uint64) error {
	last, err := n.Last(ctx, addr)
	if err != nil {
		return err
	}
	if nonce <= last {
		return fmt.Errorf("%w: got %d, last %d", ErrStaleNonce, nonce, last)
	}
	key := nonceKey(addr)
	if err := n.store.Set(ctx, key, strconv.FormatUint(nonce, 10)); err != nil {
		return &state.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

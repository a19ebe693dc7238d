package tx

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Recover returns the address that signed action at nonce.
func Recover(action Action, nonce uint64, chainID int64, sig Signature) (common.Address, error) {
	digest, err := Digest(action, nonce, chainID)
	if err != nil {
		return common.Address{}, err
	}
	raw, err := signatureToBytes(sig)
	if err != nil {
		return common.Address{}, err
	}
	pub, err := crypto.SigToPub(digest, raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func signatureToBytes(sig Signature) ([]byte, error) {
	r, err := decodeWord(sig.R)
	if err != nil {
		return nil, fmt.Errorf("%w: r: %v", ErrInvalidSignature, err)
	}
	s, err := decodeWord(sig.S)
	if err != nil {
		return nil, fmt.Errorf("%w: s: %v", ErrInvalidSignature, err)
	}
	if sig.V != 27 && sig.V != 28 {
		return nil, fmt.Errorf("%w: v must be 27 or 28, got %d", ErrInvalidSignature, sig.V)
	}
	out := make([]byte, 0, crypto.SignatureLength)
	out = append(out, r...)
	out = append(out, s...)
	return append(out, byte(sig.V-27)), nil
}

func decodeWord(hex string) ([]byte, error) {
	b, err := hexutil.Decode(hex)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	return b, nil
}

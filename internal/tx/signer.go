package tx

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

type Signer struct {
	privKey *ecdsa.PrivateKey
	address common.Address
}

func NewSigner(hexKey string) (*Signer, error) {
	clean := strings.TrimSpace(hexKey)
	if clean == "" {
		return nil, errors.New("private key is required")
	}
	clean = strings.TrimPrefix(clean, "0x")
	key, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, err
	}
	return &Signer{privKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// GenerateSigner creates a fresh key and returns it with its hex encoding.
func GenerateSigner() (*Signer, string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, "", err
	}
	signer := &Signer{privKey: key, address: crypto.PubkeyToAddress(key.PublicKey)}
	return signer, hexutil.Encode(crypto.FromECDSA(key)), nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) Sign(action Action, nonce uint64, chainID int64) (Signature, error) {
	digest, err := Digest(action, nonce, chainID)
	if err != nil {
		return Signature{}, err
	}
	sig, err := crypto.Sign(digest, s.privKey)
	if err != nil {
		return Signature{}, err
	}
	return signatureFromBytes(sig)
}

// Digest is the EIP-712 hash signed for an action at a given nonce.
func Digest(action Action, nonce uint64, chainID int64) ([]byte, error) {
	payload, err := EncodeAction(action)
	if err != nil {
		return nil, err
	}
	return typedDataHash(action.Type, actionHash(payload, nonce), chainID)
}

func actionHash(action []byte, nonce uint64) []byte {
	buf := bytes.NewBuffer(append([]byte(nil), action...))
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	buf.Write(nonceBytes[:])
	return crypto.Keccak256(buf.Bytes())
}

func typedDataHash(actionType string, actionHash []byte, chainID int64) ([]byte, error) {
	typedData := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Transaction": {
				{Name: "action", Type: "string"},
				{Name: "connectionId", Type: "bytes32"},
			},
		},
		PrimaryType: "Transaction",
		Domain: apitypes.TypedDataDomain{
			Name:              "Scoria",
			Version:           "1",
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: "0x0000000000000000000000000000000000000000",
		},
		Message: apitypes.TypedDataMessage{
			"action":       actionType,
			"connectionId": hexutil.Encode(actionHash),
		},
	}
	domainHash, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, err
	}
	messageHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256([]byte("\x19\x01"), domainHash, messageHash), nil
}

func signatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	return Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: int(sig[64]) + 27,
	}, nil
}

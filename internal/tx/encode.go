package tx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeAction produces the canonical msgpack form of an action. Field order
// is fixed so signer and verifier hash identical bytes.
func EncodeAction(action Action) ([]byte, error) {
	if action.Type == "" {
		return nil, errors.New("action type is required")
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	switch action.Type {
	case ActionInstantiate:
		if err := enc.EncodeMapLen(1); err != nil {
			return nil, err
		}
		if err := encodeType(enc, action.Type); err != nil {
			return nil, err
		}
	case ActionUpdateScore:
		if action.Address == "" {
			return nil, errors.New("action address is required")
		}
		if err := enc.EncodeMapLen(3); err != nil {
			return nil, err
		}
		if err := encodeType(enc, action.Type); err != nil {
			return nil, err
		}
		if err := enc.EncodeString("address"); err != nil {
			return nil, err
		}
		if err := enc.EncodeString(action.Address); err != nil {
			return nil, err
		}
		if err := enc.EncodeString("score"); err != nil {
			return nil, err
		}
		if err := enc.EncodeInt(int64(action.Score)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown action type %q", action.Type)
	}
	return buf.Bytes(), nil
}

func encodeType(enc *msgpack.Encoder, typ string) error {
	if err := enc.EncodeString("type"); err != nil {
		return err
	}
	return enc.EncodeString(typ)
}

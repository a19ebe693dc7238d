package tx

import "encoding/json"

const (
	ActionInstantiate = "instantiate"
	ActionUpdateScore = "update_score"
)

// Action is the part of a transaction covered by the signature.
type Action struct {
	Type    string
	Address string
	Score   int32
}

type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
	V int    `json:"v"`
}

// SignedTx is the body of /instantiate and /execute requests. Msg holds the
// JSON execute message, or {} for instantiation.
type SignedTx struct {
	Msg       json.RawMessage `json:"msg"`
	Nonce     uint64          `json:"nonce"`
	Signature Signature       `json:"signature"`
}

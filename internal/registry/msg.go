package registry

import "scoria/internal/state"

// MessageInfo carries what the host knows about the immediate caller.
type MessageInfo struct {
	Sender state.Identifier
}

// ExecuteMsg is the write envelope, encoded as {"update_score": {...}}.
// Exactly one variant is set.
type ExecuteMsg struct {
	UpdateScore *UpdateScoreMsg `json:"update_score,omitempty"`
}

type UpdateScoreMsg struct {
	Address state.Identifier `json:"address"`
	Score   int32            `json:"score"`
}

// QueryMsg is the read envelope, encoded as {"get_score": {...}}.
type QueryMsg struct {
	GetScore *GetScoreMsg `json:"get_score,omitempty"`
}

type GetScoreMsg struct {
	Address state.Identifier `json:"address"`
}

type ScoreResponse struct {
	Score int32 `json:"score"`
}

package events

import (
	"time"

	"scoria/internal/registry"
)

// Event is published after every successful instantiate or execute.
type Event struct {
	TxID       string               `json:"tx_id"`
	Sender     string               `json:"sender"`
	Attributes []registry.Attribute `json:"attributes"`
	Time       time.Time            `json:"time"`
}

// Attribute returns the first value stored under key.
func (e Event) Attribute(key string) (string, bool) {
	return registry.Response{Attributes: e.Attributes}.Attribute(key)
}

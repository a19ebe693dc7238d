package tx

import "scoria/internal/registry"

func InstantiateAction() Action {
	return Action{Type: ActionInstantiate}
}

// ExecuteAction maps an execute message onto the action that must be signed
// for it.
func ExecuteAction(msg registry.ExecuteMsg) (Action, error) {
	switch {
	case msg.UpdateScore != nil:
		return Action{
			Type:    ActionUpdateScore,
			Address: msg.UpdateScore.Address.String(),
			Score:   msg.UpdateScore.Score,
		}, nil
	default:
		return Action{}, registry.ErrUnknownMessage
	}
}

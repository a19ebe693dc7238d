package state

import "context"

// ScoresPrefix namespaces the identifier -> score collection.
const ScoresPrefix = "scores:"

func ScoreKey(id Identifier) string {
	return ScoresPrefix + string(id)
}

// LoadScore reports whether id has a score and returns it. The bool is the
// existence check; an absent entry is never reported as 0.
func LoadScore(ctx context.Context, store Store, id Identifier) (int32, bool, error) {
	var score int32
	ok, err := load(ctx, store, ScoreKey(id), &score)
	if err != nil || !ok {
		return 0, false, err
	}
	return score, true, nil
}

// SaveScore upserts the score for id.
func SaveScore(ctx context.Context, store Store, id Identifier, score int32) error {
	return save(ctx, store, ScoreKey(id), score)
}

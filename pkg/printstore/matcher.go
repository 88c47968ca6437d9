package printstore

import (
	"context"
)

// Matcher resolves embeddings to users by brute-force cosine similarity
// against every stored template of every active user. It implements the
// identity engine's VoiceMatcher and FaceMatcher contracts.
//
// The returned score is the best single-template similarity, so one
// fresh high-quality template is enough to recognize a person again.
type Matcher struct {
	store Store
}

// NewMatcher creates a Matcher over the given store.
func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// MatchVoice returns the user whose stored voiceprint is most similar to
// emb, with the similarity. Returns "", 0 when no templates exist or the
// best similarity is not positive.
func (m *Matcher) MatchVoice(ctx context.Context, emb []float32) (string, float32, error) {
	return m.match(ctx, emb, func(ctx context.Context, userID string) ([][]float32, error) {
		vps, err := m.store.Voiceprints(ctx, userID)
		if err != nil {
			return nil, err
		}
		embs := make([][]float32, len(vps))
		for i, vp := range vps {
			embs[i] = vp.Embedding
		}
		return embs, nil
	})
}

// MatchFace returns the user whose stored faceprint is most similar to
// emb, with the similarity.
func (m *Matcher) MatchFace(ctx context.Context, emb []float32) (string, float32, error) {
	return m.match(ctx, emb, func(ctx context.Context, userID string) ([][]float32, error) {
		fps, err := m.store.Faceprints(ctx, userID)
		if err != nil {
			return nil, err
		}
		embs := make([][]float32, len(fps))
		for i, fp := range fps {
			embs[i] = fp.Embedding
		}
		return embs, nil
	})
}

func (m *Matcher) match(ctx context.Context, emb []float32, templates func(context.Context, string) ([][]float32, error)) (string, float32, error) {
	users, err := m.store.Users(ctx)
	if err != nil {
		return "", 0, err
	}

	var (
		bestUID   string
		bestScore float32
	)
	for _, u := range users {
		if !u.Active {
			continue
		}
		embs, err := templates(ctx, u.ID)
		if err != nil {
			return "", 0, err
		}
		for _, t := range embs {
			if sim := cosineSim(emb, t); sim > bestScore {
				bestUID, bestScore = u.ID, sim
			}
		}
	}
	return bestUID, bestScore, nil
}

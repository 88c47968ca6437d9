package printstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/presenza-ai/presenza/pkg/identity"
)

// Executor applies a turn's planned actions to the template store.
//
// Only the storage actions (STORE_VOICE, STORE_FACE) touch the store;
// ASK_NAME and BEGIN_ENROLL are dialogue concerns left to the caller,
// and LOG_ONLY is logged and dropped.
type Executor struct {
	store Store
	log   *slog.Logger
}

// NewExecutor creates an Executor. A nil logger uses slog.Default.
func NewExecutor(store Store, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{store: store, log: log}
}

// Apply executes the storage-side of a decision's action plan. The raw
// embeddings of the turn are supplied by the caller, since actions carry
// only identifiers and scores.
func (e *Executor) Apply(ctx context.Context, d identity.Decision, voiceEmb, faceEmb []float32) error {
	for _, act := range d.Actions {
		switch act.Kind {
		case identity.ActionStoreVoice:
			uid, _ := act.Payload["user_id"].(string)
			score, _ := act.Payload["score"].(float32)
			if uid == "" || voiceEmb == nil {
				continue
			}
			err := e.store.AddVoiceprint(ctx, Voiceprint{
				UserID:    uid,
				Embedding: voiceEmb,
				Score:     score,
			})
			if err != nil {
				return fmt.Errorf("printstore: store voiceprint for %s: %w", uid, err)
			}
			e.log.Debug("stored voiceprint", "user_id", uid, "score", score)

		case identity.ActionStoreFace:
			uid, _ := act.Payload["user_id"].(string)
			score, _ := act.Payload["score"].(float32)
			if uid == "" || faceEmb == nil {
				continue
			}
			fp := Faceprint{
				UserID:    uid,
				Embedding: faceEmb,
				Score:     score,
			}
			if v, ok := act.Payload["det_score"].(float32); ok {
				fp.DetScore = v
			}
			if v, ok := act.Payload["bbox"].([4]int); ok {
				fp.BBox = v
			}
			if v, ok := act.Payload["faces_count"].(int); ok {
				fp.FacesCount = v
			}
			if err := e.store.AddFaceprint(ctx, fp); err != nil {
				return fmt.Errorf("printstore: store faceprint for %s: %w", uid, err)
			}
			e.log.Debug("stored faceprint", "user_id", uid, "score", score)

		case identity.ActionLogOnly:
			e.log.Info("identity turn", "msg", act.Payload["msg"])

		case identity.ActionAskName, identity.ActionBeginEnroll:
			// Dialogue actions; the application executes these.
		}
	}
	return nil
}

// RegisterEnrollment turns a finished enrollment bundle into a new user
// with initial templates.
func (e *Executor) RegisterEnrollment(ctx context.Context, displayName, lang string, voice, face [][]float32) (User, error) {
	u, err := e.store.CreateUser(ctx, displayName, lang)
	if err != nil {
		return User{}, fmt.Errorf("printstore: register %q: %w", displayName, err)
	}
	for _, emb := range voice {
		if err := e.store.AddVoiceprint(ctx, Voiceprint{UserID: u.ID, Embedding: emb}); err != nil {
			return User{}, fmt.Errorf("printstore: register %q: %w", displayName, err)
		}
	}
	for _, emb := range face {
		if err := e.store.AddFaceprint(ctx, Faceprint{UserID: u.ID, Embedding: emb}); err != nil {
			return User{}, fmt.Errorf("printstore: register %q: %w", displayName, err)
		}
	}
	e.log.Info("registered user", "user_id", u.ID, "name", displayName,
		"voiceprints", len(voice), "faceprints", len(face))
	return u, nil
}

package printstore

import (
	"context"
	"testing"

	"github.com/presenza-ai/presenza/pkg/identity"
)

// passthroughVoice returns the audio bytes reinterpreted as a scripted
// embedding chosen per test.
type passthroughVoice struct{ emb []float32 }

func (p *passthroughVoice) ExtractVoice(context.Context, []byte) ([]float32, error) {
	return p.emb, nil
}

type scriptedFaces struct{ dets []identity.Detection }

func (s *scriptedFaces) ExtractFaces(context.Context, identity.Frame) ([]identity.Detection, error) {
	return s.dets, nil
}

// TestRecognizeAfterEnrollment runs the full loop: enroll a user into
// the store, then identify them through the orchestrator with the
// store-backed matcher, and verify the turn plans fresh STORE actions.
func TestRecognizeAfterEnrollment(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)
	defer s.Close()
	exec := NewExecutor(s, nil)

	enroll := identity.NewEnrollment()
	if _, ok := enroll.Start("maria lopez"); !ok {
		t.Fatal("enrollment did not start")
	}
	voiceEmb := []float32{1, 0, 0}
	faceEmb := []float32{0, 1, 0}
	for range 3 {
		enroll.AddVoice(voiceEmb)
		enroll.AddFace(faceEmb)
	}
	if !enroll.Done() {
		t.Fatal("enrollment should be complete")
	}
	name, vs, fs := enroll.Finish()
	u, err := exec.RegisterEnrollment(ctx, name, "es", vs, fs)
	if err != nil {
		t.Fatal(err)
	}

	matcher := NewMatcher(s)
	cfg := identity.DefaultPolicyConfig()
	orch, err := identity.NewOrchestrator(identity.Providers{
		Voice:      &passthroughVoice{emb: voiceEmb},
		VoiceMatch: matcher,
		Faces:      &scriptedFaces{dets: []identity.Detection{{Embedding: faceEmb, DetScore: 0.95}}},
		FaceMatch:  matcher,
	}, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	d, err := orch.IdentifyTurn(ctx, []byte("clip"), identity.Frame{1})
	if err != nil {
		t.Fatal(err)
	}
	if d.UserID != u.ID {
		t.Fatalf("recognized %q, want %q", d.UserID, u.ID)
	}
	if d.Via != identity.ViaBoth || d.Certainty != identity.CertaintyStrong {
		t.Errorf("got via=%v certainty=%v, want both/strong", d.Via, d.Certainty)
	}

	// Perfect matches clear both store thresholds.
	kinds := map[identity.ActionKind]bool{}
	for _, a := range d.Actions {
		kinds[a.Kind] = true
	}
	if !kinds[identity.ActionStoreVoice] || !kinds[identity.ActionStoreFace] {
		t.Errorf("actions = %+v, want STORE_VOICE and STORE_FACE", d.Actions)
	}

	if err := exec.Apply(ctx, d, voiceEmb, faceEmb); err != nil {
		t.Fatal(err)
	}
	vps, _ := s.Voiceprints(ctx, u.ID)
	if len(vps) != 4 {
		t.Errorf("got %d voiceprints after continual store, want 4", len(vps))
	}
}

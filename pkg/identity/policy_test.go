package identity

import (
	"testing"
	"time"
)

func testConfig() PolicyConfig {
	cfg := DefaultPolicyConfig()
	cfg.VoiceOK, cfg.VoiceStrong = 0.65, 0.80
	cfg.FaceOK, cfg.FaceStrong = 0.45, 0.60
	return cfg
}

func ev(t *testing.T, src Source, uid string, score float32, cfg PolicyConfig) Evidence {
	t.Helper()
	return NewEvidence(src, uid, score, cfg)
}

func TestDecideAgreement(t *testing.T) {
	cfg := testConfig()

	// Voice strong, face merely ok, same candidate.
	voice := ev(t, SourceVoice, "alice", 0.82, cfg)
	face := ev(t, SourceFace, "alice", 0.50, cfg)

	d := DecideIdentity(voice, face, cfg)
	if d.UserID != "alice" || d.Via != ViaBoth || d.Certainty != CertaintyStrong {
		t.Errorf("got %+v, want alice/both/strong", d)
	}
	if d.Confidence != 0.82 {
		t.Errorf("confidence = %v, want max score 0.82", d.Confidence)
	}
}

func TestDecideAgreementBeatsSingleStrong(t *testing.T) {
	cfg := testConfig()

	// Face strong + voice ok on the same candidate must resolve via
	// both, even though voice alone is not strong.
	voice := ev(t, SourceVoice, "bob", 0.70, cfg)
	face := ev(t, SourceFace, "bob", 0.65, cfg)

	d := DecideIdentity(voice, face, cfg)
	if d.Via != ViaBoth {
		t.Errorf("via = %v, want both", d.Via)
	}
	if d.Confidence != 0.70 {
		t.Errorf("confidence = %v, want 0.70", d.Confidence)
	}
}

func TestDecideSingleStrong(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		voice   Evidence
		face    Evidence
		wantUID string
		wantVia Via
	}{
		{
			name:    "voice strong, face different candidate",
			voice:   ev(t, SourceVoice, "alice", 0.85, cfg),
			face:    ev(t, SourceFace, "bob", 0.50, cfg),
			wantUID: "alice",
			wantVia: ViaVoice,
		},
		{
			name:    "voice strong, no face candidate",
			voice:   ev(t, SourceVoice, "alice", 0.85, cfg),
			face:    ev(t, SourceFace, "", 0, cfg),
			wantUID: "alice",
			wantVia: ViaVoice,
		},
		{
			name:    "face strong, voice weak",
			voice:   ev(t, SourceVoice, "carol", 0.40, cfg),
			face:    ev(t, SourceFace, "carol2", 0.72, cfg),
			wantUID: "carol2",
			wantVia: ViaFace,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecideIdentity(tt.voice, tt.face, cfg)
			if d.UserID != tt.wantUID || d.Via != tt.wantVia {
				t.Errorf("got uid=%q via=%v, want uid=%q via=%v",
					d.UserID, d.Via, tt.wantUID, tt.wantVia)
			}
			if d.Certainty != CertaintyStrong {
				t.Errorf("certainty = %v, want strong", d.Certainty)
			}
		})
	}
}

func TestDecideWeakPicksHigherScore(t *testing.T) {
	cfg := testConfig()

	voice := ev(t, SourceVoice, "alice", 0.70, cfg) // ok, not strong
	face := ev(t, SourceFace, "bob", 0.50, cfg)     // ok, not strong

	d := DecideIdentity(voice, face, cfg)
	if d.UserID != "alice" || d.Via != ViaVoice || d.Certainty != CertaintyWeak {
		t.Errorf("got %+v, want alice/voice/weak", d)
	}
	if d.Confidence != 0.70 {
		t.Errorf("confidence = %v, want 0.70", d.Confidence)
	}
}

func TestDecideWeakTiePrefersVoice(t *testing.T) {
	cfg := testConfig()

	voice := ev(t, SourceVoice, "alice", 0.50, cfg) // below voice_ok
	face := ev(t, SourceFace, "bob", 0.50, cfg)     // face ok

	d := DecideIdentity(voice, face, cfg)
	// Equal scores: voice wins the tie even though only face is ok.
	if d.Via != ViaVoice || d.UserID != "alice" {
		t.Errorf("got uid=%q via=%v, want voice tie-break to alice", d.UserID, d.Via)
	}
}

func TestDecideUnknown(t *testing.T) {
	cfg := testConfig()

	voice := ev(t, SourceVoice, "alice", 0.30, cfg)
	face := ev(t, SourceFace, "", 0.10, cfg)

	d := DecideIdentity(voice, face, cfg)
	if d.UserID != "" || d.Via != ViaNone || d.Certainty != CertaintyUnknown {
		t.Errorf("got %+v, want none/unknown", d)
	}
	if d.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", d.Confidence)
	}
}

func TestPlanActionsStore(t *testing.T) {
	cfg := testConfig()
	cfg.StoreVoiceMinSim = 0.78
	cfg.StoreFaceMinSim = 0.55

	voice := ev(t, SourceVoice, "alice", 0.82, cfg)
	face := ev(t, SourceFace, "alice", 0.58, cfg)
	face.Meta = map[string]any{"det_score": float32(0.97), "faces_count": 2}

	d := DecideIdentity(voice, face, cfg)
	acts := PlanActions(d, voice, face, NewSession(), cfg)

	if len(acts) != 2 {
		t.Fatalf("got %d actions, want 2: %+v", len(acts), acts)
	}
	if acts[0].Kind != ActionStoreVoice {
		t.Errorf("acts[0] = %v, want STORE_VOICE", acts[0].Kind)
	}
	if acts[0].Payload["user_id"] != "alice" || acts[0].Payload["score"] != float32(0.82) {
		t.Errorf("STORE_VOICE payload = %+v", acts[0].Payload)
	}
	if acts[1].Kind != ActionStoreFace {
		t.Errorf("acts[1] = %v, want STORE_FACE", acts[1].Kind)
	}
	if acts[1].Payload["faces_count"] != 2 {
		t.Errorf("STORE_FACE payload missing faces_count: %+v", acts[1].Payload)
	}
	if _, present := acts[1].Payload["bbox"]; present {
		t.Errorf("STORE_FACE payload carried bbox that was never in the meta: %+v", acts[1].Payload)
	}
}

func TestPlanActionsStoreThresholds(t *testing.T) {
	cfg := testConfig()
	cfg.StoreVoiceMinSim = 0.78
	cfg.StoreFaceMinSim = 0.55

	// Recognized, but face score below the store threshold.
	voice := ev(t, SourceVoice, "alice", 0.82, cfg)
	face := ev(t, SourceFace, "alice", 0.50, cfg)

	d := DecideIdentity(voice, face, cfg)
	acts := PlanActions(d, voice, face, NewSession(), cfg)

	if len(acts) != 1 || acts[0].Kind != ActionStoreVoice {
		t.Errorf("got %+v, want exactly one STORE_VOICE", acts)
	}
}

func TestPlanActionsIdempotentForKnownUser(t *testing.T) {
	cfg := testConfig()
	sess := NewSession()

	voice := ev(t, SourceVoice, "alice", 0.85, cfg)
	face := ev(t, SourceFace, "alice", 0.60, cfg)
	d := DecideIdentity(voice, face, cfg)

	a1 := PlanActions(d, voice, face, sess, cfg)
	a2 := PlanActions(d, voice, face, sess, cfg)
	if len(a1) != len(a2) {
		t.Fatalf("action counts differ: %d vs %d", len(a1), len(a2))
	}
	for i := range a1 {
		if a1[i].Kind != a2[i].Kind {
			t.Errorf("action %d: %v vs %v", i, a1[i].Kind, a2[i].Kind)
		}
	}
}

func TestPlanActionsCooldown(t *testing.T) {
	cfg := testConfig()
	cfg.AskNameCooldown = 90 * time.Second

	now := time.Unix(1000, 0)
	sess := NewSession()
	sess.now = func() time.Time { return now }

	unknownVoice := ev(t, SourceVoice, "", 0, cfg)
	unknownFace := ev(t, SourceFace, "", 0, cfg)
	d := DecideIdentity(unknownVoice, unknownFace, cfg)

	acts := PlanActions(d, unknownVoice, unknownFace, sess, cfg)
	if len(acts) != 1 || acts[0].Kind != ActionAskName {
		t.Fatalf("first unknown turn: got %+v, want ASK_NAME", acts)
	}
	if acts[0].Payload["lang"] != cfg.AskNameLang || acts[0].Payload["prompt"] == "" {
		t.Errorf("ASK_NAME payload = %+v", acts[0].Payload)
	}

	// 10 seconds later: still cooling down.
	now = now.Add(10 * time.Second)
	acts = PlanActions(d, unknownVoice, unknownFace, sess, cfg)
	if len(acts) != 1 || acts[0].Kind != ActionLogOnly {
		t.Fatalf("inside cooldown: got %+v, want LOG_ONLY", acts)
	}

	// 91 seconds after the first ask: may prompt again.
	now = now.Add(81 * time.Second)
	acts = PlanActions(d, unknownVoice, unknownFace, sess, cfg)
	if len(acts) != 1 || acts[0].Kind != ActionAskName {
		t.Fatalf("after cooldown: got %+v, want ASK_NAME", acts)
	}
}

func TestValidate(t *testing.T) {
	if err := DefaultPolicyConfig().Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}

	bad := DefaultPolicyConfig()
	bad.VoiceOK, bad.VoiceStrong = 0.80, 0.65 // ok > strong
	if err := bad.Validate(); err == nil {
		t.Error("expected error for ok > strong ordering")
	}

	bad = DefaultPolicyConfig()
	bad.FaceStrong = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected error for threshold out of range")
	}

	bad = DefaultPolicyConfig()
	bad.MaxVoiceprintsPerUser = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero template cap")
	}
}

func TestEvidenceStrongImpliesOK(t *testing.T) {
	cfg := testConfig()
	for _, score := range []float32{0, 0.3, 0.45, 0.6, 0.65, 0.8, 0.95, 1} {
		for _, src := range []Source{SourceVoice, SourceFace} {
			e := NewEvidence(src, "u", score, cfg)
			if e.Strong && !e.OK {
				t.Errorf("%s score %v: strong without ok", src, score)
			}
		}
	}
}

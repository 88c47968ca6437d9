package identity

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfigInvalid is returned when a PolicyConfig violates its ordering
// or range constraints.
var ErrConfigInvalid = errors.New("identity: invalid policy config")

// PolicyConfig holds the thresholds and behavior knobs of the fusion
// policy. Zero values are not usable; start from [DefaultPolicyConfig]
// and adjust.
type PolicyConfig struct {
	// VoiceOK and VoiceStrong are the similarity cutoffs for voice
	// evidence, in (0, 1] with VoiceStrong >= VoiceOK.
	VoiceOK     float32
	VoiceStrong float32

	// FaceOK and FaceStrong are the similarity cutoffs for face
	// evidence, in (0, 1] with FaceStrong >= FaceOK.
	FaceOK     float32
	FaceStrong float32

	// StoreVoiceMinSim and StoreFaceMinSim are the minimum similarities
	// to justify persisting a fresh template for a recognized user.
	StoreVoiceMinSim float32
	StoreFaceMinSim  float32

	// AskNameCooldown is the minimum spacing between ASK_NAME prompts
	// to a possibly-unknown person.
	AskNameCooldown time.Duration

	// MaxVoiceprintsPerUser and MaxFaceprintsPerUser are the retention
	// caps enforced by the template store. The policy does not enforce
	// them; they are carried here so one config object describes the
	// whole recognition behavior.
	MaxVoiceprintsPerUser int
	MaxFaceprintsPerUser  int

	// AskNamePrompt and AskNameLang localize the ASK_NAME payload.
	AskNamePrompt string
	AskNameLang   string
}

// DefaultPolicyConfig returns the tuned production defaults.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		VoiceOK:               0.65,
		VoiceStrong:           0.80,
		FaceOK:                0.45,
		FaceStrong:            0.60,
		StoreVoiceMinSim:      0.78,
		StoreFaceMinSim:       0.55,
		AskNameCooldown:       90 * time.Second,
		MaxVoiceprintsPerUser: 10,
		MaxFaceprintsPerUser:  10,
		AskNamePrompt:         "Hola, no te tengo fichado aún. ¿Cómo te llamas?",
		AskNameLang:           "es",
	}
}

// Validate checks threshold ordering and ranges. A config that fails
// validation still produces decisions, but certainty classification is
// unreliable; callers should validate at configuration time rather than
// per turn.
func (c PolicyConfig) Validate() error {
	type pair struct {
		name       string
		ok, strong float32
	}
	for _, p := range []pair{
		{"voice", c.VoiceOK, c.VoiceStrong},
		{"face", c.FaceOK, c.FaceStrong},
	} {
		if p.ok <= 0 || p.ok > 1 || p.strong <= 0 || p.strong > 1 {
			return fmt.Errorf("%w: %s thresholds must be in (0, 1], got ok=%v strong=%v",
				ErrConfigInvalid, p.name, p.ok, p.strong)
		}
		if p.strong < p.ok {
			return fmt.Errorf("%w: %s strong threshold %v below ok threshold %v",
				ErrConfigInvalid, p.name, p.strong, p.ok)
		}
	}
	for name, v := range map[string]float32{
		"store_voice_min_sim": c.StoreVoiceMinSim,
		"store_face_min_sim":  c.StoreFaceMinSim,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in (0, 1], got %v", ErrConfigInvalid, name, v)
		}
	}
	if c.AskNameCooldown < 0 {
		return fmt.Errorf("%w: ask_name_cooldown must be >= 0", ErrConfigInvalid)
	}
	if c.MaxVoiceprintsPerUser < 1 || c.MaxFaceprintsPerUser < 1 {
		return fmt.Errorf("%w: template caps must be >= 1", ErrConfigInvalid)
	}
	return nil
}

// Evidence is one modality's match result for the current turn.
//
// A score of exactly 0 with an empty UserID represents both "no data"
// (no detections, no confident match) and a legitimate zero-similarity
// match; the model does not distinguish the two. Matchers that can
// return exact zero similarity for a real candidate are conflated with
// the no-data case.
type Evidence struct {
	// Source is the modality that produced this evidence.
	Source Source

	// UserID is the best-matching known user, or "" if none.
	UserID string

	// Score is the cosine similarity of the best match, clamped to [0, 1].
	Score float32

	// Strong and OK record the score's classification against the
	// modality's thresholds. With well-ordered thresholds, Strong
	// implies OK.
	Strong bool
	OK     bool

	// Meta carries modality-specific extras (det_score, bbox,
	// faces_count for face evidence). May be nil.
	Meta map[string]any
}

// NewEvidence classifies score against the modality's thresholds from
// cfg and builds an Evidence value.
func NewEvidence(src Source, userID string, score float32, cfg PolicyConfig) Evidence {
	var strong, ok bool
	switch src {
	case SourceVoice:
		strong, ok = ClassifyVoice(score, cfg)
	case SourceFace:
		strong, ok = ClassifyFace(score, cfg)
	}
	return Evidence{Source: src, UserID: userID, Score: score, Strong: strong, OK: ok}
}

// Action is one instruction for the integrating application to execute.
type Action struct {
	Kind ActionKind

	// Payload shape depends on Kind; see the ActionKind constants.
	Payload map[string]any
}

// Decision is the fused identity resolution for one turn.
type Decision struct {
	// UserID is the resolved identity, or "" if unknown.
	UserID string

	// Via records which modality(ies) produced the resolution.
	Via Via

	// Confidence is the similarity score backing the decision
	// (0 when unknown).
	Confidence float32

	// Certainty grades the decision.
	Certainty Certainty

	// Actions is populated by PlanActions; empty until then.
	Actions []Action
}

// Session tracks per-interaction state across turns. One instance per
// ongoing session; created at session start, discarded at session end,
// never persisted. Not safe for concurrent use — a session owns exactly
// one turn at a time.
type Session struct {
	// LastUserID is the most recently resolved identity, or "".
	LastUserID string

	// lastAsk is when ASK_NAME was last emitted. time.Time carries a
	// monotonic reading, so a wall-clock rollback cannot re-enable
	// prompting early.
	lastAsk time.Time

	now func() time.Time
}

// NewSession creates a Session with no ask on record, so the first
// unknown turn may prompt immediately.
func NewSession() *Session {
	return &Session{now: time.Now}
}

// NewSessionWithClock is NewSession with an injected time source, for
// simulations and tests. A nil now falls back to time.Now.
func NewSessionWithClock(now func() time.Time) *Session {
	return &Session{now: now}
}

// CanAskName reports whether the ask-name cooldown has elapsed.
func (s *Session) CanAskName(cfg PolicyConfig) bool {
	if s.lastAsk.IsZero() {
		return true
	}
	return s.clock()().Sub(s.lastAsk) >= cfg.AskNameCooldown
}

// MarkAsked records that an ASK_NAME action was just emitted.
func (s *Session) MarkAsked() {
	s.lastAsk = s.clock()()
}

func (s *Session) clock() func() time.Time {
	if s.now == nil {
		return time.Now
	}
	return s.now
}

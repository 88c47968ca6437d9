package identity

import (
	"context"
	"fmt"
)

// Frame is one captured visual frame, in whatever encoding the face
// providers agree on (raw pixels, JPEG, ...). The orchestrator treats it
// as opaque.
type Frame []byte

// Detection is one face found in a frame by a FaceExtractor.
type Detection struct {
	// Embedding is the face embedding vector.
	Embedding []float32

	// DetScore is the detector's own confidence for this face.
	DetScore float32

	// BBox is the face bounding box as [x1, y1, x2, y2].
	BBox [4]int
}

// Provider capability contracts. Each role is a single-method interface
// so callers can supply real model backends, stubs, or test doubles.
// Implementations need not be safe for concurrent use; the engine calls
// them strictly sequentially within a session, and applications sharing
// one heavyweight model across sessions must serialize access themselves.
type (
	// VoiceExtractor turns captured audio into a fixed-length
	// normalized embedding.
	VoiceExtractor interface {
		ExtractVoice(ctx context.Context, audio []byte) ([]float32, error)
	}

	// VoiceMatcher finds the best-matching known user for a voice
	// embedding. userID is "" when nobody matches.
	VoiceMatcher interface {
		MatchVoice(ctx context.Context, emb []float32) (userID string, score float32, err error)
	}

	// FrameCapturer grabs one visual frame from the camera.
	FrameCapturer interface {
		CaptureFrame(ctx context.Context) (Frame, error)
	}

	// FaceExtractor finds faces in a frame. Zero detections is a valid
	// result, not an error.
	FaceExtractor interface {
		ExtractFaces(ctx context.Context, frame Frame) ([]Detection, error)
	}

	// FaceMatcher finds the best-matching known user for a face
	// embedding. userID is "" when nobody matches.
	FaceMatcher interface {
		MatchFace(ctx context.Context, emb []float32) (userID string, score float32, err error)
	}
)

// Providers bundles the capability backends injected into an
// Orchestrator.
type Providers struct {
	Voice      VoiceExtractor
	VoiceMatch VoiceMatcher
	Camera     FrameCapturer
	Faces      FaceExtractor
	FaceMatch  FaceMatcher
}

func (p Providers) validate() error {
	switch {
	case p.Voice == nil:
		return fmt.Errorf("identity: Providers.Voice is required")
	case p.VoiceMatch == nil:
		return fmt.Errorf("identity: Providers.VoiceMatch is required")
	case p.Faces == nil:
		return fmt.Errorf("identity: Providers.Faces is required")
	case p.FaceMatch == nil:
		return fmt.Errorf("identity: Providers.FaceMatch is required")
	}
	// Camera may be nil if every IdentifyTurn call supplies a frame.
	return nil
}

// Orchestrator drives one recognition turn at a time for a single
// session. It is synchronous: each provider call completes before the
// next begins, and IdentifyTurn must not be invoked concurrently on the
// same instance. Independent sessions use independent Orchestrator and
// Session instances.
type Orchestrator struct {
	providers Providers
	cfg       PolicyConfig
	session   *Session
}

// NewOrchestrator validates the config and providers and builds an
// Orchestrator bound to the given session. A nil session gets a fresh
// one.
func NewOrchestrator(p Providers, cfg PolicyConfig, session *Session) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if session == nil {
		session = NewSession()
	}
	return &Orchestrator{providers: p, cfg: cfg, session: session}, nil
}

// Session returns the session this orchestrator mutates each turn.
func (o *Orchestrator) Session() *Session { return o.session }

// IdentifyTurn runs one full recognition turn: extract and match the
// voice, detect and match every face in the frame (capturing one if
// frame is nil), fuse the evidence, plan actions, and update session
// state. The returned Decision has its actions populated.
//
// Provider failures abort the turn and are returned wrapped in a
// ProviderError.
func (o *Orchestrator) IdentifyTurn(ctx context.Context, audio []byte, frame Frame) (Decision, error) {
	voiceEv, err := o.voiceEvidence(ctx, audio)
	if err != nil {
		return Decision{}, err
	}
	faceEv, err := o.faceEvidence(ctx, frame)
	if err != nil {
		return Decision{}, err
	}

	decision := DecideIdentity(voiceEv, faceEv, o.cfg)
	decision.Actions = PlanActions(decision, voiceEv, faceEv, o.session, o.cfg)
	if decision.UserID != "" {
		o.session.LastUserID = decision.UserID
	}
	return decision, nil
}

func (o *Orchestrator) voiceEvidence(ctx context.Context, audio []byte) (Evidence, error) {
	emb, err := o.providers.Voice.ExtractVoice(ctx, audio)
	if err != nil {
		return Evidence{}, &ProviderError{Role: "voice extract", Err: err}
	}
	uid, score, err := o.providers.VoiceMatch.MatchVoice(ctx, emb)
	if err != nil {
		return Evidence{}, &ProviderError{Role: "voice match", Err: err}
	}
	return NewEvidence(SourceVoice, uid, clamp01(score), o.cfg), nil
}

func (o *Orchestrator) faceEvidence(ctx context.Context, frame Frame) (Evidence, error) {
	if frame == nil {
		if o.providers.Camera == nil {
			return Evidence{}, &ProviderError{
				Role: "face capture",
				Err:  fmt.Errorf("no frame supplied and no capturer configured"),
			}
		}
		var err error
		frame, err = o.providers.Camera.CaptureFrame(ctx)
		if err != nil {
			return Evidence{}, &ProviderError{Role: "face capture", Err: err}
		}
	}

	dets, err := o.providers.Faces.ExtractFaces(ctx, frame)
	if err != nil {
		return Evidence{}, &ProviderError{Role: "face extract", Err: err}
	}

	// Match every detection and keep the one with the highest match
	// score — not the first, not the highest detector confidence. Ties
	// keep the first encountered.
	var (
		bestUID   string
		bestScore float32
		bestMeta  map[string]any
	)
	for _, d := range dets {
		uid, score, err := o.providers.FaceMatch.MatchFace(ctx, d.Embedding)
		if err != nil {
			return Evidence{}, &ProviderError{Role: "face match", Err: err}
		}
		if score > bestScore {
			bestUID, bestScore = uid, score
			bestMeta = map[string]any{
				"det_score":   d.DetScore,
				"bbox":        d.BBox,
				"faces_count": len(dets),
			}
		}
	}
	// Record how many faces were seen even when no detection produced a
	// positive match score.
	if bestMeta == nil && len(dets) > 0 {
		bestMeta = map[string]any{"faces_count": len(dets)}
	}

	ev := NewEvidence(SourceFace, bestUID, clamp01(bestScore), o.cfg)
	ev.Meta = bestMeta
	return ev, nil
}

// clamp01 clamps a similarity into [0, 1].
func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

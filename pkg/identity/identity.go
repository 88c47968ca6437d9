// Package identity decides who is present in an interaction turn by fusing
// voice and face similarity evidence.
//
// # Architecture
//
// One recognition turn flows through three stages:
//
//  1. Orchestrator.IdentifyTurn: injected providers produce per-modality
//     match results, classified into [Evidence] against the configured
//     thresholds.
//  2. DecideIdentity: pure fusion of the two Evidence values into a
//     [Decision] (who, via which modality, with what certainty).
//  3. PlanActions: turns the Decision into [Action] instructions for the
//     integrating application (store a fresh template, prompt for a name,
//     or just log).
//
// The package performs no I/O of its own: embedding extraction, matching,
// frame capture, and template persistence are all behind the provider
// interfaces declared in this package. A "no match" outcome from any
// provider is valid Evidence, not an error; genuine provider failures are
// surfaced as [ProviderError].
//
// # Certainty Tiers
//
// Two similarity cutoffs per modality split scores into three bands:
//
//	score ≥ strong  → high confidence
//	score ≥ ok      → merely plausible
//	otherwise       → no usable signal
//
// Agreement between modalities is always checked first: if both name the
// same person and one is strong while the other is at least ok, the match
// is resolved with strong certainty regardless of raw score ordering.
//
// # Enrollment
//
// When nobody is recognized, the application may prompt for a name
// (rate-limited through [Session]) and route fresh samples into an
// [Enrollment] accumulator until enough are gathered to register the
// person with the template store.
package identity

import "fmt"

// Source identifies the modality that produced a piece of evidence.
type Source string

const (
	SourceVoice Source = "voice"
	SourceFace  Source = "face"
)

// Via identifies which modality(ies) resolved a decision.
type Via string

const (
	ViaBoth  Via = "both"
	ViaVoice Via = "voice"
	ViaFace  Via = "face"
	ViaNone  Via = "none"
)

// Certainty grades how much a decision can be trusted.
type Certainty string

const (
	CertaintyStrong  Certainty = "strong"
	CertaintyWeak    Certainty = "weak"
	CertaintyUnknown Certainty = "unknown"
)

// ActionKind identifies an instruction for the integrating application.
type ActionKind string

const (
	// ActionStoreVoice asks the template store to persist a fresh
	// voiceprint for a recognized user. Payload: user_id, score.
	ActionStoreVoice ActionKind = "STORE_VOICE"

	// ActionStoreFace asks the template store to persist a fresh
	// faceprint. Payload: user_id, score, and whichever of det_score,
	// bbox, faces_count the face evidence carried.
	ActionStoreFace ActionKind = "STORE_FACE"

	// ActionAskName asks the application to prompt the unknown person
	// for their name. Payload: prompt, lang.
	ActionAskName ActionKind = "ASK_NAME"

	// ActionBeginEnroll is reserved for orchestrating code that wires
	// the enrollment flow; the fusion policy never emits it.
	ActionBeginEnroll ActionKind = "BEGIN_ENROLL"

	// ActionLogOnly carries a diagnostic message and nothing else.
	// Payload: msg.
	ActionLogOnly ActionKind = "LOG_ONLY"
)

// ProviderError wraps a failure from an injected capability provider.
// Provider failures are never folded into an "unknown" decision — an
// identity decision silently defaulting to unknown would be
// indistinguishable from a legitimate low-confidence match.
type ProviderError struct {
	// Role names the provider that failed (e.g. "voice extract",
	// "face match").
	Role string

	// Err is the underlying provider error.
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity: %s provider: %v", e.Role, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

package identity

import (
	"strings"
	"unicode"
)

// Enrollment accumulates biometric samples for a newly-named person
// until enough are gathered to register them with the template store.
//
// It is a two-state machine: idle and collecting. Start moves it to
// collecting; Finish always returns to idle. AddVoice/AddFace are no-ops
// while idle (not errors). Finish performs no threshold check — it
// returns whatever was collected so a caller may abort early — so
// callers wanting complete bundles must check Done first. Skipping that
// check silently registers an under-sampled identity.
type Enrollment struct {
	collecting  bool
	name        string
	voice       [][]float32
	face        [][]float32
	neededVoice int
	neededFace  int
}

// DefaultSamplesNeeded is the number of samples required per modality
// before an enrollment is complete.
const DefaultSamplesNeeded = 3

// NewEnrollment creates an idle accumulator requiring
// DefaultSamplesNeeded samples per modality.
func NewEnrollment() *Enrollment {
	return &Enrollment{
		neededVoice: DefaultSamplesNeeded,
		neededFace:  DefaultSamplesNeeded,
	}
}

// Start derives a display name from the person's spoken reply and begins
// collecting with empty sample lists. It returns the derived name and
// true on success. If no alphabetic token can be extracted the
// accumulator stays idle and Start returns "", false.
//
// Starting while already collecting discards the in-progress bundle.
func (e *Enrollment) Start(nameText string) (string, bool) {
	name := DeriveDisplayName(nameText)
	if name == "" {
		return "", false
	}
	needV, needF := e.neededVoice, e.neededFace
	*e = Enrollment{
		collecting:  true,
		name:        name,
		neededVoice: needV,
		neededFace:  needF,
	}
	return name, true
}

// Collecting reports whether an enrollment is in progress.
func (e *Enrollment) Collecting() bool { return e.collecting }

// TargetName returns the display name being enrolled, or "" while idle.
func (e *Enrollment) TargetName() string { return e.name }

// AddVoice appends a copy of a voice embedding. No-op while idle.
func (e *Enrollment) AddVoice(emb []float32) {
	if e.collecting {
		e.voice = append(e.voice, copyVec(emb))
	}
}

// AddFace appends a copy of a face embedding. No-op while idle.
func (e *Enrollment) AddFace(emb []float32) {
	if e.collecting {
		e.face = append(e.face, copyVec(emb))
	}
}

// Done reports whether both modalities have reached their needed sample
// counts. Always false while idle.
func (e *Enrollment) Done() bool {
	return e.collecting &&
		len(e.voice) >= e.neededVoice &&
		len(e.face) >= e.neededFace
}

// Finish detaches the accumulated bundle and unconditionally resets to
// idle, complete or not.
func (e *Enrollment) Finish() (name string, voice, face [][]float32) {
	name, voice, face = e.name, e.voice, e.face
	needV, needF := e.neededVoice, e.neededFace
	*e = Enrollment{neededVoice: needV, neededFace: needF}
	return name, voice, face
}

// DeriveDisplayName extracts a display name from free text: the first
// two purely-alphabetic tokens, title-cased. Returns "" if no alphabetic
// token exists.
func DeriveDisplayName(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	var parts []string
	for _, f := range fields {
		if !alphabetic(f) {
			continue
		}
		parts = append(parts, titleCase(f))
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func alphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToTitle(runes[0])
	return string(runes)
}

func copyVec(v []float32) []float32 {
	cp := make([]float32, len(v))
	copy(cp, v)
	return cp
}

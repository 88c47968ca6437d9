// Package printstore persists users and their biometric templates
// (voiceprints and faceprints) and matches fresh embeddings against them.
//
// # Architecture
//
// The [Store] interface is the persistence boundary the identity engine's
// STORE_* actions point at. Two implementations are provided: [Badger]
// for durable on-disk storage and [Memory] for tests. Records are
// msgpack-encoded.
//
// [Matcher] implements the identity engine's VoiceMatcher and FaceMatcher
// contracts by brute-force cosine search over all stored templates.
// Brute force is deliberate: a household assistant has tens of users,
// each capped at a handful of templates.
//
// [Executor] bridges the engine's action plan to the store: it applies
// STORE_VOICE/STORE_FACE actions and registers finished enrollment
// bundles as new users.
//
// # Retention
//
// Each user holds at most MaxVoiceprintsPerUser / MaxFaceprintsPerUser
// templates; inserting past the cap evicts the oldest. The engine's
// policy references the caps for planning only — enforcement lives here.
package printstore

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("printstore: not found")
)

// User is a registered person.
type User struct {
	// ID is a UUID assigned at registration.
	ID string `msgpack:"id"`

	// DisplayName is the name the person gave during enrollment.
	DisplayName string `msgpack:"name"`

	// Lang is the person's preferred locale code, if known.
	Lang string `msgpack:"lang,omitempty"`

	// Active marks whether the user participates in matching.
	Active bool `msgpack:"active"`

	CreatedAt time.Time `msgpack:"created_at"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// Voiceprint is one stored voice template.
type Voiceprint struct {
	UserID string `msgpack:"user_id"`

	// Embedding is the L2-normalized voice embedding.
	Embedding []float32 `msgpack:"emb"`

	// Score is the match similarity at capture time (0 for templates
	// added during initial enrollment).
	Score float32 `msgpack:"score"`

	CreatedAt time.Time `msgpack:"created_at"`
}

// Faceprint is one stored face template.
type Faceprint struct {
	UserID string `msgpack:"user_id"`

	// Embedding is the face embedding.
	Embedding []float32 `msgpack:"emb"`

	// Score is the match similarity at capture time.
	Score float32 `msgpack:"score"`

	// DetScore is the detector confidence of the capture, if known.
	DetScore float32 `msgpack:"det_score,omitempty"`

	// BBox is the capture's bounding box as [x1, y1, x2, y2].
	BBox [4]int `msgpack:"bbox,omitempty"`

	// FacesCount is how many faces were in the frame at capture time.
	FacesCount int `msgpack:"faces_count,omitempty"`

	CreatedAt time.Time `msgpack:"created_at"`
}

// Store is the interface for user and template persistence.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateUser registers a new user and returns it with a fresh ID.
	CreateUser(ctx context.Context, displayName, lang string) (User, error)

	// User returns a user by ID. Returns ErrNotFound if absent.
	User(ctx context.Context, id string) (User, error)

	// Users returns all users ordered by ID.
	Users(ctx context.Context) ([]User, error)

	// DeleteUser removes a user and all their templates.
	// No error if the user does not exist.
	DeleteUser(ctx context.Context, id string) error

	// AddVoiceprint stores a voice template, evicting the user's oldest
	// one if the retention cap is reached.
	AddVoiceprint(ctx context.Context, vp Voiceprint) error

	// AddFaceprint stores a face template, evicting the user's oldest
	// one if the retention cap is reached.
	AddFaceprint(ctx context.Context, fp Faceprint) error

	// Voiceprints returns a user's voice templates, oldest first.
	Voiceprints(ctx context.Context, userID string) ([]Voiceprint, error)

	// Faceprints returns a user's face templates, oldest first.
	Faceprints(ctx context.Context, userID string) ([]Faceprint, error)

	// Close releases any resources held by the store.
	Close() error
}

// Options configures retention behavior shared by Store implementations.
type Options struct {
	// MaxVoiceprintsPerUser caps voice templates per user. Default 10.
	MaxVoiceprintsPerUser int

	// MaxFaceprintsPerUser caps face templates per user. Default 10.
	MaxFaceprintsPerUser int
}

func (o *Options) voiceCap() int {
	if o != nil && o.MaxVoiceprintsPerUser > 0 {
		return o.MaxVoiceprintsPerUser
	}
	return 10
}

func (o *Options) faceCap() int {
	if o != nil && o.MaxFaceprintsPerUser > 0 {
		return o.MaxFaceprintsPerUser
	}
	return 10
}

// Package samplebank archives the raw captures (audio clips, face crops)
// behind stored biometric templates, so models can later be re-trained
// or templates re-extracted from the originals.
//
// A [Bank] names every archived sample with a generated ref of the form
// "{userID}/{modality}/{uuid}", which callers persist next to the
// template it belongs to. Two backends are provided: [Local] for a
// filesystem directory and [S3] for any S3-compatible object store.
package samplebank

import (
	"context"
	"errors"
	"io"
)

// Modalities.
const (
	ModalityVoice = "voice"
	ModalityFace  = "face"
)

// ErrInvalidRef is returned for refs that do not look like
// "{userID}/{modality}/{id}".
var ErrInvalidRef = errors.New("samplebank: invalid ref")

// Bank stores raw biometric sample data.
//
// Implementations must be safe for concurrent use.
type Bank interface {
	// Put archives the sample read from r and returns its ref.
	Put(ctx context.Context, userID, modality string, r io.Reader) (ref string, err error)

	// Open opens an archived sample for reading. Returns an error
	// wrapping os.ErrNotExist if the ref does not exist.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Remove deletes an archived sample. Removing a missing ref is not
	// an error (idempotent).
	Remove(ctx context.Context, ref string) error

	// Exists reports whether a ref is archived.
	Exists(ctx context.Context, ref string) (bool, error)
}

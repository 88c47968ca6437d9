package samplebank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local implements Bank on the local filesystem. Every sample lives in
// its own file under root/{userID}/{modality}/.
type Local struct {
	root string
}

// NewLocal creates a Local bank rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

func (l *Local) resolve(ref string) (string, error) {
	if err := validateRef(ref); err != nil {
		return "", err
	}
	return filepath.Join(l.root, filepath.FromSlash(ref)), nil
}

func (l *Local) Put(_ context.Context, userID, modality string, r io.Reader) (string, error) {
	ref, err := newRef(userID, modality)
	if err != nil {
		return "", err
	}
	full := filepath.Join(l.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return ref, nil
}

func (l *Local) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	full, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (l *Local) Remove(_ context.Context, ref string) error {
	full, err := l.resolve(ref)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) Exists(_ context.Context, ref string) (bool, error) {
	full, err := l.resolve(ref)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// newRef builds a fresh "{userID}/{modality}/{uuid}" ref.
func newRef(userID, modality string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, "/\\") {
		return "", fmt.Errorf("%w: bad user id %q", ErrInvalidRef, userID)
	}
	if modality != ModalityVoice && modality != ModalityFace {
		return "", fmt.Errorf("%w: bad modality %q", ErrInvalidRef, modality)
	}
	return userID + "/" + modality + "/" + uuid.NewString(), nil
}

// validateRef rejects refs that could escape the bank's namespace.
func validateRef(ref string) error {
	parts := strings.Split(ref, "/")
	if len(parts) != 3 {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || strings.ContainsAny(p, "\\") {
			return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
		}
	}
	return nil
}

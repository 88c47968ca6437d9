package printstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Store implementation. It is safe for concurrent
// use and intended primarily for testing.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
	vps   map[string][]Voiceprint
	fps   map[string][]Faceprint
	opts  *Options
}

// NewMemory creates an in-memory Store. Pass nil for default options.
func NewMemory(opts *Options) *Memory {
	return &Memory{
		users: make(map[string]User),
		vps:   make(map[string][]Voiceprint),
		fps:   make(map[string][]Faceprint),
		opts:  opts,
	}
}

func (m *Memory) CreateUser(_ context.Context, displayName, lang string) (User, error) {
	now := time.Now()
	u := User{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Lang:        lang,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	return u, nil
}

func (m *Memory) User(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	u, ok := m.users[id]
	m.mu.RUnlock()
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) Users(_ context.Context) ([]User, error) {
	m.mu.RLock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.users, id)
	delete(m.vps, id)
	delete(m.fps, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) AddVoiceprint(_ context.Context, vp Voiceprint) error {
	if vp.CreatedAt.IsZero() {
		vp.CreatedAt = time.Now()
	}
	vp.Embedding = copyVec(vp.Embedding)
	m.mu.Lock()
	list := append(m.vps[vp.UserID], vp)
	if n := m.opts.voiceCap(); len(list) > n {
		list = list[len(list)-n:]
	}
	m.vps[vp.UserID] = list
	m.mu.Unlock()
	return nil
}

func (m *Memory) AddFaceprint(_ context.Context, fp Faceprint) error {
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now()
	}
	fp.Embedding = copyVec(fp.Embedding)
	m.mu.Lock()
	list := append(m.fps[fp.UserID], fp)
	if n := m.opts.faceCap(); len(list) > n {
		list = list[len(list)-n:]
	}
	m.fps[fp.UserID] = list
	m.mu.Unlock()
	return nil
}

func (m *Memory) Voiceprints(_ context.Context, userID string) ([]Voiceprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Voiceprint, len(m.vps[userID]))
	copy(out, m.vps[userID])
	return out, nil
}

func (m *Memory) Faceprints(_ context.Context, userID string) ([]Faceprint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Faceprint, len(m.fps[userID]))
	copy(out, m.fps[userID])
	return out, nil
}

func (m *Memory) Close() error { return nil }

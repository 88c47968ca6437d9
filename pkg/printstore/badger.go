package printstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Key layout:
//
//	u:{userID}            → msgpack(User)
//	vp:{userID}:{seq}     → msgpack(Voiceprint)
//	fp:{userID}:{seq}     → msgpack(Faceprint)
//
// seq is a zero-padded monotonic counter seeded from the wall clock, so
// lexicographic key order is insertion order and the oldest template of
// a user is the first key under their prefix.

// Badger is a Store implementation backed by BadgerDB v4.
type Badger struct {
	db   *badger.DB
	opts *Options
	seq  atomic.Uint64
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Options is the common retention options.
	Options *Options

	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence. Useful for
	// testing with the real engine.
	InMemory bool
}

// NewBadger creates a BadgerDB-backed Store.
func NewBadger(bopts BadgerOptions) (*Badger, error) {
	if !bopts.InMemory && bopts.Dir == "" {
		return nil, errors.New("printstore: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(bopts.Dir).WithLogger(badgerLogger{})
	if bopts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	s := &Badger{db: db, opts: bopts.Options}
	s.seq.Store(uint64(time.Now().UnixNano()))
	return s, nil
}

func userKey(id string) []byte { return []byte("u:" + id) }

func printPrefix(kind, userID string) []byte {
	return []byte(kind + ":" + userID + ":")
}

func (s *Badger) printKey(kind, userID string) []byte {
	return fmt.Appendf(nil, "%s:%s:%020d", kind, userID, s.seq.Add(1))
}

func (s *Badger) CreateUser(_ context.Context, displayName, lang string) (User, error) {
	now := time.Now()
	u := User{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Lang:        lang,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	val, err := msgpack.Marshal(&u)
	if err != nil {
		return User{}, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(u.ID), val)
	})
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Badger) User(_ context.Context, id string) (User, error) {
	var u User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &u)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Badger) Users(_ context.Context) ([]User, error) {
	var users []User
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte("u:")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var u User
			err := it.Item().Value(func(val []byte) error {
				return msgpack.Unmarshal(val, &u)
			})
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return nil
	})
	return users, err
}

func (s *Badger) DeleteUser(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(userKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		for _, kind := range []string{"vp", "fp"} {
			keys, err := prefixKeys(txn, printPrefix(kind, id))
			if err != nil {
				return err
			}
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *Badger) AddVoiceprint(_ context.Context, vp Voiceprint) error {
	if vp.CreatedAt.IsZero() {
		vp.CreatedAt = time.Now()
	}
	vp.Embedding = copyVec(vp.Embedding)
	val, err := msgpack.Marshal(&vp)
	if err != nil {
		return err
	}
	return s.addPrint("vp", vp.UserID, val, s.opts.voiceCap())
}

func (s *Badger) AddFaceprint(_ context.Context, fp Faceprint) error {
	if fp.CreatedAt.IsZero() {
		fp.CreatedAt = time.Now()
	}
	fp.Embedding = copyVec(fp.Embedding)
	val, err := msgpack.Marshal(&fp)
	if err != nil {
		return err
	}
	return s.addPrint("fp", fp.UserID, val, s.opts.faceCap())
}

// addPrint inserts a template under a fresh sequence key, evicting the
// user's oldest templates past the cap in the same transaction.
func (s *Badger) addPrint(kind, userID string, val []byte, limit int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		keys, err := prefixKeys(txn, printPrefix(kind, userID))
		if err != nil {
			return err
		}
		for len(keys) >= limit && len(keys) > 0 {
			if err := txn.Delete(keys[0]); err != nil {
				return err
			}
			keys = keys[1:]
		}
		return txn.Set(s.printKey(kind, userID), val)
	})
}

func (s *Badger) Voiceprints(_ context.Context, userID string) ([]Voiceprint, error) {
	var out []Voiceprint
	err := s.scanPrints("vp", userID, func(val []byte) error {
		var vp Voiceprint
		if err := msgpack.Unmarshal(val, &vp); err != nil {
			return err
		}
		out = append(out, vp)
		return nil
	})
	return out, err
}

func (s *Badger) Faceprints(_ context.Context, userID string) ([]Faceprint, error) {
	var out []Faceprint
	err := s.scanPrints("fp", userID, func(val []byte) error {
		var fp Faceprint
		if err := msgpack.Unmarshal(val, &fp); err != nil {
			return err
		}
		out = append(out, fp)
		return nil
	})
	return out, err
}

func (s *Badger) scanPrints(kind, userID string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		prefix := printPrefix(kind, userID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Badger) Close() error {
	return s.db.Close()
}

// prefixKeys returns all keys under prefix in lexicographic order.
func prefixKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}

// badgerLogger routes badger output through slog, dropping info and
// debug noise.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any)   { slog.Error(fmt.Sprintf("badger: "+f, v...)) }
func (badgerLogger) Warningf(f string, v ...any) { slog.Warn(fmt.Sprintf("badger: "+f, v...)) }
func (badgerLogger) Infof(string, ...any)        {}
func (badgerLogger) Debugf(string, ...any)       {}

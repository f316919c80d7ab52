package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage"
)

// Storage keeps the client store in a single JSON file, one object keyed by
// the well-known storage keys. Every write replaces the file atomically.
type Storage struct {
	mu   sync.Mutex
	path string
}

// New creates a file-backed store at path. The file is created on first write.
func New(path string) *Storage {
	return &Storage{path: path}
}

// DefaultPath returns ~/.scopa/state.json
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".scopa", "state.json")
	}
	return filepath.Join(home, ".scopa", "state.json")
}

// Path returns the backing file
func (s *Storage) Path() string {
	return s.path
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) GetPlayerIdentity(ctx context.Context) (model.PlayerIdentity, error) {
	var id string
	if err := s.get(storage.KeyPlayerID, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", model.ErrIdentityNotFound
	}
	return model.PlayerIdentity(id), nil
}

func (s *Storage) SavePlayerIdentity(ctx context.Context, id model.PlayerIdentity) error {
	return s.update(func(values map[string]json.RawMessage) error {
		return put(values, storage.KeyPlayerID, string(id))
	})
}

func (s *Storage) GetUsername(ctx context.Context) (string, error) {
	var name string
	if err := s.get(storage.KeyUsername, &name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Storage) SaveUsername(ctx context.Context, name string) error {
	return s.update(func(values map[string]json.RawMessage) error {
		return put(values, storage.KeyUsername, name)
	})
}

// Preferred game operations

func (s *Storage) SavePreferredGameID(ctx context.Context, raw string) error {
	return s.update(func(values map[string]json.RawMessage) error {
		return put(values, storage.KeyPreferredGameID, raw)
	})
}

func (s *Storage) TakePreferredGameID(ctx context.Context) (string, error) {
	var raw string
	err := s.update(func(values map[string]json.RawMessage) error {
		data, ok := values[storage.KeyPreferredGameID]
		if !ok {
			return nil
		}
		delete(values, storage.KeyPreferredGameID)
		return json.Unmarshal(data, &raw)
	})
	return raw, err
}

// Final score operations

func (s *Storage) SaveFinalScore(ctx context.Context, score model.ScoreSnapshot) error {
	return s.update(func(values map[string]json.RawMessage) error {
		return put(values, storage.KeyLastGameScore, score)
	})
}

func (s *Storage) TakeFinalScore(ctx context.Context) (*model.ScoreSnapshot, error) {
	var score *model.ScoreSnapshot
	err := s.update(func(values map[string]json.RawMessage) error {
		data, ok := values[storage.KeyLastGameScore]
		if !ok {
			return model.ErrScoreNotFound
		}
		delete(values, storage.KeyLastGameScore)
		score = &model.ScoreSnapshot{}
		return json.Unmarshal(data, score)
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

func put(values map[string]json.RawMessage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	values[key] = data
	return nil
}

func (s *Storage) get(key string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	data, ok := values[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// update loads the file, applies fn and writes the result back. Nothing is
// written if fn fails.
func (s *Storage) update(fn func(values map[string]json.RawMessage) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(values); err != nil {
		return err
	}
	return s.write(values)
}

func (s *Storage) load() (map[string]json.RawMessage, error) {
	values := make(map[string]json.RawMessage)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("corrupt store %s: %w", s.path, err)
	}
	// A "null" document decodes to a nil map
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return values, nil
}

func (s *Storage) write(values map[string]json.RawMessage) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

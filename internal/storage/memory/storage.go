package memory

import (
	"context"
	"sync"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	identity        model.PlayerIdentity
	username        string
	preferredGameID string
	finalScore      *model.ScoreSnapshot
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity operations

func (s *Storage) GetPlayerIdentity(ctx context.Context) (model.PlayerIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == "" {
		return "", model.ErrIdentityNotFound
	}
	return s.identity, nil
}

func (s *Storage) SavePlayerIdentity(ctx context.Context, id model.PlayerIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	return nil
}

func (s *Storage) GetUsername(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, nil
}

func (s *Storage) SaveUsername(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = name
	return nil
}

// Preferred game operations

func (s *Storage) SavePreferredGameID(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferredGameID = raw
	return nil
}

func (s *Storage) TakePreferredGameID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw := s.preferredGameID
	s.preferredGameID = ""
	return raw, nil
}

// Final score operations

func (s *Storage) SaveFinalScore(ctx context.Context, score model.ScoreSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalScore = &score
	return nil
}

func (s *Storage) TakeFinalScore(ctx context.Context) (*model.ScoreSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalScore == nil {
		return nil, model.ErrScoreNotFound
	}
	score := *s.finalScore
	s.finalScore = nil
	return &score, nil
}

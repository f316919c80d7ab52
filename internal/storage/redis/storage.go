package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.Profile == "" {
		cfg.Profile = DefaultConfig().Profile
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) key(name string) string {
	return profileKey(s.cfg.Profile, name)
}

// Identity operations

func (s *Storage) GetPlayerIdentity(ctx context.Context) (model.PlayerIdentity, error) {
	id, err := s.client.Get(ctx, s.key(storage.KeyPlayerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrIdentityNotFound
		}
		return "", err
	}
	return model.PlayerIdentity(id), nil
}

func (s *Storage) SavePlayerIdentity(ctx context.Context, id model.PlayerIdentity) error {
	return s.client.Set(ctx, s.key(storage.KeyPlayerID), string(id), 0).Err()
}

func (s *Storage) GetUsername(ctx context.Context) (string, error) {
	name, err := s.client.Get(ctx, s.key(storage.KeyUsername)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

func (s *Storage) SaveUsername(ctx context.Context, name string) error {
	return s.client.Set(ctx, s.key(storage.KeyUsername), name, 0).Err()
}

// Preferred game operations

func (s *Storage) SavePreferredGameID(ctx context.Context, raw string) error {
	return s.client.Set(ctx, s.key(storage.KeyPreferredGameID), raw, s.cfg.PreferredGameTTL).Err()
}

func (s *Storage) TakePreferredGameID(ctx context.Context) (string, error) {
	raw, err := s.client.GetDel(ctx, s.key(storage.KeyPreferredGameID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return raw, nil
}

// Final score operations

func (s *Storage) SaveFinalScore(ctx context.Context, score model.ScoreSnapshot) error {
	data, err := json.Marshal(score)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(storage.KeyLastGameScore), data, s.cfg.FinalScoreTTL).Err()
}

func (s *Storage) TakeFinalScore(ctx context.Context) (*model.ScoreSnapshot, error) {
	data, err := s.client.GetDel(ctx, s.key(storage.KeyLastGameScore)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrScoreNotFound
		}
		return nil, err
	}

	var score model.ScoreSnapshot
	if err := json.Unmarshal(data, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

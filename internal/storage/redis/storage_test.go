package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.Profile = "alice"
	cfg.PreferredGameTTL = time.Hour
	cfg.FinalScoreTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Identity tests

func (s *StorageSuite) TestSaveAndGetIdentity() {
	err := s.storage.SavePlayerIdentity(s.ctx, "player-1")
	s.Require().NoError(err)

	id, err := s.storage.GetPlayerIdentity(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PlayerIdentity("player-1"), id)
}

func (s *StorageSuite) TestGetIdentityNotFound() {
	_, err := s.storage.GetPlayerIdentity(s.ctx)
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *StorageSuite) TestIdentityNoTTL() {
	_ = s.storage.SavePlayerIdentity(s.ctx, "player-1")

	ttl := s.mini.TTL(profileKey("alice", storage.KeyPlayerID))
	s.Equal(time.Duration(0), ttl, "Identity should not expire")
}

func (s *StorageSuite) TestProfilesAreIsolated() {
	_ = s.storage.SavePlayerIdentity(s.ctx, "player-1")

	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), Config{Profile: "bob"})
	defer func() { _ = other.Close() }()

	_, err := other.GetPlayerIdentity(s.ctx)
	s.ErrorIs(err, model.ErrIdentityNotFound)
}

func (s *StorageSuite) TestUsername() {
	name, err := s.storage.GetUsername(s.ctx)
	s.Require().NoError(err)
	s.Empty(name)

	s.Require().NoError(s.storage.SaveUsername(s.ctx, "Alice"))

	name, err = s.storage.GetUsername(s.ctx)
	s.Require().NoError(err)
	s.Equal("Alice", name)
}

// Preferred game tests

func (s *StorageSuite) TestTakePreferredGameIDConsumesOnce() {
	s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, "12"))

	raw, err := s.storage.TakePreferredGameID(s.ctx)
	s.Require().NoError(err)
	s.Equal("12", raw)

	raw, err = s.storage.TakePreferredGameID(s.ctx)
	s.Require().NoError(err)
	s.Empty(raw)
}

func (s *StorageSuite) TestPreferredGameIDTTL() {
	_ = s.storage.SavePreferredGameID(s.ctx, "12")

	ttl := s.mini.TTL(profileKey("alice", storage.KeyPreferredGameID))
	s.True(ttl > 0, "Preferred game id should have TTL")
}

// Final score tests

func (s *StorageSuite) TestTakeFinalScoreConsumesOnce() {
	score := model.ScoreSnapshot{Player1: 3, Player2: 1, Sweeps: [2]int{1, 0}, CardsTaken: [2]int{22, 18}, CoinsTaken: [2]int{6, 4}}
	s.Require().NoError(s.storage.SaveFinalScore(s.ctx, score))

	got, err := s.storage.TakeFinalScore(s.ctx)
	s.Require().NoError(err)
	s.Equal(score, *got)

	_, err = s.storage.TakeFinalScore(s.ctx)
	s.ErrorIs(err, model.ErrScoreNotFound)
}

func (s *StorageSuite) TestTakeFinalScoreReadsLegacyKeys() {
	legacy := `{"player1":2,"player2":1,"scope":[1,0],"carte_p1":21,"carte_p2":19,"denari_p1":6,"denari_p2":4}`
	s.mini.Set(profileKey("alice", storage.KeyLastGameScore), legacy)

	got, err := s.storage.TakeFinalScore(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.ScoreSnapshot{
		Player1:    2,
		Player2:    1,
		Sweeps:     [2]int{1, 0},
		CardsTaken: [2]int{21, 19},
		CoinsTaken: [2]int{6, 4},
	}, *got)
}

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scopa-go/internal/testutil/scopaserver"
)

type ClientSuite struct {
	suite.Suite
	fake   *scopaserver.Server
	client *Client
	ctx    context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	fake, ts := scopaserver.Start(s.T())
	s.fake = fake
	s.client = New(ts.URL + "/")
	s.ctx = context.Background()
}

func (s *ClientSuite) TestCreateGame() {
	id, err := s.client.CreateGame(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(1, id)

	id, err = s.client.CreateGame(s.ctx, "bob")
	s.Require().NoError(err)
	s.Equal(2, id)
}

func (s *ClientSuite) TestJoinGame() {
	id, _ := s.client.CreateGame(s.ctx, "alice")

	joined, err := s.client.JoinGame(s.ctx, id, "bob")
	s.Require().NoError(err)
	s.Equal(id, joined)
}

func (s *ClientSuite) TestJoinGameNotFound() {
	_, err := s.client.JoinGame(s.ctx, 99, "bob")
	s.Require().Error(err)
	s.ErrorIs(err, ErrNotFound)
	s.Equal("Partita non trovata", Reason(err))
}

func (s *ClientSuite) TestJoinGameFull() {
	id, _ := s.client.CreateGame(s.ctx, "alice")
	_, _ = s.client.JoinGame(s.ctx, id, "bob")

	_, err := s.client.JoinGame(s.ctx, id, "carol")

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusForbidden, apiErr.StatusCode)
	s.Equal("Partita piena", apiErr.Detail)
	s.NotErrorIs(err, ErrNotFound)
}

func (s *ClientSuite) TestGetStateWaiting() {
	id, _ := s.client.CreateGame(s.ctx, "alice")

	state, err := s.client.GetState(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.True(state.Waiting)
	s.Equal(1, state.PlayersCount)
}

func (s *ClientSuite) TestGetStateActive() {
	id, _ := s.client.CreateGame(s.ctx, "alice")
	_, _ = s.client.JoinGame(s.ctx, id, "bob")

	state, err := s.client.GetState(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.False(state.Waiting)
	s.True(state.YourTurn)
	s.Len(state.Hand, 3)
	s.Len(state.Table, 4)
	s.Equal(3, state.OpponentHandSize)
	s.JSONEq(`[6, "bastoni"]`, string(state.Hand[0]))
	s.Require().NotNil(state.Score)
}

func (s *ClientSuite) TestGetStateNotFound() {
	_, err := s.client.GetState(s.ctx, 42, "alice")
	s.ErrorIs(err, ErrNotFound)
}

func (s *ClientSuite) TestPlay() {
	id, _ := s.client.CreateGame(s.ctx, "alice")
	_, _ = s.client.JoinGame(s.ctx, id, "bob")

	s.Require().NoError(s.client.Play(s.ctx, id, "alice", 0))

	state, err := s.client.GetState(s.ctx, id, "alice")
	s.Require().NoError(err)
	s.False(state.YourTurn)
	s.Len(state.Hand, 2)
}

func (s *ClientSuite) TestPlayRejectedCarriesDetail() {
	id, _ := s.client.CreateGame(s.ctx, "alice")
	_, _ = s.client.JoinGame(s.ctx, id, "bob")

	err := s.client.Play(s.ctx, id, "bob", 0)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadRequest, apiErr.StatusCode)
	s.Equal("non è il tuo turno", apiErr.Detail)
}

func (s *ClientSuite) TestHealth() {
	_, _ = s.client.CreateGame(s.ctx, "alice")

	health, err := s.client.Health(s.ctx)
	s.Require().NoError(err)
	s.Equal("ok", health.Status)
	s.Equal(1, health.GamesCount)
	s.Equal(2, health.NextGameID)
}

func (s *ClientSuite) TestServerErrorWithoutBody() {
	s.fake.Fail(scopaserver.EndpointCreate, scopaserver.Fault{Status: http.StatusBadGateway})

	_, err := s.client.CreateGame(s.ctx, "alice")

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusBadGateway, apiErr.StatusCode)
}

func (s *ClientSuite) TestTransportFailureIsUnavailable() {
	c := New("http://127.0.0.1:1", WithTimeout(time.Second))

	_, err := c.CreateGame(s.ctx, "alice")
	s.ErrorIs(err, ErrUnavailable)
	s.Equal("Connection error, please try again.", Reason(err))
}

func (s *ClientSuite) TestContextCancelled() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.client.CreateGame(ctx, "alice")
	s.ErrorIs(err, ErrUnavailable)
	s.True(errors.Is(err, context.Canceled))
}

func (s *ClientSuite) TestLegacyErrorShape() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"GAME_FULL","message":"Game is full"}}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL).JoinGame(s.ctx, 1, "alice")
	s.EqualError(err, "Game is full (GAME_FULL)")
}

func (s *ClientSuite) TestPlayerIDIsPathEscaped() {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	err := New(ts.URL).Play(s.ctx, 3, "a b/c", 1)
	s.Require().NoError(err)
	s.Equal("/play/3/a%20b%2Fc/1", gotPath)
}

package session

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/dependencies/mocks"
	"github.com/mcoot/scopa-go/internal/metrics"
	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage/memory"
	scopatest "github.com/mcoot/scopa-go/internal/testutil"
	"github.com/mcoot/scopa-go/internal/testutil/scopaserver"
)

type ControllerSuite struct {
	suite.Suite
	fake    *scopaserver.Server
	api     *client.Client
	storage *memory.Storage
	view    *recordingView
	clock   *mocks.MockClock
	metrics *metrics.Metrics
	cfg     Config
	ctx     context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	fake, ts := scopaserver.Start(s.T())
	s.fake = fake
	s.api = client.New(ts.URL)
	s.storage = memory.New()
	s.view = newRecordingView()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.metrics = metrics.NewNop()
	s.cfg = DefaultConfig()
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(player model.PlayerIdentity) *Controller {
	return NewController(s.cfg, player, Deps{
		API:     s.api,
		Storage: s.storage,
		View:    s.view,
		Clock:   s.clock,
		Metrics: s.metrics,
		Logger:  scopatest.NopLogger(),
	})
}

// waitFor consumes view events until one of kind matches
func (s *ControllerSuite) waitFor(kind string, match func(viewEvent) bool) viewEvent {
	s.T().Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case e := <-s.view.ch:
			if e.kind == kind && (match == nil || match(e)) {
				return e
			}
		case <-timeout:
			s.FailNow("timed out waiting for view event " + kind)
			return viewEvent{}
		}
	}
}

func (s *ControllerSuite) result(done <-chan runResult) runResult {
	s.T().Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(waitTimeout):
		s.FailNow("timed out waiting for the session to stop")
		return runResult{}
	}
}

// startMatch establishes alice as creator, seats bob, and returns alice's controller
func (s *ControllerSuite) startMatch() (*Controller, int) {
	alice := s.newController("alice")
	handle, err := alice.Establish(s.ctx)
	s.Require().NoError(err)

	_, err = s.api.JoinGame(s.ctx, handle.GameID, "bob")
	s.Require().NoError(err)
	return alice, handle.GameID
}

func clubs(ranks ...int) []model.Card {
	out := make([]model.Card, len(ranks))
	for i, r := range ranks {
		out[i] = model.Card{Rank: r, Suit: model.SuitClubs}
	}
	return out
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

// Establish tests

func (s *ControllerSuite) TestEstablishCreatesWithoutPreferredGame() {
	c := s.newController("alice")

	handle, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	s.Equal(model.SessionHandle{GameID: 1, Player: "alice"}, handle)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))
	s.Equal(0, s.fake.Calls(scopaserver.EndpointJoin))

	shown, ok := s.view.last("game_id")
	s.Require().True(ok)
	s.Equal(handle, shown.handle)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.SessionsEstablished.WithLabelValues(metrics.ModeCreate)))
}

func (s *ControllerSuite) TestEstablishJoinsPreferredGame() {
	gameID, err := s.api.CreateGame(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, strconv.Itoa(gameID)))

	c := s.newController("alice")
	handle, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	s.Equal(gameID, handle.GameID)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointJoin))
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))

	// Consumed once
	left, err := s.storage.TakePreferredGameID(s.ctx)
	s.Require().NoError(err)
	s.Empty(left)
}

func (s *ControllerSuite) TestEstablishIgnoresInvalidPreferredGame() {
	for _, preferred := range []string{"abc", "-3", "0", "1.5"} {
		s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, preferred))

		_, err := s.newController("alice").Establish(s.ctx)
		s.Require().NoError(err, preferred)
	}

	s.Equal(0, s.fake.Calls(scopaserver.EndpointJoin))
	s.Equal(4, s.fake.Calls(scopaserver.EndpointCreate))
}

func (s *ControllerSuite) TestEstablishJoinFailureFallsBackToCreate() {
	s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, "99"))

	c := s.newController("alice")
	handle, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	s.Equal(1, handle.GameID)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointJoin))
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))

	notice, ok := s.view.last("notice")
	s.Require().True(ok)
	s.Contains(notice.msg, "Partita non trovata")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.JoinFallbacks))
}

func (s *ControllerSuite) TestEstablishFallbackIsBounded() {
	s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, "99"))
	s.fake.Fail(scopaserver.EndpointCreate, scopaserver.Fault{Status: 503, Detail: "server busy"})

	c := s.newController("alice")
	_, err := c.Establish(s.ctx)

	s.ErrorIs(err, model.ErrEstablishFailed)
	s.Contains(err.Error(), "server busy")
	s.Equal(1, s.fake.Calls(scopaserver.EndpointJoin))
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))

	_, ok := c.Handle()
	s.False(ok)
}

func (s *ControllerSuite) TestEstablishWithoutFallbackBudget() {
	s.cfg.MaxJoinFallbacks = 0
	s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, "99"))

	_, err := s.newController("alice").Establish(s.ctx)

	s.ErrorIs(err, model.ErrEstablishFailed)
	s.ErrorIs(err, client.ErrNotFound)
	s.Equal(0, s.fake.Calls(scopaserver.EndpointCreate))
}

func (s *ControllerSuite) TestEstablishIsIdempotent() {
	c := s.newController("alice")
	first, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	second, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))
}

func (s *ControllerSuite) TestRunWithoutSession() {
	_, err := s.newController("alice").Run(s.ctx, newManualTrigger())
	s.ErrorIs(err, model.ErrNoSession)
}

// Synchronizer tests

func (s *ControllerSuite) TestWaitingShowsOnlyPlayersCount() {
	c := s.newController("alice")
	_, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	cancel, done := runInBackground(s.ctx, c, newManualTrigger())

	e := s.waitFor("waiting", nil)
	s.Equal(1, e.count)

	cancel()
	r := s.result(done)
	s.Require().NoError(r.err)
	s.Equal(OutcomeCancelled, r.out.Reason)
	s.Equal(0, s.view.count("render"))

	_, ok := c.Handle()
	s.False(ok)
}

func (s *ControllerSuite) TestActiveStateRendersFullBoard() {
	c, _ := s.startMatch()
	cancel, done := runInBackground(s.ctx, c, newManualTrigger())
	defer func() { cancel(); <-done }()

	e := s.waitFor("render", nil)

	s.Equal(model.PhaseActive, e.state.Phase)
	s.True(e.state.YourTurn)
	s.Equal(clubs(10, 9, 8, 7), e.state.Table)
	s.Equal(clubs(6, 5, 4), e.state.Hand)
	s.Equal(3, e.state.OpponentHandSize)
	s.Equal(model.HiddenCards(3), e.state.OpponentHand())
	s.False(e.state.IsOver)
}

func (s *ControllerSuite) TestTickRefreshesState() {
	c, gameID := s.startMatch()
	trigger := newManualTrigger()
	cancel, done := runInBackground(s.ctx, c, trigger)
	defer func() { cancel(); <-done }()

	s.waitFor("render", nil)

	// Bob plays out of band; the next tick picks it up
	s.Require().True(s.fake.Update(gameID, func(g *scopaserver.Game) { g.Turn = 1 }))
	trigger.fire()

	e := s.waitFor("render", func(e viewEvent) bool { return !e.state.YourTurn })
	s.Equal(clubs(6, 5, 4), e.state.Hand)
}

func (s *ControllerSuite) TestTransientErrorKeepsSessionAlive() {
	c, _ := s.startMatch()
	s.fake.Fail(scopaserver.EndpointState, scopaserver.Fault{Status: 500, Detail: "temporaneamente non disponibile", Times: 1})

	trigger := newManualTrigger()
	cancel, done := runInBackground(s.ctx, c, trigger)
	defer func() { cancel(); <-done }()

	notice := s.waitFor("notice", nil)
	s.Equal("temporaneamente non disponibile", notice.msg)
	s.Equal(0, s.view.count("render"))

	trigger.fire()
	s.waitFor("render", nil)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Polls.WithLabelValues(metrics.PollError)))
}

func (s *ControllerSuite) TestNotFoundStopsSession() {
	c := s.newController("alice")
	handle, err := c.Establish(s.ctx)
	s.Require().NoError(err)
	s.fake.Delete(handle.GameID)

	_, done := runInBackground(s.ctx, c, newManualTrigger())
	r := s.result(done)

	s.Require().NoError(r.err)
	s.Equal(OutcomeNotFound, r.out.Reason)

	terminal, ok := s.view.last("terminal")
	s.Require().True(ok)
	s.Equal(MsgNotFound, terminal.msg)
	s.Equal(0, s.view.count("results"))
	s.Equal(1, s.fake.Calls(scopaserver.EndpointState))

	// No automatic re-creation
	s.Equal(1, s.fake.Calls(scopaserver.EndpointCreate))

	_, err = s.storage.TakeFinalScore(s.ctx)
	s.ErrorIs(err, model.ErrScoreNotFound)
}

// Move tests

func (s *ControllerSuite) TestMoveScenario() {
	c, _ := s.startMatch()
	cancel, done := runInBackground(s.ctx, c, newManualTrigger())
	defer func() { cancel(); <-done }()

	s.waitFor("render", func(e viewEvent) bool { return e.state.YourTurn })
	s.True(c.SubmitMove(0))

	e := s.waitFor("render", func(e viewEvent) bool { return len(e.state.Hand) == 2 })

	s.Equal(clubs(5, 4), e.state.Hand)
	s.Equal(clubs(10, 9, 8, 7, 6), e.state.Table)
	s.False(e.state.YourTurn)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointPlay))
	s.Contains(s.clock.Waits(), s.cfg.SettleDelay)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Moves.WithLabelValues(metrics.MoveAccepted)))
}

func (s *ControllerSuite) TestMoveCaptureIncrementsTakenCount() {
	c, gameID := s.startMatch()
	s.Require().True(s.fake.Update(gameID, func(g *scopaserver.Game) {
		g.Table = []scopaserver.Card{scopaserver.C(6, scopaserver.Coppe)}
	}))

	cancel, done := runInBackground(s.ctx, c, newManualTrigger())
	defer func() { cancel(); <-done }()

	s.waitFor("render", func(e viewEvent) bool { return e.state.YourTurn })
	s.True(c.SubmitMove(0))

	e := s.waitFor("render", func(e viewEvent) bool { return len(e.state.Hand) == 2 })
	s.Equal(2, e.state.PlayerTakenCount)
	s.Equal(1, e.state.PlayerSweeps)
	s.Empty(e.state.Table)
}

func (s *ControllerSuite) TestRejectedMoveSurfacesDetail() {
	c, _ := s.startMatch()
	s.fake.Fail(scopaserver.EndpointPlay, scopaserver.Fault{Status: 400, Detail: "mossa non valida", Times: 1})

	cancel, done := runInBackground(s.ctx, c, newManualTrigger())
	defer func() { cancel(); <-done }()

	s.waitFor("render", func(e viewEvent) bool { return e.state.YourTurn })
	s.True(c.SubmitMove(0))

	notice := s.waitFor("notice", nil)
	s.Equal("mossa non valida", notice.msg)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointPlay))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Moves.WithLabelValues(metrics.MoveRejected)))

	// The gate reopens after a rejection
	s.True(c.SubmitMove(0))
	s.waitFor("render", func(e viewEvent) bool { return len(e.state.Hand) == 2 })
	s.Equal(2, s.fake.Calls(scopaserver.EndpointPlay))
}

// Termination tests

func (s *ControllerSuite) seedFinishedGame(omitScore bool) {
	id := s.fake.Seed(&scopaserver.Game{
		Players:     []string{"alice", "bob"},
		Initialized: true,
		Scopa:       [2]int{1, 0},
		Taken:       [2][]scopaserver.Card{{scopaserver.C(7, scopaserver.Denari)}, {}},
		OmitScore:   omitScore,
	})
	s.Require().NoError(s.storage.SavePreferredGameID(s.ctx, strconv.Itoa(id)))
}

func (s *ControllerSuite) TestTerminalFiresExactlyOnce() {
	s.seedFinishedGame(false)
	c := s.newController("alice")
	_, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	trigger := NewPollTrigger(s.clock, s.cfg.PollInterval)
	_, done := runInBackground(s.ctx, c, trigger)
	r := s.result(done)

	want := model.ScoreSnapshot{
		Player1:    2,
		Player2:    0,
		Sweeps:     [2]int{1, 0},
		CardsTaken: [2]int{1, 0},
		CoinsTaken: [2]int{1, 0},
	}
	s.Require().NoError(r.err)
	s.Equal(OutcomeEnded, r.out.Reason)
	s.Require().NotNil(r.out.Score)
	s.Equal(want, *r.out.Score)

	// Repeated terminal polls are impossible once the loop has returned
	for i := 0; i < 3; i++ {
		s.clock.Tick()
	}
	s.Eventually(func() bool {
		for _, t := range s.clock.Tickers() {
			if !t.Stopped() {
				return false
			}
		}
		return true
	}, waitTimeout, 10*time.Millisecond)
	s.Equal(1, s.fake.Calls(scopaserver.EndpointState))

	s.Equal(1, s.view.count("terminal"))
	s.Equal(1, s.view.count("results"))
	terminal, _ := s.view.last("terminal")
	s.Equal(MsgGameOver, terminal.msg)
	s.Contains(s.clock.Waits(), s.cfg.HandoffDelay)

	saved, err := s.storage.TakeFinalScore(s.ctx)
	s.Require().NoError(err)
	s.Equal(want, *saved)

	_, err = c.Run(s.ctx, trigger)
	s.ErrorIs(err, model.ErrSessionEnded)
	_, err = c.Establish(s.ctx)
	s.ErrorIs(err, model.ErrSessionEnded)
}

func (s *ControllerSuite) TestGameOverWithoutScoreSavesZeroScore() {
	s.seedFinishedGame(true)
	c := s.newController("alice")
	_, err := c.Establish(s.ctx)
	s.Require().NoError(err)

	_, done := runInBackground(s.ctx, c, newManualTrigger())
	r := s.result(done)

	s.Require().NoError(r.err)
	s.Equal(OutcomeEnded, r.out.Reason)

	saved, err := s.storage.TakeFinalScore(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.ZeroScore(), *saved)

	results, ok := s.view.last("results")
	s.Require().True(ok)
	s.Equal(model.ZeroScore(), results.score)
}

// Loop step tests. These drive the loop's handlers directly on the test goroutine.

func (s *ControllerSuite) steppedController(state model.GameStateView) *Controller {
	c := s.newController("alice")
	c.handle = &model.SessionHandle{GameID: 1, Player: "alice"}
	c.state = state
	return c
}

func (s *ControllerSuite) TestTurnGateNoOpWhenNotYourTurn() {
	c := s.steppedController(model.GameStateView{
		Phase:    model.PhaseActive,
		YourTurn: false,
		Hand:     clubs(1, 2, 3),
	})

	for idx := -1; idx <= 4; idx++ {
		c.submit(s.ctx, idx)
		s.False(c.submitting, "index %d", idx)
	}

	s.Equal(0, s.fake.Calls(scopaserver.EndpointPlay))
	s.Equal(6.0, testutil.ToFloat64(s.metrics.Moves.WithLabelValues(metrics.MoveGated)))
}

func (s *ControllerSuite) TestTurnGateRejectsIndexOutsideHand() {
	c := s.steppedController(model.GameStateView{
		Phase:    model.PhaseActive,
		YourTurn: true,
		Hand:     clubs(1, 2, 3),
	})

	c.submit(s.ctx, 3)
	c.submit(s.ctx, -1)

	s.False(c.submitting)
	s.Equal(0, s.fake.Calls(scopaserver.EndpointPlay))
}

func (s *ControllerSuite) TestTurnGateHoldsWhileMoveInFlight() {
	c := s.steppedController(model.GameStateView{
		Phase:    model.PhaseActive,
		YourTurn: true,
		Hand:     clubs(1, 2, 3),
	})
	c.submitting = true

	c.submit(s.ctx, 0)

	s.Equal(0, s.fake.Calls(scopaserver.EndpointPlay))
}

func (s *ControllerSuite) TestTurnGateWithoutSession() {
	c := s.steppedController(model.GameStateView{YourTurn: true, Hand: clubs(1)})
	c.handle = nil

	c.submit(s.ctx, 0)

	s.False(c.submitting)
}

func (s *ControllerSuite) TestSubmitMoveQueueIsBounded() {
	s.cfg.MoveQueueSize = 1
	c := s.newController("alice")

	s.True(c.SubmitMove(0))
	s.False(c.SubmitMove(1))
}

func (s *ControllerSuite) TestRefreshQueuedWhilePollInFlight() {
	c := s.steppedController(model.GameStateView{})
	c.polling = true

	s.False(c.startPoll(s.ctx, false))
	c.requestRefresh(s.ctx)

	s.True(c.refreshQueued)
	s.Equal(0, s.fake.Calls(scopaserver.EndpointState))
}

func (s *ControllerSuite) TestStalePollIsDiscarded() {
	before := model.GameStateView{Phase: model.PhaseActive, YourTurn: true, Hand: clubs(1, 2)}
	c := s.steppedController(before)
	c.epoch = 1
	c.polling = true

	_, done := c.applyPoll(s.ctx, pollResult{
		epoch: 0,
		resp:  &client.StateResponse{Waiting: true, PlayersCount: 1},
	})

	s.False(done)
	s.False(c.polling)
	s.Equal(before, c.state)
	s.Equal(0, s.view.count("waiting"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Polls.WithLabelValues(metrics.PollStale)))
}

func (s *ControllerSuite) TestForcedRefreshReleasesMoveGate() {
	c := s.steppedController(model.GameStateView{Phase: model.PhaseActive})
	c.submitting = true
	c.polling = true

	_, done := c.applyPoll(s.ctx, pollResult{
		forced: true,
		resp: &client.StateResponse{
			YourTurn: false,
			Hand:     []json.RawMessage{raw(`[4,"bastoni"]`)},
		},
	})

	s.False(done)
	s.False(c.submitting)
	s.Equal(clubs(4), c.state.Hand)
}

func (s *ControllerSuite) TestUnforcedPollKeepsMoveGate() {
	c := s.steppedController(model.GameStateView{Phase: model.PhaseActive})
	c.submitting = true
	c.polling = true

	c.applyPoll(s.ctx, pollResult{resp: &client.StateResponse{YourTurn: true}})

	s.True(c.submitting)
}

func (s *ControllerSuite) TestSameResponseGivesSameState() {
	c := s.steppedController(model.GameStateView{})
	resp := &client.StateResponse{
		YourTurn:         true,
		Table:            []json.RawMessage{raw(`[1,"denari"]`), raw(`{"value":3,"suit":"Coppe"}`)},
		Hand:             []json.RawMessage{raw(`[7,"denari"]`)},
		OpponentHandSize: 2,
		PlayerTaken:      []json.RawMessage{raw(`[2,"spade"]`)},
	}

	s.Equal(StateView(resp, c.catalog), StateView(resp, c.catalog))
}

func (s *ControllerSuite) TestUnreadableHandEntriesKeepTheirPosition() {
	c := s.steppedController(model.GameStateView{})

	view := StateView(&client.StateResponse{
		Hand: []json.RawMessage{raw(`[7,"denari"]`), raw(`"garbage"`), raw(`{"rank":2,"suit":"spade"}`)},
	}, c.catalog)

	s.Equal([]model.Card{
		{Rank: 7, Suit: model.SuitCoins},
		model.UnknownCard,
		{Rank: 2, Suit: model.SuitSwords},
	}, view.Hand)
	s.True(view.HasHandIndex(2))
}

func (s *ControllerSuite) TestViewPanicDoesNotStopLoop() {
	c, _ := s.startMatch()
	c.view = panickyView{s.view}

	trigger := newManualTrigger()
	cancel, done := runInBackground(s.ctx, c, trigger)

	activePolls := func() float64 {
		return testutil.ToFloat64(s.metrics.Polls.WithLabelValues(metrics.PollActive))
	}
	s.Eventually(func() bool { return activePolls() == 1 }, waitTimeout, 10*time.Millisecond)

	trigger.fire()
	s.Eventually(func() bool { return activePolls() == 2 }, waitTimeout, 10*time.Millisecond)

	cancel()
	r := s.result(done)
	s.Equal(OutcomeCancelled, r.out.Reason)
}

type panickyView struct {
	*recordingView
}

func (panickyView) Render(model.GameStateView) {
	panic("render failed")
}

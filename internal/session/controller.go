package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/scopa-go/internal/cards"
	"github.com/mcoot/scopa-go/internal/dependencies/clock"
	"github.com/mcoot/scopa-go/internal/metrics"
	"github.com/mcoot/scopa-go/internal/middleware"
	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage"
)

// Messages shown by the session
const (
	MsgNotFound = "Game not found or finished."
	MsgGameOver = "Game over! Preparing the score..."
)

// OutcomeReason says why Run returned
type OutcomeReason string

const (
	OutcomeEnded     OutcomeReason = "ended"
	OutcomeNotFound  OutcomeReason = "not_found"
	OutcomeCancelled OutcomeReason = "cancelled"
)

// Outcome is the result of a session run
type Outcome struct {
	Reason OutcomeReason
	// Score is the persisted snapshot, set when Reason is OutcomeEnded
	Score *model.ScoreSnapshot
}

// Deps are the collaborators of a Controller
type Deps struct {
	API     GameAPI
	Storage storage.Storage
	View    View
	Catalog *cards.Catalog
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Controller owns one session: establishing it, keeping the view in sync,
// submitting moves and handing off at the end.
//
// Establish runs on the caller's goroutine. After that every field below is
// owned by the Run loop; other goroutines only talk to it through SubmitMove.
type Controller struct {
	cfg     Config
	player  model.PlayerIdentity
	api     GameAPI
	store   storage.Storage
	view    View
	catalog *cards.Catalog
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger

	handle *model.SessionHandle
	state  model.GameStateView
	ended  bool

	// poll discipline
	polling       bool
	refreshQueued bool
	// epoch counts acknowledged moves; polls started in an older epoch are stale
	epoch int

	// move gate
	submitting bool
	settle     <-chan time.Time

	moves    chan int
	pollDone chan pollResult
	moveDone chan moveResult
}

// NewController creates a controller for player
func NewController(cfg Config, player model.PlayerIdentity, deps Deps) *Controller {
	if deps.Catalog == nil {
		deps.Catalog = cards.DefaultCatalog("")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MoveQueueSize <= 0 {
		cfg.MoveQueueSize = 1
	}

	return &Controller{
		cfg:      cfg,
		player:   player,
		api:      deps.API,
		store:    deps.Storage,
		view:     deps.View,
		catalog:  deps.Catalog,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With(slog.String("player_id", string(player))),
		moves:    make(chan int, cfg.MoveQueueSize),
		pollDone: make(chan pollResult, 1),
		moveDone: make(chan moveResult, 1),
	}
}

// Handle returns the session handle, if one has been established
func (c *Controller) Handle() (model.SessionHandle, bool) {
	if c.handle == nil {
		return model.SessionHandle{}, false
	}
	return *c.handle, true
}

// Run drives the session until it ends, the game disappears or ctx is done.
// The trigger decides when state is refreshed besides the initial fetch and
// the forced refresh after each move.
func (c *Controller) Run(ctx context.Context, trigger Trigger) (Outcome, error) {
	if c.ended {
		return Outcome{}, model.ErrSessionEnded
	}
	if c.handle == nil {
		return Outcome{}, model.ErrNoSession
	}

	// Cancelling this context stops the trigger and any request in flight.
	// It happens once, on whichever way out the loop takes.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticks := trigger.Start(ctx, *c.handle)

	c.logger.Info("session started", slog.Int("game_id", c.handle.GameID))
	c.startPoll(ctx, false)

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			c.metrics.SessionsEnded.WithLabelValues(string(OutcomeCancelled)).Inc()
			c.logger.Info("session cancelled")
			return Outcome{Reason: OutcomeCancelled}, nil

		case <-ticks:
			if c.polling {
				c.logger.Debug("poll skipped, previous still in flight")
				continue
			}
			c.startPoll(ctx, false)

		case res := <-c.pollDone:
			if out, done := c.applyPoll(ctx, res); done {
				return out, nil
			}

		case idx := <-c.moves:
			c.submit(ctx, idx)

		case res := <-c.moveDone:
			c.applyMove(res)

		case <-c.settle:
			c.settle = nil
			c.requestRefresh(ctx)
		}
	}
}

// safely runs a view callback, keeping the loop alive if it panics
func (c *Controller) safely(name string, fn func()) {
	middleware.Recover(c.logger, name, fn)
}

func (c *Controller) teardown() {
	c.handle = nil
	c.ended = true
	c.submitting = false
	c.settle = nil
}

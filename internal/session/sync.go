package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mcoot/scopa-go/internal/cards"
	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/metrics"
	"github.com/mcoot/scopa-go/internal/model"
)

type pollResult struct {
	epoch  int
	forced bool
	resp   *client.StateResponse
	err    error
}

// startPoll issues one state fetch unless one is already in flight
func (c *Controller) startPoll(ctx context.Context, forced bool) bool {
	if c.polling || c.handle == nil {
		return false
	}
	c.polling = true

	handle := *c.handle
	epoch := c.epoch
	go func() {
		resp, err := c.api.GetState(ctx, handle.GameID, handle.Player)
		c.pollDone <- pollResult{epoch: epoch, forced: forced, resp: resp, err: err}
	}()
	return true
}

// requestRefresh forces a fetch now, or right after the one in flight settles
func (c *Controller) requestRefresh(ctx context.Context) {
	if c.polling {
		c.refreshQueued = true
		return
	}
	c.startPoll(ctx, true)
}

// applyPoll reconciles one fetch into the view. done reports that the session is over.
func (c *Controller) applyPoll(ctx context.Context, res pollResult) (out Outcome, done bool) {
	c.polling = false
	defer func() {
		if done {
			return
		}
		if c.refreshQueued {
			c.refreshQueued = false
			c.startPoll(ctx, true)
		}
	}()

	if res.epoch < c.epoch {
		c.metrics.Polls.WithLabelValues(metrics.PollStale).Inc()
		c.logger.Debug("discarding poll started before the last move",
			slog.Int("poll_epoch", res.epoch),
			slog.Int("epoch", c.epoch),
		)
		return Outcome{}, false
	}

	if res.forced {
		defer func() { c.submitting = false }()
	}

	switch {
	case errors.Is(res.err, client.ErrNotFound):
		c.metrics.Polls.WithLabelValues(metrics.PollNotFound).Inc()
		c.logger.Warn("game not found", slog.Int("game_id", c.handle.GameID))
		c.state = model.GameStateView{Phase: model.PhaseNotFound}
		c.teardown()
		c.safely("terminal", func() { c.view.ShowTerminal(MsgNotFound) })
		c.metrics.SessionsEnded.WithLabelValues(string(OutcomeNotFound)).Inc()
		return Outcome{Reason: OutcomeNotFound}, true

	case res.err != nil:
		if errors.Is(res.err, context.Canceled) {
			return Outcome{}, false
		}
		c.metrics.Polls.WithLabelValues(metrics.PollError).Inc()
		c.logger.Warn("failed to fetch state", slog.String("error", res.err.Error()))
		reason := client.Reason(res.err)
		c.safely("notice", func() { c.view.Notice(reason) })
		return Outcome{}, false

	case res.resp.Waiting:
		c.metrics.Polls.WithLabelValues(metrics.PollWaiting).Inc()
		c.state = StateView(res.resp, c.catalog)
		count := res.resp.PlayersCount
		c.safely("waiting", func() { c.view.ShowWaiting(count) })
		return Outcome{}, false
	}

	c.metrics.Polls.WithLabelValues(metrics.PollActive).Inc()
	c.state = StateView(res.resp, c.catalog)
	state := c.state
	c.safely("render", func() { c.view.Render(state) })

	if state.IsOver {
		return c.terminate(ctx, state), true
	}
	return Outcome{}, false
}

// StateView converts a state response into the client view. Every hand entry
// keeps its position, readable or not, because moves are submitted by index.
func StateView(resp *client.StateResponse, cat *cards.Catalog) model.GameStateView {
	if resp.Waiting {
		return model.GameStateView{
			Phase:        model.PhaseWaiting,
			PlayersCount: resp.PlayersCount,
			Table:        []model.Card{},
			Hand:         []model.Card{},
		}
	}

	return model.GameStateView{
		Phase:              model.PhaseActive,
		PlayersCount:       model.MaxPlayers,
		YourTurn:           resp.YourTurn,
		Table:              normalizeAll(resp.Table, cat),
		Hand:               normalizeAll(resp.Hand, cat),
		OpponentHandSize:   max(resp.OpponentHandSize, 0),
		PlayerTakenCount:   len(resp.PlayerTaken),
		OpponentTakenCount: len(resp.OpponentTaken),
		PlayerSweeps:       resp.Scopa,
		OpponentSweeps:     resp.OpponentScopa,
		IsOver:             resp.GameOver,
		FinalScore:         resp.Score,
	}
}

func normalizeAll(raw []json.RawMessage, cat *cards.Catalog) []model.Card {
	out := make([]model.Card, len(raw))
	for i, r := range raw {
		card, ok := cat.Normalize(cards.Parse(r))
		if !ok {
			card = model.UnknownCard
		}
		out[i] = card
	}
	return out
}

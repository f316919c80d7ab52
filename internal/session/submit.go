package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/scopa-go/internal/client"
	"github.com/mcoot/scopa-go/internal/metrics"
)

type moveResult struct {
	index int
	err   error
}

// SubmitMove asks the session to play the card at handIndex. Safe to call from
// any goroutine. It returns false when the request could not be queued; a queued
// request may still be dropped by the turn gate.
func (c *Controller) SubmitMove(handIndex int) bool {
	select {
	case c.moves <- handIndex:
		return true
	default:
		return false
	}
}

// gateOpen reports whether a move at idx may be sent now
func (c *Controller) gateOpen(idx int) (bool, string) {
	switch {
	case c.handle == nil:
		return false, "no session"
	case c.ended:
		return false, "session ended"
	case c.submitting:
		return false, "move in flight"
	case !c.state.YourTurn:
		return false, "not your turn"
	case !c.state.HasHandIndex(idx):
		return false, "hand index out of range"
	}
	return true, ""
}

// submit sends one move if the gate is open. A closed gate is a silent no-op.
func (c *Controller) submit(ctx context.Context, idx int) {
	if ok, why := c.gateOpen(idx); !ok {
		c.metrics.Moves.WithLabelValues(metrics.MoveGated).Inc()
		c.logger.Debug("move ignored", slog.Int("hand_index", idx), slog.String("why", why))
		return
	}
	c.submitting = true

	handle := *c.handle
	go func() {
		err := c.api.Play(ctx, handle.GameID, handle.Player, idx)
		c.moveDone <- moveResult{index: idx, err: err}
	}()
}

// applyMove handles the server's answer to a move. The gate stays closed after
// an accepted move until the forced refresh that follows the settle delay lands.
func (c *Controller) applyMove(res moveResult) {
	if res.err == nil {
		c.epoch++
		c.metrics.Moves.WithLabelValues(metrics.MoveAccepted).Inc()
		c.logger.Info("move accepted", slog.Int("hand_index", res.index))
		c.settle = c.clock.After(c.cfg.SettleDelay)
		return
	}

	c.submitting = false
	if errors.Is(res.err, context.Canceled) {
		return
	}

	var apiErr *client.APIError
	if errors.As(res.err, &apiErr) {
		c.metrics.Moves.WithLabelValues(metrics.MoveRejected).Inc()
		c.logger.Info("move rejected",
			slog.Int("hand_index", res.index),
			slog.String("detail", apiErr.Detail),
		)
	} else {
		c.metrics.Moves.WithLabelValues(metrics.MoveError).Inc()
		c.logger.Warn("move failed",
			slog.Int("hand_index", res.index),
			slog.String("error", res.err.Error()),
		)
	}

	reason := client.Reason(res.err)
	c.safely("notice", func() { c.view.Notice(reason) })
}

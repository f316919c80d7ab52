package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/mcoot/scopa-go/internal/dependencies/clock"
	"github.com/mcoot/scopa-go/internal/model"
)

// Trigger decides when a session refreshes its state. The returned channel
// delivers one value per requested refresh until ctx is done.
type Trigger interface {
	Start(ctx context.Context, handle model.SessionHandle) <-chan struct{}
}

// PollTrigger refreshes on a fixed interval
type PollTrigger struct {
	clock    clock.Clock
	interval time.Duration
}

// NewPollTrigger creates a trigger ticking every interval
func NewPollTrigger(clk clock.Clock, interval time.Duration) *PollTrigger {
	return &PollTrigger{clock: clk, interval: interval}
}

// Start begins ticking
func (p *PollTrigger) Start(ctx context.Context, _ model.SessionHandle) <-chan struct{} {
	out := make(chan struct{}, 1)
	go forwardTicks(ctx, p.clock.NewTicker(p.interval), out)
	return out
}

// forwardTicks relays ticker ticks into out, coalescing ones the loop has not taken yet
func forwardTicks(ctx context.Context, t clock.Ticker, out chan<- struct{}) {
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			notify(out)
		}
	}
}

func notify(out chan<- struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}

// handshakePolls bounds the websocket handshake, in poll intervals
const handshakePolls = 3

// pushReadLimit caps the size of one pushed message
const pushReadLimit = 4096

// PushTrigger refreshes whenever the server pushes a message on
// /ws/{game_id}/{player_id}, with a slow ticker as a safety net. If the socket
// cannot be opened, or drops, it falls back to polling.
type PushTrigger struct {
	baseURL string
	cfg     Config
	clock   clock.Clock
	dialer  *websocket.Dialer
	logger  *slog.Logger
}

// NewPushTrigger creates a push trigger for the server at baseURL
func NewPushTrigger(baseURL string, cfg Config, clk clock.Clock, logger *slog.Logger) *PushTrigger {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = handshakePolls * cfg.PollInterval
	return &PushTrigger{
		baseURL: baseURL,
		cfg:     cfg,
		clock:   clk,
		dialer:  &dialer,
		logger:  logger,
	}
}

// SocketURL returns the push endpoint for a session
func SocketURL(baseURL string, handle model.SessionHandle) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	// Path holds the unescaped form; String escapes the player id once
	u.Path += fmt.Sprintf("/ws/%d/%s", handle.GameID, handle.Player)
	return u.String(), nil
}

// Start returns at once and dials the socket in the background, so the first
// state fetch never waits on the handshake
func (p *PushTrigger) Start(ctx context.Context, handle model.SessionHandle) <-chan struct{} {
	out := make(chan struct{}, 1)

	target, err := SocketURL(p.baseURL, handle)
	if err != nil {
		p.logger.Warn("push unavailable, polling instead", slog.String("error", err.Error()))
		go forwardTicks(ctx, p.clock.NewTicker(p.cfg.PollInterval), out)
		return out
	}

	go p.connect(ctx, target, out)
	return out
}

func (p *PushTrigger) connect(ctx context.Context, target string, out chan<- struct{}) {
	conn, _, err := p.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("push unavailable, polling instead",
			slog.String("url", target),
			slog.String("error", err.Error()),
		)
		forwardTicks(ctx, p.clock.NewTicker(p.cfg.PollInterval), out)
		return
	}

	p.logger.Info("push connected", slog.String("url", target))

	// The socket is closed when the session goes away, which ends the reader
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	go forwardTicks(ctx, p.clock.NewTicker(p.cfg.PushFallbackInterval), out)
	p.read(ctx, conn, out)
}

type pushMessage struct {
	Type string `json:"type"`
}

func (p *PushTrigger) read(ctx context.Context, conn *websocket.Conn, out chan<- struct{}) {
	limiter := rate.NewLimiter(p.cfg.PushRate, p.cfg.PushBurst)

	// No read deadline: a quiet socket is normal between turns
	conn.SetReadLimit(pushReadLimit)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("push connection lost, polling instead", slog.String("error", err.Error()))
			forwardTicks(ctx, p.clock.NewTicker(p.cfg.PollInterval), out)
			return
		}

		var msg pushMessage
		_ = json.Unmarshal(data, &msg)
		p.logger.Debug("push received", slog.String("type", msg.Type))

		// Bursts of pushes collapse into one refresh
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		notify(out)
	}
}

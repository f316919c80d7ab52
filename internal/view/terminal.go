package view

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mcoot/scopa-go/internal/cards"
	"github.com/mcoot/scopa-go/internal/model"
)

const clearScreen = "\033[H\033[2J"

// Terminal draws the session as text frames. In clear-screen mode the game
// id and the latest notice are part of every frame, so a redraw keeps them.
type Terminal struct {
	mu        sync.Mutex
	out       io.Writer
	catalog   *cards.Catalog
	name      string
	clear     bool
	gameID    string
	body      string
	notice    string
	lastFrame string
}

// TerminalOption configures a Terminal
type TerminalOption func(*Terminal)

// WithClearScreen clears the screen before every frame
func WithClearScreen(clear bool) TerminalOption {
	return func(t *Terminal) { t.clear = clear }
}

// WithPlayerName shows name in the frame header
func WithPlayerName(name string) TerminalOption {
	return func(t *Terminal) { t.name = name }
}

// NewTerminal creates a text view writing to out
func NewTerminal(out io.Writer, cat *cards.Catalog, opts ...TerminalOption) *Terminal {
	t := &Terminal{out: out, catalog: cat}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) ShowGameID(handle model.SessionHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gameID = fmt.Sprintf("Game ID: %d (%s)", handle.GameID, InviteText(handle.GameID))
	fmt.Fprintf(t.out, "Game ID: %d\nYour opponent can join with: %s\n", handle.GameID, InviteText(handle.GameID))
}

func (t *Terminal) ShowWaiting(playersCount int) {
	t.frame(WaitingStatus(playersCount) + "\n")
}

func (t *Terminal) Render(state model.GameStateView) {
	t.frame(Project(state, t.catalog).Text())
}

// frame draws body unless the same frame is already on screen. A notice
// outlives redraws of the same board and is dropped when the board changes.
func (t *Terminal) frame(body string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if body != t.body {
		if t.body != "" {
			t.notice = ""
		}
		t.body = body
	}
	t.draw()
}

// draw writes the current frame. Caller holds mu.
func (t *Terminal) draw() {
	var sb strings.Builder
	if t.name != "" {
		fmt.Fprintf(&sb, "Player: %s\n", t.name)
	}
	if t.clear && t.gameID != "" {
		sb.WriteString(t.gameID + "\n")
	}
	sb.WriteString(t.body)
	if t.clear && t.notice != "" {
		fmt.Fprintf(&sb, "\n! %s\n", t.notice)
	}

	frame := sb.String()
	if frame == t.lastFrame {
		return
	}
	t.lastFrame = frame

	if t.clear {
		_, _ = io.WriteString(t.out, clearScreen)
	} else {
		_, _ = io.WriteString(t.out, "\n")
	}
	_, _ = io.WriteString(t.out, frame)
}

func (t *Terminal) Notice(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.clear {
		fmt.Fprintf(t.out, "! %s\n", msg)
		return
	}
	t.notice = msg
	t.draw()
}

func (t *Terminal) ShowTerminal(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\n%s\n", msg)
}

func (t *Terminal) ShowResults(score model.ScoreSnapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.out, "\n"+ResultsText(score))
}

// Event is one line written by the JSON view
type Event struct {
	Event   string               `json:"event"`
	GameID  int                  `json:"game_id,omitempty"`
	Players int                  `json:"players_count,omitempty"`
	Board   *Board               `json:"board,omitempty"`
	Message string               `json:"message,omitempty"`
	Score   *model.ScoreSnapshot `json:"score,omitempty"`
}

// JSONLines writes every view call as one JSON object per line, for scripts
type JSONLines struct {
	mu      sync.Mutex
	enc     *json.Encoder
	catalog *cards.Catalog
}

// NewJSONLines creates a JSON view writing to out
func NewJSONLines(out io.Writer, cat *cards.Catalog) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(out), catalog: cat}
}

func (j *JSONLines) emit(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(e)
}

func (j *JSONLines) ShowGameID(handle model.SessionHandle) {
	j.emit(Event{Event: "game_id", GameID: handle.GameID})
}

func (j *JSONLines) ShowWaiting(playersCount int) {
	j.emit(Event{Event: "waiting", Players: playersCount})
}

func (j *JSONLines) Render(state model.GameStateView) {
	board := Project(state, j.catalog)
	j.emit(Event{Event: "render", Board: &board})
}

func (j *JSONLines) Notice(msg string) {
	j.emit(Event{Event: "notice", Message: msg})
}

func (j *JSONLines) ShowTerminal(msg string) {
	j.emit(Event{Event: "terminal", Message: msg})
}

func (j *JSONLines) ShowResults(score model.ScoreSnapshot) {
	j.emit(Event{Event: "results", Score: &score})
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/scopa-go/internal/model"
	"github.com/mcoot/scopa-go/internal/storage/memory"
)

type viewEvent struct {
	kind   string
	handle model.SessionHandle
	state  model.GameStateView
	count  int
	msg    string
	score  model.ScoreSnapshot
}

// recordingView records every call and streams it on ch
type recordingView struct {
	mu     sync.Mutex
	events []viewEvent
	ch     chan viewEvent
}

func newRecordingView() *recordingView {
	return &recordingView{ch: make(chan viewEvent, 256)}
}

func (v *recordingView) add(e viewEvent) {
	v.mu.Lock()
	v.events = append(v.events, e)
	v.mu.Unlock()
	select {
	case v.ch <- e:
	default:
	}
}

func (v *recordingView) ShowGameID(h model.SessionHandle) {
	v.add(viewEvent{kind: "game_id", handle: h})
}
func (v *recordingView) ShowWaiting(n int)            { v.add(viewEvent{kind: "waiting", count: n}) }
func (v *recordingView) Render(s model.GameStateView) { v.add(viewEvent{kind: "render", state: s}) }
func (v *recordingView) Notice(msg string)            { v.add(viewEvent{kind: "notice", msg: msg}) }
func (v *recordingView) ShowTerminal(msg string)      { v.add(viewEvent{kind: "terminal", msg: msg}) }
func (v *recordingView) ShowResults(s model.ScoreSnapshot) {
	v.add(viewEvent{kind: "results", score: s})
}

func (v *recordingView) count(kind string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, e := range v.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func (v *recordingView) last(kind string) (viewEvent, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := len(v.events) - 1; i >= 0; i-- {
		if v.events[i].kind == kind {
			return v.events[i], true
		}
	}
	return viewEvent{}, false
}

type runResult struct {
	out Outcome
	err error
}

const waitTimeout = 3 * time.Second

// runInBackground starts c.Run and returns its cancel func and result channel
func runInBackground(ctx context.Context, c *Controller, trigger Trigger) (context.CancelFunc, <-chan runResult) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan runResult, 1)
	go func() {
		out, err := c.Run(ctx, trigger)
		done <- runResult{out: out, err: err}
	}()
	return cancel, done
}

// manualTrigger only refreshes when the test says so
type manualTrigger struct {
	ch chan struct{}
}

func newManualTrigger() *manualTrigger {
	return &manualTrigger{ch: make(chan struct{}, 1)}
}

func (m *manualTrigger) Start(context.Context, model.SessionHandle) <-chan struct{} {
	return m.ch
}

func (m *manualTrigger) fire() {
	m.ch <- struct{}{}
}

func memoryStore() *memory.Storage {
	return memory.New()
}

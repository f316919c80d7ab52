package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values
const (
	PollWaiting  = "waiting"
	PollActive   = "active"
	PollNotFound = "not_found"
	PollError    = "error"
	PollStale    = "stale"

	MoveAccepted = "accepted"
	MoveRejected = "rejected"
	MoveError    = "error"
	MoveGated    = "gated"

	ModeJoin   = "join"
	ModeCreate = "create"
)

// Metrics holds the client's prometheus collectors
type Metrics struct {
	Polls               *prometheus.CounterVec
	Moves               *prometheus.CounterVec
	JoinFallbacks       prometheus.Counter
	SessionsEstablished *prometheus.CounterVec
	SessionsEnded       *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopa_polls_total",
				Help: "State polls by classified result",
			},
			[]string{"result"},
		),
		Moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopa_moves_total",
				Help: "Move submissions by result",
			},
			[]string{"result"},
		),
		JoinFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scopa_join_fallbacks_total",
				Help: "Failed joins that fell back to creating a game",
			},
		),
		SessionsEstablished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopa_sessions_established_total",
				Help: "Sessions established by mode",
			},
			[]string{"mode"},
		),
		SessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopa_sessions_ended_total",
				Help: "Sessions ended by reason",
			},
			[]string{"reason"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopa_http_requests_total",
				Help: "Requests sent to the game server by method and status class",
			},
			[]string{"method", "status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Polls,
		m.Moves,
		m.JoinFallbacks,
		m.SessionsEstablished,
		m.SessionsEnded,
		m.HTTPRequests,
	)
	return m
}

// NewNop returns metrics on a private registry, for callers that do not export them
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registered collectors in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Package scopaserver is an in-process stand-in for the Scopa server, used by tests.
// It speaks the same HTTP contract (create, join, state, play, health) and pushes
// notifications over /ws/{game_id}/{player_id}.
package scopaserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Fault replaces the normal response of an endpoint
type Fault struct {
	Status int
	Detail string
	// Times limits how many requests the fault applies to; 0 means forever
	Times int
}

// Server is the fake Scopa server
type Server struct {
	mu         sync.Mutex
	nextGameID int
	games      map[int]*Game
	deck       func() []Card
	faults     map[string]*Fault
	calls      map[string]int
	conns      map[int][]*websocket.Conn
	upgrader   websocket.Upgrader
	router     *mux.Router
}

// Endpoint names used for faults and call counts
const (
	EndpointCreate = "create"
	EndpointJoin   = "join"
	EndpointState  = "state"
	EndpointPlay   = "play"
	EndpointHealth = "health"
)

// New creates a fake server. Games are dealt from an ordered deck unless
// WithDeck says otherwise.
func New() *Server {
	s := &Server{
		nextGameID: 1,
		games:      make(map[int]*Game),
		deck:       OrderedDeck,
		faults:     make(map[string]*Fault),
		calls:      make(map[string]int),
		conns:      make(map[int][]*websocket.Conn),
	}

	r := mux.NewRouter()
	r.HandleFunc("/create_game", s.createGame).Methods(http.MethodPost)
	r.HandleFunc("/join_game/{game_id:[0-9]+}", s.joinGame).Methods(http.MethodPost)
	r.HandleFunc("/state/{game_id:[0-9]+}/{player_id}", s.getState).Methods(http.MethodGet)
	r.HandleFunc("/play/{game_id:[0-9]+}/{player_id}/{card_index:-?[0-9]+}", s.playCard).Methods(http.MethodPost)
	r.HandleFunc("/ws/{game_id:[0-9]+}/{player_id}", s.websocket)
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router = r

	return s
}

// Start serves the fake on an httptest server closed at the end of the test
func Start(t testing.TB) (*Server, *httptest.Server) {
	t.Helper()
	s := New()
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.closeConns()
		ts.Close()
	})
	return s, ts
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// WithDeck sets the deck factory for new games. Cards are drawn from the end.
func (s *Server) WithDeck(deck func() []Card) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = deck
	return s
}

// Fail installs a fault for an endpoint
func (s *Server) Fail(endpoint string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[endpoint] = &f
}

// ClearFaults removes every fault
func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]*Fault)
}

// Calls returns how many requests an endpoint received, faults included
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// Update runs fn against a game under the server lock
func (s *Server) Update(gameID int, fn func(g *Game)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return false
	}
	fn(g)
	return true
}

// Snapshot returns a copy of a game
func (s *Server) Snapshot(gameID int) (Game, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return Game{}, false
	}
	cp := *g
	cp.Players = append([]string(nil), g.Players...)
	cp.Table = append([]Card(nil), g.Table...)
	for i := range g.Hands {
		cp.Hands[i] = append([]Card(nil), g.Hands[i]...)
		cp.Taken[i] = append([]Card(nil), g.Taken[i]...)
	}
	return cp, true
}

// Delete drops a game, so later polls get a 404
func (s *Server) Delete(gameID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
}

// Seed registers a ready-made game and returns its id
func (s *Server) Seed(g *Game) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextGameID
	s.nextGameID++
	s.games[id] = g
	return id
}

// fault records the call and returns the active fault, if any. Caller holds mu.
func (s *Server) fault(endpoint string) *Fault {
	s.calls[endpoint]++
	f, ok := s.faults[endpoint]
	if !ok {
		return nil
	}
	if f.Times > 0 {
		f.Times--
		if f.Times == 0 {
			delete(s.faults, endpoint)
		}
	}
	return f
}

type playerBody struct {
	PlayerID string `json:"player_id"`
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var body playerBody
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()

	if f := s.fault(EndpointCreate); f != nil {
		writeDetail(w, f.Status, f.Detail)
		return
	}
	if body.PlayerID == "" {
		writeDetail(w, http.StatusBadRequest, "player_id obbligatorio")
		return
	}

	id := s.nextGameID
	s.nextGameID++
	s.games[id] = &Game{Players: []string{body.PlayerID}, Deck: s.deck()}

	writeJSON(w, http.StatusOK, map[string]any{"game_id": id})
}

func (s *Server) joinGame(w http.ResponseWriter, r *http.Request) {
	gameID, _ := strconv.Atoi(mux.Vars(r)["game_id"])
	var body playerBody
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	defer s.mu.Unlock()

	if f := s.fault(EndpointJoin); f != nil {
		writeDetail(w, f.Status, f.Detail)
		return
	}
	if body.PlayerID == "" {
		writeDetail(w, http.StatusBadRequest, "player_id obbligatorio")
		return
	}

	g, ok := s.games[gameID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Partita non trovata")
		return
	}
	if g.seat(body.PlayerID) < 0 {
		if len(g.Players) >= 2 {
			writeDetail(w, http.StatusForbidden, "Partita piena")
			return
		}
		g.Players = append(g.Players, body.PlayerID)
	}
	if len(g.Players) == 2 && !g.Initialized {
		g.setup()
	}

	s.broadcast(gameID, map[string]any{"type": "player_joined", "players": len(g.Players)})
	writeJSON(w, http.StatusOK, map[string]any{"game_id": gameID, "joined": true})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, _ := strconv.Atoi(vars["game_id"])

	s.mu.Lock()
	defer s.mu.Unlock()

	if f := s.fault(EndpointState); f != nil {
		writeDetail(w, f.Status, f.Detail)
		return
	}

	g, ok := s.games[gameID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Partita non trovata")
		return
	}
	if !g.Initialized {
		writeJSON(w, http.StatusOK, map[string]any{"waiting": true, "players_count": len(g.Players)})
		return
	}
	seat := g.seat(vars["player_id"])
	if seat < 0 {
		writeDetail(w, http.StatusForbidden, "Non sei partecipante di questa partita")
		return
	}
	writeJSON(w, http.StatusOK, g.stateFor(seat))
}

func (s *Server) playCard(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, _ := strconv.Atoi(vars["game_id"])
	idx, _ := strconv.Atoi(vars["card_index"])

	s.mu.Lock()
	defer s.mu.Unlock()

	if f := s.fault(EndpointPlay); f != nil {
		writeDetail(w, f.Status, f.Detail)
		return
	}

	g, ok := s.games[gameID]
	seat := -1
	if ok {
		seat = g.seat(vars["player_id"])
	}
	if seat < 0 {
		writeDetail(w, http.StatusNotFound, "Partita non trovata o non partecipante")
		return
	}
	if err := g.play(seat, idx); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	s.broadcast(gameID, map[string]any{"type": "state_update"})
	writeJSON(w, http.StatusOK, g.stateFor(seat))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f := s.fault(EndpointHealth); f != nil {
		writeDetail(w, f.Status, f.Detail)
		return
	}

	active := make(map[string]int, len(s.conns))
	for id, conns := range s.conns {
		active[strconv.Itoa(id)] = len(conns)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"games_count":  len(s.games),
		"next_game_id": s.nextGameID,
		"active_ws":    active,
	})
}

func (s *Server) websocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID, _ := strconv.Atoi(vars["game_id"])

	s.mu.Lock()
	g, ok := s.games[gameID]
	member := ok && g.seat(vars["player_id"]) >= 0
	s.mu.Unlock()
	if !member {
		http.Error(w, "not a participant", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[gameID] = append(s.conns[gameID], conn)
	_ = conn.WriteJSON(map[string]any{"type": "connected"})
	s.mu.Unlock()

	// Drain until the client goes away
	go func() {
		defer s.dropConn(gameID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Push sends an arbitrary message to every socket of a game
func (s *Server) Push(gameID int, msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcast(gameID, msg)
}

// Sockets returns the number of open sockets for a game
func (s *Server) Sockets(gameID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[gameID])
}

// broadcast writes to every socket of the game. Caller holds mu.
func (s *Server) broadcast(gameID int, msg any) {
	for _, conn := range s.conns[gameID] {
		_ = conn.WriteJSON(msg)
	}
}

func (s *Server) dropConn(gameID int, conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = conn.Close()
	conns := s.conns[gameID]
	for i, c := range conns {
		if c == conn {
			s.conns[gameID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(s.conns[gameID]) == 0 {
		delete(s.conns, gameID)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conns := range s.conns {
		for _, c := range conns {
			_ = c.Close()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

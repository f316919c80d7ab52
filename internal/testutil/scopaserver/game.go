package scopaserver

import "errors"

var (
	errNotYourTurn  = errors.New("non è il tuo turno")
	errInvalidIndex = errors.New("indice carta non valido")
)

// Game is the server-side state of one match. Only enough rules to drive a
// client: deal, capture the first combination matching the played value, sweeps.
type Game struct {
	Players     []string
	Initialized bool

	Deck  []Card
	Table []Card
	Hands [2][]Card
	Taken [2][]Card
	Scopa [2]int
	Turn  int

	// OmitScore makes the state endpoint send a null score
	OmitScore bool
}

func (g *Game) setup() {
	g.Table = g.draw(4)
	g.deal()
	g.Initialized = true
}

func (g *Game) draw(n int) []Card {
	if n > len(g.Deck) {
		n = len(g.Deck)
	}
	drawn := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		last := len(g.Deck) - 1
		drawn = append(drawn, g.Deck[last])
		g.Deck = g.Deck[:last]
	}
	return drawn
}

func (g *Game) deal() {
	if len(g.Deck) == 0 {
		return
	}
	for i := range g.Hands {
		g.Hands[i] = g.draw(3)
	}
}

func (g *Game) play(player, idx int) error {
	if player != g.Turn {
		return errNotYourTurn
	}
	hand := g.Hands[player]
	if idx < 0 || idx >= len(hand) {
		return errInvalidIndex
	}

	card := hand[idx]
	g.Hands[player] = append(append([]Card{}, hand[:idx]...), hand[idx+1:]...)

	if combo := firstCapture(card.Value, g.Table); combo != nil {
		taken := make(map[int]bool, len(combo))
		for _, i := range combo {
			taken[i] = true
			g.Taken[player] = append(g.Taken[player], g.Table[i])
		}
		remaining := make([]Card, 0, len(g.Table))
		for i, c := range g.Table {
			if !taken[i] {
				remaining = append(remaining, c)
			}
		}
		g.Table = remaining
		g.Taken[player] = append(g.Taken[player], card)
		if len(g.Table) == 0 {
			g.Scopa[player]++
		}
	} else {
		g.Table = append(g.Table, card)
	}

	g.Turn = 1 - g.Turn

	if len(g.Hands[0]) == 0 && len(g.Hands[1]) == 0 && len(g.Deck) > 0 {
		g.deal()
	}
	return nil
}

// firstCapture returns indexes of the first table subset summing to value,
// smallest subsets first
func firstCapture(value int, table []Card) []int {
	for size := 1; size <= len(table); size++ {
		if combo := findCombo(value, table, size, 0, nil); combo != nil {
			return combo
		}
	}
	return nil
}

func findCombo(target int, table []Card, size, start int, picked []int) []int {
	if len(picked) == size {
		sum := 0
		for _, i := range picked {
			sum += table[i].Value
		}
		if sum == target {
			return append([]int(nil), picked...)
		}
		return nil
	}
	for i := start; i < len(table); i++ {
		if combo := findCombo(target, table, size, i+1, append(picked, i)); combo != nil {
			return combo
		}
	}
	return nil
}

func (g *Game) over() bool {
	return len(g.Deck) == 0 && len(g.Hands[0]) == 0 && len(g.Hands[1]) == 0
}

func (g *Game) score() map[string]any {
	points := [2]int{}
	coins := [2]int{}
	for p := range points {
		points[p] = g.Scopa[p]
		for _, c := range g.Taken[p] {
			if c.Suit == Denari {
				coins[p]++
			}
		}
		if len(g.Taken[p]) > 20 {
			points[p]++
		}
		if coins[p] > 5 {
			points[p]++
		}
		for _, c := range g.Taken[p] {
			if c == C(7, Denari) {
				points[p]++
			}
		}
	}
	return map[string]any{
		"player1":     points[0],
		"player2":     points[1],
		"sweeps":      g.Scopa,
		"cards_taken": [2]int{len(g.Taken[0]), len(g.Taken[1])},
		"coins_taken": coins,
	}
}

func (g *Game) seat(player string) int {
	for i, p := range g.Players {
		if p == player {
			return i
		}
	}
	return -1
}

func (g *Game) stateFor(seat int) map[string]any {
	opp := 1 - seat
	state := map[string]any{
		"your_turn":          g.Turn == seat,
		"table":              nonNil(g.Table),
		"hand":               nonNil(g.Hands[seat]),
		"opponent_hand_size": len(g.Hands[opp]),
		"player_taken":       nonNil(g.Taken[seat]),
		"opponent_taken":     nonNil(g.Taken[opp]),
		"scopa":              g.Scopa[seat],
		"opponent_scopa":     g.Scopa[opp],
		"game_over":          g.over(),
		"score":              nil,
		"player_index":       seat,
	}
	if !g.OmitScore {
		state["score"] = g.score()
	}
	return state
}

func nonNil(cards []Card) []Card {
	if cards == nil {
		return []Card{}
	}
	return cards
}

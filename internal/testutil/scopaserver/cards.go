package scopaserver

import (
	"encoding/json"
	"fmt"
)

// Italian suit names, as the real server emits them
const (
	Denari  = "denari"
	Coppe   = "coppe"
	Spade   = "spade"
	Bastoni = "bastoni"
)

var suits = []string{Denari, Coppe, Spade, Bastoni}

// Card is serialized as a [value, suit] pair
type Card struct {
	Value int
	Suit  string
}

// C is shorthand for building cards in tests
func C(value int, suit string) Card {
	return Card{Value: value, Suit: suit}
}

func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Value, c.Suit})
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("card must be a pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Value); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &c.Suit)
}

// OrderedDeck returns all 40 cards, suit by suit
func OrderedDeck() []Card {
	deck := make([]Card, 0, 40)
	for _, s := range suits {
		for v := 1; v <= 10; v++ {
			deck = append(deck, C(v, s))
		}
	}
	return deck
}

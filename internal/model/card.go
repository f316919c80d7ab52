package model

import "fmt"

// Suit is one of the four Italian suits, named in English
type Suit string

const (
	SuitCoins  Suit = "coins"
	SuitCups   Suit = "cups"
	SuitSwords Suit = "swords"
	SuitClubs  Suit = "clubs"

	// SuitHidden marks a concealed opponent card
	SuitHidden Suit = "hidden"
	// SuitUnknown marks a card the server sent in a shape we could not read
	SuitUnknown Suit = "unknown"
)

// Suits lists the playable suits in catalog order
var Suits = []Suit{SuitCoins, SuitCups, SuitSwords, SuitClubs}

const (
	MinRank = 1
	MaxRank = 10
)

// Card is a rank/suit pair. Comparable with ==.
type Card struct {
	Rank int  `json:"rank"`
	Suit Suit `json:"suit"`
}

var (
	// HiddenCard is rendered in place of each opponent card. Never sent to the server.
	HiddenCard = Card{Rank: 0, Suit: SuitHidden}
	// UnknownCard keeps a malformed hand entry in position
	UnknownCard = Card{Rank: 0, Suit: SuitUnknown}
)

// IsPlayable reports whether the card is a real deck card
func (c Card) IsPlayable() bool {
	if c.Rank < MinRank || c.Rank > MaxRank {
		return false
	}
	switch c.Suit {
	case SuitCoins, SuitCups, SuitSwords, SuitClubs:
		return true
	}
	return false
}

func (c Card) String() string {
	switch {
	case c == HiddenCard:
		return "??"
	case !c.IsPlayable():
		return "--"
	}
	return fmt.Sprintf("%d of %s", c.Rank, c.Suit)
}

// HiddenCards returns n copies of the hidden sentinel
func HiddenCards(n int) []Card {
	if n <= 0 {
		return []Card{}
	}
	cards := make([]Card, n)
	for i := range cards {
		cards[i] = HiddenCard
	}
	return cards
}

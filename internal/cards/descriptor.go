package cards

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mcoot/scopa-go/internal/model"
)

// Descriptor is one of the card encodings seen from the server and the asset catalog.
// The set of implementations is closed: CatalogID, Pair, Record and Malformed.
type Descriptor interface {
	descriptor()
}

// CatalogID refers to a catalog entry by its 1-based id
type CatalogID int

// Pair is the positional [value, suit] form the server sends
type Pair struct {
	Value int
	Suit  string
}

// Record is the keyed {value, suit} form
type Record struct {
	Value int
	Suit  string
}

// Malformed holds input that matched no known shape
type Malformed struct {
	Raw json.RawMessage
}

func (CatalogID) descriptor() {}
func (Pair) descriptor()      {}
func (Record) descriptor()    {}
func (Malformed) descriptor() {}

// FromCard wraps a model card as a descriptor
func FromCard(c model.Card) Descriptor {
	return Record{Value: c.Rank, Suit: string(c.Suit)}
}

// Parse classifies raw JSON into a descriptor. It never fails: anything
// unrecognised comes back as Malformed.
func Parse(raw json.RawMessage) Descriptor {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Malformed{Raw: raw}
	}

	switch trimmed[0] {
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil || len(parts) < 2 {
			return Malformed{Raw: raw}
		}
		var p Pair
		if err := json.Unmarshal(parts[0], &p.Value); err != nil {
			return Malformed{Raw: raw}
		}
		if err := json.Unmarshal(parts[1], &p.Suit); err != nil {
			return Malformed{Raw: raw}
		}
		return p

	case '{':
		var rec struct {
			Value *int    `json:"value"`
			Rank  *int    `json:"rank"`
			Suit  *string `json:"suit"`
			ID    *int    `json:"id"`
		}
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return Malformed{Raw: raw}
		}
		if rec.Suit != nil {
			switch {
			case rec.Value != nil:
				return Record{Value: *rec.Value, Suit: *rec.Suit}
			case rec.Rank != nil:
				return Record{Value: *rec.Rank, Suit: *rec.Suit}
			}
		}
		if rec.ID != nil {
			return CatalogID(*rec.ID)
		}
		return Malformed{Raw: raw}

	default:
		var id int
		if err := json.Unmarshal(trimmed, &id); err == nil {
			return CatalogID(id)
		}
		return Malformed{Raw: raw}
	}
}

// suitAliases maps lowercase suit names, English and Italian, to model suits
var suitAliases = map[string]model.Suit{
	"coins":   model.SuitCoins,
	"denari":  model.SuitCoins,
	"cups":    model.SuitCups,
	"coppe":   model.SuitCups,
	"swords":  model.SuitSwords,
	"spade":   model.SuitSwords,
	"clubs":   model.SuitClubs,
	"bastoni": model.SuitClubs,
}

// ParseSuit resolves a suit name case-insensitively
func ParseSuit(name string) (model.Suit, bool) {
	s, ok := suitAliases[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

func cardFrom(value int, suit string) (model.Card, bool) {
	s, ok := ParseSuit(suit)
	if !ok {
		return model.Card{}, false
	}
	c := model.Card{Rank: value, Suit: s}
	if !c.IsPlayable() {
		return model.Card{}, false
	}
	return c, true
}

// Normalize converts a descriptor into the canonical card. CatalogID needs a
// catalog to resolve, see Catalog.Normalize.
func Normalize(d Descriptor) (model.Card, bool) {
	return normalize(d, nil)
}

func normalize(d Descriptor, cat *Catalog) (model.Card, bool) {
	switch v := d.(type) {
	case Pair:
		return cardFrom(v.Value, v.Suit)
	case Record:
		return cardFrom(v.Value, v.Suit)
	case CatalogID:
		if cat == nil {
			return model.Card{}, false
		}
		e, ok := cat.byID[int(v)]
		if !ok {
			return model.Card{}, false
		}
		return e.Card(), true
	case Malformed:
		return model.Card{}, false
	default:
		return model.Card{}, false
	}
}

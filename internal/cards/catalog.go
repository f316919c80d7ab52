package cards

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/scopa-go/internal/model"
)

const (
	// DefaultAssetBase is where the server serves card artwork
	DefaultAssetBase = "/static"

	backImage = "back.jpg"
)

// Entry is one card of the asset catalog
type Entry struct {
	ID    int        `json:"id"`
	Rank  int        `json:"rank"`
	Suit  model.Suit `json:"suit"`
	Image string     `json:"image"`
}

// Card returns the canonical card for the entry
func (e Entry) Card() model.Card {
	return model.Card{Rank: e.Rank, Suit: e.Suit}
}

// Catalog maps cards to their image assets. Read-only once built.
type Catalog struct {
	entries []Entry
	byCard  map[model.Card]Entry
	byID    map[int]Entry
	back    string
}

// DefaultCatalog builds the standard 40-card catalog: coins 1-10, cups 11-20,
// swords 21-30, clubs 31-40, images at {assetBase}/cards/{id}.jpg
func DefaultCatalog(assetBase string) *Catalog {
	base := strings.TrimSuffix(assetBase, "/")
	if assetBase == "" {
		base = DefaultAssetBase
	}

	entries := make([]Entry, 0, len(model.Suits)*model.MaxRank)
	id := 1
	for _, suit := range model.Suits {
		for rank := model.MinRank; rank <= model.MaxRank; rank++ {
			entries = append(entries, Entry{
				ID:    id,
				Rank:  rank,
				Suit:  suit,
				Image: fmt.Sprintf("%s/cards/%d.jpg", base, id),
			})
			id++
		}
	}

	return newCatalog(entries, base+"/"+backImage)
}

// LoadCatalog reads a cards.json style catalog: a list of
// {value|rank, suit, img|image, id?}. Entries without an id are numbered in order.
func LoadCatalog(r io.Reader, backPath string) (*Catalog, error) {
	var raw []struct {
		ID    int    `json:"id"`
		Value int    `json:"value"`
		Rank  int    `json:"rank"`
		Suit  string `json:"suit"`
		Img   string `json:"img"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidCatalog, err)
	}

	entries := make([]Entry, 0, len(raw))
	for i, item := range raw {
		rank := item.Value
		if rank == 0 {
			rank = item.Rank
		}
		card, ok := cardFrom(rank, item.Suit)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d has unknown card %d/%q", model.ErrInvalidCatalog, i, rank, item.Suit)
		}
		img := item.Img
		if img == "" {
			img = item.Image
		}
		if img == "" {
			return nil, fmt.Errorf("%w: entry %d has no image", model.ErrInvalidCatalog, i)
		}
		id := item.ID
		if id == 0 {
			id = i + 1
		}
		entries = append(entries, Entry{ID: id, Rank: card.Rank, Suit: card.Suit, Image: img})
	}

	if backPath == "" {
		backPath = DefaultAssetBase + "/" + backImage
	}
	return newCatalog(entries, backPath), nil
}

func newCatalog(entries []Entry, back string) *Catalog {
	c := &Catalog{
		entries: entries,
		byCard:  make(map[model.Card]Entry, len(entries)),
		byID:    make(map[int]Entry, len(entries)),
		back:    back,
	}
	for _, e := range entries {
		c.byCard[e.Card()] = e
		c.byID[e.ID] = e
	}
	return c
}

// Entries returns the catalog entries in order
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// BackImage is the asset shown for hidden or unrecognised cards
func (c *Catalog) BackImage() string {
	return c.back
}

// Normalize resolves any descriptor, including catalog ids, to a card
func (c *Catalog) Normalize(d Descriptor) (model.Card, bool) {
	return normalize(d, c)
}

// ResolveImage returns the asset path for a descriptor. Total: anything that
// does not match a catalog card, the hidden sentinel included, gets the card back.
func (c *Catalog) ResolveImage(d Descriptor) string {
	card, ok := c.Normalize(d)
	if !ok {
		return c.back
	}
	e, ok := c.byCard[card]
	if !ok {
		return c.back
	}
	return e.Image
}

// CardImage resolves an already normalized card
func (c *Catalog) CardImage(card model.Card) string {
	if e, ok := c.byCard[card]; ok {
		return e.Image
	}
	return c.back
}

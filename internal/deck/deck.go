package deck

const (
	// DefaultTitle and DefaultRows are the fixed content every freshly
	// created card starts with.
	DefaultTitle = "New Card"
	DefaultRows  = "New row"
)

// Deck is the ordered card list plus its id counter. Slice order is the only
// ordering signal; it is exactly render/export order. NextID is the last
// assigned id and only ever moves forward within a session — deleting a card
// never decrements it, so ids are never reused.
//
// A Deck is owned by a single editing session at a time; it does its own no
// locking.
type Deck struct {
	Cards  []Card
	NextID int
}

// New returns an empty deck.
func New() *Deck {
	return &Deck{Cards: []Card{}}
}

// Create appends a new card with the next id and default content. It never
// fails.
func (d *Deck) Create() Card {
	d.NextID++
	card := Card{ID: d.NextID, Title: DefaultTitle, Rows: DefaultRows}
	d.Cards = append(d.Cards, card)
	return card
}

// Remove deletes the card with the given id. Absent ids are a silent no-op;
// the counter is left untouched.
func (d *Deck) Remove(id int) {
	for i, c := range d.Cards {
		if c.ID == id {
			d.Cards = append(d.Cards[:i], d.Cards[i+1:]...)
			return
		}
	}
}

// Find returns the card with the given id, or nil.
func (d *Deck) Find(id int) *Card {
	for i := range d.Cards {
		if d.Cards[i].ID == id {
			return &d.Cards[i]
		}
	}
	return nil
}

// SetTitle replaces the raw title text of the card with the given id.
// Returns false when the card is absent.
func (d *Deck) SetTitle(id int, text string) bool {
	card := d.Find(id)
	if card == nil {
		return false
	}
	card.Title = text
	return true
}

// SetRows replaces the raw rows text of the card with the given id.
// Returns false when the card is absent.
func (d *Deck) SetRows(id int, text string) bool {
	card := d.Find(id)
	if card == nil {
		return false
	}
	card.Rows = text
	return true
}

// ReplaceAll substitutes the whole card list, as an import does, and resets
// the counter to max(maxID, 0).
func (d *Deck) ReplaceAll(cards []Card, maxID int) {
	if cards == nil {
		cards = []Card{}
	}
	d.Cards = cards
	if maxID < 0 {
		maxID = 0
	}
	d.NextID = maxID
}

// Clear empties the deck and resets the id counter.
func (d *Deck) Clear() {
	d.Cards = []Card{}
	d.NextID = 0
}

// Move reorders the deck in place for a drag of draggedID onto targetID.
func (d *Deck) Move(draggedID, targetID int, insertBefore bool) {
	d.Cards = Reorder(d.Cards, draggedID, targetID, insertBefore)
}

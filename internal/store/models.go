package store

import (
	"encoding/json"
	"time"
)

// DeckRecord is the persisted form of a deck. Cards is the raw JSON array;
// the deck package decodes it, normalizing legacy rows where title/rows are
// arrays of lines instead of a single text blob.
type DeckRecord struct {
	ID        string
	Name      string
	Owner     string
	Cards     json.RawMessage
	NextID    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShareLink is a public, passcode-protected pointer to a deck's rendered
// document.
type ShareLink struct {
	Token        string
	DeckID       string
	PasscodeHash string
	CreatedAt    time.Time
}

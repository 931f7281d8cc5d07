// Package deck owns the ordered card list that the editor mutates and the
// renderer/extractor round-trip.
package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Card is one title+rows record. Title and Rows hold the raw authored text,
// newline-joined; whitespace the user is still typing is preserved between
// edits. Normalization happens at render/extract time via Lines.
type Card struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Rows  string `json:"rows"`
}

// Lines splits raw card text into its normalized line sequence: split on
// newlines, trim each line, drop the empties. Both title and rows text
// normalize through here so the two representations can never diverge.
func Lines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// JoinLines is the inverse view: a line sequence back to the single-text form.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// storedCard is the persisted shape. Title and rows are RawMessage because
// records written by older clients carry arrays of lines where current ones
// carry a single string.
type storedCard struct {
	ID    int             `json:"id"`
	Title json.RawMessage `json:"title"`
	Rows  json.RawMessage `json:"rows"`
}

// DecodeStored decodes a persisted cards payload, normalizing the legacy
// array-of-lines title/rows shape into the canonical newline-joined text at
// the load boundary. Returns the cards plus the highest id seen, so callers
// can restore the id counter.
func DecodeStored(raw []byte) ([]Card, int, error) {
	if len(raw) == 0 {
		return nil, 0, nil
	}
	var stored []storedCard
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, 0, fmt.Errorf("decode cards: %w", err)
	}

	cards := make([]Card, 0, len(stored))
	maxID := 0
	for _, sc := range stored {
		title, err := decodeTextField(sc.Title)
		if err != nil {
			return nil, 0, fmt.Errorf("decode card %d title: %w", sc.ID, err)
		}
		rows, err := decodeTextField(sc.Rows)
		if err != nil {
			return nil, 0, fmt.Errorf("decode card %d rows: %w", sc.ID, err)
		}
		cards = append(cards, Card{ID: sc.ID, Title: title, Rows: rows})
		if sc.ID > maxID {
			maxID = sc.ID
		}
	}
	return cards, maxID, nil
}

// EncodeCards marshals cards in the current persisted shape.
func EncodeCards(cards []Card) ([]byte, error) {
	if cards == nil {
		cards = []Card{}
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("encode cards: %w", err)
	}
	return data, nil
}

func decodeTextField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err != nil {
		return "", fmt.Errorf("expected string or array of strings")
	}
	return JoinLines(lines), nil
}

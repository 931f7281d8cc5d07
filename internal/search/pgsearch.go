package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cardboard/api/internal/deck"
)

// PGSearch is the Postgres fallback searcher. It scans the decks table with
// ILIKE and filters matching cards in memory, which is slow but always
// available.
type PGSearch struct {
	db *sql.DB
}

// NewPGSearch wraps an open database handle.
func NewPGSearch(db *sql.DB) *PGSearch {
	return &PGSearch{db: db}
}

// Healthy reports whether the database responds to a ping.
func (p *PGSearch) Healthy() bool {
	return p.db.Ping() == nil
}

// Search scans deck names and card content for the query text.
func (p *PGSearch) Search(q Query) ([]Result, int, error) {
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}

	pattern := "%" + q.Text + "%"
	rows, err := p.db.QueryContext(context.Background(),
		`SELECT id, name, cards FROM decks
		 WHERE name ILIKE $1 OR cards::text ILIKE $1
		 ORDER BY updated_at DESC`, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("query decks for search: %w", err)
	}
	defer rows.Close()

	needle := strings.ToLower(q.Text)
	var all []Result
	for rows.Next() {
		var deckID, deckName string
		var rawCards []byte
		if err := rows.Scan(&deckID, &deckName, &rawCards); err != nil {
			return nil, 0, fmt.Errorf("scan deck row: %w", err)
		}

		cards, _, err := deck.DecodeStored(rawCards)
		if err != nil {
			continue
		}
		for _, c := range cards {
			if !cardMatches(c, deckName, needle) {
				continue
			}
			all = append(all, Result{
				ID:       fmt.Sprintf("%s-%d", deckID, c.ID),
				DeckID:   deckID,
				DeckName: deckName,
				CardID:   c.ID,
				Title:    firstLineOr(c.Title, ""),
				Snippet:  snippetFor(c, needle),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate deck rows: %w", err)
	}

	total := len(all)
	if q.Offset >= total {
		return []Result{}, total, nil
	}
	end := q.Offset + limit
	if end > total {
		end = total
	}
	return all[q.Offset:end], total, nil
}

func cardMatches(c deck.Card, deckName, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), needle) ||
		strings.Contains(strings.ToLower(c.Rows), needle) ||
		strings.Contains(strings.ToLower(deckName), needle)
}

// snippetFor returns the first row containing the needle, or the first row
// when the match was in the title or deck name.
func snippetFor(c deck.Card, needle string) string {
	lines := deck.Lines(c.Rows)
	for _, line := range lines {
		if needle != "" && strings.Contains(strings.ToLower(line), needle) {
			return line
		}
	}
	if len(lines) > 0 {
		return lines[0]
	}
	return ""
}

func firstLineOr(text, fallback string) string {
	lines := deck.Lines(text)
	if len(lines) == 0 {
		return fallback
	}
	return lines[0]
}

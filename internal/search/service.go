package search

import (
	"log"

	"cardboard/api/internal/deck"
)

// Service fronts the two search backends. Queries go to Meilisearch while it
// is healthy and fall back to Postgres otherwise. Indexing is best effort.
type Service struct {
	meili *Meili
	pg    *PGSearch
}

// NewService builds the facade. meili may be nil when no Meilisearch URL is
// configured; every query then goes to Postgres.
func NewService(meili *Meili, pg *PGSearch) *Service {
	return &Service{meili: meili, pg: pg}
}

// Search runs the query against the preferred backend.
func (s *Service) Search(q Query) (Response, error) {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: results, Total: total, Query: q.Text}, nil
		}
		log.Printf("search: meilisearch query failed, falling back to postgres: %v", err)
	}

	results, total, err := s.pg.Search(q)
	if err != nil {
		return Response{}, err
	}
	return Response{Results: results, Total: total, Query: q.Text}, nil
}

// IndexDeck refreshes the indexed cards for a deck in the background.
func (s *Service) IndexDeck(deckID, deckName string, cards []deck.Card) {
	if s.meili == nil {
		return
	}
	snapshot := make([]deck.Card, len(cards))
	copy(snapshot, cards)
	go func() {
		if err := s.meili.IndexDeck(deckID, deckName, snapshot); err != nil {
			log.Printf("search: index deck %s: %v", deckID, err)
		}
	}()
}

// RemoveDeck drops a deleted deck from the index in the background.
func (s *Service) RemoveDeck(deckID string) {
	if s.meili == nil {
		return
	}
	go func() {
		if err := s.meili.RemoveDeck(deckID); err != nil {
			log.Printf("search: remove deck %s: %v", deckID, err)
		}
	}()
}

// Close shuts down the Meilisearch health monitor.
func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}

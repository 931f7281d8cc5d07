// Package search indexes card content and answers full-text queries,
// preferring Meilisearch and falling back to Postgres when it is down.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	DeckID   string `json:"deckId"`
	DeckName string `json:"deckName"`
	CardID   int    `json:"cardId"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text   string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// CardRecord is the data we index for a card.
type CardRecord struct {
	ID       string `json:"id"`
	DeckID   string `json:"deckId"`
	DeckName string `json:"deckName"`
	CardID   int    `json:"cardId"`
	Title    string `json:"title"`
	Rows     string `json:"rows"`
}

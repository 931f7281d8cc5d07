package app

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cardboard/api/internal/auth"
	"cardboard/api/internal/config"
	"cardboard/api/internal/deck"
	"cardboard/api/internal/export"
	"cardboard/api/internal/extract"
	"cardboard/api/internal/history"
	"cardboard/api/internal/render"
	"cardboard/api/internal/search"
	"cardboard/api/internal/session"
	"cardboard/api/internal/store"
)

type Session struct {
	Token     string
	UserName  string
	JTI       string
	ExpiresAt time.Time
}

// DeckSummary is the list view of a deck.
type DeckSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CardCount int       `json:"cardCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DeckPayload is the full deck as returned by read and mutation endpoints.
type DeckPayload struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Owner     string      `json:"owner"`
	Cards     []deck.Card `json:"cards"`
	NextID    int         `json:"nextId"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// SnapshotPayload is one restored history entry plus its rendered document.
type SnapshotPayload struct {
	Hash   string      `json:"hash"`
	Name   string      `json:"name"`
	Cards  []deck.Card `json:"cards"`
	NextID int         `json:"nextId"`
	HTML   string      `json:"html"`
}

type dataStore interface {
	Ping(ctx context.Context) error
	ListDecks(ctx context.Context) ([]store.DeckRecord, error)
	GetDeck(ctx context.Context, id string) (store.DeckRecord, error)
	InsertDeck(ctx context.Context, d store.DeckRecord) error
	UpdateDeckCards(ctx context.Context, id string, cards json.RawMessage, nextID int) error
	RenameDeck(ctx context.Context, id, name string) error
	DeleteDeck(ctx context.Context, id string) error
	InsertShareLink(ctx context.Context, link store.ShareLink) error
	GetShareLink(ctx context.Context, token string) (store.ShareLink, error)
}

type sessionStore interface {
	SaveSession(ctx context.Context, tokenHash, name string, expiresAt time.Time) error
	LookupSession(ctx context.Context, tokenHash string) (session.Data, error)
	RevokeSession(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}

type historyService interface {
	EnsureDeckRepo(deckID string) error
	CommitSnapshot(deckID string, snap history.Snapshot, author, message string) (history.CommitInfo, error)
	History(deckID string, limit int) ([]history.CommitInfo, error)
	GetSnapshot(deckID, hash string) (history.Snapshot, error)
}

type searchService interface {
	Search(q search.Query) (search.Response, error)
	IndexDeck(deckID, deckName string, cards []deck.Card)
	RemoveDeck(deckID string)
}

type exportService interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	history  historyService
	search   searchService
	exporter exportService
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, historySvc *history.Service, searchSvc *search.Service, exportSvc *export.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		history:  historySvc,
		search:   searchSvc,
		exporter: exportSvc,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) PingSessions(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

// Login issues a signed token for the given editor name and records the
// session in Redis under the token hash.
func (s *Service) Login(ctx context.Context, name string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	jti := randomID()
	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Name: name,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	if err := s.sessions.SaveSession(ctx, hashToken(token), name, expiresAt); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	return Session{Token: token, UserName: name, JTI: jti, ExpiresAt: expiresAt}, nil
}

// SessionFromToken verifies the token signature and checks that the session
// has not been revoked.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}

	data, err := s.sessions.LookupSession(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, fmt.Errorf("lookup session: %w", err)
	}

	return Session{
		Token:     token,
		UserName:  data.Name,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Logout revokes the session for the token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.RevokeSession(ctx, hashToken(token))
}

func (s *Service) ListDecks(ctx context.Context) ([]DeckSummary, error) {
	records, err := s.store.ListDecks(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]DeckSummary, 0, len(records))
	for _, rec := range records {
		cards, _, err := deck.DecodeStored(rec.Cards)
		if err != nil {
			return nil, fmt.Errorf("deck %s: %w", rec.ID, err)
		}
		summaries = append(summaries, DeckSummary{
			ID:        rec.ID,
			Name:      rec.Name,
			Owner:     rec.Owner,
			CardCount: len(cards),
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return summaries, nil
}

func (s *Service) CreateDeck(ctx context.Context, sess Session, name string) (DeckPayload, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DeckPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	rec := store.DeckRecord{
		ID:     randomID(),
		Name:   name,
		Owner:  sess.UserName,
		Cards:  []byte("[]"),
		NextID: 0,
	}
	if err := s.store.InsertDeck(ctx, rec); err != nil {
		return DeckPayload{}, err
	}

	if err := s.history.EnsureDeckRepo(rec.ID); err != nil {
		return DeckPayload{}, fmt.Errorf("init deck history: %w", err)
	}
	if _, err := s.history.CommitSnapshot(rec.ID, history.Snapshot{
		Name:  rec.Name,
		Cards: []deck.Card{},
	}, sess.UserName, "create deck"); err != nil {
		return DeckPayload{}, fmt.Errorf("commit initial snapshot: %w", err)
	}

	return s.GetDeckPayload(ctx, rec.ID)
}

func (s *Service) GetDeckPayload(ctx context.Context, id string) (DeckPayload, error) {
	rec, err := s.store.GetDeck(ctx, id)
	if err != nil {
		return DeckPayload{}, err
	}
	return recordToPayload(rec)
}

func (s *Service) RenameDeck(ctx context.Context, sess Session, id, name string) (DeckPayload, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DeckPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	if err := s.store.RenameDeck(ctx, id, name); err != nil {
		return DeckPayload{}, err
	}

	payload, err := s.GetDeckPayload(ctx, id)
	if err != nil {
		return DeckPayload{}, err
	}
	s.search.IndexDeck(payload.ID, payload.Name, payload.Cards)
	return payload, nil
}

func (s *Service) DeleteDeck(ctx context.Context, id string) error {
	if err := s.store.DeleteDeck(ctx, id); err != nil {
		return err
	}
	s.search.RemoveDeck(id)
	return nil
}

// CreateCard appends a fresh default card and returns it with the updated
// deck.
func (s *Service) CreateCard(ctx context.Context, sess Session, deckID string) (deck.Card, DeckPayload, error) {
	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return deck.Card{}, DeckPayload{}, err
	}

	card := d.Create()
	payload, err := s.saveDeck(ctx, sess, rec, d, fmt.Sprintf("add card %d", card.ID))
	if err != nil {
		return deck.Card{}, DeckPayload{}, err
	}
	return card, payload, nil
}

// UpdateCard replaces the raw title and/or rows text of one card. Fields left
// nil are untouched.
func (s *Service) UpdateCard(ctx context.Context, sess Session, deckID string, cardID int, title, rows *string) (DeckPayload, error) {
	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return DeckPayload{}, err
	}

	if d.Find(cardID) == nil {
		return DeckPayload{}, domainError(http.StatusNotFound, "CARD_NOT_FOUND", fmt.Sprintf("card %d not found", cardID), nil)
	}
	if title != nil {
		d.SetTitle(cardID, *title)
	}
	if rows != nil {
		d.SetRows(cardID, *rows)
	}

	return s.saveDeck(ctx, sess, rec, d, fmt.Sprintf("edit card %d", cardID))
}

// DeleteCard removes one card. Removing an absent id leaves the deck
// unchanged and returns it as-is.
func (s *Service) DeleteCard(ctx context.Context, sess Session, deckID string, cardID int) (DeckPayload, error) {
	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return DeckPayload{}, err
	}

	if d.Find(cardID) == nil {
		return recordToPayload(rec)
	}
	d.Remove(cardID)

	return s.saveDeck(ctx, sess, rec, d, fmt.Sprintf("remove card %d", cardID))
}

// ClearDeck removes every card and resets the id counter.
func (s *Service) ClearDeck(ctx context.Context, sess Session, deckID string) (DeckPayload, error) {
	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return DeckPayload{}, err
	}

	d.Clear()
	return s.saveDeck(ctx, sess, rec, d, "clear deck")
}

// ReorderCards applies a drag of draggedID onto targetID. Unknown ids leave
// the order unchanged.
func (s *Service) ReorderCards(ctx context.Context, sess Session, deckID string, draggedID, targetID int, insertBefore bool) (DeckPayload, error) {
	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return DeckPayload{}, err
	}

	d.Move(draggedID, targetID, insertBefore)
	return s.saveDeck(ctx, sess, rec, d, fmt.Sprintf("move card %d", draggedID))
}

// RenderDeck produces the canonical document for the current card list.
func (s *Service) RenderDeck(ctx context.Context, deckID string) (string, error) {
	_, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return "", err
	}
	return render.Render(d.Cards), nil
}

// ImportHTML replaces the whole card list with whatever the extractor
// recovers from the pasted markup.
func (s *Service) ImportHTML(ctx context.Context, sess Session, deckID, htmlText string) (DeckPayload, error) {
	if strings.TrimSpace(htmlText) == "" {
		return DeckPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "html is required", nil)
	}

	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return DeckPayload{}, err
	}

	result, err := extract.Extract(htmlText)
	if err != nil {
		if errors.Is(err, extract.ErrNoCardsFound) {
			return DeckPayload{}, domainError(http.StatusUnprocessableEntity, "NO_CARDS_FOUND", err.Error(), nil)
		}
		return DeckPayload{}, err
	}

	d.ReplaceAll(result.Cards, result.MaxID)
	return s.saveDeck(ctx, sess, rec, d, fmt.Sprintf("import %d cards", len(result.Cards)))
}

// ExportDeck renders the deck and produces the requested artifact.
func (s *Service) ExportDeck(ctx context.Context, deckID, format string) (*export.Result, error) {
	rec, d, err := s.loadDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	if format == "" {
		format = string(export.FormatHTML)
	}
	result, err := s.exporter.Export(ctx, export.Request{
		DeckName: rec.Name,
		HTML:     render.Render(d.Cards),
		Format:   export.Format(format),
	})
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			return nil, domainError(http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT", err.Error(), nil)
		}
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "PDF_UNAVAILABLE", err.Error(), nil)
		}
		return nil, err
	}
	return result, nil
}

// DeckHistory lists snapshot commits for the deck, newest first.
func (s *Service) DeckHistory(ctx context.Context, deckID string, limit int) ([]history.CommitInfo, error) {
	if _, err := s.store.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	if err := s.history.EnsureDeckRepo(deckID); err != nil {
		return nil, fmt.Errorf("ensure deck history: %w", err)
	}
	return s.history.History(deckID, limit)
}

// DeckSnapshot restores one committed state together with its rendered
// document.
func (s *Service) DeckSnapshot(ctx context.Context, deckID, hash string) (SnapshotPayload, error) {
	if _, err := s.store.GetDeck(ctx, deckID); err != nil {
		return SnapshotPayload{}, err
	}

	snap, err := s.history.GetSnapshot(deckID, hash)
	if err != nil {
		return SnapshotPayload{}, domainError(http.StatusNotFound, "SNAPSHOT_NOT_FOUND", "snapshot not found", nil)
	}
	return SnapshotPayload{
		Hash:   hash,
		Name:   snap.Name,
		Cards:  snap.Cards,
		NextID: snap.NextID,
		HTML:   render.Render(snap.Cards),
	}, nil
}

func (s *Service) Search(ctx context.Context, q search.Query) (search.Response, error) {
	if strings.TrimSpace(q.Text) == "" {
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "q is required", nil)
	}
	return s.search.Search(q)
}

// CreateShareLink mints a public token for the deck. A non-empty passcode is
// bcrypt-hashed and required on every open.
func (s *Service) CreateShareLink(ctx context.Context, deckID, passcode string) (string, error) {
	if _, err := s.store.GetDeck(ctx, deckID); err != nil {
		return "", err
	}

	hash := ""
	if passcode != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash passcode: %w", err)
		}
		hash = string(hashed)
	}

	token := randomID() + randomID()
	if err := s.store.InsertShareLink(ctx, store.ShareLink{
		Token:        token,
		DeckID:       deckID,
		PasscodeHash: hash,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// OpenSharedDeck resolves a public share token to the rendered document,
// verifying the passcode when the link has one.
func (s *Service) OpenSharedDeck(ctx context.Context, token, passcode string) (string, error) {
	link, err := s.store.GetShareLink(ctx, token)
	if err != nil {
		return "", err
	}

	if link.PasscodeHash != "" {
		if passcode == "" {
			return "", domainError(http.StatusUnauthorized, "PASSCODE_REQUIRED", "this link requires a passcode", nil)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(link.PasscodeHash), []byte(passcode)); err != nil {
			return "", domainError(http.StatusForbidden, "INVALID_PASSCODE", "invalid passcode", nil)
		}
	}

	return s.RenderDeck(ctx, link.DeckID)
}

// loadDeck fetches the record and rehydrates the in-memory deck. The counter
// is the larger of the stored counter and the highest persisted id, so ids
// are never reused even if the counter column lags.
func (s *Service) loadDeck(ctx context.Context, deckID string) (store.DeckRecord, *deck.Deck, error) {
	rec, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return store.DeckRecord{}, nil, err
	}

	cards, maxID, err := deck.DecodeStored(rec.Cards)
	if err != nil {
		return store.DeckRecord{}, nil, fmt.Errorf("deck %s: %w", deckID, err)
	}
	if cards == nil {
		cards = []deck.Card{}
	}

	nextID := rec.NextID
	if maxID > nextID {
		nextID = maxID
	}
	return rec, &deck.Deck{Cards: cards, NextID: nextID}, nil
}

// saveDeck persists the mutated deck, commits a history snapshot, and
// refreshes the search index.
func (s *Service) saveDeck(ctx context.Context, sess Session, rec store.DeckRecord, d *deck.Deck, message string) (DeckPayload, error) {
	encoded, err := deck.EncodeCards(d.Cards)
	if err != nil {
		return DeckPayload{}, err
	}
	if err := s.store.UpdateDeckCards(ctx, rec.ID, encoded, d.NextID); err != nil {
		return DeckPayload{}, err
	}

	if err := s.history.EnsureDeckRepo(rec.ID); err != nil {
		return DeckPayload{}, fmt.Errorf("ensure deck history: %w", err)
	}
	if _, err := s.history.CommitSnapshot(rec.ID, history.Snapshot{
		Name:   rec.Name,
		Cards:  d.Cards,
		NextID: d.NextID,
	}, sess.UserName, message); err != nil {
		return DeckPayload{}, fmt.Errorf("commit snapshot: %w", err)
	}

	s.search.IndexDeck(rec.ID, rec.Name, d.Cards)

	return s.GetDeckPayload(ctx, rec.ID)
}

func recordToPayload(rec store.DeckRecord) (DeckPayload, error) {
	cards, maxID, err := deck.DecodeStored(rec.Cards)
	if err != nil {
		return DeckPayload{}, fmt.Errorf("deck %s: %w", rec.ID, err)
	}
	if cards == nil {
		cards = []deck.Card{}
	}

	nextID := rec.NextID
	if maxID > nextID {
		nextID = maxID
	}
	return DeckPayload{
		ID:        rec.ID,
		Name:      rec.Name,
		Owner:     rec.Owner,
		Cards:     cards,
		NextID:    nextID,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func randomID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func hashToken(token string) string {
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])
}

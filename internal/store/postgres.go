package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) ListDecks(ctx context.Context) ([]DeckRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, owner, cards, next_id, created_at, updated_at
		FROM decks
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []DeckRecord
	for rows.Next() {
		var d DeckRecord
		if err := rows.Scan(&d.ID, &d.Name, &d.Owner, &d.Cards, &d.NextID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (s *PostgresStore) GetDeck(ctx context.Context, id string) (DeckRecord, error) {
	var d DeckRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, owner, cards, next_id, created_at, updated_at
		FROM decks WHERE id=$1
	`, id).Scan(&d.ID, &d.Name, &d.Owner, &d.Cards, &d.NextID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return DeckRecord{}, err
	}
	return d, nil
}

func (s *PostgresStore) InsertDeck(ctx context.Context, d DeckRecord) error {
	cards := d.Cards
	if len(cards) == 0 {
		cards = json.RawMessage("[]")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decks (id, name, owner, cards, next_id)
		VALUES ($1, $2, $3, $4, $5)
	`, d.ID, d.Name, d.Owner, cards, d.NextID)
	if err != nil {
		return fmt.Errorf("insert deck: %w", err)
	}
	return nil
}

// UpdateDeckCards persists a new card list and id counter for the deck.
func (s *PostgresStore) UpdateDeckCards(ctx context.Context, id string, cards json.RawMessage, nextID int) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE decks SET cards=$2, next_id=$3, updated_at=NOW() WHERE id=$1
	`, id, cards, nextID)
	if err != nil {
		return fmt.Errorf("update deck cards: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deck cards: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) RenameDeck(ctx context.Context, id, name string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE decks SET name=$2, updated_at=NOW() WHERE id=$1
	`, id, name)
	if err != nil {
		return fmt.Errorf("rename deck: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename deck: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteDeck(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) InsertShareLink(ctx context.Context, link ShareLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO share_links (token, deck_id, passcode_hash)
		VALUES ($1, $2, $3)
	`, link.Token, link.DeckID, link.PasscodeHash)
	if err != nil {
		return fmt.Errorf("insert share link: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetShareLink(ctx context.Context, token string) (ShareLink, error) {
	var link ShareLink
	err := s.db.QueryRowContext(ctx, `
		SELECT token, deck_id, passcode_hash, created_at
		FROM share_links WHERE token=$1
	`, token).Scan(&link.Token, &link.DeckID, &link.PasscodeHash, &link.CreatedAt)
	if err != nil {
		return ShareLink{}, err
	}
	return link, nil
}

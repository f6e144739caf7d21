// Package history records each chat's /anime searches so /recent can
// replay them. This is the only state kept across interactions; the
// resolution flow itself never reads it.
package history

import (
	"database/sql"
	"fmt"
	"time"
)

type Entry struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	Query     string    `json:"query"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record stores one search. title may be empty when the search found
// nothing.
func (s *Store) Record(chatID int64, query, title string) error {
	_, err := s.db.Exec(`
		INSERT INTO search_history (chat_id, query, resolved_title)
		VALUES (?, ?, ?)
	`, chatID, query, title)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	return nil
}

// Recent returns the chat's latest searches, newest first.
func (s *Store) Recent(chatID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(`
		SELECT id, chat_id, query, resolved_title, created_at
		FROM search_history
		WHERE chat_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent searches: %w", err)
	}
	defer rows.Close()

	items := make([]Entry, 0, limit)
	for rows.Next() {
		var item Entry
		if err := rows.Scan(&item.ID, &item.ChatID, &item.Query, &item.Title, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search entry: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search entries: %w", err)
	}

	return items, nil
}

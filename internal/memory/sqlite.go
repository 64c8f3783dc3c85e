package memory

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chat_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_history_sender ON chat_history(sender, created_at)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveMessage(ctx context.Context, sender, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (sender, text, created_at) VALUES (?, ?, ?)`,
		sender, text, time.Now().UTC(),
	)
	return err
}

// Search matches history rows containing any token of the query, scoped to
// one sender, most recent first. Token matching keeps the lookup useful for
// the conversational collaborator without a dedicated search engine behind
// it.
func (s *SQLiteStore) Search(ctx context.Context, sender, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 5
	}

	where := []string{"sender = ?"}
	args := []interface{}{sender}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) > 0 {
		likes := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			likes = append(likes, "lower(text) LIKE ?")
			args = append(args, "%"+tok+"%")
		}
		where = append(where, "("+strings.Join(likes, " OR ")+")")
	}

	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx,
		`SELECT sender, text, created_at FROM chat_history WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC, id DESC LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Sender, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

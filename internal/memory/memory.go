// Package memory persists inbound text messages per sender and retrieves
// prior snippets relevant to a new message. The conversational pipeline
// consumes it through the Store interface; only the storage seam is owned
// here.
package memory

import (
	"context"
	"time"
)

// Entry is one remembered message.
type Entry struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the long-term chat history collaborator, keyed by sender
// identity.
type Store interface {
	// SaveMessage appends a message to the sender's history.
	SaveMessage(ctx context.Context, sender, text string) error

	// Search returns up to limit prior entries from the sender's history
	// relevant to query, most recent first.
	Search(ctx context.Context, sender, query string, limit int) ([]Entry, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Package reply is the seam to the conversational collaborator: given a
// normalized text event it produces the reply string to send back. The real
// recommendation pipeline plugs in behind the Responder interface; the
// default implementation acknowledges the message, optionally enriched with
// chat-history snippets.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/deepakdhakad/stickerbot/internal/memory"
)

// Responder turns an inbound text message into a reply string.
type Responder interface {
	Reply(ctx context.Context, sender, senderName, text string) (string, error)
}

// EchoResponder is the built-in responder. With a memory store attached it
// appends relevant history snippets to the acknowledgement.
type EchoResponder struct {
	store        memory.Store
	contextLimit int
	log          zerolog.Logger
}

func NewEchoResponder(store memory.Store, contextLimit int, log zerolog.Logger) *EchoResponder {
	if contextLimit <= 0 {
		contextLimit = 3
	}
	return &EchoResponder{store: store, contextLimit: contextLimit, log: log}
}

func (r *EchoResponder) Reply(ctx context.Context, sender, senderName, text string) (string, error) {
	msg := fmt.Sprintf("Got it, %s! You said: %s", senderName, text)

	if r.store == nil {
		return msg, nil
	}

	entries, err := r.store.Search(ctx, sender, text, r.contextLimit)
	if err != nil {
		// History is best effort; the reply still goes out without it.
		r.log.Warn().Err(err).Str("sender", sender).Msg("chat history lookup failed")
		return msg, nil
	}
	if len(entries) > 0 {
		snippets := make([]string, 0, len(entries))
		for _, e := range entries {
			snippets = append(snippets, e.Text)
		}
		msg += fmt.Sprintf("\n(Relevant information found in chat history: %s)", strings.Join(snippets, "; "))
	}
	return msg, nil
}

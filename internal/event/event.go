// Package event parses WhatsApp Cloud API webhook deliveries and classifies
// them into the two handling paths the bot knows: a plain text message, or an
// image whose caption carries the sticker trigger.
package event

import (
	"encoding/json"
	"strings"
)

// TriggerToken marks an image caption as a sticker conversion request.
const TriggerToken = "/s"

const (
	DefaultPackName   = "Creator"
	DefaultPublisher  = "Deepak Dhakad"
	DefaultSenderName = "Unknown"
)

type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// --- Webhook wire shape (entry/changes/value per Meta's docs) ---

type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *Text  `json:"text,omitempty"`
	Image     *Image `json:"image,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Image struct {
	ID      string `json:"id"`
	Caption string `json:"caption,omitempty"`
	Mime    string `json:"mime_type,omitempty"`
}

// --- Classified result ---

// InboundEvent is the classified form of one webhook delivery. It is built
// once at receipt time and handed to background execution; nothing mutates it
// afterwards.
type InboundEvent struct {
	Kind       Kind
	Sender     string
	MessageID  string
	SenderName string
	Body       string
	MediaID    string
	Command    StickerCommand
}

// StickerCommand is parsed out of an image caption. Both fields are always
// non-empty: absent segments resolve to the defaults at parse time.
type StickerCommand struct {
	PackName  string
	Publisher string
}

// Classify extracts at most one InboundEvent from a raw webhook body. It
// reads only the first entry/changes/value/messages tuple. ok is false for
// anything the bot does not act on: malformed JSON, missing keys, empty
// arrays, unsupported message types, or an image without the trigger token.
// The webhook endpoint acknowledges the delivery either way.
func Classify(raw []byte) (InboundEvent, bool) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return InboundEvent{}, false
	}
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return InboundEvent{}, false
	}

	value := p.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return InboundEvent{}, false
	}
	msg := value.Messages[0]

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return InboundEvent{}, false
		}
		name := DefaultSenderName
		if len(value.Contacts) > 0 && value.Contacts[0].Profile.Name != "" {
			name = value.Contacts[0].Profile.Name
		}
		return InboundEvent{
			Kind:       KindText,
			Sender:     msg.From,
			MessageID:  msg.ID,
			SenderName: name,
			Body:       strings.ToLower(msg.Text.Body),
		}, true

	case "image":
		if msg.Image == nil {
			return InboundEvent{}, false
		}
		cmd, ok := ParseStickerCommand(msg.Image.Caption)
		if !ok {
			return InboundEvent{}, false
		}
		return InboundEvent{
			Kind:      KindImage,
			Sender:    msg.From,
			MessageID: msg.ID,
			MediaID:   msg.Image.ID,
			Command:   cmd,
		}, true
	}

	return InboundEvent{}, false
}

// ParseStickerCommand parses "/s PackName | Publisher" out of a caption.
// The trigger token is stripped once, the remainder split on "|" and each
// segment trimmed. Empty segments fall back to the defaults, so the returned
// command never has empty fields. ok is false when the caption does not
// contain the trigger at all.
func ParseStickerCommand(caption string) (StickerCommand, bool) {
	if !strings.Contains(caption, TriggerToken) {
		return StickerCommand{}, false
	}

	rest := strings.Replace(caption, TriggerToken, "", 1)
	parts := strings.Split(rest, "|")

	cmd := StickerCommand{
		PackName:  DefaultPackName,
		Publisher: DefaultPublisher,
	}
	if name := strings.TrimSpace(parts[0]); name != "" {
		cmd.PackName = name
	}
	if len(parts) > 1 {
		if pub := strings.TrimSpace(parts[1]); pub != "" {
			cmd.Publisher = pub
		}
	}
	return cmd, true
}

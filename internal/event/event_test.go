package event

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textPayload(body, name string) []byte {
	contacts := ""
	if name != "" {
		contacts = fmt.Sprintf(`"contacts":[{"wa_id":"15551234567","profile":{"name":%q}}],`, name)
	}
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			%s
			"messages": [{"from": "15551234567", "id": "wamid.ABC", "type": "text", "text": {"body": %q}}]
		}}]}]
	}`, contacts, body))
}

func imagePayload(caption string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			"messages": [{"from": "15551234567", "id": "wamid.IMG", "type": "image",
				"image": {"id": "MEDIA123", "caption": %q, "mime_type": "image/jpeg"}}]
		}}]}]
	}`, caption))
}

func TestClassifyText(t *testing.T) {
	ev, ok := Classify(textPayload("Hello THERE", "Alice"))
	require.True(t, ok)
	assert.Equal(t, KindText, ev.Kind)
	assert.Equal(t, "15551234567", ev.Sender)
	assert.Equal(t, "wamid.ABC", ev.MessageID)
	assert.Equal(t, "Alice", ev.SenderName)
	assert.Equal(t, "hello there", ev.Body, "body should be lowered")
}

func TestClassifyTextWithoutContacts(t *testing.T) {
	ev, ok := Classify(textPayload("hi", ""))
	require.True(t, ok)
	assert.Equal(t, DefaultSenderName, ev.SenderName)
}

func TestClassifyImageWithTrigger(t *testing.T) {
	ev, ok := Classify(imagePayload("/s MyPack | MyPublisher"))
	require.True(t, ok)
	assert.Equal(t, KindImage, ev.Kind)
	assert.Equal(t, "MEDIA123", ev.MediaID)
	assert.Equal(t, "wamid.IMG", ev.MessageID)
	assert.Equal(t, "MyPack", ev.Command.PackName)
	assert.Equal(t, "MyPublisher", ev.Command.Publisher)
}

func TestClassifyImageWithoutTrigger(t *testing.T) {
	_, ok := Classify(imagePayload("just a nice photo"))
	assert.False(t, ok, "image without trigger must be dropped")
}

func TestClassifyDropped(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"entry": [`},
		{"empty object", `{}`},
		{"empty entry", `{"entry": []}`},
		{"empty changes", `{"entry": [{"changes": []}]}`},
		{"no messages", `{"entry": [{"changes": [{"value": {"statuses": [{"id": "x"}]}}]}]}`},
		{"unsupported type", `{"entry": [{"changes": [{"value": {"messages": [{"from": "1", "id": "a", "type": "audio"}]}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Classify([]byte(tt.payload))
			assert.False(t, ok)
		})
	}
}

func TestParseStickerCommand(t *testing.T) {
	tests := []struct {
		name        string
		caption     string
		wantOK      bool
		wantPack    string
		wantCreator string
	}{
		{"name and publisher", "/s MyPack | MyPublisher", true, "MyPack", "MyPublisher"},
		{"bare trigger", "/s", true, DefaultPackName, DefaultPublisher},
		{"name only", "/s Holidays", true, "Holidays", DefaultPublisher},
		{"publisher only", "/s | Bob", true, DefaultPackName, "Bob"},
		{"blank segments", "/s   |   ", true, DefaultPackName, DefaultPublisher},
		{"no space after trigger", "/sHolidays", true, "Holidays", DefaultPublisher},
		{"no trigger", "MyPack | MyPublisher", false, "", ""},
		{"empty caption", "", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := ParseStickerCommand(tt.caption)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantPack, cmd.PackName)
			assert.Equal(t, tt.wantCreator, cmd.Publisher)
			assert.NotEmpty(t, cmd.PackName)
			assert.NotEmpty(t, cmd.Publisher)
		})
	}
}

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepakdhakad/stickerbot/internal/event"
	"github.com/deepakdhakad/stickerbot/internal/pipeline"
	"github.com/deepakdhakad/stickerbot/internal/signing"
)

const testVerifyToken = "my-verify-token"

type fakeDispatcher struct {
	jobs []pipeline.Job
	full bool
}

func (d *fakeDispatcher) Submit(job pipeline.Job) bool {
	if d.full {
		return false
	}
	d.jobs = append(d.jobs, job)
	return true
}

func newTestHandler(appSecret string) (*WebhookHandler, *fakeDispatcher) {
	d := &fakeDispatcher{}
	return NewWebhookHandler(testVerifyToken, appSecret, d, zerolog.Nop()), d
}

func TestVerifyChallengeEcho(t *testing.T) {
	h, _ := newTestHandler("")
	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token="+testVerifyToken+"&hub.challenge=abc123", nil)
	rr := httptest.NewRecorder()

	h.Verify(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc123", rr.Body.String())
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
}

func TestVerifyRejections(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"wrong token", "hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=abc123"},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=" + testVerifyToken + "&hub.challenge=abc123"},
		{"missing everything", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler("")
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query, nil)
			rr := httptest.NewRecorder()

			h.Verify(rr, req)
			assert.Equal(t, http.StatusForbidden, rr.Code)
		})
	}
}

const stickerDelivery = `{
	"object": "whatsapp_business_account",
	"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
		"messaging_product": "whatsapp",
		"messages": [{"from": "15551234567", "id": "wamid.IMG", "type": "image",
			"image": {"id": "MEDIA123", "caption": "/s MyPack | MyPublisher"}}]
	}}]}]
}`

func TestReceiveDispatchesStickerJob(t *testing.T) {
	h, d := newTestHandler("")
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(stickerDelivery))
	rr := httptest.NewRecorder()

	h.Receive(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"success"}`, rr.Body.String())

	require.Len(t, d.jobs, 1)
	job := d.jobs[0]
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, event.KindImage, job.Event.Kind)
	assert.Equal(t, "MEDIA123", job.Event.MediaID)
	assert.Equal(t, "MyPack", job.Event.Command.PackName)
}

func TestReceiveAcknowledgesDroppedEvents(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"entry": [`},
		{"empty payload", `{}`},
		{"status update", `{"entry": [{"changes": [{"value": {"statuses": [{"id": "x"}]}}]}]}`},
		{"image without trigger", `{"entry": [{"changes": [{"value": {"messages": [
			{"from": "1", "id": "a", "type": "image", "image": {"id": "M", "caption": "nice pic"}}
		]}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newTestHandler("")
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			h.Receive(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code, "platform retries unacknowledged deliveries")
			assert.JSONEq(t, `{"status":"success"}`, rr.Body.String())
			assert.Empty(t, d.jobs)
		})
	}
}

func TestReceiveAcknowledgesFullQueue(t *testing.T) {
	h, d := newTestHandler("")
	d.full = true

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(stickerDelivery))
	rr := httptest.NewRecorder()

	h.Receive(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReceiveSignatureVerification(t *testing.T) {
	const secret = "app-secret"
	h, d := newTestHandler(secret)

	t.Run("valid signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(stickerDelivery))
		req.Header.Set("X-Hub-Signature-256", signing.Sign(secret, []byte(stickerDelivery)))
		rr := httptest.NewRecorder()

		h.Receive(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, d.jobs, 1)
	})

	t.Run("invalid signature", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(stickerDelivery))
		req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
		rr := httptest.NewRecorder()

		h.Receive(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Len(t, d.jobs, 1, "no new job dispatched")
	})
}

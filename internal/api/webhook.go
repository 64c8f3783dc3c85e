package api

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/deepakdhakad/stickerbot/internal/event"
	"github.com/deepakdhakad/stickerbot/internal/pipeline"
	"github.com/deepakdhakad/stickerbot/internal/signing"
)

// maxBodySize caps webhook request bodies. Meta batches updates, but far
// below this limit.
const maxBodySize = 1 << 20 // 1 MB

// Dispatcher hands classified events to background execution; satisfied by
// *pipeline.Pool.
type Dispatcher interface {
	Submit(job pipeline.Job) bool
}

// WebhookHandler serves the Meta webhook handshake (GET) and message
// deliveries (POST).
type WebhookHandler struct {
	verifyToken string
	appSecret   string
	dispatcher  Dispatcher
	log         zerolog.Logger
}

// NewWebhookHandler creates the handler. appSecret may be empty, in which
// case X-Hub-Signature-256 verification is skipped.
func NewWebhookHandler(verifyToken, appSecret string, dispatcher Dispatcher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// Verify handles the subscription handshake: echo hub.challenge as plain
// text when hub.mode is "subscribe" and the verify token matches, 403
// otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.log.Warn().Str("mode", mode).Msg("webhook verification failed")
		writeText(w, http.StatusForbidden, "verification failed")
		return
	}

	h.log.Info().Msg("webhook verified")
	writeText(w, http.StatusOK, challenge)
}

// Receive classifies one webhook delivery and dispatches the resulting job.
// The platform retries deliveries that are not acknowledged, so every parse
// outcome short of a signature mismatch answers 200.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read webhook body")
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	if h.appSecret != "" {
		if !signing.Verify(h.appSecret, body, r.Header.Get("X-Hub-Signature-256")) {
			h.log.Warn().Msg("webhook signature mismatch")
			writeText(w, http.StatusForbidden, "invalid signature")
			return
		}
	}

	if ev, ok := event.Classify(body); ok {
		job := pipeline.NewJob(ev)
		if h.dispatcher.Submit(job) {
			h.log.Info().
				Str("job_id", job.ID).
				Str("kind", string(ev.Kind)).
				Str("sender", ev.Sender).
				Msg("event dispatched")
		}
	} else {
		h.log.Debug().Int("body_size", len(body)).Msg("webhook event dropped")
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

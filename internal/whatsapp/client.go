// Package whatsapp is a minimal client for the WhatsApp Cloud (Graph) API:
// media resolution and download, media upload, and message send. Every call
// carries the bearer token and shares one uniform HTTP timeout.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepakdhakad/stickerbot/internal/config"
)

var (
	ErrMediaResolution = errors.New("whatsapp: media resolution failed")
	ErrMediaDownload   = errors.New("whatsapp: media download failed")
	ErrUpload          = errors.New("whatsapp: media upload failed")
	ErrSend            = errors.New("whatsapp: message send failed")
)

const defaultTimeout = 30 * time.Second

type Client struct {
	httpClient    *http.Client
	token         string
	phoneNumberID string
	baseURL       string
	log           zerolog.Logger
}

func NewClient(cfg config.WhatsAppConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		token:         cfg.Token,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       fmt.Sprintf("%s/%s", strings.TrimRight(cfg.BaseURL, "/"), cfg.APIVersion),
		log:           log,
	}
}

type mediaInfoResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	ID       string `json:"id"`
}

type mediaUploadResponse struct {
	ID string `json:"id"`
}

// ResolveMediaURL exchanges an opaque media id for a short-lived download URL.
func (c *Client) ResolveMediaURL(ctx context.Context, mediaID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, mediaID), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaResolution, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaResolution, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrMediaResolution, resp.StatusCode)
	}

	var info mediaInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMediaResolution, err)
	}
	if info.URL == "" {
		return "", fmt.Errorf("%w: response has no url", ErrMediaResolution)
	}
	return info.URL, nil
}

// DownloadMedia fetches the raw asset bytes. The download URL requires the
// same bearer token as the API endpoints.
func (c *Client) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaDownload, err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrMediaDownload, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaDownload, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMediaDownload)
	}
	return data, nil
}

// UploadMedia posts the finished sticker to the media endpoint and returns
// the platform-assigned media id.
func (c *Client) UploadMedia(ctx context.Context, webpData []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="sticker.webp"`)
	hdr.Set("Content-Type", "image/webp")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if _, err := part.Write(webpData); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := mw.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	url := fmt.Sprintf("%s/%s/media", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUpload, resp.StatusCode, snippet)
	}

	var uploaded mediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if uploaded.ID == "" {
		return "", fmt.Errorf("%w: response has no id", ErrUpload)
	}
	return uploaded.ID, nil
}

// SendSticker dispatches an uploaded sticker to a recipient.
func (c *Client) SendSticker(ctx context.Context, to, mediaID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "sticker",
		"sticker":           map[string]string{"id": mediaID},
	}
	return c.sendMessage(ctx, payload)
}

// SendText dispatches a text message. A non-empty replyToID references the
// inbound message so the reply shows up threaded.
func (c *Client) SendText(ctx context.Context, to, body, replyToID string) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	if replyToID != "" {
		payload["context"] = map[string]string{"message_id": replyToID}
	}
	return c.sendMessage(ctx, payload)
}

func (c *Client) sendMessage(ctx context.Context, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrSend, resp.StatusCode, snippet)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
}

package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint receives contact form submissions.
const DefaultEndpoint = "https://n8n.spurlocksolutions.ai/webhook/spurlockformsubmissions"

var defaultClient = &http.Client{Timeout: 10 * time.Second}

// WebhookSender posts the submission as JSON.
type WebhookSender struct {
	Endpoint string
	Origin   string
	Client   *http.Client
}

func (s *WebhookSender) Name() string { return "webhook" }

func (s *WebhookSender) Submit(ctx context.Context, sub Submission) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(s.Endpoint), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Origin != "" {
		req.Header.Set("Origin", s.Origin)
	}
	return send(s.Client, req)
}

// FormPostSender posts the submission as an url-encoded form, the way a
// plain HTML form would.
type FormPostSender struct {
	Endpoint string
	Client   *http.Client
}

func (s *FormPostSender) Name() string { return "form" }

func (s *FormPostSender) Submit(ctx context.Context, sub Submission) error {
	form := url.Values{}
	for k, v := range sub.Payload() {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(s.Endpoint), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return send(s.Client, req)
}

func endpoint(e string) string {
	if e == "" {
		return DefaultEndpoint
	}
	return e
}

func send(client *http.Client, req *http.Request) error {
	if client == nil {
		client = defaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contact: post %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

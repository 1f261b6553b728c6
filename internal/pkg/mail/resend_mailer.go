package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const DefaultResendBaseURL = "https://api.resend.com"

// ResendMailer sends through the Resend HTTP API.
type ResendMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func NewResendMailer(baseURL, apiKey, from string, timeout time.Duration) *ResendMailer {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultResendBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ResendMailer{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		from:    from,
		client:  &http.Client{Timeout: timeout},
	}
}

func (m *ResendMailer) Name() string { return "resend" }

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	body, err := json.Marshal(resendEmail{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode resend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	var out resendResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Message == "" {
			out.Message = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("resend returned %d: %s", resp.StatusCode, out.Message)
	}

	log.Infof("[Mail] Sent %q to %s via resend (id=%s)", msg.Subject, msg.To, out.ID)
	return nil
}

package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"pearadox/internal/config"
)

// Mailer forwards contact-form submissions to a Resend-style transactional
// email API. It holds no state beyond its HTTP client.
type Mailer struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

func New(cfg config.Config) *Mailer {
	return &Mailer{
		endpoint: cfg.ResendEndpoint,
		apiKey:   cfg.ResendAPIKey,
		from:     cfg.ContactFrom,
		to:       cfg.ContactTo,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (r ContactRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" ||
		strings.TrimSpace(r.Email) == "" ||
		strings.TrimSpace(r.Subject) == "" ||
		strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("name, email, subject and message are required")
	}
	if !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// Send validates and forwards one contact request, returning the upstream
// message id.
func (m *Mailer) Send(ctx context.Context, req ContactRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if m.apiKey == "" {
		return "", fmt.Errorf("email api key is not configured")
	}

	payload, _ := json.Marshal(map[string]any{
		"from":     m.from,
		"to":       []string{m.to},
		"reply_to": req.Email,
		"subject":  "[Pearadox Contact] " + req.Subject,
		"text":     fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message),
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send email request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("email api error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode email response: %w", err)
	}
	return parsed.ID, nil
}

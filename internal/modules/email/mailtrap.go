package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
)

// MailtrapProvider sends through the Mailtrap send API.
type MailtrapProvider struct {
	apiURL   string
	apiToken string
	from     PersonInfo
	http     *http.Client
}

type MailtrapPayload struct {
	From     PersonInfo   `json:"from"`
	To       []PersonInfo `json:"to"`
	Subject  string       `json:"subject"`
	Text     string       `json:"text,omitempty"`
	HTML     string       `json:"html,omitempty"`
	Category string       `json:"category,omitempty"`
}

type PersonInfo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func NewMailtrapProvider(cfg config.EmailConfig) *MailtrapProvider {
	return &MailtrapProvider{
		apiURL:   cfg.MailtrapURL,
		apiToken: cfg.MailtrapToken,
		from:     PersonInfo{Email: cfg.From, Name: cfg.FromName},
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *MailtrapProvider) Send(ctx context.Context, msg Message) error {
	if m.apiURL == "" || m.apiToken == "" {
		return fmt.Errorf("mailtrap credentials not configured")
	}

	category := msg.Tag
	if category == "" {
		category = "Transactional"
	}
	body, err := json.Marshal(MailtrapPayload{
		From:     m.from,
		To:       []PersonInfo{{Email: msg.To, Name: msg.ToName}},
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Text:     msg.Text,
		Category: category,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailtrap: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("mailtrap API error: %d %s", res.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

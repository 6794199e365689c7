package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
)

type WhatsAppSender interface {
	Send(ctx context.Context, target, message string) (messageID string, err error)
}

// WhatsAppClient talks to a Fonnte-style gateway: form POST with the device
// token in the Authorization header.
type WhatsAppClient struct {
	apiURL string
	token  string
	http   *http.Client
}

func NewWhatsAppClient(cfg config.WhatsAppConfig) *WhatsAppClient {
	return &WhatsAppClient{
		apiURL: cfg.APIURL,
		token:  cfg.Token,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

type waResponse struct {
	Status bool            `json:"status"`
	Reason string          `json:"reason"`
	Detail string          `json:"detail"`
	ID     json.RawMessage `json:"id"`
}

func (c *WhatsAppClient) Send(ctx context.Context, target, message string) (string, error) {
	form := url.Values{}
	form.Set("target", target)
	form.Set("message", message)
	form.Set("countryCode", "62")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("whatsapp: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out waResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("whatsapp: malformed response: %w", err)
	}
	if !out.Status {
		reason := out.Reason
		if reason == "" {
			reason = out.Detail
		}
		return "", fmt.Errorf("whatsapp: rejected: %s", reason)
	}
	return messageID(out.ID), nil
}

// messageID accepts both "id": ["123"] and "id": "123".
func messageID(raw json.RawMessage) string {
	var ids []string
	if json.Unmarshal(raw, &ids) == nil && len(ids) > 0 {
		return ids[0]
	}
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return one
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

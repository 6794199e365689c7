// Package email renders donor emails and hands them to a delivery backend.
package email

import (
	"context"
	"fmt"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/mailer"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
	Tag     string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// NewSender picks the backend named by EMAIL_DRIVER. "none" returns a nil Sender,
// which callers treat as a disabled channel.
func NewSender(cfg config.Config) (Sender, error) {
	switch cfg.Email.Driver {
	case "smtp":
		return NewMailerAdapter(mailer.NewSMTPMailer(cfg.SMTP), cfg.Email.From, cfg.Email.FromName), nil
	case "mailtrap":
		return NewMailtrapProvider(cfg.Email), nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("email: unknown driver %q", cfg.Email.Driver)
	}
}

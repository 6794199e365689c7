package email

import (
	"context"

	"github.com/anggiadiputra/donasiku-sub000/internal/mailer"
)

// MailerAdapter sends Messages through a mailer.Service.
type MailerAdapter struct {
	mailer   mailer.Service
	fromAddr string
	fromName string
}

func NewMailerAdapter(m mailer.Service, fromAddr, fromName string) *MailerAdapter {
	return &MailerAdapter{mailer: m, fromAddr: fromAddr, fromName: fromName}
}

func (a *MailerAdapter) Send(ctx context.Context, m Message) error {
	e := mailer.Email{
		From:     a.fromAddr,
		FromName: a.fromName,
		To:       []string{m.To},
		Subject:  m.Subject,
		TextBody: m.Text,
		HTMLBody: m.HTML,
	}
	if m.Tag != "" {
		e.Headers = map[string]string{"X-Donasiku-Tag": m.Tag}
	}
	return a.mailer.Send(ctx, e)
}

package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/mailer"
)

func sampleData() DonationData {
	return DonationData{
		DonorName:     "Budi <script>",
		Campaign:      "Infaq",
		Amount:        "Rp 150.000",
		InvoiceCode:   "INV-20250317-ABCDEF123456",
		OrderID:       "DN1",
		PaymentMethod: "BC",
		VANumber:      "8801234567",
		InvoiceURL:    "https://donasi.example/invoice/DN1",
	}
}

func TestPendingMessage(t *testing.T) {
	m, err := PendingMessage("a@b.com", sampleData())
	if err != nil {
		t.Fatalf("PendingMessage() error = %v", err)
	}
	if m.To != "a@b.com" || m.Subject == "" || m.Tag != "donation-pending" {
		t.Errorf("message = %+v", m)
	}
	for _, want := range []string{"Rp 150.000", "INV-20250317-ABCDEF123456", "8801234567", "https://donasi.example/invoice/DN1"} {
		if !strings.Contains(m.Text, want) || !strings.Contains(m.HTML, want) {
			t.Errorf("bodies missing %q", want)
		}
	}
	if strings.Contains(m.HTML, "<script>") {
		t.Error("html body must escape donor input")
	}
}

func TestSuccessMessageDiffersFromPending(t *testing.T) {
	p, _ := PendingMessage("a@b.com", sampleData())
	s, err := SuccessMessage("a@b.com", sampleData())
	if err != nil {
		t.Fatal(err)
	}
	if s.Subject == p.Subject || s.Text == p.Text {
		t.Error("success and pending emails should differ")
	}
}

func TestMailerAdapter(t *testing.T) {
	mock := &mailer.Mock{}
	a := NewMailerAdapter(mock, "noreply@donasi.example", "Donasiku")

	if err := a.Send(context.Background(), Message{To: "a@b.com", Subject: "s", Text: "t", Tag: "donation-success"}); err != nil {
		t.Fatal(err)
	}
	if mock.Count() != 1 {
		t.Fatalf("sent %d", mock.Count())
	}
	e := mock.Sent[0]
	if e.From != "noreply@donasi.example" || e.To[0] != "a@b.com" || e.Headers["X-Donasiku-Tag"] != "donation-success" {
		t.Errorf("email = %+v", e)
	}
}

func TestMailtrapProvider(t *testing.T) {
	var got MailtrapPayload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewMailtrapProvider(config.EmailConfig{
		From: "noreply@donasi.example", FromName: "Donasiku",
		MailtrapURL: srv.URL, MailtrapToken: "tok",
	})
	err := p.Send(context.Background(), Message{To: "a@b.com", ToName: "Budi", Subject: "Hi", HTML: "<p>x</p>", Tag: "donation-pending"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.From.Email != "noreply@donasi.example" || got.To[0].Name != "Budi" || got.Category != "donation-pending" {
		t.Errorf("payload = %+v", got)
	}
}

func TestMailtrapProvider_Errors(t *testing.T) {
	if err := NewMailtrapProvider(config.EmailConfig{}).Send(context.Background(), Message{}); err == nil {
		t.Error("missing credentials should fail")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["Unauthorized"]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()
	p := NewMailtrapProvider(config.EmailConfig{MailtrapURL: srv.URL, MailtrapToken: "bad"})
	if err := p.Send(context.Background(), Message{To: "a@b.com"}); err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("Send() error = %v, want 401", err)
	}
}

func TestNewSender(t *testing.T) {
	cfg := config.Config{Email: config.EmailConfig{Driver: "none"}}
	if s, err := NewSender(cfg); err != nil || s != nil {
		t.Errorf("none driver = %v, %v", s, err)
	}
	cfg.Email.Driver = "smtp"
	if s, err := NewSender(cfg); err != nil {
		t.Errorf("smtp driver error = %v", err)
	} else if _, ok := s.(*MailerAdapter); !ok {
		t.Errorf("smtp driver = %T", s)
	}
	cfg.Email.Driver = "mailtrap"
	if s, _ := NewSender(cfg); s == nil {
		t.Error("mailtrap driver returned nil")
	}
	cfg.Email.Driver = "fax"
	if _, err := NewSender(cfg); err == nil {
		t.Error("unknown driver should fail")
	}
}

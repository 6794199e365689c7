package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/events"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
)

type TransactionStore interface {
	CreateIntent(ctx context.Context, t *transactions.Transaction) error
	MarkPending(ctx context.Context, orderID string, f transactions.GatewayFields) (transactions.Transaction, error)
	UpdateStatus(ctx context.Context, orderID, status string, f transactions.GatewayFields) (transactions.Transaction, bool, error)
	FindByOrderID(ctx context.Context, orderID string) (transactions.Transaction, error)
	ListStaleInitiating(ctx context.Context, cutoff time.Time, limit int) ([]transactions.Transaction, error)
	ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]transactions.Transaction, error)
}

type CampaignResolver interface {
	Resolve(ctx context.Context, in campaigns.ResolveInput) (*campaigns.Campaign, error)
}

type CampaignFinder interface {
	FindByID(ctx context.Context, id string) (campaigns.Campaign, error)
}

// Notifier must not block on delivery failures; it only reports them.
type Notifier interface {
	NotifyPending(ctx context.Context, trx transactions.Transaction, camp *campaigns.Campaign)
	NotifySuccess(ctx context.Context, trx transactions.Transaction, camp *campaigns.Campaign)
}

// Deps is shared by DonationService and Reconciler.
type Deps struct {
	Config    config.Config
	Store     TransactionStore
	Resolver  CampaignResolver
	Campaigns CampaignFinder
	Gateway   Gateway
	Notifier  Notifier
	Events    events.Publisher
	Logger    *slog.Logger

	// Go runs detached work (notifications). Defaults to a plain goroutine.
	Go func(task func())
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Go == nil {
		d.Go = func(task func()) { go task() }
	}
	return d
}

type DonationService struct {
	d   Deps
	now func() time.Time
}

func NewDonationService(d Deps) *DonationService {
	return &DonationService{d: d.withDefaults(), now: time.Now}
}

type CreateInput struct {
	CampaignID      string
	CampaignSlug    string
	Amount          int64
	PaymentMethod   string
	CustomerName    string
	OriginalName    string
	IsAnonymous     bool
	CustomerEmail   string
	CustomerPhone   string
	CustomerMessage string
	ReturnURL       string
	ProductDetails  string
}

func (s *DonationService) validate(in CreateInput) error {
	fields := map[string]string{}
	if in.Amount <= 0 {
		fields["amount"] = "Nominal donasi wajib diisi"
	} else if in.Amount < s.d.Config.Donation.MinAmount {
		fields["amount"] = fmt.Sprintf("Minimal donasi %d", s.d.Config.Donation.MinAmount)
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		fields["paymentMethod"] = "Metode pembayaran wajib dipilih"
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		fields["customerName"] = "Nama wajib diisi"
	}
	if strings.TrimSpace(in.CustomerEmail) == "" {
		fields["customerEmail"] = "Email wajib diisi"
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		fields["customerPhone"] = "Nomor WhatsApp wajib diisi"
	}
	if len(fields) > 0 {
		return apperr.InvalidErr("Data donasi tidak valid", fields)
	}
	return nil
}

// Create writes the intent row, asks the gateway for payment instructions and
// attaches them to the row. The donor is notified after the row is pending.
func (s *DonationService) Create(ctx context.Context, in CreateInput) (transactions.Transaction, error) {
	if err := s.validate(in); err != nil {
		return transactions.Transaction{}, err
	}
	cfg := s.d.Config

	camp, err := s.d.Resolver.Resolve(ctx, campaigns.ResolveInput{
		ID:      strings.TrimSpace(in.CampaignID),
		Slug:    strings.TrimSpace(in.CampaignSlug),
		Require: cfg.Donation.RequireCampaign,
	})
	if err != nil {
		if errors.Is(err, campaigns.ErrCampaignNotFound) {
			return transactions.Transaction{}, apperr.NotFoundErr("Program donasi tidak ditemukan")
		}
		return transactions.Transaction{}, apperr.Wrap(err)
	}

	now := s.now()
	orderID := NewOrderID()
	expiry := now.Add(time.Duration(cfg.Gateway.ExpiryMinutes) * time.Minute)
	returnURL := s.returnURL(in.ReturnURL, orderID)

	trx := &transactions.Transaction{
		MerchantOrderID: orderID,
		InvoiceCode:     NewInvoiceCode(now),
		Amount:          in.Amount,
		PaymentMethod:   strings.ToUpper(strings.TrimSpace(in.PaymentMethod)),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		ProductDetails:  productDetails(in.ProductDetails, camp),
		ExpiryTime:      &expiry,
		Metadata: transactions.EncodeMetadata(transactions.Metadata{
			IsAnonymous:  in.IsAnonymous,
			OriginalName: strings.TrimSpace(in.OriginalName),
			ReturnURL:    returnURL,
		}),
	}
	if msg := strings.TrimSpace(in.CustomerMessage); msg != "" {
		trx.CustomerMessage = &msg
	}
	if camp != nil {
		id := camp.ID
		trx.CampaignID = &id
	}

	if err := s.d.Store.CreateIntent(ctx, trx); err != nil {
		s.d.Logger.ErrorContext(ctx, "transaction intent insert failed", "merchant_order_id", orderID, "err", err)
		return transactions.Transaction{}, apperr.Wrap(err)
	}

	resp, err := s.d.Gateway.Inquire(ctx, InquiryRequest{
		MerchantOrderID: orderID,
		Amount:          trx.Amount,
		PaymentMethod:   trx.PaymentMethod,
		ProductDetails:  trx.ProductDetails,
		CustomerName:    trx.CustomerName,
		Email:           trx.CustomerEmail,
		Phone:           trx.CustomerPhone,
		CallbackURL:     cfg.CallbackURL(),
		ReturnURL:       returnURL,
		ExpiryMinutes:   cfg.Gateway.ExpiryMinutes,
	})
	if err != nil {
		return transactions.Transaction{}, s.inquiryFailed(ctx, orderID, err)
	}

	pending, err := s.d.Store.MarkPending(ctx, orderID, transactions.GatewayFields{
		Reference:     resp.Reference,
		ResultCode:    resp.StatusCode,
		StatusMessage: resp.StatusMessage,
		VANumber:      resp.VANumber,
		QRString:      resp.QRString,
		PaymentURL:    resp.PaymentURL,
	})
	if err != nil {
		s.d.Logger.ErrorContext(ctx, "gateway accepted payment but pending write failed",
			"merchant_order_id", orderID,
			"reference", resp.Reference,
			"amount", trx.Amount,
			"err", err,
		)
		return transactions.Transaction{}, apperr.InFlightErr(fmt.Sprintf(
			"Pembayaran Anda mungkin sedang diproses. Hubungi layanan donatur dengan menyebutkan kode %s.", orderID), err)
	}

	if pending.Status != transactions.StatusPending {
		// a callback or the sweep closed the intent row before the pending write
		s.d.Logger.WarnContext(ctx, "transaction settled before it was marked pending",
			"merchant_order_id", orderID,
			"status", pending.Status,
		)
		return pending, nil
	}

	s.d.Logger.InfoContext(ctx, "transaction created",
		"merchant_order_id", orderID,
		"invoice_code", pending.InvoiceCode,
		"amount", pending.Amount,
		"payment_method", pending.PaymentMethod,
	)
	publish(ctx, s.d, events.Event{
		Type:            events.TypeTransactionPending,
		MerchantOrderID: pending.MerchantOrderID,
		InvoiceCode:     pending.InvoiceCode,
		Status:          pending.Status,
		Amount:          pending.Amount,
		CampaignID:      deref(pending.CampaignID),
		Source:          "create",
	})

	detached := context.WithoutCancel(ctx)
	s.d.Go(func() { s.d.Notifier.NotifyPending(detached, pending, camp) })

	return pending, nil
}

// inquiryFailed maps a failed inquiry to the client error. A rejected inquiry
// closes the intent row as failed; an unknown outcome leaves it for the sweep.
func (s *DonationService) inquiryFailed(ctx context.Context, orderID string, err error) error {
	var ge *GatewayError
	if !errors.As(err, &ge) {
		ge = &GatewayError{Message: "gateway unreachable", Err: err}
	}

	s.d.Logger.WarnContext(ctx, "gateway inquiry failed",
		"merchant_order_id", orderID,
		"status_code", ge.StatusCode,
		"http_status", ge.HTTPStatus,
		"err", err,
	)

	if ge.IsRejection() {
		if _, _, uerr := s.d.Store.UpdateStatus(ctx, orderID, transactions.StatusFailed, transactions.GatewayFields{
			ResultCode:    ge.StatusCode,
			StatusMessage: ge.Message,
		}); uerr != nil {
			s.d.Logger.ErrorContext(ctx, "mark intent failed", "merchant_order_id", orderID, "err", uerr)
		}
	}

	msg := ge.Message
	if msg == "" || !ge.IsRejection() {
		msg = "Gateway pembayaran tidak dapat dihubungi. Tidak ada dana yang terpotong."
	}
	return apperr.GatewayErr(msg, ge)
}

// returnURL only honours client URLs on our own host.
func (s *DonationService) returnURL(requested, orderID string) string {
	base := s.d.Config.AppBaseURL
	if requested != "" && base != "" && strings.HasPrefix(requested, base+"/") {
		return requested
	}
	return s.d.Config.ReturnURL(orderID)
}

func productDetails(requested string, camp *campaigns.Campaign) string {
	if p := strings.TrimSpace(requested); p != "" {
		return p
	}
	if camp != nil {
		return "Donasi " + camp.Title
	}
	return "Donasi"
}

func publish(ctx context.Context, d Deps, ev events.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Logger.WarnContext(ctx, "event publish failed", "type", ev.Type, "merchant_order_id", ev.MerchantOrderID, "err", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

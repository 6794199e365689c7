// Package notify tells donors about their donation over WhatsApp and email.
// Delivery is best effort: failures are logged, stored and published, never returned.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"
	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/config"
	"github.com/anggiadiputra/donasiku-sub000/internal/events"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/email"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/strutil"
)

const sendTimeout = 30 * time.Second

type Dispatcher struct {
	cfg      config.Config
	whatsapp WhatsAppSender // nil disables the channel
	mail     email.Sender   // nil disables the channel
	db       *gorm.DB       // nil disables the delivery log
	events   events.Publisher
	logger   *slog.Logger
}

type Options struct {
	WhatsApp WhatsAppSender
	Email    email.Sender
	DB       *gorm.DB
	Events   events.Publisher
	Logger   *slog.Logger
}

func NewDispatcher(cfg config.Config, o Options) *Dispatcher {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Events == nil {
		o.Events = events.Nop{}
	}
	return &Dispatcher{
		cfg:      cfg,
		whatsapp: o.WhatsApp,
		mail:     o.Email,
		db:       o.DB,
		events:   o.Events,
		logger:   o.Logger,
	}
}

func (d *Dispatcher) NotifyPending(ctx context.Context, trx transactions.Transaction, camp *campaigns.Campaign) {
	d.dispatch(ctx, EventPending, trx, camp)
}

func (d *Dispatcher) NotifySuccess(ctx context.Context, trx transactions.Transaction, camp *campaigns.Campaign) {
	d.dispatch(ctx, EventSuccess, trx, camp)
}

// dispatch runs both channels concurrently and waits for them. A panic in one
// channel is recovered and logged; the other channel still completes.
func (d *Dispatcher) dispatch(ctx context.Context, event string, trx transactions.Transaction, camp *campaigns.Campaign) {
	invoiceURL := d.cfg.InvoiceURL(trx.MerchantOrderID)

	var wg conc.WaitGroup
	wg.Go(func() { d.sendWhatsApp(ctx, event, trx, camp, invoiceURL) })
	wg.Go(func() { d.sendEmail(ctx, event, trx, camp, invoiceURL) })

	if r := wg.WaitAndRecover(); r != nil {
		d.logger.ErrorContext(ctx, "notification panic recovered",
			"merchant_order_id", trx.MerchantOrderID,
			"event", event,
			"panic", r.String(),
		)
	}
}

func (d *Dispatcher) sendWhatsApp(ctx context.Context, event string, trx transactions.Transaction, camp *campaigns.Campaign, invoiceURL string) {
	target := NormalizePhone(trx.CustomerPhone)
	if target == "" || d.whatsapp == nil {
		d.record(ctx, trx, ChannelWhatsApp, event, target, LogSkipped, "", nil)
		return
	}

	msg := pendingWhatsApp(trx, camp, invoiceURL)
	if event == EventSuccess {
		msg = successWhatsApp(trx, camp, invoiceURL)
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	id, err := d.whatsapp.Send(sctx, target, msg)
	if err != nil {
		d.failed(ctx, trx, ChannelWhatsApp, event, target, err)
		return
	}
	d.record(ctx, trx, ChannelWhatsApp, event, target, LogSent, id, nil)
}

func (d *Dispatcher) sendEmail(ctx context.Context, event string, trx transactions.Transaction, camp *campaigns.Campaign, invoiceURL string) {
	to := trx.CustomerEmail
	if to == "" || d.mail == nil {
		d.record(ctx, trx, ChannelEmail, event, to, LogSkipped, "", nil)
		return
	}

	render := email.PendingMessage
	if event == EventSuccess {
		render = email.SuccessMessage
	}
	m, err := render(to, emailData(trx, camp, invoiceURL))
	if err != nil {
		d.failed(ctx, trx, ChannelEmail, event, to, err)
		return
	}

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.mail.Send(sctx, m); err != nil {
		d.failed(ctx, trx, ChannelEmail, event, to, err)
		return
	}
	d.record(ctx, trx, ChannelEmail, event, to, LogSent, "", nil)
}

func (d *Dispatcher) failed(ctx context.Context, trx transactions.Transaction, channel, event, target string, err error) {
	d.logger.WarnContext(ctx, "notification failed",
		"merchant_order_id", trx.MerchantOrderID,
		"channel", channel,
		"event", event,
		"err", err,
	)
	d.record(ctx, trx, channel, event, target, LogFailed, "", err)

	if perr := d.events.Publish(ctx, events.Event{
		Type:            events.TypeNotificationFailed,
		MerchantOrderID: trx.MerchantOrderID,
		InvoiceCode:     trx.InvoiceCode,
		Status:          event,
		Channel:         channel,
		Error:           err.Error(),
		OccurredAt:      time.Now().UTC(),
	}); perr != nil {
		d.logger.WarnContext(ctx, "event publish failed", "type", events.TypeNotificationFailed, "err", perr)
	}
}

func (d *Dispatcher) record(ctx context.Context, trx transactions.Transaction, channel, event, target, status, providerID string, sendErr error) {
	if d.db == nil {
		return
	}
	entry := NotificationLog{
		TransactionID:   trx.ID,
		MerchantOrderID: trx.MerchantOrderID,
		Channel:         channel,
		Event:           event,
		Target:          target,
		Status:          status,
		CreatedAt:       time.Now(),
	}
	if providerID != "" {
		entry.ProviderMessageID = &providerID
	}
	if sendErr != nil {
		msg := strutil.Truncate(sendErr.Error(), 255)
		entry.ErrorMessage = &msg
	}

	lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.db.WithContext(lctx).Create(&entry).Error; err != nil {
		d.logger.WarnContext(ctx, "notification log insert failed", "merchant_order_id", trx.MerchantOrderID, "err", err)
	}
}

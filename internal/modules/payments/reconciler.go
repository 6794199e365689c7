package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anggiadiputra/donasiku-sub000/internal/cache"
	"github.com/anggiadiputra/donasiku-sub000/internal/events"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/modules/transactions"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/apperr"
)

// Reconciler brings open transactions to a terminal state from three sources:
// client polling, gateway callbacks and the background sweep.
type Reconciler struct {
	d        Deps
	throttle cache.Throttle
	now      func() time.Time
}

func NewReconciler(d Deps, throttle cache.Throttle) *Reconciler {
	if throttle == nil {
		throttle = cache.NewMemoryThrottle()
	}
	return &Reconciler{d: d.withDefaults(), throttle: throttle, now: time.Now}
}

// Poll is the client-facing status check. Terminal rows are returned as stored,
// without a gateway call.
func (r *Reconciler) Poll(ctx context.Context, orderID string) (transactions.Transaction, error) {
	trx, err := r.find(ctx, orderID)
	if err != nil {
		return transactions.Transaction{}, err
	}
	if transactions.IsTerminal(trx.Status) {
		return trx, nil
	}

	ok, err := r.throttle.Allow(ctx, "poll:"+orderID, r.d.Config.Donation.PollThrottle)
	if err != nil {
		r.d.Logger.WarnContext(ctx, "poll throttle unavailable", "merchant_order_id", orderID, "err", err)
		ok = true
	}
	if !ok {
		return trx, nil
	}

	out, _, err := r.check(ctx, trx, "poll")
	if err != nil {
		r.d.Logger.WarnContext(ctx, "status query failed", "merchant_order_id", orderID, "err", err)
		return trx, nil
	}
	return out, nil
}

// Reconcile forces a status query for one order, bypassing the poll throttle.
func (r *Reconciler) Reconcile(ctx context.Context, orderID string) (transactions.Transaction, bool, error) {
	trx, err := r.find(ctx, orderID)
	if err != nil {
		return transactions.Transaction{}, false, err
	}
	if transactions.IsTerminal(trx.Status) {
		return trx, false, nil
	}
	out, changed, err := r.check(ctx, trx, "admin")
	if err != nil {
		var ge *GatewayError
		if errors.As(err, &ge) {
			return trx, false, apperr.GatewayErr(firstNonEmpty(ge.Message, "Gateway pembayaran tidak dapat dihubungi"), err)
		}
		return trx, false, apperr.Wrap(err)
	}
	return out, changed, nil
}

// ApplyCallback applies a verified gateway callback.
func (r *Reconciler) ApplyCallback(ctx context.Context, ev CallbackEvent) (transactions.Transaction, bool, error) {
	trx, err := r.d.Store.FindByOrderID(ctx, ev.MerchantOrderID)
	if err != nil {
		return transactions.Transaction{}, false, err
	}
	if ev.Amount != trx.Amount {
		return trx, false, fmt.Errorf("%w: got %d, stored %d", ErrAmountMismatch, ev.Amount, trx.Amount)
	}

	var status string
	switch ev.ResultCode {
	case CodeSuccess:
		status = transactions.StatusSuccess
	case CodePending: // callbacks use 01 for a failed payment
		status = r.failedOrExpired(trx)
	default:
		return trx, false, fmt.Errorf("%w: %q", ErrUnknownResult, ev.ResultCode)
	}

	return r.apply(ctx, trx, status, transactions.GatewayFields{
		Reference:  ev.Reference,
		ResultCode: ev.ResultCode,
	}, "callback")
}

type SweepResult struct {
	Checked int
	Changed int
	Errors  int
}

// Sweep re-queries stale intent rows and pending rows past their expiry.
func (r *Reconciler) Sweep(ctx context.Context) (SweepResult, error) {
	cfg := r.d.Config.Reconcile
	limit := cfg.BatchSize
	if limit <= 0 {
		limit = 50
	}
	now := r.now()

	stale, err := r.d.Store.ListStaleInitiating(ctx, now.Add(-cfg.InitiatingGrace), limit)
	if err != nil {
		return SweepResult{}, err
	}
	overdue, err := r.d.Store.ListOverduePending(ctx, now.Add(-cfg.PendingGrace), limit)
	if err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	for _, trx := range append(stale, overdue...) {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Checked++

		_, changed, err := r.check(ctx, trx, "sweep")
		if err != nil {
			res.Errors++
			r.d.Logger.WarnContext(ctx, "sweep status query failed", "merchant_order_id", trx.MerchantOrderID, "status", trx.Status, "err", err)
			continue
		}
		if changed {
			res.Changed++
		}
	}

	if res.Checked > 0 {
		r.d.Logger.InfoContext(ctx, "reconcile sweep finished", "checked", res.Checked, "changed", res.Changed, "errors", res.Errors)
	}
	return res, nil
}

// check asks the gateway for the current status of trx and applies it.
func (r *Reconciler) check(ctx context.Context, trx transactions.Transaction, source string) (transactions.Transaction, bool, error) {
	st, err := r.d.Gateway.CheckStatus(ctx, trx.MerchantOrderID)
	if err != nil {
		var ge *GatewayError
		if source == "sweep" && errors.As(err, &ge) && ge.IsRejection() {
			// the gateway has no usable record of this order
			status := transactions.StatusFailed
			if trx.Status == transactions.StatusPending {
				status = transactions.StatusExpired
			}
			return r.apply(ctx, trx, status, transactions.GatewayFields{
				ResultCode:    ge.StatusCode,
				StatusMessage: ge.Message,
			}, source)
		}
		return trx, false, err
	}

	status := r.mapStatus(trx, st.StatusCode)
	if status == "" {
		return trx, false, nil
	}
	return r.apply(ctx, trx, status, transactions.GatewayFields{
		Reference:     st.Reference,
		ResultCode:    st.StatusCode,
		StatusMessage: st.StatusMessage,
	}, source)
}

// mapStatus returns the status a gateway code moves trx to, or "" for no change.
func (r *Reconciler) mapStatus(trx transactions.Transaction, code string) string {
	switch code {
	case CodeSuccess:
		return transactions.StatusSuccess
	case CodePending:
		if r.pastExpiry(trx) {
			return transactions.StatusExpired
		}
		if trx.Status == transactions.StatusInitiating {
			return transactions.StatusPending
		}
		return ""
	case CodeFailed:
		return r.failedOrExpired(trx)
	}
	return ""
}

func (r *Reconciler) failedOrExpired(trx transactions.Transaction) string {
	if r.pastExpiry(trx) {
		return transactions.StatusExpired
	}
	return transactions.StatusFailed
}

func (r *Reconciler) pastExpiry(trx transactions.Transaction) bool {
	return trx.ExpiryTime != nil && r.now().After(*trx.ExpiryTime)
}

// apply is the single path for every reconciliation write. Only the caller that
// actually moved the row publishes and notifies.
func (r *Reconciler) apply(ctx context.Context, trx transactions.Transaction, status string, f transactions.GatewayFields, source string) (transactions.Transaction, bool, error) {
	out, changed, err := r.d.Store.UpdateStatus(ctx, trx.MerchantOrderID, status, f)
	if err != nil {
		return trx, false, err
	}
	if !changed {
		return out, false, nil
	}

	r.d.Logger.InfoContext(ctx, "transaction status changed",
		"merchant_order_id", out.MerchantOrderID,
		"from", trx.Status,
		"to", out.Status,
		"source", source,
	)
	publish(ctx, r.d, events.Event{
		Type:            events.TypeStatusChanged,
		MerchantOrderID: out.MerchantOrderID,
		InvoiceCode:     out.InvoiceCode,
		Status:          out.Status,
		PreviousStatus:  trx.Status,
		Amount:          out.Amount,
		CampaignID:      deref(out.CampaignID),
		Source:          source,
	})

	if out.Status == transactions.StatusSuccess {
		camp := r.campaignOf(ctx, out)
		detached := context.WithoutCancel(ctx)
		r.d.Go(func() { r.d.Notifier.NotifySuccess(detached, out, camp) })
	}
	return out, true, nil
}

func (r *Reconciler) campaignOf(ctx context.Context, trx transactions.Transaction) *campaigns.Campaign {
	if trx.CampaignID == nil || r.d.Campaigns == nil {
		return nil
	}
	c, err := r.d.Campaigns.FindByID(ctx, *trx.CampaignID)
	if err != nil {
		r.d.Logger.WarnContext(ctx, "campaign lookup for notification failed", "campaign_id", *trx.CampaignID, "err", err)
		return nil
	}
	return &c
}

func (r *Reconciler) find(ctx context.Context, orderID string) (transactions.Transaction, error) {
	trx, err := r.d.Store.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, transactions.ErrNotFound) {
			return transactions.Transaction{}, apperr.NotFoundErr("Transaksi tidak ditemukan")
		}
		return transactions.Transaction{}, apperr.Wrap(err)
	}
	return trx, nil
}

// Package events publishes transaction lifecycle events to an external sink.
package events

import (
	"context"
	"time"
)

const (
	TypeTransactionPending = "transaction.pending"
	TypeStatusChanged      = "transaction.status_changed"
	TypeNotificationFailed = "notification.failed"
)

type Event struct {
	Type            string    `json:"type"`
	MerchantOrderID string    `json:"merchant_order_id"`
	InvoiceCode     string    `json:"invoice_code,omitempty"`
	Status          string    `json:"status,omitempty"`
	PreviousStatus  string    `json:"previous_status,omitempty"`
	Amount          int64     `json:"amount,omitempty"`
	CampaignID      string    `json:"campaign_id,omitempty"`
	Source          string    `json:"source,omitempty"` // create|poll|callback|sweep|admin
	Channel         string    `json:"channel,omitempty"`
	Error           string    `json:"error,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

package transactions

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/anggiadiputra/donasiku-sub000/internal/shared/strutil"
)

const (
	StatusInitiating = "initiating" // intent row written before the gateway call
	StatusPending    = "pending"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
	StatusExpired    = "expired"
)

// IsTerminal reports whether status can no longer change.
func IsTerminal(status string) bool {
	switch status {
	case StatusSuccess, StatusFailed, StatusExpired:
		return true
	}
	return false
}

type Transaction struct {
	ID              string  `gorm:"type:char(36);primaryKey"`
	MerchantOrderID string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_transactions_merchant_order_id"`
	InvoiceCode     string  `gorm:"type:varchar(64);not null;uniqueIndex:ux_transactions_invoice_code"`
	Reference       *string `gorm:"type:varchar(128)"`

	Amount        int64  `gorm:"not null"`
	PaymentMethod string `gorm:"type:varchar(16);not null"`
	Status        string `gorm:"type:varchar(16);not null;index:ix_transactions_status_created,priority:1"`

	ResultCode    *string `gorm:"type:varchar(16)"`
	StatusMessage *string `gorm:"type:varchar(255)"`
	VANumber      *string `gorm:"type:varchar(64)"`
	QRString      *string `gorm:"type:text"`
	PaymentURL    *string `gorm:"type:varchar(512)"`

	CustomerName    string  `gorm:"type:varchar(255);not null"`
	CustomerEmail   string  `gorm:"type:varchar(255);not null"`
	CustomerPhone   string  `gorm:"type:varchar(32);not null"`
	CustomerMessage *string `gorm:"type:text"`
	ProductDetails  string  `gorm:"type:varchar(255);not null"`

	CampaignID *string `gorm:"type:char(36);index:ix_transactions_campaign_id"`
	ExpiryTime *time.Time
	Metadata   datatypes.JSON `gorm:"type:json"`
	PaidAt     *time.Time

	CreatedAt time.Time `gorm:"not null;index:ix_transactions_status_created,priority:2"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }

// Metadata is the free-form JSON document stored with each transaction.
type Metadata struct {
	IsAnonymous  bool   `json:"is_anonymous"`
	OriginalName string `json:"original_name,omitempty"`
	ReturnURL    string `json:"return_url,omitempty"`
}

func EncodeMetadata(m Metadata) datatypes.JSON {
	b, _ := json.Marshal(m)
	return datatypes.JSON(b)
}

func (t Transaction) Meta() Metadata {
	var m Metadata
	if len(t.Metadata) > 0 {
		_ = json.Unmarshal(t.Metadata, &m)
	}
	return m
}

// GatewayFields carries the raw gateway response attached to a status change.
// Empty fields leave the stored column untouched.
type GatewayFields struct {
	Reference     string
	ResultCode    string
	StatusMessage string
	VANumber      string
	QRString      string
	PaymentURL    string
}

func (f GatewayFields) apply(upd map[string]any) {
	set := func(col, v string) {
		if v != "" {
			upd[col] = v
		}
	}
	set("reference", f.Reference)
	set("result_code", f.ResultCode)
	set("status_message", strutil.Truncate(f.StatusMessage, 255))
	set("va_number", f.VANumber)
	set("qr_string", f.QRString)
	set("payment_url", f.PaymentURL)
}

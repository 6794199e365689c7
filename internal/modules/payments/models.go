package payments

import (
	"time"

	"gorm.io/datatypes"
)

// GatewayCallback is the raw audit row of one inbound callback delivery.
type GatewayCallback struct {
	ID              string         `gorm:"type:char(36);primaryKey"`
	Provider        string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_gateway_callbacks_provider_event,priority:1"`
	EventID         string         `gorm:"type:varchar(191);not null;uniqueIndex:ux_gateway_callbacks_provider_event,priority:2"`
	MerchantOrderID string         `gorm:"type:varchar(64);not null;index:ix_gateway_callbacks_order"`
	ResultCode      string         `gorm:"type:varchar(16);not null"`
	Amount          int64          `gorm:"not null"`
	PayloadJSON     datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time `gorm:"not null"`
	ProcessedAt  *time.Time
	ProcessError *string `gorm:"type:varchar(255)"`
}

func (GatewayCallback) TableName() string { return "gateway_callbacks" }

package notify

import "time"

const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"

	EventPending = "pending"
	EventSuccess = "success"

	LogSent    = "sent"
	LogFailed  = "failed"
	LogSkipped = "skipped"
)

// NotificationLog is one delivery attempt on one channel.
type NotificationLog struct {
	ID                int64     `gorm:"primaryKey;autoIncrement"`
	TransactionID     string    `gorm:"type:char(36);not null;index:ix_notification_logs_transaction"`
	MerchantOrderID   string    `gorm:"type:varchar(64);not null"`
	Channel           string    `gorm:"type:varchar(16);not null"`
	Event             string    `gorm:"type:varchar(16);not null"`
	Target            string    `gorm:"type:varchar(255);not null"`
	Status            string    `gorm:"type:varchar(16);not null"`
	ProviderMessageID *string   `gorm:"type:varchar(128)"`
	ErrorMessage      *string   `gorm:"type:varchar(255)"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (NotificationLog) TableName() string { return "notification_logs" }

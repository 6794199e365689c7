package campaigns

import "time"

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Campaign struct {
	ID            string    `gorm:"type:char(36);primaryKey"`
	Slug          string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_campaigns_slug"`
	Title         string    `gorm:"type:varchar(255);not null"`
	Category      string    `gorm:"type:varchar(64);not null"`
	TargetAmount  int64     `gorm:"not null;default:0"`
	CurrentAmount int64     `gorm:"not null;default:0"`
	Status        string    `gorm:"type:varchar(16);not null"`
	UserID        *string   `gorm:"type:char(36);index:ix_campaigns_user_id"` // NULL => system campaign
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (Campaign) TableName() string { return "campaigns" }

func (c Campaign) IsSystem() bool { return c.UserID == nil }

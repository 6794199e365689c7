package campaigns

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/shared/dberr"
)

var (
	ErrNotFound      = errors.New("campaign not found")
	ErrDuplicateSlug = errors.New("campaign slug already exists")
)

const defaultTimeout = 15 * time.Second

// Repo bounds every statement by its timeout; callers pass request contexts
// that carry no deadline of their own.
type Repo struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepo(db *gorm.DB, timeout time.Duration) *Repo {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Repo{db: db, timeout: timeout}
}

func (r *Repo) FindByID(ctx context.Context, id string) (Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var c Campaign
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if dberr.IsNotFound(err) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	return c, nil
}

func (r *Repo) FindBySlug(ctx context.Context, slug string) (Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var c Campaign
	if err := r.db.WithContext(ctx).First(&c, "slug = ?", slug).Error; err != nil {
		if dberr.IsNotFound(err) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	return c, nil
}

// Create assigns ID and timestamps when missing and inserts c.
func (r *Repo) Create(ctx context.Context, c *Campaign) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if dberr.IsDuplicate(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

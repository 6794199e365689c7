package transactions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/modules/campaigns"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/dberr"
)

const defaultTimeout = 15 * time.Second

// Store is the only writer of transaction rows. Status moves forward only:
// initiating -> pending|success|failed|expired, pending -> success|failed|expired.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
	now     func() time.Time
}

func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{db: db, timeout: timeout, now: time.Now}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// CreateIntent inserts t as an intent row. Amount, order id and invoice code are
// fixed from here on.
func (s *Store) CreateIntent(ctx context.Context, t *Transaction) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = StatusInitiating
	t.CreatedAt = now
	t.UpdatedAt = now

	return storeErr("create intent", t.MerchantOrderID, s.db.WithContext(ctx).Create(t).Error)
}

// MarkPending attaches the payment instructions of a successful inquiry to the intent row.
func (s *Store) MarkPending(ctx context.Context, orderID string, f GatewayFields) (Transaction, error) {
	t, _, err := s.UpdateStatus(ctx, orderID, StatusPending, f)
	return t, err
}

// UpdateStatus moves an open transaction to status. A row that is already terminal
// (or already past status) is returned unchanged with changed=false.
func (s *Store) UpdateStatus(ctx context.Context, orderID, status string, f GatewayFields) (Transaction, bool, error) {
	from, err := allowedFrom(status)
	if err != nil {
		return Transaction{}, false, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out Transaction
	changed := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		upd := map[string]any{
			"status":     status,
			"updated_at": now,
		}
		if status == StatusSuccess {
			upd["paid_at"] = &now
		}
		f.apply(upd)

		// conditional update: the WHERE clause is the forward-only guard
		res := tx.Model(&Transaction{}).
			Where("merchant_order_id = ? AND status IN ?", orderID, from).
			Updates(upd)
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0

		if err := tx.First(&out, "merchant_order_id = ?", orderID).Error; err != nil {
			if dberr.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		if changed && status == StatusSuccess && out.CampaignID != nil {
			if err := tx.Model(&campaigns.Campaign{}).
				Where("id = ?", *out.CampaignID).
				Updates(map[string]any{
					"current_amount": gorm.Expr("current_amount + ?", out.Amount),
					"updated_at":     now,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Transaction{}, false, storeErr("update status", orderID, err)
	}
	return out, changed, nil
}

func allowedFrom(status string) ([]string, error) {
	switch status {
	case StatusPending:
		return []string{StatusInitiating}, nil
	case StatusSuccess, StatusFailed, StatusExpired:
		return []string{StatusInitiating, StatusPending}, nil
	default:
		return nil, ErrInvalidStatus
	}
}

func (s *Store) FindByOrderID(ctx context.Context, orderID string) (Transaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var t Transaction
	if err := s.db.WithContext(ctx).First(&t, "merchant_order_id = ?", orderID).Error; err != nil {
		if dberr.IsNotFound(err) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, storeErr("find", orderID, err)
	}
	return t, nil
}

// ListStaleInitiating returns intent rows created before cutoff: the gateway call
// crashed or the pending write failed.
func (s *Store) ListStaleInitiating(ctx context.Context, cutoff time.Time, limit int) ([]Transaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out []Transaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", StatusInitiating, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, storeErr("list stale initiating", "", err)
}

// ListOverduePending returns pending rows whose payment window closed before cutoff.
func (s *Store) ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]Transaction, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out []Transaction
	err := s.db.WithContext(ctx).
		Where("status = ? AND expiry_time IS NOT NULL AND expiry_time < ?", StatusPending, cutoff).
		Order("expiry_time ASC").
		Limit(limit).
		Find(&out).Error
	return out, storeErr("list overdue pending", "", err)
}

package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/anggiadiputra/donasiku-sub000/internal/shared/dberr"
	"github.com/anggiadiputra/donasiku-sub000/internal/shared/strutil"
)

type callbackApplier interface {
	ApplyCallback(ctx context.Context, ev CallbackEvent) (CallbackOutcome, error)
}

// CallbackOutcome is what ApplyCallback did to the transaction.
type CallbackOutcome struct {
	Status  string
	Changed bool
}

type reconcilerApplier struct{ r *Reconciler }

func (a reconcilerApplier) ApplyCallback(ctx context.Context, ev CallbackEvent) (CallbackOutcome, error) {
	trx, changed, err := a.r.ApplyCallback(ctx, ev)
	return CallbackOutcome{Status: trx.Status, Changed: changed}, err
}

// CallbackService records every verified callback once and applies it.
type CallbackService struct {
	db      *gorm.DB
	timeout time.Duration
	applier callbackApplier
	logger  *slog.Logger
	now     func() time.Time
}

// NewCallbackService bounds its own audit-table statements by the DB_TIMEOUT of r's config.
func NewCallbackService(db *gorm.DB, r *Reconciler, logger *slog.Logger) *CallbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackService{
		db:      db,
		timeout: r.d.Config.DBTimeout,
		applier: reconcilerApplier{r: r},
		logger:  logger,
		now:     time.Now,
	}
}

// dbCtx derives the context for one audit-table statement.
func (s *CallbackService) dbCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (s *CallbackService) insert(ctx context.Context, row *GatewayCallback) error {
	ctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *CallbackService) find(ctx context.Context, provider, eventID string) (GatewayCallback, error) {
	ctx, cancel := s.dbCtx(ctx)
	defer cancel()
	var existing GatewayCallback
	err := s.db.WithContext(ctx).First(&existing, "provider = ? AND event_id = ?", provider, eventID).Error
	return existing, err
}

func (s *CallbackService) mark(ctx context.Context, id string, upd map[string]any) error {
	ctx, cancel := s.dbCtx(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Model(&GatewayCallback{}).Where("id = ?", id).Updates(upd).Error
}

// Handle persists ev and applies it. A delivery that was already processed is a
// no-op. A returned error means the gateway should retry.
func (s *CallbackService) Handle(ctx context.Context, provider string, ev CallbackEvent) (CallbackOutcome, error) {
	payload, _ := json.Marshal(ev.Fields)
	row := GatewayCallback{
		ID:              uuid.NewString(),
		Provider:        provider,
		EventID:         ev.EventID(),
		MerchantOrderID: ev.MerchantOrderID,
		ResultCode:      ev.ResultCode,
		Amount:          ev.Amount,
		PayloadJSON:     datatypes.JSON(payload),
		ReceivedAt:      s.now(),
	}

	if err := s.insert(ctx, &row); err != nil {
		if !dberr.IsDuplicate(err) {
			s.logger.ErrorContext(ctx, "failed to persist gateway callback", "provider", provider, "event_id", row.EventID, "err", err)
			return CallbackOutcome{}, err
		}

		existing, err := s.find(ctx, provider, row.EventID)
		if err != nil {
			return CallbackOutcome{}, err
		}
		if existing.ProcessedAt != nil {
			s.logger.InfoContext(ctx, "gateway callback deduplicated", "provider", provider, "event_id", row.EventID)
			return CallbackOutcome{}, nil
		}
		// an earlier delivery failed to apply; try again on the same row
		row = existing
	}

	out, applyErr := s.applier.ApplyCallback(ctx, ev)
	if applyErr != nil {
		msg := strutil.Truncate(applyErr.Error(), 250)
		if err := s.mark(ctx, row.ID, map[string]any{"process_error": msg}); err != nil {
			s.logger.ErrorContext(ctx, "record callback error", "event_id", row.EventID, "err", err)
		}
		s.logger.ErrorContext(ctx, "gateway callback apply failed", "provider", provider, "event_id", row.EventID, "merchant_order_id", ev.MerchantOrderID, "error", msg)
		return CallbackOutcome{}, applyErr
	}

	processed := s.now()
	if err := s.mark(ctx, row.ID, map[string]any{"processed_at": &processed, "process_error": nil}); err != nil {
		return out, err
	}

	s.logger.InfoContext(ctx, "gateway callback processed",
		"provider", provider,
		"event_id", row.EventID,
		"merchant_order_id", ev.MerchantOrderID,
		"status", out.Status,
		"changed", out.Changed,
	)
	return out, nil
}

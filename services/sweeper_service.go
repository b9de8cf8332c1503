package services

import (
	"context"
	"time"

	"resort-backend/models"
	"resort-backend/utils"

	"gorm.io/gorm"
)

// SweeperService cancels provisional holds whose window lapsed without
// payment. Holds with a pending payment are left alone: the gateway may
// still deliver a definitive answer, and cancelling under it risks selling
// a paid-for unit.
type SweeperService struct {
	DB *gorm.DB
}

func NewSweeperService(db *gorm.DB) *SweeperService {
	return &SweeperService{DB: db}
}

// CancelExpiredHolds bulk-transitions lapsed pre-reserved holds to expired.
// Idempotent: the second run over the same data matches nothing.
func (s *SweeperService) CancelExpiredHolds(ctx context.Context) (int64, error) {
	now := time.Now().UTC()

	res := s.DB.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusPreReserved).
		Where("payment_status NOT IN ?", []string{models.PaymentStatusPaid, models.PaymentStatusPending}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Updates(map[string]interface{}{
			"status":         models.ReservationStatusExpired,
			"payment_status": models.PaymentStatusCancelled,
			"cancel_reason":  "hold window lapsed",
		})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		utils.Log().Infow("expired holds swept", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// Run ticks until the context is cancelled. Runs one sweep immediately so a
// restart doesn't wait a full interval.
func (s *SweeperService) Run(ctx context.Context, interval time.Duration) {
	if _, err := s.CancelExpiredHolds(ctx); err != nil {
		utils.Log().Errorw("sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.CancelExpiredHolds(ctx); err != nil {
				utils.Log().Errorw("sweep failed", "error", err)
			}
		}
	}
}

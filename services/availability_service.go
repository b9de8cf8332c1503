package services

import (
	"context"
	"fmt"
	"time"

	"resort-backend/models"

	"gorm.io/gorm"
)

// AvailabilityService answers one question: is this unit set free for this
// date range at this resort.
type AvailabilityService struct {
	DB *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db}
}

// blockingStatuses are the reservation states that keep a unit occupied.
var blockingStatuses = []string{models.ReservationStatusPreReserved, models.ReservationStatusReserved}

// IsAvailable reports whether every requested unit is free for
// [checkIn, checkOut). A conflict is an answer (false), not an error; only a
// malformed range or a query failure errors out.
func (s *AvailabilityService) IsAvailable(ctx context.Context, unitIDs []uint, resortID uint, checkIn, checkOut time.Time) (bool, error) {
	return s.isAvailableTx(ctx, s.DB, unitIDs, resortID, checkIn, checkOut)
}

// isAvailableTx is the transaction-aware variant so CreateHold can re-check
// inside its own write transaction.
func (s *AvailabilityService) isAvailableTx(ctx context.Context, tx *gorm.DB, unitIDs []uint, resortID uint, checkIn, checkOut time.Time) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidRange)
	}
	if len(unitIDs) == 0 {
		return false, fmt.Errorf("%w: no units requested", ErrValidation)
	}

	// Half-open overlap: existing.check_in < req.check_out AND
	// existing.check_out > req.check_in.
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.ReservationUnit{}).
		Joins("JOIN reservations ON reservations.id = reservation_units.reservation_id").
		Where("reservation_units.unit_id IN ?", unitIDs).
		Where("reservations.resort_id = ?", resortID).
		Where("reservations.status IN ?", blockingStatuses).
		Where("reservations.deleted_at IS NULL").
		Where("reservations.check_in < ? AND reservations.check_out > ?", checkOut, checkIn).
		// Expired-but-not-yet-swept holds don't block (lazy expiry), with one
		// exception mirroring the sweeper: a lapsed hold whose payment is
		// still pending keeps blocking, because the gateway may yet confirm it.
		Where("reservations.status = ? OR reservations.payment_status = ? OR reservations.expires_at IS NULL OR reservations.expires_at > ?",
			models.ReservationStatusReserved, models.PaymentStatusPending, time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("availability query: %w", err)
	}

	return count == 0, nil
}

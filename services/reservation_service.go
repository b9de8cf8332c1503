package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resort-backend/models"
	"resort-backend/utils"

	"gorm.io/gorm"
)

// ReservationService owns the reservation state machine:
// pre-reserved -> reserved (paid) | cancelled | expired.
type ReservationService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Sequencer    DailySequencer
	HoldWindow   time.Duration
}

func NewReservationService(db *gorm.DB, avail *AvailabilityService, seq DailySequencer, holdWindow time.Duration) *ReservationService {
	if holdWindow <= 0 {
		holdWindow = 15 * time.Minute
	}
	return &ReservationService{DB: db, Availability: avail, Sequencer: seq, HoldWindow: holdWindow}
}

// CreateHoldRequest carries everything a provisional hold needs.
type CreateHoldRequest struct {
	ResortID   uint
	UnitIDs    []uint
	CheckIn    time.Time
	CheckOut   time.Time
	GuestName  string
	GuestEmail string
	GuestPhone string
	Adults     int
	Children   int
}

func (r *CreateHoldRequest) validate() error {
	if strings.TrimSpace(r.GuestName) == "" {
		return fmt.Errorf("%w: guest name is required", ErrValidation)
	}
	if strings.TrimSpace(r.GuestEmail) == "" {
		return fmt.Errorf("%w: guest email is required", ErrValidation)
	}
	if strings.TrimSpace(r.GuestPhone) == "" {
		return fmt.Errorf("%w: guest phone is required", ErrValidation)
	}
	if len(r.UnitIDs) == 0 {
		return fmt.Errorf("%w: at least one unit is required", ErrValidation)
	}
	if !r.CheckOut.After(r.CheckIn) {
		return fmt.Errorf("%w: check-out must be after check-in", ErrInvalidRange)
	}
	return nil
}

// CreateHold validates the request, checks availability, and persists a
// pre-reserved record with a hold-window expiry. The availability re-check
// and the insert run inside one transaction; the read alone cannot prevent
// two racing holds, so the storage layer carries the final word (the unique
// booking_id index plus the in-transaction re-check narrow the window, a
// covering exclusion constraint closes it; see DESIGN.md).
func (s *ReservationService) CreateHold(ctx context.Context, req *CreateHoldRequest) (*models.Reservation, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var resort models.Resort
	if err := s.DB.WithContext(ctx).First(&resort, req.ResortID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resort %d", ErrNotFound, req.ResortID)
		}
		return nil, fmt.Errorf("db error checking resort: %w", err)
	}

	// validate units exist, are enabled, and belong to the resort
	var units []models.Unit
	if err := s.DB.WithContext(ctx).Where("id IN ?", req.UnitIDs).Find(&units).Error; err != nil {
		return nil, fmt.Errorf("db error checking units: %w", err)
	}
	if len(units) != len(dedupe(req.UnitIDs)) {
		return nil, fmt.Errorf("%w: one or more units do not exist", ErrValidation)
	}
	for _, u := range units {
		if !u.Enabled {
			return nil, fmt.Errorf("%w: unit %s is not bookable", ErrValidation, u.Number)
		}
		if u.ResortID != req.ResortID {
			return nil, fmt.Errorf("%w: unit %s belongs to another resort", ErrValidation, u.Number)
		}
	}

	available, err := s.Availability.IsAvailable(ctx, req.UnitIDs, req.ResortID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("%w: requested dates overlap an existing reservation", ErrConflict)
	}

	now := time.Now().UTC()
	nights := int(req.CheckOut.Sub(req.CheckIn).Hours() / 24)
	if nights <= 0 {
		nights = 1
	}

	seq, err := s.Sequencer.Next(ctx, resort.Code, utils.DayKey(now))
	if err != nil {
		return nil, fmt.Errorf("booking sequence: %w", err)
	}
	bookingID := utils.BuildBookingRef(resort.Code, now, seq)

	var total float64
	for _, u := range units {
		total += u.Rate * float64(nights)
	}

	expiresAt := now.Add(s.HoldWindow)
	reservation := &models.Reservation{
		BookingID:     bookingID,
		ResortID:      req.ResortID,
		Status:        models.ReservationStatusPreReserved,
		PaymentStatus: models.PaymentStatusUnpaid,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		Nights:        nights,
		GuestName:     strings.TrimSpace(req.GuestName),
		GuestEmail:    strings.TrimSpace(req.GuestEmail),
		GuestPhone:    strings.TrimSpace(req.GuestPhone),
		Adults:        req.Adults,
		Children:      req.Children,
		TotalPayable:  total,
		ExpiresAt:     &expiresAt,
	}
	if reservation.Adults <= 0 {
		reservation.Adults = 1
	}
	if reservation.Children < 0 {
		reservation.Children = 0
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// re-check inside the write transaction
		ok, err := s.Availability.isAvailableTx(ctx, tx, req.UnitIDs, req.ResortID, req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: requested dates overlap an existing reservation", ErrConflict)
		}

		if err := tx.Create(reservation).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		for _, u := range units {
			ru := models.ReservationUnit{
				ReservationID: reservation.ID,
				UnitID:        u.ID,
				Rate:          u.Rate,
				Nights:        nights,
			}
			if err := tx.Create(&ru).Error; err != nil {
				return fmt.Errorf("failed to create reservation unit for %d: %w", u.ID, err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// reload with relations
	if err := s.DB.WithContext(ctx).Preload("Units.Unit").Preload("Resort").First(reservation, reservation.ID).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

// GetByBookingID loads a reservation with its units and resort.
func (s *ReservationService) GetByBookingID(ctx context.Context, bookingID string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := s.DB.WithContext(ctx).
		Preload("Units.Unit").
		Preload("Resort").
		Where("booking_id = ?", bookingID).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, bookingID)
		}
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return &reservation, nil
}

// Cancel moves a pre-reserved or reserved booking to cancelled, records the
// reason, and computes the refundable amount from the policy ladder for paid
// reservations. Terminal reservations other than reserved are rejected.
func (s *ReservationService) Cancel(ctx context.Context, bookingID, reason string) (*models.Reservation, error) {
	reservation, err := s.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if reservation.Status != models.ReservationStatusPreReserved && reservation.Status != models.ReservationStatusReserved {
		return nil, fmt.Errorf("%w: cannot cancel from %s", ErrInvalidState, reservation.Status)
	}

	updates := map[string]interface{}{
		"status":        models.ReservationStatusCancelled,
		"cancel_reason": strings.TrimSpace(reason),
	}

	if reservation.PaymentStatus == models.PaymentStatusPaid {
		refundable := s.refundableAmount(ctx, reservation)
		updates["refundable_amount"] = refundable
		updates["payment_status"] = models.PaymentStatusRefunded
	} else {
		updates["payment_status"] = models.PaymentStatusCancelled
	}

	if err := s.DB.WithContext(ctx).Model(reservation).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to cancel reservation: %w", err)
	}
	return s.GetByBookingID(ctx, bookingID)
}

// refundableAmount applies the best matching refund-policy row for the notice
// actually given. No rows or negative notice means no refund.
func (s *ReservationService) refundableAmount(ctx context.Context, reservation *models.Reservation) float64 {
	daysBefore := int(time.Until(reservation.CheckIn).Hours() / 24)
	if daysBefore < 0 {
		return 0
	}

	var policy models.RefundPolicy
	err := s.DB.WithContext(ctx).
		Where("days_before <= ?", daysBefore).
		Order("days_before DESC").
		First(&policy).Error
	if err != nil {
		return 0
	}
	return reservation.TotalPayable * float64(policy.Percent) / 100
}

// EnsurePayable is the lazy-expiry guard: every payment-affecting operation
// re-checks the hold at the point of use, independent of the sweeper.
func (s *ReservationService) EnsurePayable(reservation *models.Reservation, now time.Time) error {
	if reservation.Status != models.ReservationStatusPreReserved {
		return fmt.Errorf("%w: reservation is %s", ErrInvalidState, reservation.Status)
	}
	if reservation.ExpiresAt != nil && now.After(*reservation.ExpiresAt) {
		return fmt.Errorf("%w: hold lapsed at %s", ErrExpired, reservation.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func dedupe(ids []uint) []uint {
	seen := map[uint]struct{}{}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

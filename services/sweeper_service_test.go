package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"resort-backend/models"
	"resort-backend/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedHold(t *testing.T, db *gorm.DB, resortID uint, seq int, expiresAt time.Time, paymentStatus string) models.Reservation {
	t.Helper()
	res := models.Reservation{
		BookingID:     fmt.Sprintf("VM010101-2501-%03d", seq),
		ResortID:      resortID,
		Status:        models.ReservationStatusPreReserved,
		PaymentStatus: paymentStatus,
		CheckIn:       day("2025-02-01"),
		CheckOut:      day("2025-02-03"),
		ExpiresAt:     utils.PtrTime(expiresAt),
	}
	require.NoError(t, db.Create(&res).Error)
	return res
}

func TestCancelExpiredHolds(t *testing.T) {
	db := newTestDB(t)
	resort, _ := seedResort(t, db)
	svc := NewSweeperService(db)

	now := time.Now().UTC()
	seedHold(t, db, resort.ID, 1, now.Add(-time.Hour), models.PaymentStatusUnpaid)
	seedHold(t, db, resort.ID, 2, now.Add(-time.Minute), models.PaymentStatusUnpaid)
	seedHold(t, db, resort.ID, 3, now.Add(-time.Second), models.PaymentStatusFailed)
	seedHold(t, db, resort.ID, 4, now.Add(time.Hour), models.PaymentStatusUnpaid)
	seedHold(t, db, resort.ID, 5, now.Add(10*time.Minute), models.PaymentStatusUnpaid)

	count, err := svc.CancelExpiredHolds(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	var expired int64
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusExpired).Count(&expired).Error)
	require.EqualValues(t, 3, expired)

	var live int64
	require.NoError(t, db.Model(&models.Reservation{}).
		Where("status = ?", models.ReservationStatusPreReserved).Count(&live).Error)
	require.EqualValues(t, 2, live)

	// second run finds nothing
	count, err = svc.CancelExpiredHolds(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSweepSparesPendingPayment(t *testing.T) {
	db := newTestDB(t)
	resort, _ := seedResort(t, db)
	svc := NewSweeperService(db)

	past := time.Now().UTC().Add(-time.Hour)
	pending := seedHold(t, db, resort.ID, 1, past, models.PaymentStatusPending)
	paid := seedHold(t, db, resort.ID, 2, past, models.PaymentStatusPaid)

	count, err := svc.CancelExpiredHolds(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)

	for _, id := range []uint{pending.ID, paid.ID} {
		var res models.Reservation
		require.NoError(t, db.First(&res, id).Error)
		require.Equal(t, models.ReservationStatusPreReserved, res.Status)
	}
}

func TestSweepRunStopsOnCancel(t *testing.T) {
	db := newTestDB(t)
	seedResort(t, db)
	svc := NewSweeperService(db)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}

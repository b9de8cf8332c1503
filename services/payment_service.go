package services

import (
	"context"
	"fmt"
	"time"

	"resort-backend/config"
	"resort-backend/models"
	"resort-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService drives payment initiation against the gateway.
type PaymentService struct {
	DB           *gorm.DB
	Reservations *ReservationService
	Gateway      PaymentGateway
	Cfg          config.GatewayConfig
}

func NewPaymentService(db *gorm.DB, reservations *ReservationService, gateway PaymentGateway, cfg config.GatewayConfig) *PaymentService {
	return &PaymentService{DB: db, Reservations: reservations, Gateway: gateway, Cfg: cfg}
}

// PaymentFormFields is exactly what the client-side form submission needs.
// All four fields are mandatory; a partial set is an integration failure,
// never a silently degraded form.
type PaymentFormFields struct {
	MerchantID     string `json:"merchant_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	ResponseData   string `json:"response_data"`
	SubmitURL      string `json:"submit_url"`
}

// InitiatePayment opens a payment attempt for a live hold. Each attempt gets
// a fresh trace id and timestamp; retries never reuse cryptographic material.
// Gateway failures propagate without touching reservation state.
func (s *PaymentService) InitiatePayment(ctx context.Context, bookingID, clientIP, userAgent string) (*PaymentFormFields, error) {
	reservation, err := s.Reservations.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.Reservations.EnsurePayable(reservation, now); err != nil {
		return nil, err
	}

	info := map[string]string{
		"guest_name":  reservation.GuestName,
		"guest_phone": reservation.GuestPhone,
		"guest_email": reservation.GuestEmail,
		"resort_name": reservation.Resort.Name,
	}

	traceID := uuid.New().String()
	millis := now.UnixMilli()

	payload := &OrderPayload{
		MerchantID:     s.Cfg.MerchantID,
		OrderID:        reservation.BookingID,
		Amount:         fmt.Sprintf("%.2f", reservation.TotalPayable),
		Currency:       "INR",
		OrderTimestamp: now.Format(time.RFC3339),
		RedirectURL:    s.Cfg.RedirectURL,
		TraceID:        traceID,
		ClientIP:       clientIP,
		UserAgent:      userAgent,
		AdditionalInfo: info,
	}

	encrypted, signature, err := s.Gateway.EncryptAndSign(payload)
	if err != nil {
		return nil, &IntegrationError{Op: "encrypt_and_sign", Err: err}
	}

	result, err := s.Gateway.CreateOrder(ctx, encrypted, signature, traceID, millis)
	if err != nil {
		// no state mutation on transport/gateway failure
		return nil, err
	}
	if result.GatewayOrderID == "" || result.ResponseData == "" || s.Cfg.MerchantID == "" || s.Cfg.SubmitURL == "" {
		return nil, &IntegrationError{Op: "create_order", Err: fmt.Errorf("gateway response missing mandatory form fields")}
	}

	txn := &models.PaymentTransaction{
		BookingID:        reservation.BookingID,
		ReservationID:    reservation.ID,
		GatewayOrderID:   result.GatewayOrderID,
		Amount:           reservation.TotalPayable,
		Status:           models.TxnStatusInitiated,
		TraceID:          traceID,
		RequestTimestamp: millis,
		EncryptedRequest: encrypted,
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// supersede any lingering non-terminal attempt; exactly one stays active
		if err := tx.Model(&models.PaymentTransaction{}).
			Where("reservation_id = ? AND status IN ?", reservation.ID, []string{models.TxnStatusInitiated, models.TxnStatusPending}).
			Update("status", models.TxnStatusCancelled).Error; err != nil {
			return err
		}

		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("failed to create payment transaction: %w", err)
		}

		return tx.Model(&models.Reservation{}).
			Where("id = ?", reservation.ID).
			Updates(map[string]interface{}{
				"payment_transaction_id": txn.ID,
				"payment_status":         models.PaymentStatusPending,
			}).Error
	})
	if txErr != nil {
		return nil, fmt.Errorf("failed to persist payment attempt: %w", txErr)
	}

	utils.Log().Infow("payment initiated",
		"booking_id", reservation.BookingID,
		"gateway_order_id", result.GatewayOrderID,
		"trace_id", traceID,
		"amount", reservation.TotalPayable,
	)

	return &PaymentFormFields{
		MerchantID:     s.Cfg.MerchantID,
		GatewayOrderID: result.GatewayOrderID,
		ResponseData:   result.ResponseData,
		SubmitURL:      s.Cfg.SubmitURL,
	}, nil
}

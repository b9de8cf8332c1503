package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"resort-backend/models"
	"resort-backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is the confirmation side-effect boundary. Delivery failure must
// never roll back or fail a payment transition.
type Notifier interface {
	BookingConfirmed(reservation *models.Reservation, txn *models.PaymentTransaction)
}

// CallbackService reconciles gateway callbacks into the reservation state
// machine.
type CallbackService struct {
	DB           *gorm.DB
	Reservations *ReservationService
	Gateway      PaymentGateway
	Notify       Notifier
}

func NewCallbackService(db *gorm.DB, reservations *ReservationService, gateway PaymentGateway, notify Notifier) *CallbackService {
	return &CallbackService{DB: db, Reservations: reservations, Gateway: gateway, Notify: notify}
}

// carrierField names one place the gateway may have stashed the encrypted
// response. The upstream integration is not consistent about it, so
// extraction walks an explicit ordered list instead of ad hoc ifs.
type carrierField struct {
	source string // "body" or "query"
	name   string
}

var encRespCarriers = []carrierField{
	{"body", "encResp"},
	{"body", "encResponse"},
	{"query", "encResp"},
	{"query", "encData"},
}

var signatureCarriers = []carrierField{
	{"body", "signature"},
	{"body", "checksum"},
	{"query", "signature"},
	{"query", "checksum"},
}

func pick(form, query url.Values, carriers []carrierField) (string, bool) {
	for _, c := range carriers {
		var v string
		switch c.source {
		case "body":
			v = form.Get(c.name)
		case "query":
			v = query.Get(c.name)
		}
		if v != "" {
			return v, true
		}
	}
	return "", false
}

// ExtractEncryptedResponse pulls the encrypted blob and its signature out of
// whichever carrier fields the gateway used this time.
func ExtractEncryptedResponse(form, query url.Values) (encrypted, signature string, ok bool) {
	encrypted, ok = pick(form, query, encRespCarriers)
	if !ok {
		return "", "", false
	}
	signature, _ = pick(form, query, signatureCarriers)
	return encrypted, signature, true
}

// Gateway auth-status codes. Anything unrecognized maps to pending; the
// fail-safe default is never success.
const (
	AuthStatusSuccess       = "success"
	AuthStatusFailure       = "failure"
	AuthStatusPending       = "pending"
	AuthStatusUserCancelled = "user-cancelled"
)

type StatusMapping struct {
	TxnStatus         string
	ReservationStatus string
	PaymentStatus     string
}

var authStatusTable = map[string]StatusMapping{
	AuthStatusSuccess:       {models.TxnStatusSuccess, models.ReservationStatusReserved, models.PaymentStatusPaid},
	AuthStatusFailure:       {models.TxnStatusFailed, models.ReservationStatusCancelled, models.PaymentStatusFailed},
	AuthStatusPending:       {models.TxnStatusPending, models.ReservationStatusPreReserved, models.PaymentStatusPending},
	AuthStatusUserCancelled: {models.TxnStatusCancelled, models.ReservationStatusCancelled, models.PaymentStatusCancelled},
}

// MapAuthStatus resolves a gateway code to the internal transition.
func MapAuthStatus(code string) StatusMapping {
	if m, ok := authStatusTable[code]; ok {
		return m
	}
	return authStatusTable[AuthStatusPending]
}

// ReconcileResult is what the redirect handler turns into a status-page URL.
type ReconcileResult struct {
	BookingID  string
	AuthStatus string // normalized: success|failure|pending|user-cancelled
	Reason     string // generic failure reason, safe to show a guest
}

var errSignature = errors.New("signature verification failed")

// SignatureError reports whether a reconcile failure came from an unverified
// payload.
func SignatureError(err error) bool { return errors.Is(err, errSignature) }

// Reconcile verifies, decrypts and applies one gateway callback. Both the
// transaction and the reservation are written in a single database
// transaction, and re-delivery of a terminal callback is a safe no-op that
// never re-fires the notification.
func (s *CallbackService) Reconcile(ctx context.Context, encrypted, signature string) (*ReconcileResult, error) {
	if !s.Gateway.Verify(encrypted, signature) {
		// never decrypt what we cannot authenticate
		return nil, errSignature
	}

	fields, err := s.Gateway.Decrypt(encrypted)
	if err != nil {
		return nil, &IntegrationError{Op: "decrypt_callback", Err: err}
	}

	reservation, err := s.Reservations.GetByBookingID(ctx, fields.OrderID)
	if err != nil {
		return nil, err
	}

	var txn models.PaymentTransaction
	if reservation.PaymentTransactionID == nil {
		return nil, fmt.Errorf("%w: reservation %s has no payment attempt", ErrInvalidState, fields.OrderID)
	}
	if err := s.DB.WithContext(ctx).First(&txn, *reservation.PaymentTransactionID).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment transaction: %w", err)
	}

	mapping := MapAuthStatus(fields.AuthStatus)
	normalized := fields.AuthStatus
	if _, known := authStatusTable[fields.AuthStatus]; !known {
		normalized = AuthStatusPending
	}

	// duplicate delivery of a terminal outcome: no-op, no second side effect
	if txn.IsTerminal() {
		utils.Log().Infow("duplicate callback ignored",
			"booking_id", reservation.BookingID, "txn_status", txn.Status)
		return &ReconcileResult{
			BookingID:  reservation.BookingID,
			AuthStatus: terminalAuthStatus(&txn),
			Reason:     txn.ErrorText,
		}, nil
	}

	decrypted, _ := json.Marshal(fields)
	now := time.Now().UTC()
	notify := false
	claimed := false
	reason := callbackErrorText(fields)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUpdates := map[string]interface{}{
			"status":             mapping.TxnStatus,
			"gateway_txn_id":     fields.TrackingID,
			"bank_ref_no":        fields.BankRefNo,
			"decrypted_response": datatypes.JSON(decrypted),
		}
		if normalized == AuthStatusFailure || normalized == AuthStatusUserCancelled {
			txnUpdates["error_text"] = callbackErrorText(fields)
		}
		if normalized == AuthStatusSuccess {
			// claim the notification inside the transaction: at most once
			txnUpdates["notified_at"] = now
		}

		var err error
		claimed, err = claimTransaction(tx, txn.ID, txnUpdates)
		if err != nil {
			return err
		}
		if !claimed {
			// a concurrent delivery already applied a terminal outcome
			return nil
		}

		// A terminal reservation is never revived by a late callback. A
		// captured amount is routed to the refund path instead.
		if reservation.IsTerminal() {
			if normalized == AuthStatusSuccess {
				reason = "reservation was already closed; payment marked for refund"
				return tx.Model(&models.Reservation{}).
					Where("id = ?", reservation.ID).
					Updates(map[string]interface{}{
						"payment_status":    models.PaymentStatusRefunded,
						"refundable_amount": txn.Amount,
					}).Error
			}
			return nil
		}

		resUpdates := map[string]interface{}{
			"status":         mapping.ReservationStatus,
			"payment_status": mapping.PaymentStatus,
		}
		if normalized == AuthStatusSuccess {
			resUpdates["expires_at"] = nil
			resUpdates["raw_source"] = appendRawSource(reservation.RawSource, fields)
			notify = true
		}

		if err := tx.Model(&models.Reservation{}).Where("id = ?", reservation.ID).Updates(resUpdates).Error; err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if !claimed {
		// lost the race to a concurrent delivery; report what it recorded
		var latest models.PaymentTransaction
		if err := s.DB.WithContext(ctx).First(&latest, txn.ID).Error; err != nil {
			return nil, fmt.Errorf("failed to reload payment transaction: %w", err)
		}
		utils.Log().Infow("concurrent callback ignored",
			"booking_id", reservation.BookingID, "txn_status", latest.Status)
		return &ReconcileResult{
			BookingID:  reservation.BookingID,
			AuthStatus: terminalAuthStatus(&latest),
			Reason:     latest.ErrorText,
		}, nil
	}

	utils.Log().Infow("callback reconciled",
		"booking_id", reservation.BookingID,
		"auth_status", normalized,
		"gateway_txn_id", fields.TrackingID,
	)

	if notify && s.Notify != nil {
		fresh, err := s.Reservations.GetByBookingID(ctx, reservation.BookingID)
		if err == nil {
			txn.Status = models.TxnStatusSuccess
			txn.GatewayTxnID = fields.TrackingID
			// fire and forget; a lost email never fails the payment
			s.Notify.BookingConfirmed(fresh, &txn)
		}
	}

	return &ReconcileResult{
		BookingID:  reservation.BookingID,
		AuthStatus: normalized,
		Reason:     reason,
	}, nil
}

// claimTransaction applies the callback outcome only if the transaction is
// still open. The WHERE clause is the guard: two deliveries racing each other
// both pass the in-memory terminality check, but only one row update can
// match, so notified_at is stamped exactly once.
func claimTransaction(tx *gorm.DB, txnID uint, updates map[string]interface{}) (bool, error) {
	res := tx.Model(&models.PaymentTransaction{}).
		Where("id = ? AND status IN ?", txnID, []string{models.TxnStatusInitiated, models.TxnStatusPending}).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update payment transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func terminalAuthStatus(txn *models.PaymentTransaction) string {
	switch txn.Status {
	case models.TxnStatusSuccess:
		return AuthStatusSuccess
	case models.TxnStatusFailed:
		return AuthStatusFailure
	case models.TxnStatusCancelled:
		return AuthStatusUserCancelled
	default:
		return AuthStatusPending
	}
}

func callbackErrorText(fields *CallbackFields) string {
	if fields.ErrorMessage != "" {
		return fields.ErrorMessage
	}
	return fields.ErrorCode
}

// appendRawSource merges gateway-echoed identifiers into the reservation's
// append-only bag without dropping anything already there.
func appendRawSource(existing datatypes.JSON, fields *CallbackFields) datatypes.JSON {
	bag := map[string]interface{}{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &bag)
	}
	if fields.TrackingID != "" {
		bag["gateway_txn_id"] = fields.TrackingID
	}
	if fields.BankRefNo != "" {
		bag["bank_ref_no"] = fields.BankRefNo
	}
	bag["reconciled_at"] = time.Now().UTC().Format(time.RFC3339)
	out, _ := json.Marshal(bag)
	return datatypes.JSON(out)
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment attempt statuses. success, failed and cancelled are terminal.
const (
	TxnStatusInitiated = "initiated"
	TxnStatusSuccess   = "success"
	TxnStatusPending   = "pending"
	TxnStatusFailed    = "failed"
	TxnStatusCancelled = "cancelled"
)

// PaymentTransaction records one payment attempt. A reservation may
// accumulate several if retried; exactly one is active (non-terminal) at a
// time and the reservation's PaymentTransactionID points at it.
type PaymentTransaction struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BookingID     string `gorm:"column:booking_id;size:64;index" json:"booking_id"`
	ReservationID uint   `gorm:"index;column:reservation_id" json:"reservation_id"`

	GatewayOrderID string  `gorm:"column:gateway_order_id;size:128;index" json:"gateway_order_id"`
	GatewayTxnID   string  `gorm:"column:gateway_txn_id;size:128" json:"gateway_txn_id,omitempty"`
	BankRefNo      string  `gorm:"column:bank_ref_no;size:128" json:"bank_ref_no,omitempty"`
	Amount         float64 `gorm:"column:amount" json:"amount"`
	Status         string  `gorm:"column:status;size:32;index" json:"status"`

	// TraceID and RequestTimestamp are regenerated per attempt, never reused.
	TraceID          string `gorm:"column:trace_id;size:64" json:"trace_id"`
	RequestTimestamp int64  `gorm:"column:request_timestamp" json:"request_timestamp"`

	// EncryptedRequest keeps the outbound envelope for audit.
	// DecryptedResponse stays null until a callback lands.
	EncryptedRequest  string         `gorm:"column:encrypted_request;type:text" json:"-"`
	DecryptedResponse datatypes.JSON `gorm:"column:decrypted_response" json:"decrypted_response,omitempty"`
	ErrorText         string         `gorm:"column:error_text;type:text" json:"error_text,omitempty"`

	// NotifiedAt guards the at-most-once confirmation notification.
	NotifiedAt *time.Time `gorm:"column:notified_at" json:"notified_at,omitempty"`
}

// IsTerminal reports whether the attempt reached a final state.
func (t *PaymentTransaction) IsTerminal() bool {
	return t.Status == TxnStatusSuccess || t.Status == TxnStatusFailed || t.Status == TxnStatusCancelled
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookEvent stores every raw inbound gateway call for forensic
// reconciliation. Append-only, never mutated, never consulted by the state
// machine.
type WebhookEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AckID  string `gorm:"column:ack_id;size:64;uniqueIndex" json:"ack_id"`
	Source string `gorm:"size:32" json:"source"` // "webhook" or "redirect"

	Headers datatypes.JSON `gorm:"column:headers" json:"headers,omitempty"`
	Query   string         `gorm:"column:query;type:text" json:"query,omitempty"`
	Body    string         `gorm:"column:body;type:text" json:"body,omitempty"`

	// Best-effort extraction, may be empty.
	OrderID       string `gorm:"column:order_id;size:128;index" json:"order_id,omitempty"`
	TransactionID string `gorm:"column:transaction_id;size:128" json:"transaction_id,omitempty"`
	Status        string `gorm:"size:64" json:"status,omitempty"`
	Amount        string `gorm:"size:64" json:"amount,omitempty"`
}

package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation statuses. Reserved (paid) and cancelled/expired are terminal;
// nothing moves a reservation out of them except an admin edit.
const (
	ReservationStatusPreReserved = "pre-reserved"
	ReservationStatusReserved    = "reserved"
	ReservationStatusCancelled   = "cancelled"
	ReservationStatusExpired     = "expired"
)

const (
	PaymentStatusUnpaid    = "unpaid"
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
	PaymentStatusCancelled = "cancelled"
)

type Reservation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// BookingID is the human-decodable reference (resort initials + timestamp
	// + daily sequence). Immutable once assigned.
	BookingID string `gorm:"column:booking_id;size:64;uniqueIndex" json:"booking_id"`
	ResortID  uint   `gorm:"index;column:resort_id" json:"resort_id"`

	Status        string `gorm:"column:status;size:32;index" json:"status"`
	PaymentStatus string `gorm:"column:payment_status;size:32;index" json:"payment_status"`

	// Half-open stay interval [CheckIn, CheckOut).
	CheckIn  time.Time `gorm:"column:check_in" json:"check_in"`
	CheckOut time.Time `gorm:"column:check_out" json:"check_out"`
	Nights   int       `gorm:"column:nights" json:"nights"`

	GuestName  string `gorm:"size:255" json:"guest_name"`
	GuestEmail string `gorm:"size:150" json:"guest_email"`
	GuestPhone string `gorm:"size:50" json:"guest_phone"`
	Adults     int    `gorm:"column:adults;default:1" json:"adults"`
	Children   int    `gorm:"column:children;default:0" json:"children"`

	TotalPayable     float64  `gorm:"column:total_payable" json:"total_payable"`
	RefundableAmount *float64 `gorm:"column:refundable_amount" json:"refundable_amount,omitempty"`
	CancelReason     string   `gorm:"column:cancel_reason;type:text" json:"cancel_reason,omitempty"`

	// ExpiresAt is set on hold creation and cleared on payment success.
	ExpiresAt *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`

	// Weak reference to the active (or most recent) payment attempt.
	PaymentTransactionID *uint `gorm:"column:payment_transaction_id" json:"payment_transaction_id,omitempty"`

	// RawSource collects gateway-echoed fields (transaction id, bank ref).
	// Append-only; never consulted for business decisions.
	RawSource datatypes.JSON `gorm:"column:raw_source" json:"raw_source,omitempty"`

	Resort Resort            `gorm:"foreignKey:ResortID" json:"resort,omitempty"`
	Units  []ReservationUnit `gorm:"foreignKey:ReservationID" json:"units"`
}

// IsTerminal reports whether no further automatic transition applies.
func (r *Reservation) IsTerminal() bool {
	return (r.Status == ReservationStatusReserved && r.PaymentStatus == PaymentStatusPaid) ||
		r.Status == ReservationStatusCancelled ||
		r.Status == ReservationStatusExpired
}

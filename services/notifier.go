package services

import (
	"resort-backend/models"
	"resort-backend/utils"
)

// EmailNotifier sends the booking confirmation over SMTP in a goroutine.
// The reconciler has already claimed the at-most-once slot by the time this
// runs; a delivery failure is logged and dropped.
type EmailNotifier struct {
	SMTP utils.SMTPConfig
}

func NewEmailNotifier(smtp utils.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{SMTP: smtp}
}

func (n *EmailNotifier) BookingConfirmed(reservation *models.Reservation, txn *models.PaymentTransaction) {
	units := make([]utils.UnitInfo, 0, len(reservation.Units))
	for _, ru := range reservation.Units {
		units = append(units, utils.UnitInfo{Number: ru.Unit.Number, Name: ru.Unit.Name})
	}

	go func() {
		_ = utils.SendBookingConfirmationEmail(
			n.SMTP,
			reservation.GuestEmail,
			reservation.BookingID,
			reservation.GuestName,
			reservation.Resort.Name,
			units,
			reservation.CheckIn.Format("2006-01-02"),
			reservation.CheckOut.Format("2006-01-02"),
			txn.Amount,
		)
	}()
}

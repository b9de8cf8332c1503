package utils

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPConfig carries the mail relay settings (see config.AppConfig).
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

// UnitInfo represents a unit's number + name for emails / display.
type UnitInfo struct {
	Number string // e.g. "W-03"
	Name   string // e.g. "Woodpecker"
}

// SendBookingConfirmationEmail sends the payment-success confirmation.
// With no SMTP settings configured it degrades to a log line, so local runs
// never fail on mail.
func SendBookingConfirmationEmail(cfg SMTPConfig, recipientEmail, bookingRef, guestName, resortName string, units []UnitInfo, checkIn, checkOut string, amount float64) error {
	if cfg.Username == "" || cfg.Password == "" || cfg.Host == "" || cfg.Port == "" {
		Log().Infof("[MOCK EMAIL] confirmation to:%s booking:%s amount:%.2f", recipientEmail, bookingRef, amount)
		return nil
	}

	safe := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", " ")
	}
	guestName = safe(guestName)
	resortName = safe(resortName)
	bookingRef = safe(bookingRef)

	unitLines := make([]string, 0, len(units))
	for _, u := range units {
		if u.Name != "" {
			unitLines = append(unitLines, fmt.Sprintf("  - %s (%s)", u.Number, u.Name))
		} else {
			unitLines = append(unitLines, fmt.Sprintf("  - %s", u.Number))
		}
	}

	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.Username)
	to := []string{recipientEmail}
	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)

	subject := fmt.Sprintf("Booking confirmed - %s", bookingRef)

	body := fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your payment was received and your booking at %s is confirmed.\n\n"+
			"Booking reference: %s\n"+
			"Stay: %s to %s\n"+
			"Units:\n%s\n"+
			"Amount paid: %.2f\n\n"+
			"We look forward to hosting you.\n",
		guestName, resortName, bookingRef, checkIn, checkOut, strings.Join(unitLines, "\n"), amount,
	)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", recipientEmail))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body + "\r\n")

	if err := smtp.SendMail(addr, auth, cfg.Username, to, []byte(sb.String())); err != nil {
		Log().Errorf("Failed to send confirmation email to %s: %v", recipientEmail, err)
		return err
	}

	Log().Infof("Confirmation email sent to %s for %s", recipientEmail, bookingRef)
	return nil
}

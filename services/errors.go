package services

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the services. Controllers translate these with
// errors.Is / errors.As into HTTP codes; none of them mutate state when
// returned.
var (
	ErrValidation   = errors.New("validation_failed")
	ErrInvalidRange = errors.New("invalid_date_range")
	ErrConflict     = errors.New("units_unavailable")
	ErrNotFound     = errors.New("booking_not_found")
	ErrInvalidState = errors.New("invalid_reservation_state")
	ErrExpired      = errors.New("hold_expired")
)

// IntegrationError wraps a gateway-side failure: transport errors, non-2xx
// responses, missing mandatory response fields, signature mismatches.
// The upstream body rides along for diagnostics and is never shown to guests.
type IntegrationError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *IntegrationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

func (e *IntegrationError) Unwrap() error { return e.Err }

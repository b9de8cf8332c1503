package controllers

import (
	"net/http"
	"time"

	"resort-backend/models"
	"resort-backend/services"
	"resort-backend/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateReservationRequest struct {
	ResortID   uint   `json:"resort_id" binding:"required"`
	UnitIDs    []uint `json:"unit_ids" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`  // YYYY-MM-DD
	CheckOut   string `json:"check_out" binding:"required"` // YYYY-MM-DD
	GuestName  string `json:"guest_name" binding:"required"`
	GuestEmail string `json:"guest_email" binding:"required"`
	GuestPhone string `json:"guest_phone" binding:"required"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

type reservationUnitView struct {
	UnitID uint    `json:"unit_id"`
	Kind   string  `json:"kind"`
	Number string  `json:"number"`
	Rate   float64 `json:"rate"`
}

type reservationView struct {
	BookingID        string                `json:"booking_id"`
	Resort           string                `json:"resort"`
	Status           string                `json:"status"`
	PaymentStatus    string                `json:"payment_status"`
	CheckIn          string                `json:"check_in"`
	CheckOut         string                `json:"check_out"`
	Nights           int                   `json:"nights"`
	GuestName        string                `json:"guest_name"`
	TotalPayable     float64               `json:"total_payable"`
	RefundableAmount *float64              `json:"refundable_amount,omitempty"`
	ExpiresAt        *time.Time            `json:"expires_at,omitempty"`
	Units            []reservationUnitView `json:"units"`
}

func toReservationView(r *models.Reservation) reservationView {
	units := make([]reservationUnitView, 0, len(r.Units))
	for _, ru := range r.Units {
		units = append(units, reservationUnitView{
			UnitID: ru.UnitID,
			Kind:   ru.Unit.Kind,
			Number: ru.Unit.Number,
			Rate:   ru.Rate,
		})
	}
	return reservationView{
		BookingID:        r.BookingID,
		Resort:           r.Resort.Name,
		Status:           r.Status,
		PaymentStatus:    r.PaymentStatus,
		CheckIn:          r.CheckIn.Format("2006-01-02"),
		CheckOut:         r.CheckOut.Format("2006-01-02"),
		Nights:           r.Nights,
		GuestName:        r.GuestName,
		TotalPayable:     r.TotalPayable,
		RefundableAmount: r.RefundableAmount,
		ExpiresAt:        r.ExpiresAt,
		Units:            units,
	}
}

// ---------------------------
// Controller
// ---------------------------

type ReservationController struct {
	ReservationSvc *services.ReservationService
}

func NewReservationController(svc *services.ReservationService) *ReservationController {
	return &ReservationController{ReservationSvc: svc}
}

// CreateReservation handles POST /api/reservations: validates the payload,
// places a provisional hold and returns it with the expiry deadline.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetails(c, http.StatusBadRequest, "error.payload", "Invalid request payload", err.Error())
		return
	}

	checkIn, err := time.Parse("2006-01-02", req.CheckIn)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.validation", "check_in must be YYYY-MM-DD")
		return
	}
	checkOut, err := time.Parse("2006-01-02", req.CheckOut)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.validation", "check_out must be YYYY-MM-DD")
		return
	}

	reservation, err := rc.ReservationSvc.CreateHold(c.Request.Context(), &services.CreateHoldRequest{
		ResortID:   req.ResortID,
		UnitIDs:    req.UnitIDs,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		GuestPhone: req.GuestPhone,
		Adults:     req.Adults,
		Children:   req.Children,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusCreated, toReservationView(reservation))
}

// GetReservation handles GET /api/reservations/:bookingId.
func (rc *ReservationController) GetReservation(c *gin.Context) {
	bookingID := c.Param("bookingId")
	if bookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "error.missingBookingId", "bookingId is required")
		return
	}

	reservation, err := rc.ReservationSvc.GetByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toReservationView(reservation))
}

// CancelReservation handles POST /api/reservations/:bookingId/cancel.
func (rc *ReservationController) CancelReservation(c *gin.Context) {
	bookingID := c.Param("bookingId")
	if bookingID == "" {
		utils.JSONError(c, http.StatusBadRequest, "error.missingBookingId", "bookingId is required")
		return
	}

	var req CancelReservationRequest
	_ = c.ShouldBindJSON(&req) // reason is optional

	reservation, err := rc.ReservationSvc.Cancel(c.Request.Context(), bookingID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, toReservationView(reservation))
}

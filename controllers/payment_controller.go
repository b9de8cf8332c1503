package controllers

import (
	"net/http"
	"net/url"

	"resort-backend/services"
	"resort-backend/utils"

	"github.com/gin-gonic/gin"
)

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

type PaymentController struct {
	PaymentSvc    *services.PaymentService
	CallbackSvc   *services.CallbackService
	StatusPageURL string
}

func NewPaymentController(payments *services.PaymentService, callbacks *services.CallbackService, statusPageURL string) *PaymentController {
	return &PaymentController{PaymentSvc: payments, CallbackSvc: callbacks, StatusPageURL: statusPageURL}
}

// InitiatePayment handles POST /api/payments/initiate and returns the form
// fields the browser posts to the gateway.
func (pc *PaymentController) InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONErrorDetails(c, http.StatusBadRequest, "error.payload", "Invalid request payload", err.Error())
		return
	}

	fields, err := pc.PaymentSvc.InitiatePayment(c.Request.Context(), req.BookingID, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, fields)
}

// HandleCallback terminates the guest's browser redirect from the gateway.
// The response is ALWAYS a redirect to the status page: a guest mid-payment
// must never see a JSON error body, whatever went wrong.
func (pc *PaymentController) HandleCallback(c *gin.Context) {
	_ = c.Request.ParseForm()
	form := url.Values(c.Request.PostForm)
	query := c.Request.URL.Query()

	encrypted, signature, ok := services.ExtractEncryptedResponse(form, query)
	if !ok {
		utils.Log().Warnw("callback without encrypted payload", "query", query.Encode())
		pc.redirectToStatus(c, "", services.AuthStatusPending, "payment outcome not yet known")
		return
	}

	result, err := pc.CallbackSvc.Reconcile(c.Request.Context(), encrypted, signature)
	if err != nil {
		if services.SignatureError(err) {
			utils.Log().Warnw("callback signature rejected")
			pc.redirectToStatus(c, "", services.AuthStatusFailure, "payment response could not be verified")
			return
		}
		utils.Log().Errorw("callback reconcile failed", "error", err)
		pc.redirectToStatus(c, "", services.AuthStatusPending, "payment outcome not yet known")
		return
	}

	pc.redirectToStatus(c, result.BookingID, result.AuthStatus, result.Reason)
}

func (pc *PaymentController) redirectToStatus(c *gin.Context, bookingID, status, reason string) {
	target, err := url.Parse(pc.StatusPageURL)
	if err != nil {
		c.Redirect(http.StatusFound, pc.StatusPageURL)
		return
	}
	q := target.Query()
	if bookingID != "" {
		q.Set("bookingId", bookingID)
	}
	q.Set("status", status)
	if reason != "" {
		q.Set("reason", reason)
	}
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

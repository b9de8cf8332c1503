package controllers

import (
	"errors"
	"net/http"

	"resort-backend/services"
	"resort-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError translates the service error taxonomy into the HTTP
// envelope. Integration failures deliberately hide the upstream body.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidRange):
		utils.JSONError(c, http.StatusBadRequest, "error.validation", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.JSONError(c, http.StatusConflict, "error.unitsUnavailable", err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.bookingNotFound", err.Error())
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrExpired):
		utils.JSONError(c, http.StatusUnprocessableEntity, "error.invalidState", err.Error())
	default:
		var ie *services.IntegrationError
		if errors.As(err, &ie) {
			utils.Log().Errorw("gateway integration failure", "op", ie.Op, "status", ie.StatusCode, "error", ie.Error())
			utils.JSONError(c, http.StatusBadGateway, "error.gateway", "payment gateway is unavailable, please retry")
			return
		}
		utils.Log().Errorw("unhandled service error", "error", err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "internal server error")
	}
}

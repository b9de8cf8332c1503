package controllers

import (
	"net/http"

	"resort-backend/services"
	"resort-backend/utils"

	"github.com/gin-gonic/gin"
)

type SweepController struct {
	SweeperSvc *services.SweeperService
}

func NewSweepController(svc *services.SweeperService) *SweepController {
	return &SweepController{SweeperSvc: svc}
}

// Sweep handles POST /api/admin/sweep: a manual run of the expiry sweep,
// same code path as the background ticker. Safe to call repeatedly.
func (sc *SweepController) Sweep(c *gin.Context) {
	count, err := sc.SweeperSvc.CancelExpiredHolds(c.Request.Context())
	if err != nil {
		utils.Log().Errorw("manual sweep failed", "error", err)
		utils.JSONError(c, http.StatusInternalServerError, "error.persistence", "sweep failed")
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"expired": count})
}

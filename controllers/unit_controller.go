package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"resort-backend/config"
	"resort-backend/models"
	"resort-backend/utils"

	"github.com/gin-gonic/gin"
)

// ----------------------------------------------------
// 1. Get Units (GET /api/units)
// ----------------------------------------------------

func GetUnits(c *gin.Context) {
	var units []models.Unit
	q := config.DB.Preload("Resort")

	if resortID := c.Query("resort_id"); resortID != "" {
		q = q.Where("resort_id = ?", resortID)
	}
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}

	if err := q.Find(&units).Error; err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "error.persistence", "failed to load units")
		return
	}
	c.JSON(http.StatusOK, units)
}

// ----------------------------------------------------
// 2. Create Unit (POST /api/units)
// ----------------------------------------------------

func CreateUnit(c *gin.Context) {
	var unit models.Unit

	if err := c.ShouldBindJSON(&unit); err != nil {
		utils.JSONErrorDetails(c, http.StatusBadRequest, "error.payload", "Invalid request payload", err.Error())
		return
	}

	unit.Number = strings.TrimSpace(unit.Number)
	if unit.Number == "" {
		utils.JSONError(c, http.StatusBadRequest, "error.validation", "Unit number is required.")
		return
	}
	if unit.Kind != models.UnitKindRoom && unit.Kind != models.UnitKindTent {
		utils.JSONError(c, http.StatusBadRequest, "error.validation", "kind must be room or tent")
		return
	}

	var resort models.Resort
	if err := config.DB.First(&resort, unit.ResortID).Error; err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.validation", "Invalid resort_id provided.")
		return
	}

	if result := config.DB.Create(&unit); result.Error != nil {
		if strings.Contains(result.Error.Error(), "Duplicate entry") || strings.Contains(result.Error.Error(), "UNIQUE constraint failed") {
			utils.JSONError(c, http.StatusConflict, "error.duplicate",
				fmt.Sprintf("Unit number '%s' already exists.", unit.Number))
			return
		}
		utils.Log().Errorw("unit create failed", "error", result.Error)
		utils.JSONError(c, http.StatusInternalServerError, "error.persistence", "Database error")
		return
	}

	c.JSON(http.StatusCreated, unit)
}

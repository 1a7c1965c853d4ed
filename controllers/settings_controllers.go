package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type SettingsController struct {
	Settings *services.SettingsService
}

func NewSettingsController(settings *services.SettingsService) *SettingsController {
	return &SettingsController{Settings: settings}
}

func (sc *SettingsController) GetSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	settings, err := sc.Settings.Get(c.Request.Context(), userID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification settings", settings)
}

func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var body struct {
		IsEnableNotification *bool `json:"is_enable_notification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondServiceError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err))
		return
	}

	settings, err := sc.Settings.SetEnabled(c.Request.Context(), userID, *body.IsEnableNotification)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification settings updated", settings)
}

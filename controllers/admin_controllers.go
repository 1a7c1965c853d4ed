package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

// AdminController lets admin and staff users send notifications.
type AdminController struct {
	Notifications *services.NotificationService
}

func NewAdminController(notifications *services.NotificationService) *AdminController {
	return &AdminController{Notifications: notifications}
}

type createNotificationRequest struct {
	UserID       uint            `json:"user_id" binding:"required"`
	Notification json.RawMessage `json:"notification"`
	CustomInfo   json.RawMessage `json:"custom_info"`
}

type bulkNotificationRequest struct {
	UserIDs      []uint          `json:"user_ids" binding:"required,min=1"`
	Notification json.RawMessage `json:"notification"`
	CustomInfo   json.RawMessage `json:"custom_info"`
}

func creator(c *gin.Context) *uint {
	id, ok := currentUser(c)
	if !ok {
		return nil
	}
	return &id
}

func (ac *AdminController) CreateNotification(c *gin.Context) {
	var body createNotificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondServiceError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err))
		return
	}
	payload, err := models.ParseNotificationPayload(body.Notification)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	createdBy := creator(c)
	if createdBy == nil {
		return
	}

	n, err := ac.Notifications.Create(c.Request.Context(), services.CreateInput{
		UserID:      body.UserID,
		Payload:     payload,
		CustomInfo:  body.CustomInfo,
		CreatedByID: createdBy,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Notification created", n)
}

func (ac *AdminController) BulkCreateNotifications(c *gin.Context) {
	var body bulkNotificationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondServiceError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err))
		return
	}
	payload, err := models.ParseNotificationPayload(body.Notification)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	createdBy := creator(c)
	if createdBy == nil {
		return
	}

	res, err := ac.Notifications.BulkCreate(c.Request.Context(), services.BulkCreateInput{
		UserIDs:     body.UserIDs,
		Payload:     payload,
		CustomInfo:  body.CustomInfo,
		CreatedByID: createdBy,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Notifications created", res)
}

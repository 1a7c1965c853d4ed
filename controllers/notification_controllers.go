package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type NotificationController struct {
	Notifications *services.NotificationService
	Snapshots     *services.SnapshotService
	UseCache      bool
}

func NewNotificationController(notifications *services.NotificationService, snapshots *services.SnapshotService, useCache bool) *NotificationController {
	return &NotificationController{
		Notifications: notifications,
		Snapshots:     snapshots,
		UseCache:      useCache,
	}
}

// currentUser writes the 401 itself when the context has no user.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondServiceError(c, utils.ErrUnauthenticated)
	}
	return userID, ok
}

func parseUID(c *gin.Context) (uuid.UUID, bool) {
	uid, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		utils.RespondServiceError(c, fmt.Errorf("notification %q: %w", c.Param("uid"), utils.ErrNotFound))
		return uuid.Nil, false
	}
	return uid, true
}

// GetNotifications -> snapshot of the caller, ?is_read=true|false&page=N
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			utils.RespondServiceError(c, fmt.Errorf("%w: page must be a number", utils.ErrValidation))
			return
		}
		page = n
	}

	snap, err := nc.Snapshots.Build(c.Request.Context(), userID, services.SnapshotQuery{
		IsRead:         c.Query("is_read"),
		Page:           page,
		IncludeContent: true,
		UseCache:       nc.UseCache,
	})
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications", snap)
}

// GetNotification returns one notification and marks it read.
func (nc *NotificationController) GetNotification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	uid, ok := parseUID(c)
	if !ok {
		return
	}

	n, err := nc.Notifications.GetAndMarkRead(c.Request.Context(), userID, uid)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification detail", n)
}

func (nc *NotificationController) UpdateNotification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	uid, ok := parseUID(c)
	if !ok {
		return
	}

	var body services.UpdateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondServiceError(c, fmt.Errorf("%w: %v", utils.ErrValidation, err))
		return
	}

	n, err := nc.Notifications.Update(c.Request.Context(), userID, uid, body)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification updated", n)
}

func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	uid, ok := parseUID(c)
	if !ok {
		return
	}

	if err := nc.Notifications.Delete(c.Request.Context(), userID, uid); err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", nil)
}

func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := nc.Notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		utils.RespondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

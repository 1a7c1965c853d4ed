package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/notification-hub/controllers"
	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/middlewares"
	"github.com/yeremiapane/notification-hub/models"
	"github.com/yeremiapane/notification-hub/services"
	"github.com/yeremiapane/notification-hub/utils"
)

type Dependencies struct {
	Tokens        *utils.TokenManager
	Users         *services.UserService
	Settings      *services.SettingsService
	Snapshots     *services.SnapshotService
	Notifications *services.NotificationService
	Hub           *hub.Hub
	AllowOrigins  []string
	UseCache      bool
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.AllowOrigins))
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(deps.Users)
	settingsCtrl := controllers.NewSettingsController(deps.Settings)
	notificationCtrl := controllers.NewNotificationController(deps.Notifications, deps.Snapshots, deps.UseCache)
	adminCtrl := controllers.NewAdminController(deps.Notifications)
	liveCtrl := controllers.NewLiveController(deps.Hub, deps.AllowOrigins)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	public := r.Group("/api/auth")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(deps.Tokens))

	api.GET("/profile", userCtrl.GetProfile)
	api.POST("/auth/logout", userCtrl.Logout)

	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationCtrl.GetNotifications)
		notifications.GET("/settings", settingsCtrl.GetSettings)
		notifications.PATCH("/settings", settingsCtrl.UpdateSettings)
		notifications.POST("/read-all", notificationCtrl.MarkAllRead)
		notifications.GET("/:uid", notificationCtrl.GetNotification)
		notifications.PATCH("/:uid", notificationCtrl.UpdateNotification)
		notifications.DELETE("/:uid", notificationCtrl.DeleteNotification)
	}

	admin := api.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleStaff))
	{
		admin.POST("/notifications", adminCtrl.CreateNotification)
		admin.POST("/notifications/bulk", adminCtrl.BulkCreateNotifications)
	}

	// ----------------------------------------------------------------
	//                      LIVE CHANNEL
	// ----------------------------------------------------------------
	ws := r.Group("/ws")
	ws.Use(middlewares.LiveToken())
	{
		ws.GET("/notifications", liveCtrl.Serve)
		ws.GET("/notifications/:token", liveCtrl.Serve)
		ws.GET("/notifications/live/:token", liveCtrl.Serve)
	}

	return r
}

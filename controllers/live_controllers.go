package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/notification-hub/hub"
	"github.com/yeremiapane/notification-hub/middlewares"
)

type LiveController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewLiveController accepts browser origins from allowOrigins; "*" or an
// empty list accepts any origin.
func NewLiveController(h *hub.Hub, allowOrigins []string) *LiveController {
	allowed := make(map[string]bool, len(allowOrigins))
	allowAll := len(allowOrigins) == 0
	for _, o := range allowOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &LiveController{
		Hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// Serve upgrades the request and runs the connection until it closes. The
// token is checked by the hub after the upgrade so a bad token gets a
// close frame instead of an HTTP error.
func (lc *LiveController) Serve(c *gin.Context) {
	ws, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	lc.Hub.ServeConn(c.Request.Context(), ws, c.GetString(middlewares.ContextLiveToken))
}

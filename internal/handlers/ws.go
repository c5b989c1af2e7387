package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/orgaos-dev/orgaos/internal/realtime"
	"github.com/orgaos-dev/orgaos/internal/types"
	"github.com/orgaos-dev/orgaos/internal/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, allowed := range types.AllowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	},
}

// WebSocket upgrades an authenticated request and attaches the connection
// to the hub. Registration and room membership are driven by client
// messages from there on.
func WebSocket(hub *realtime.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := realtime.NewClient(hub, conn, userID)
		hub.Add(client)

		go client.WritePump()
		go client.ReadPump()
	}
}

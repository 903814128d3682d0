package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-io-chat/internal/auth"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/gateway"
	"github.com/weiawesome/wes-io-chat/internal/hub"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades /ws requests and hands the connection to the gateway.
type WSHandler struct {
	hub        *hub.Hub
	router     *gateway.Router
	cookieName string
	wsCfg      config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, router *gateway.Router, cookieName string, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:        h,
		router:     router,
		cookieName: cookieName,
		wsCfg:      wsCfg,
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	l := log.Ctx(c.Request.Context())

	// Read before the upgrade hijacks the request.
	token := auth.ExtractToken(c.Request, h.cookieName)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.NewString(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	go client.WritePump()

	// Authenticate before reading so no frame is handled ahead of the
	// identity being attached.
	ctx := log.WithLogger(context.Background(), l.With().Str(log.FieldConnID, client.ID).Logger())
	h.router.Connect(ctx, client, token)

	go client.ReadPump(h.router.HandleMessage)
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"galinhada/server/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Разрешаем подключения с любого origin (форма раздается со статического хостинга)
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS GET /sessions/:id/ws. Сразу отдает текущее состояние, дальше пушит после каждого действия
func (oc *OrderController) ServeWS(c *gin.Context) {
	id := c.Param("id")
	if _, err := oc.sessions.Get(c.Request.Context(), id); err != nil {
		oc.sessionError(c, id, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		oc.logger.Warn("websocket upgrade failed", zap.String("session_id", id), zap.Error(err))
		return
	}

	client := oc.hub.AddClient(id, conn)
	oc.logger.Debug("form connected", zap.String("session_id", id), zap.Int("clients", oc.hub.ClientsCount(id)))

	defer func() {
		oc.hub.RemoveClient(id, client)
		oc.logger.Debug("form disconnected", zap.String("session_id", id), zap.Int("clients", oc.hub.ClientsCount(id)))
	}()

	// начальное состояние под блокировкой сессии, чтобы не обогнать пуш более свежего
	err = oc.sessions.Inspect(c.Request.Context(), id, func(current *models.OrderState) {
		if payload, err := json.Marshal(SessionResponse{SessionID: id, Order: oc.orders.View(current)}); err == nil {
			oc.hub.SendTo(id, client, payload)
		}
	})
	if err != nil {
		oc.logger.Warn("initial view failed", zap.String("session_id", id), zap.Error(err))
		return
	}

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Читаем только для ping/pong и закрытия, действия приходят через HTTP
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				oc.logger.Warn("websocket error", zap.String("session_id", id), zap.Error(err))
			}
			break
		}
	}
}

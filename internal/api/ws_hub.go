package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsSendBuffer = 16
)

// wsClient одна открытая форма. Пишет в соединение только writePump
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub раскладывает пересчитанное состояние заказа по открытым формам своей сессии
type Hub struct {
	mutex   sync.RWMutex
	clients map[string]map[*wsClient]bool // sessionID -> клиенты
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*wsClient]bool),
		logger:  logger,
	}
}

// AddClient регистрирует соединение и запускает запись в него
func (h *Hub) AddClient(sessionID string, conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}

	h.mutex.Lock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*wsClient]bool)
	}
	h.clients[sessionID][client] = true
	h.mutex.Unlock()

	go h.writePump(sessionID, client)
	return client
}

// RemoveClient удаляет клиента и закрывает соединение
func (h *Hub) RemoveClient(sessionID string, client *wsClient) {
	h.mutex.Lock()
	if set, ok := h.clients[sessionID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
			if len(set) == 0 {
				delete(h.clients, sessionID)
			}
		}
	}
	h.mutex.Unlock()
}

// CloseSession отключает все формы сессии (сессия удалена)
func (h *Hub) CloseSession(sessionID string) {
	h.mutex.Lock()
	for client := range h.clients[sessionID] {
		close(client.send)
	}
	delete(h.clients, sessionID)
	h.mutex.Unlock()
}

// Publish отправляет сообщение всем формам сессии
func (h *Hub) Publish(sessionID string, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients[sessionID] {
		select {
		case client.send <- message:
		default:
			// Если канал переполнен, пропускаем сообщение (не блокируем)
			h.logger.Warn("ws send buffer full, dropping update", zap.String("session_id", sessionID))
		}
	}
}

// SendTo отправляет сообщение одному клиенту, если он еще подключен
func (h *Hub) SendTo(sessionID string, client *wsClient, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if !h.clients[sessionID][client] {
		return
	}
	select {
	case client.send <- message:
	default:
	}
}

// ClientsCount количество открытых форм сессии
func (h *Hub) ClientsCount(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) writePump(sessionID string, client *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("ws write failed", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

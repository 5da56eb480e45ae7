package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"galinhada/server/internal/models"
	"galinhada/server/internal/services"
)

const healthTimeout = 2 * time.Second

// OrderController принимает действия пользователя с формы и отдает пересчитанный заказ
type OrderController struct {
	orders          *services.OrderService
	sessions        *services.SessionService
	hub             *Hub
	contactEditable bool
	logger          *zap.Logger
}

func NewOrderController(orders *services.OrderService, sessions *services.SessionService, hub *Hub, contactEditable bool, logger *zap.Logger) *OrderController {
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := &OrderController{
		orders:          orders,
		sessions:        sessions,
		hub:             hub,
		contactEditable: contactEditable,
		logger:          logger,
	}
	// пуш идет под блокировкой сессии, формы получают изменения в том же порядке
	sessions.OnChange(oc.publish)
	return oc
}

type SessionResponse struct {
	SessionID string             `json:"session_id"`
	Order     services.OrderView `json:"order"`
}

type SetFieldRequest struct {
	Value *string `json:"value" binding:"required"`
}

func (oc *OrderController) respond(c *gin.Context, status int, id string, state *models.OrderState) {
	c.JSON(status, SessionResponse{SessionID: id, Order: oc.orders.View(state)})
}

// publish пушит новое состояние во все открытые формы сессии.
// Hub.Publish не блокируется, держать блокировку сессии безопасно
func (oc *OrderController) publish(id string, state *models.OrderState) {
	if oc.hub == nil {
		return
	}
	payload, err := json.Marshal(SessionResponse{SessionID: id, Order: oc.orders.View(state)})
	if err != nil {
		oc.logger.Error("marshal order view", zap.String("session_id", id), zap.Error(err))
		return
	}
	oc.hub.Publish(id, payload)
}

func (oc *OrderController) sessionError(c *gin.Context, id string, err error) {
	if errors.Is(err, services.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	oc.logger.Error("session store failure", zap.String("session_id", id), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// Health GET /health. С Redis проверяет и хранилище сессий
func (oc *OrderController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	store := oc.sessions.StoreName()
	if err := oc.sessions.Ping(ctx); err != nil {
		oc.logger.Warn("session store unhealthy", zap.String("store", store), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "sessions": store, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": store})
}

// CreateSession POST /sessions
func (oc *OrderController) CreateSession(c *gin.Context) {
	id, state, err := oc.sessions.Create(c.Request.Context())
	if err != nil {
		oc.sessionError(c, "", err)
		return
	}
	oc.respond(c, http.StatusCreated, id, state)
}

// GetSession GET /sessions/:id
func (oc *OrderController) GetSession(c *gin.Context) {
	id := c.Param("id")
	state, err := oc.sessions.Get(c.Request.Context(), id)
	if err != nil {
		oc.sessionError(c, id, err)
		return
	}
	oc.respond(c, http.StatusOK, id, state)
}

// DeleteSession DELETE /sessions/:id
func (oc *OrderController) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := oc.sessions.Delete(c.Request.Context(), id); err != nil {
		oc.sessionError(c, id, err)
		return
	}
	if oc.hub != nil {
		oc.hub.CloseSession(id)
	}
	c.Status(http.StatusNoContent)
}

// Increment POST /sessions/:id/items/:key/increment
func (oc *OrderController) Increment(c *gin.Context) {
	oc.changeQuantity(c, (*models.OrderState).Increment)
}

// Decrement POST /sessions/:id/items/:key/decrement
func (oc *OrderController) Decrement(c *gin.Context) {
	oc.changeQuantity(c, (*models.OrderState).Decrement)
}

func (oc *OrderController) changeQuantity(c *gin.Context, apply func(*models.OrderState, string) bool) {
	id := c.Param("id")
	key := c.Param("key")

	// ключи каталога закрытый набор, чужие на ядро не пропускаем
	if _, ok := oc.orders.Catalog().FindItem(key); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found", "key": key})
		return
	}

	state, err := oc.sessions.Update(c.Request.Context(), id, func(s *models.OrderState) error {
		if !apply(s, key) {
			return services.ErrUnchanged
		}
		return nil
	})
	if err != nil {
		oc.sessionError(c, id, err)
		return
	}
	oc.respond(c, http.StatusOK, id, state)
}

// SetField PUT /sessions/:id/fields/:field
func (oc *OrderController) SetField(c *gin.Context) {
	id := c.Param("id")
	field := c.Param("field")

	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid data", "details": err.Error()})
		return
	}

	if field == models.FieldContactTarget && !oc.contactEditable {
		c.JSON(http.StatusForbidden, gin.H{"error": "contact target is not editable"})
		return
	}

	state, err := oc.sessions.Update(c.Request.Context(), id, func(s *models.OrderState) error {
		return s.SetField(field, *req.Value)
	})
	switch {
	case err == nil:
	case errors.Is(err, models.ErrInvalidEnumValue), errors.Is(err, models.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		oc.sessionError(c, id, err)
		return
	}
	oc.respond(c, http.StatusOK, id, state)
}

// GetMessage GET /sessions/:id/message - текст для кнопки "Copiar resumo"
func (oc *OrderController) GetMessage(c *gin.Context) {
	id := c.Param("id")
	state, err := oc.sessions.Get(c.Request.Context(), id)
	if err != nil {
		oc.sessionError(c, id, err)
		return
	}
	c.String(http.StatusOK, oc.orders.FormatMessage(state))
}

// Dispatch GET /sessions/:id/dispatch - редирект в WhatsApp.
// Пока заказ нельзя отправлять, редиректа нет
func (oc *OrderController) Dispatch(c *gin.Context) {
	id := c.Param("id")
	state, err := oc.sessions.Get(c.Request.Context(), id)
	if err != nil {
		oc.sessionError(c, id, err)
		return
	}

	if !oc.orders.CanDispatch(state) {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "order cannot be dispatched yet",
			"can_dispatch": false,
		})
		return
	}

	target := oc.orders.BuildDispatchTarget(state, oc.orders.FormatMessage(state))
	oc.logger.Info("order dispatched",
		zap.String("session_id", id),
		zap.String("total", oc.orders.Total(state).StringFixed(2)),
		zap.String("payment_method", string(state.PaymentMethod())),
	)
	c.Redirect(http.StatusFound, target)
}

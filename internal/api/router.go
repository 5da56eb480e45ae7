package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter собирает маршруты формы заказа под /api/v1
func NewRouter(orderController *OrderController, menuController *MenuController, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))

	// CORS: форма раздается с другого домена
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	apiGroup := r.Group("/api/v1")
	apiGroup.GET("/health", orderController.Health)
	apiGroup.GET("/menu", menuController.GetMenu)

	sessions := apiGroup.Group("/sessions")
	sessions.POST("", orderController.CreateSession)
	sessions.GET("/:id", orderController.GetSession)
	sessions.DELETE("/:id", orderController.DeleteSession)
	sessions.POST("/:id/items/:key/increment", orderController.Increment)
	sessions.POST("/:id/items/:key/decrement", orderController.Decrement)
	sessions.PUT("/:id/fields/:field", orderController.SetField)
	sessions.GET("/:id/message", orderController.GetMessage)
	sessions.GET("/:id/dispatch", orderController.Dispatch)
	sessions.GET("/:id/ws", orderController.ServeWS)

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

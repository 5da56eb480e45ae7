package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"galinhada/server/internal/api"
	"galinhada/server/internal/config"
	"galinhada/server/internal/database"
	"galinhada/server/internal/models"
	"galinhada/server/internal/services"
	"galinhada/server/internal/utils"
)

func main() {
	// .env опционален, в production переменные приходят из окружения
	envErr := godotenv.Load()

	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Info(".env not found, using process environment")
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog := models.DefaultCatalog()
	logger.Info("catalog loaded", zap.Int("items", len(catalog.AllItems())))

	format := services.DefaultMessageFormat()
	format.Title = cfg.OrderTitle
	format.Currency = cfg.Currency
	orderService := services.NewOrderService(catalog, format, cfg.DispatchBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store services.SessionStore
	if cfg.UseRedis() {
		redisClient, err := database.ConnectRedis(ctx, logger, cfg.RedisURL, cfg.RedisSentinelAddrs, cfg.RedisMasterName)
		if err != nil {
			logger.Warn("redis unavailable, sessions kept in memory", zap.Error(err))
		} else {
			defer database.CloseRedis(redisClient)
			store = services.NewRedisSessionStore(utils.NewRedisClient(redisClient), cfg.SessionTTL)
			logger.Info("sessions stored in redis", zap.Duration("ttl", cfg.SessionTTL))
		}
	}
	if store == nil {
		store = services.NewMemorySessionStore(cfg.SessionTTL)
		logger.Info("sessions stored in memory", zap.Duration("ttl", cfg.SessionTTL))
	}

	sessionService := services.NewSessionService(store, catalog, models.OrderOptions{
		DefaultContact:  cfg.DefaultContact,
		MaxItemQuantity: cfg.MaxItemQuantity,
	}, logger)

	hub := api.NewHub(logger)
	orderController := api.NewOrderController(orderService, sessionService, hub, cfg.ContactEditable, logger)
	menuController := api.NewMenuController(orderService)
	router := api.NewRouter(orderController, menuController, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started",
			zap.String("port", cfg.ServerPort),
			zap.String("env", cfg.Environment),
			zap.Bool("contact_editable", cfg.ContactEditable),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

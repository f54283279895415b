package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tovarbot/internal/handler/api"
	"tovarbot/internal/middleware"
	"tovarbot/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	logger *zap.Logger,
	apiKey string,
	updateDeduper middleware.UpdateDeduper,
	webhookHandler http.Handler,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Handlers
	productHandler := api.NewProductHandler(repository.NewProductRepository(db), logger)
	walletHandler := api.NewWalletHandler(repository.NewWalletRepository(db), logger)
	saleHandler := api.NewSaleHandler(repository.NewSaleRepository(db), logger)
	channelHandler := api.NewChannelHandler(repository.NewChannelRepository(db), logger)
	userHandler := api.NewUserHandler(repository.NewUserRepository(db), logger)

	// API group with key auth
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(apiKey))

	apiGroup.GET("/products", productHandler.List)
	apiGroup.POST("/products", productHandler.Create)
	apiGroup.GET("/products/:id", productHandler.Get)
	apiGroup.PUT("/products/:id", productHandler.Update)
	apiGroup.DELETE("/products/:id", productHandler.Delete)

	apiGroup.GET("/wallets", walletHandler.List)
	apiGroup.POST("/wallets", walletHandler.Create)
	apiGroup.DELETE("/wallets/:id", walletHandler.Delete)
	apiGroup.GET("/payment-methods", walletHandler.ListMethods)

	apiGroup.GET("/sales", saleHandler.List)
	apiGroup.GET("/sales/summary", saleHandler.Summary)
	apiGroup.GET("/sales/:order_id", saleHandler.Get)

	apiGroup.GET("/channels", channelHandler.ListChannels)
	apiGroup.POST("/channels", channelHandler.CreateChannel)
	apiGroup.DELETE("/channels/:channel_id", channelHandler.DeleteChannel)
	apiGroup.GET("/bots", channelHandler.ListBots)
	apiGroup.POST("/bots", channelHandler.CreateBot)
	apiGroup.DELETE("/bots/:id", channelHandler.DeleteBot)

	apiGroup.GET("/users/:id", userHandler.Get)
	apiGroup.POST("/users/:id/block", userHandler.Block)
	apiGroup.POST("/users/:id/unblock", userHandler.Unblock)

	// Telegram webhook (protected by IP check + deduplication)
	if webhookHandler != nil {
		webhookGroup := e.Group("/bot")
		webhookGroup.Use(middleware.TelegramIPCheck())
		webhookGroup.Use(middleware.TelegramUpdateDedup(updateDeduper))
		webhookGroup.POST("/webhook", echo.WrapHandler(webhookHandler))
	} else {
		logger.Info("Telegram webhook routes disabled (bot update mode is polling)")
	}
}

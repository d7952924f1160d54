package handler

import (
	"account_service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterConfig holds what NewRouter needs besides the handlers
type RouterConfig struct {
	AllowedOrigins []string
	DB             Pinger
	Log            logrus.FieldLogger
}

// NewRouter builds the gin engine with middlewares and all routes
func NewRouter(accounts *AccountHandler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	accounts.RegisterRoutes(router)
	router.GET("/health", Health(cfg.DB))
	return router
}

package handlers

import (
	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/metrics"
	"stable_dashboard/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewHandler constructs a new HTTP handler with dependencies. m may be nil.
func NewHandler(services *service.Service, log *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{services: services, log: log, metrics: m}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if h.metrics != nil {
		router.Use(h.metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Dashboard push channel; browsers cannot set headers, so the token may
	// come as ?access_token=.
	router.GET("/ws", h.wsAuthMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api", h.userIdMiddleware)
	{
		h.registerAlertRoutes(api)
		h.registerConfigRoutes(api)
		h.registerHARoutes(api)
	}
}

func (h *Handler) registerAlertRoutes(api *gin.RouterGroup) {
	alerts := api.Group("/alerts")
	{
		alerts.GET("", h.listAlerts)
		alerts.POST("", h.createAlert)
		alerts.GET("/history", h.alertHistory)
		alerts.POST("/check", h.checkAlerts)
		alerts.POST("/reset", h.resetAlertStates)
		alerts.PUT("/:id", h.updateAlert)
		alerts.DELETE("/:id", h.deleteAlert)
	}
}

func (h *Handler) registerConfigRoutes(api *gin.RouterGroup) {
	cfg := api.Group("/config")
	{
		cfg.GET("/token", h.getTokenStatus)
		// Body example: {"url":"http://homeassistant.local:8123","token":"<long-lived token>"}
		cfg.POST("/token", h.saveToken)
		cfg.DELETE("/token", h.deleteToken)
		cfg.GET("/ha_url", h.getHAURL)
		cfg.GET("/ha_token", h.getHAToken)
		cfg.GET("/websocket", h.getWebSocketConfig)
	}
}

func (h *Handler) registerHARoutes(api *gin.RouterGroup) {
	ha := api.Group("/ha")
	{
		ha.GET("/status", h.haStatus)
		ha.GET("/states", h.haStates)
		ha.GET("/states/:entity_id", h.haState)
		ha.POST("/refresh", h.haRefresh)
		ha.POST("/connect", h.haConnect)
		ha.POST("/disconnect", h.haDisconnect)
		ha.POST("/services/:domain/:service", h.haCallService)
		ha.GET("/automations", h.haAutomations)
		ha.POST("/automations/:entity_id/:action", h.haControlAutomation)
	}
}

package api

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/nightlight"
)

type controller interface {
	State() nightlight.Snapshot
	Toggle() (bool, error)
	Inhibit(name string) (nightlight.Token, error)
	Uninhibit(token nightlight.Token) (bool, error)
	Preview(temperature int) error
	StopPreview() error
}

type deviceJournal interface {
	All() ([]models.DeviceStatus, error)
}

// Handler is the HTTP control surface of the daemon
type Handler struct {
	logger     *log.Logger
	controller controller
	journal    deviceJournal
	events     *Broadcaster
}

// journal may be nil, /devices then returns an empty list
func NewHandler(logger *log.Logger, controller controller, journal deviceJournal, events *Broadcaster) *Handler {
	return &Handler{logger: logger, controller: controller, journal: journal, events: events}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/health", h.health)
	router.GET("/state", h.getState)
	router.GET("/devices", h.getDevices)
	router.GET("/events", h.streamEvents)

	router.POST("/toggle", h.toggle)

	inhibit := router.Group("/inhibit")
	{
		inhibit.POST("", h.inhibit)
		inhibit.DELETE("/:token", h.uninhibit)
	}

	preview := router.Group("/preview")
	{
		preview.POST("", h.preview)
		preview.DELETE("", h.stopPreview)
	}

	return router
}

func (h *Handler) requestLogger(c *gin.Context) {
	c.Next()
	h.logger.Debug("api request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
}

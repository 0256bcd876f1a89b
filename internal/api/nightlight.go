package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/nightlight"
)

const (
	statusOK = "ok"

	errUnavailable     = "night light is not running"
	errInvalidBodyPref = "invalid body: "
	errUnknownToken    = "unknown inhibition token"
	errDevices         = "failed to read devices"
)

type InhibitRequest struct {
	// shown in the logs, defaults to "api"
	Name string `json:"name"`
}

type InhibitResponse struct {
	Token nightlight.Token `json:"token"`
}

type ToggleResponse struct {
	Inhibited bool `json:"inhibited"`
}

type PreviewRequest struct {
	Temperature int `json:"temperature" binding:"required"`
}

func (h *Handler) unavailable(c *gin.Context, err error) {
	h.logger.Warn("api call failed", "path", c.Request.URL.Path, "err", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": errUnavailable})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.State())
}

func (h *Handler) getDevices(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusOK, []models.DeviceStatus{})
		return
	}
	devices, err := h.journal.All()
	if err != nil {
		h.logger.Error("Error reading devices", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errDevices})
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (h *Handler) toggle(c *gin.Context) {
	inhibited, err := h.controller.Toggle()
	if err != nil {
		h.unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, ToggleResponse{Inhibited: inhibited})
}

func (h *Handler) inhibit(c *gin.Context) {
	var req InhibitRequest
	// the body is optional
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
	}
	if req.Name == "" {
		req.Name = "api"
	}

	token, err := h.controller.Inhibit(req.Name)
	if err != nil {
		h.unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, InhibitResponse{Token: token})
}

func (h *Handler) uninhibit(c *gin.Context) {
	released, err := h.controller.Uninhibit(nightlight.Token(c.Param("token")))
	if err != nil {
		h.unavailable(c, err)
		return
	}
	if !released {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownToken})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

func (h *Handler) preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.controller.Preview(req.Temperature); err != nil {
		h.unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

func (h *Handler) stopPreview(c *gin.Context) {
	if err := h.controller.StopPreview(); err != nil {
		h.unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, h.controller.State())
}

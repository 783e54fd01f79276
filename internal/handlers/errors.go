package handlers

import (
	"errors"
	"net/http"

	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/repository"
	"stable_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK           = "ok"
	statusSaved        = "saved"
	statusDeleted      = "deleted"
	statusReset        = "reset"
	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps domain errors onto status codes:
// validation 400, not found 404, not configured 409, controller failures 502,
// everything else 500.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code, msg := classify(err)
	h.logAndJSONError(c, code, msg, logKey, err, kv...)
}

func classify(err error) (int, string) {
	var se *hass.StatusError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, hass.ErrInvalidServiceCall):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, hass.ErrNotConfigured):
		return http.StatusConflict, err.Error()
	case errors.As(err, &se):
		if se.Code == http.StatusNotFound {
			return http.StatusNotFound, se.Error()
		}
		return http.StatusBadGateway, se.Error()
	case errors.Is(err, hass.ErrConnectionRefused):
		return http.StatusBadGateway, hass.ErrConnectionRefused.Error()
	case errors.Is(err, hass.ErrCertificate):
		return http.StatusBadGateway, hass.ErrCertificate.Error()
	case errors.Is(err, hass.ErrAuthInvalid):
		return http.StatusBadGateway, hass.ErrAuthInvalid.Error()
	}
	return http.StatusInternalServerError, errInternal
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

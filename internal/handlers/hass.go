package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Live connection status
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  hass.Status
// @Router       /api/ha/status [get]
func (h *Handler) haStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Status(c.Request.Context()))
}

// @Summary      All entity states
// @Description  Served from the live cache; polls the controller first when not streaming.
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.EntityState
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/ha/states [get]
func (h *Handler) haStates(c *gin.Context) {
	states, err := h.services.States(c.Request.Context())
	if err != nil {
		h.respondError(c, "ha_states_failed", err)
		return
	}
	c.JSON(http.StatusOK, states)
}

// @Summary      One entity state
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Param        entity_id  path      string  true  "Entity ID"
// @Success      200        {object}  models.EntityState
// @Failure      400        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /api/ha/states/{entity_id} [get]
func (h *Handler) haState(c *gin.Context) {
	id := c.Param("entity_id")
	st, err := h.services.State(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "ha_state_failed", err, "entity_id", id)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Poll the controller once
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  hass.Status
// @Failure      502  {object}  map[string]string
// @Router       /api/ha/refresh [post]
func (h *Handler) haRefresh(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Refresh(ctx); err != nil {
		h.respondError(c, "ha_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.services.Status(ctx))
}

// @Summary      Open the live connection
// @Description  On failure the service falls back to one poll; the error is reported in status.
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  hass.Status
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/ha/connect [post]
func (h *Handler) haConnect(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Connect(ctx); err != nil {
		h.respondError(c, "ha_connect_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.services.Status(ctx))
}

// @Summary      Close the live connection
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  hass.Status
// @Router       /api/ha/disconnect [post]
func (h *Handler) haDisconnect(c *gin.Context) {
	if err := h.services.Disconnect(); err != nil {
		h.respondError(c, "ha_disconnect_failed", err)
		return
	}
	c.JSON(http.StatusOK, h.services.Status(c.Request.Context()))
}

// @Summary      Call a controller service
// @Tags         ha
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        domain   path      string                  true   "Service domain"
// @Param        service  path      string                  true   "Service name"
// @Param        body     body      map[string]interface{}  false  "Service data"
// @Success      200      {array}   models.EntityState
// @Failure      400      {object}  map[string]string
// @Failure      502      {object}  map[string]string
// @Router       /api/ha/services/{domain}/{service} [post]
func (h *Handler) haCallService(c *gin.Context) {
	domain, svc := c.Param("domain"), c.Param("service")

	payload := map[string]any{}
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidBodyPref+err.Error(), "ha_service_bad_body", err)
		return
	}

	out, err := h.services.CallService(c.Request.Context(), domain, svc, payload)
	if err != nil {
		h.respondError(c, "ha_service_call_failed", err, "domain", domain, "service", svc)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

// @Summary      Automation entities
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.EntityState
// @Router       /api/ha/automations [get]
func (h *Handler) haAutomations(c *gin.Context) {
	list, err := h.services.Automations(c.Request.Context())
	if err != nil {
		h.respondError(c, "ha_automations_failed", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Trigger, enable, disable or toggle an automation
// @Tags         ha
// @Produce      json
// @Security     BearerAuth
// @Param        entity_id  path      string  true  "Automation entity ID"
// @Param        action     path      string  true  "trigger | turn_on | turn_off | toggle"
// @Success      200        {array}   models.EntityState
// @Failure      400        {object}  map[string]string
// @Router       /api/ha/automations/{entity_id}/{action} [post]
func (h *Handler) haControlAutomation(c *gin.Context) {
	id, action := c.Param("entity_id"), c.Param("action")
	out, err := h.services.ControlAutomation(c.Request.Context(), id, action)
	if err != nil {
		h.respondError(c, "ha_automation_control_failed", err, "entity_id", id, "action", action)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", out)
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"stable_dashboard/internal/models"
	"stable_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// threshold accepts both "75" and 75 in request bodies.
type threshold string

func (t *threshold) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = threshold(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("threshold must be a string or a number")
	}
	*t = threshold(n.String())
	return nil
}

// alertRuleRequest is the body for creating or updating an alert rule.
type alertRuleRequest struct {
	EntityID  string    `json:"entity_id"`
	Name      string    `json:"name"`
	Condition string    `json:"condition"`
	Threshold threshold `json:"threshold" swaggertype:"string"`
	Enabled   *bool     `json:"enabled"`
}

func (r alertRuleRequest) input() service.RuleInput {
	return service.RuleInput{
		EntityID:  r.EntityID,
		Name:      r.Name,
		Condition: r.Condition,
		Threshold: string(r.Threshold),
		Enabled:   r.Enabled,
	}
}

// @Summary      List alert rules
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.AlertRule
// @Failure      500  {object}  map[string]string
// @Router       /api/alerts [get]
func (h *Handler) listAlerts(c *gin.Context) {
	rules, err := h.services.ListRules(c.Request.Context())
	if err != nil {
		h.respondError(c, "alerts_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary      Create an alert rule
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      alertRuleRequest  true  "Rule"
// @Success      201   {object}  models.AlertRule
// @Failure      400   {object}  map[string]string
// @Router       /api/alerts [post]
func (h *Handler) createAlert(c *gin.Context) {
	var req alertRuleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	rule, err := h.services.CreateRule(c.Request.Context(), req.input())
	if err != nil {
		h.respondError(c, "alerts_create_failed", err, "entity_id", req.EntityID)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// @Summary      Update an alert rule
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Rule ID"
// @Param        body  body      alertRuleRequest  true  "Rule"
// @Success      200   {object}  models.AlertRule
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/alerts/{id} [put]
func (h *Handler) updateAlert(c *gin.Context) {
	var req alertRuleRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	id := c.Param("id")
	rule, err := h.services.UpdateRule(c.Request.Context(), id, req.input())
	if err != nil {
		h.respondError(c, "alerts_update_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary      Delete an alert rule
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/alerts/{id} [delete]
func (h *Handler) deleteAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.DeleteRule(c.Request.Context(), id); err != nil {
		h.respondError(c, "alerts_delete_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted})
}

// @Summary      List alert history, newest first
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max records (default 50, max 500)"
// @Success      200    {array}   models.AlertHistoryRecord
// @Failure      400    {object}  map[string]string
// @Router       /api/alerts/history [get]
func (h *Handler) alertHistory(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			h.logAndJSONError(c, http.StatusBadRequest, "invalid limit", "alerts_history_bad_limit", err, "limit", s)
			return
		}
		limit = v
	}

	records, err := h.services.History(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, "alerts_history_failed", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// @Summary      Evaluate enabled rules against cached entity states
// @Description  Returns {"count": n, "triggered": [...]} where triggered holds only the
// @Description  rules that transitioned to triggered in this pass.
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/alerts/check [post]
func (h *Handler) checkAlerts(c *gin.Context) {
	triggered, err := h.services.Check(c.Request.Context())
	if err != nil {
		h.respondError(c, "alerts_check_failed", err)
		return
	}
	if triggered == nil {
		triggered = []models.TriggeredAlert{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(triggered), "triggered": triggered})
}

// @Summary      Forget trigger state so every rule can fire again
// @Tags         alerts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /api/alerts/reset [post]
func (h *Handler) resetAlertStates(c *gin.Context) {
	h.services.ResetStates()
	c.JSON(http.StatusOK, gin.H{"status": statusReset})
}

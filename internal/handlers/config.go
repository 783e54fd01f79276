package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// @Summary      Controller credential status
// @Tags         config
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.TokenStatus
// @Router       /api/config/token [get]
func (h *Handler) getTokenStatus(c *gin.Context) {
	st, err := h.services.TokenStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, "config_token_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Store controller URL and token
// @Description  Reconnects the live link with the new credentials.
// @Tags         config
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      tokenRequest  true  "URL and long-lived token"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /api/config/token [post]
func (h *Handler) saveToken(c *gin.Context) {
	var req tokenRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	if err := h.services.SaveCredentials(c.Request.Context(), req.URL, req.Token); err != nil {
		h.respondError(c, "config_token_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSaved})
}

// @Summary      Remove stored controller credentials
// @Description  Only credentials saved through this API are removed. When ha.url and ha.token
// @Description  are set in config the link stays configured; the response reports that via
// @Description  "configured" and "source".
// @Tags         config
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /api/config/token [delete]
func (h *Handler) deleteToken(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.ClearCredentials(ctx); err != nil {
		h.respondError(c, "config_token_delete_failed", err)
		return
	}
	resp := gin.H{"status": statusDeleted}
	if st, err := h.services.TokenStatus(ctx); err == nil {
		resp["configured"] = st.Configured
		resp["source"] = st.Source
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Effective controller URL
// @Tags         config
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /api/config/ha_url [get]
func (h *Handler) getHAURL(c *gin.Context) {
	u, err := h.services.URL(c.Request.Context())
	if err != nil {
		h.respondError(c, "config_url_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}

// @Summary      Effective controller token
// @Tags         config
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /api/config/ha_token [get]
func (h *Handler) getHAToken(c *gin.Context) {
	tok, err := h.services.Token(c.Request.Context())
	if err != nil {
		h.respondError(c, "config_token_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok})
}

// @Summary      Direct websocket settings for the browser
// @Tags         config
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.WebSocketConfig
// @Router       /api/config/websocket [get]
func (h *Handler) getWebSocketConfig(c *gin.Context) {
	cfg, err := h.services.WebSocketConfig(c.Request.Context())
	if err != nil {
		h.respondError(c, "config_websocket_failed", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

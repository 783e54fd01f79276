package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userCtxKey = "userId"

func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	h.authorize(c, parts[1])
}

// wsAuthMiddleware accepts either the Authorization header or ?access_token=.
func (h *Handler) wsAuthMiddleware(c *gin.Context) {
	if tok := c.Query("access_token"); tok != "" {
		h.authorize(c, tok)
		return
	}
	h.userIdMiddleware(c)
}

func (h *Handler) authorize(c *gin.Context, token string) {
	userId, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(userCtxKey, userId)
	c.Next()
}

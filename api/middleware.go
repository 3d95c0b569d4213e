package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gastroflow/ledger"
	"github.com/gastroflow/ledger/auth"
	"github.com/gastroflow/ledger/user"
)

const principalKey = "principal"

// RequireAuth verifies the bearer token and stores the principal in the gin
// context. The request context carries the caller as ledger actor.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			errorResponse(c, http.StatusUnauthorized, "authorization token required")
			c.Abort()
			return
		}

		p, err := h.tokens.Verify(tokenString)
		if err != nil {
			errorResponse(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(ledger.WithActor(c.Request.Context(), p.UserID))
		c.Next()
	}
}

// RequireRole admits principals holding one of roles. Admins always pass.
func (h *Handler) RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).Can(roles...) {
			errorResponse(c, http.StatusForbidden, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) auth.Principal {
	p, _ := c.Get(principalKey)
	pr, _ := p.(auth.Principal)
	return pr
}

// extractToken reads "Authorization: Bearer <token>", falling back to the
// access_token query parameter for websocket clients that cannot set headers.
func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("access_token")
}

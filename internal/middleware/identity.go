package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/requestdata"
)

// userIDHeader carries the authenticated user's id, set by the fronting
// auth proxy. The service trusts it; token validation happens upstream.
const userIDHeader = "X-User-ID"

// OptionalUser attaches request identity when the header is present and
// lets anonymous traffic through untouched.
func OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(userIDHeader)); uid != "" {
			ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: uid})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireUser rejects requests without an identity header.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userIDHeader))
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{
				"code":    "unauthorized",
				"message": "missing user identity",
			}})
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{UserID: uid})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

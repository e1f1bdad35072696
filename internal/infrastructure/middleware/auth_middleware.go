package middleware

import (
	"net/http"
	"strings"

	"meetgate/internal/core/domain"
	"meetgate/internal/core/ports"
	apperrors "meetgate/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Context keys set for downstream handlers.
const (
	ContextIdentityKey = "identity"
	ContextUserIDKey   = "user_id"
)

// AuthMiddleware verifies the session credential (HTTP-only cookie, or a
// Bearer header for non-browser clients) and binds the verified identity
// to the request context.
func AuthMiddleware(verifier ports.SessionVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := credentialFromRequest(c, cookieName)
		if credential == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"message": "authentication required"},
			})
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), credential)
		if err != nil {
			// Expired, revoked and invalid credentials carry distinct
			// messages; pass them through so clients can react.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"message": rejectionMessage(err)},
			})
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Set(ContextUserIDKey, identity.UID)
		c.Next()
	}
}

// CallerUID returns the verified caller set by AuthMiddleware.
func CallerUID(c *gin.Context) (domain.UserID, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", false
	}
	uid, ok := value.(domain.UserID)
	return uid, ok
}

func rejectionMessage(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return "invalid session credential"
}

func credentialFromRequest(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

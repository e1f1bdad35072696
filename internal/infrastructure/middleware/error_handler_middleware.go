package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "meetgate/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware maps errors attached to the gin context onto the
// gateway's JSON envelope. Every failure body is
// {success:false, error:{message}}; provider error codes and stack traces
// never reach the client in production.
func ErrorHandlerMiddleware(environment string, logger *zap.SugaredLogger) gin.HandlerFunc {
	production := environment == "production"

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		appErr := apperrors.GetAppError(err)
		if appErr != nil {
			logger.Errorw("request failed",
				"code", appErr.Code,
				"message", appErr.Message,
				"status", appErr.HTTPStatus,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			body := gin.H{
				"success": false,
				"error":   gin.H{"message": appErr.Message},
			}
			if !production && appErr.Cause != nil {
				body["debug"] = gin.H{
					"code":  string(appErr.Code),
					"cause": appErr.Cause.Error(),
				}
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logger.Errorw("unhandled error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)

		body := gin.H{
			"success": false,
			"error":   gin.H{"message": "internal server error"},
		}
		if !production {
			body["debug"] = gin.H{"cause": err.Error()}
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

// RecoveryMiddleware recovers from handler panics. Real-time handlers have
// their own boundary; this one covers the REST surface.
func RecoveryMiddleware(environment string, logger *zap.SugaredLogger) gin.HandlerFunc {
	production := environment == "production"

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("panic recovered",
					"panic", r,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"stack", string(debug.Stack()),
				)

				body := gin.H{
					"success": false,
					"error":   gin.H{"message": "internal server error"},
				}
				if !production {
					body["debug"] = gin.H{"panic": fmt.Sprint(r)}
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()

		c.Next()
	}
}

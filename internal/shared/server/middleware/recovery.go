package middleware

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"cvmatch-console/internal/shared/server/respond"
	"cvmatch-console/internal/shared/telemetry"
)

const panicMessage = "Unexpected server error"

// Recovery turns a handler panic into a 500. JSON clients get the error
// envelope; browsers get a plain page they can reload from.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			telemetry.Error("panic", map[string]any{
				"request_id": RequestIDFromContext(c),
				"route":      c.FullPath(),
				"method":     c.Request.Method,
				"error":      rec,
				"stack":      string(debug.Stack()),
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if strings.Contains(c.GetHeader("Accept"), "text/html") {
				c.Header("Content-Type", "text/plain; charset=utf-8")
				c.AbortWithStatus(http.StatusInternalServerError)
				_, _ = c.Writer.WriteString(panicMessage + "\n")
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", panicMessage, nil)
		}()
		c.Next()
	}
}

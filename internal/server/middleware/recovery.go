package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/dipex/internal/common"
)

// panicReply has the shape of handler.Response; handler imports this package, not the reverse.
type panicReply struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Recovery turns a panicking handler into a 500 with code INTERNAL_ERROR.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.ErrorContext(c.Request.Context(), "http.panic",
				"panic", r,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"correlation_id", GetCorrelationID(c),
				"stack", string(debug.Stack()),
			)

			var reply panicReply
			reply.Error.Code = common.CodeInternal
			reply.Error.Message = "internal error"
			reply.CorrelationID = GetCorrelationID(c)
			c.AbortWithStatusJSON(http.StatusInternalServerError, reply)
		}()
		c.Next()
	}
}

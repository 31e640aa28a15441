package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/keyword-chatbot/internal/common"
	"github.com/suPer8Hu/keyword-chatbot/internal/logger"
	"github.com/suPer8Hu/keyword-chatbot/internal/metrics"
)

// Recovery turns a panic into a logged 500 with the generic error body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				metrics.ObserveError("panic")
				log.Error("panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(RequestIDKey),
					"stack", string(debug.Stack()),
				)
				common.Fail(c, http.StatusInternalServerError, "Erro interno do servidor")
			}
		}()
		c.Next()
	}
}

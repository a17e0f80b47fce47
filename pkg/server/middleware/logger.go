package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbd54566975/dcc-verifier/internal/util"
)

// Logger logs request info before and after a handler runs, in the format
//
//	TraceID : (StatusCode) HTTPMethod Path -> IPAddr (latency)
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := trace.SpanContextFromContext(c.Request.Context()).TraceID().String()
		path := util.SanitizeLog(c.Request.URL.Path)

		logger.Debugf("%s : started : %s %s -> %s", traceID, c.Request.Method, path, c.ClientIP())

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"traceID": traceID,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		msg := "completed : " + c.Request.Method + " " + path + " -> " + c.ClientIP()
		if util.Is2xxResponse(c.Writer.Status()) {
			entry.Info(msg)
			return
		}
		entry.Warn(msg)
	}
}

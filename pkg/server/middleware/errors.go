package middleware

import (
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbd54566975/dcc-verifier/config"
	"github.com/tbd54566975/dcc-verifier/pkg/server/framework"
)

// Errors handles errors coming out of the call stack. Shutdown errors signal the server to stop,
// every other error is logged with the trace id of the request.
func Errors(shutdown chan os.Signal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		errs := c.Errors.ByType(gin.ErrorTypeAny)
		if len(errs) == 0 {
			return
		}

		tracer := trace.SpanFromContext(c.Request.Context()).TracerProvider().Tracer(config.ServiceName)
		_, span := tracer.Start(c.Request.Context(), "service.middleware.errors")
		defer span.End()

		for _, e := range errs {
			if framework.IsShutdown(e.Err) {
				logrus.WithError(e.Err).Error("unsafe error, shutting down")
				c.Set(framework.ShutdownErrorKey.String(), e.Err)
				if shutdown != nil {
					shutdown <- syscall.SIGTERM
				}
				return
			}
		}

		logrus.WithField("traceID", span.SpanContext().TraceID().String()).
			Errorf("request errors: %v", errs)

		// handlers that did not respond still owe the requester an answer
		if !c.Writer.Written() {
			framework.RespondError(c, errs.Last().Err)
		}
	}
}

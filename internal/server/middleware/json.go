package middleware

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"cmdrelay/internal/logging"
	"cmdrelay/internal/observability"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SessionHeader carries an optional client session id.
const SessionHeader = "X-Session-ID"

// JSONMiddleware rejects request bodies that are not JSON.
func JSONMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut || c.Request.Method == http.MethodPatch {
			if contentType := c.GetHeader("Content-Type"); contentType != "" {
				mediaType, _, err := mime.ParseMediaType(contentType)
				if err != nil || mediaType != "application/json" {
					c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
						"error": "Content-Type must be application/json",
					})
					return
				}
			}
		}
		c.Next()
	}
}

// SessionMiddleware copies the session header into the request context so
// logs and spans carry it.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader(SessionHeader); id != "" {
			ctx := observability.ContextWithSessionID(c.Request.Context(), id)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ObservabilityMiddleware wraps each request in a span and logs its latency.
func ObservabilityMiddleware(tracer *observability.TracerProvider, logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tracer.StartSpan(c.Request.Context(), observability.SpanHTTPServer,
			attribute.String("http.route", route),
			attribute.String("http.method", c.Request.Method),
		)
		if sc := span.SpanContext(); sc.HasTraceID() {
			ctx = observability.ContextWithTraceID(ctx, sc.TraceID().String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		var err error
		if status >= http.StatusInternalServerError {
			err = errors.New(http.StatusText(status))
		}
		observability.EndSpan(span, err)

		logging.FromContext(ctx, logger).Debug("route=%s method=%s status=%d latency_ms=%.2f bytes=%d",
			route, c.Request.Method, status,
			float64(time.Since(start).Microseconds())/1000.0, c.Writer.Size())
	}
}

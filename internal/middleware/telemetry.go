package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware traces HTTP requests using OpenTelemetry. The official
// otelgin middleware opens the span; the second handler runs inside it and
// adds the request id and any gin errors.
func TracingMiddleware(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(serviceName),
		spanEnricher,
	}
}

func spanEnricher(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if requestID := RequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}

	c.Next()

	if !span.IsRecording() {
		return
	}
	for _, ginErr := range c.Errors {
		if ginErr.Err != nil {
			span.RecordError(ginErr.Err)
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}

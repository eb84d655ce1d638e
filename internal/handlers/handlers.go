package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/dto"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/logger"
	"github.com/lingxijiao/backend/internal/metrics"
	"github.com/lingxijiao/backend/internal/middleware"
	"go.uber.org/zap"
)

// PostAPI is the post workflow behind /post/*. service.PostService implements it.
type PostAPI interface {
	Load(ctx context.Context, q *dto.PostQuery) ([]dto.Post, error)
	Create(ctx context.Context, req *dto.CreatePostRequest) error
	Reply(ctx context.Context, req *dto.ReplyRequest) error
}

// FeedbackAPI forwards feedback. service.FeedbackService implements it.
type FeedbackAPI interface {
	Submit(ctx context.Context, feedback string)
}

// HealthCheck reports whether the store is reachable
type HealthCheck func(ctx context.Context) error

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	posts    PostAPI
	feedback FeedbackAPI
	health   HealthCheck
	log      *zap.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(posts PostAPI, feedback FeedbackAPI, health HealthCheck, log *zap.Logger) *Handlers {
	return &Handlers{
		posts:    posts,
		feedback: feedback,
		health:   health,
		log:      log,
	}
}

// respondError writes the error-code array for err. Anything that is not a
// client rejection is logged with the request and collapses to
// ["unexpected_server_error"].
func (h *Handlers) respondError(c *gin.Context, err error, body any) {
	status := apperrors.StatusOf(err)
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		metrics.RecordError("unexpected", c.FullPath())
		h.log.Error("Request failed",
			logger.WithRequestID(middleware.RequestID(c)),
			zap.String("path", c.FullPath()),
			zap.Any("body", redact(body)),
			zap.Error(err),
		)
		c.JSON(status, apperrors.Internal().Codes)
		return
	}
	c.JSON(status, apperrors.Codes(err))
}

// redact drops responder and poster addresses from logged bodies
func redact(body any) any {
	switch req := body.(type) {
	case *dto.CreatePostRequest:
		cp := *req
		cp.Email = "<redacted>"
		return cp
	case *dto.ReplyRequest:
		cp := *req
		cp.Email = "<redacted>"
		return cp
	default:
		return body
	}
}

// requestOrAbort fetches the typed body validated by middleware.RequestSchema.
// A missing body means the route was wired without the schema gate.
func requestOrAbort[T any](c *gin.Context) (*T, bool) {
	req, ok := middleware.Request[T](c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, apperrors.ParseError().Codes)
		return nil, false
	}
	return req, true
}

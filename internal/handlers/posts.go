package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/dto"
	"github.com/lingxijiao/backend/internal/logger"
	"github.com/lingxijiao/backend/internal/middleware"
	"go.uber.org/zap"
)

// LoadPosts returns a page of posts
// POST /post/load
func (h *Handlers) LoadPosts(c *gin.Context) {
	req, ok := requestOrAbort[dto.PostQuery](c)
	if !ok {
		return
	}

	posts, err := h.posts.Load(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, req)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost creates a post for the submitted email
// POST /post/create
func (h *Handlers) CreatePost(c *gin.Context) {
	req, ok := requestOrAbort[dto.CreatePostRequest](c)
	if !ok {
		return
	}

	if err := h.posts.Create(c.Request.Context(), req); err != nil {
		h.respondError(c, err, req)
		return
	}
	c.Status(http.StatusOK)
}

// ReplyPost answers a post's questions and notifies the poster
// POST /post/reply
func (h *Handlers) ReplyPost(c *gin.Context) {
	req, ok := requestOrAbort[dto.ReplyRequest](c)
	if !ok {
		return
	}

	if err := h.posts.Reply(c.Request.Context(), req); err != nil {
		h.respondError(c, err, req)
		return
	}
	c.Status(http.StatusOK)
}

// SubmitFeedback forwards feedback to the operator; it always succeeds
// POST /feedback
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	req, ok := requestOrAbort[dto.FeedbackRequest](c)
	if !ok {
		return
	}

	h.feedback.Submit(c.Request.Context(), req.Feedback)
	c.Status(http.StatusOK)
}

// Health reports store connectivity
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "service": "lingxijiao"}
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Error("Health check failed",
				logger.WithRequestID(middleware.RequestID(c)),
				zap.Error(err),
			)
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
		}
	}
	c.JSON(status, body)
}

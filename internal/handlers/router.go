package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/lingxijiao/backend/internal/dto"
	"github.com/lingxijiao/backend/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig selects the optional router features
type RouterConfig struct {
	// RateLimit throttles clients; nil disables throttling
	RateLimit gin.HandlerFunc
	// Tracing is the otelgin chain; empty disables tracing
	Tracing gin.HandlersChain
	// UIDistPath serves the built single page app when set
	UIDistPath string
	Logger     *zap.Logger
}

// Schemas lists the request body of every API route
func Schemas() middleware.Schemas {
	return middleware.Schemas{
		"/post/load":   func() any { return &dto.PostQuery{} },
		"/post/create": func() any { return &dto.CreatePostRequest{} },
		"/post/reply":  func() any { return &dto.ReplyRequest{} },
		"/feedback":    func() any { return &dto.FeedbackRequest{} },
	}
}

// NewRouter wires middleware and routes
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if len(cfg.Tracing) > 0 {
		r.Use(cfg.Tracing...)
	}
	r.Use(middleware.GinLoggerMiddleware(cfg.Logger))
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept-Language", "X-Request-ID"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}
	r.Use(middleware.LocaleMiddleware())
	r.Use(middleware.RequestSchema(Schemas()))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	post := r.Group("/post")
	{
		post.POST("/load", h.LoadPosts)
		post.POST("/create", h.CreatePost)
		post.POST("/reply", h.ReplyPost)
	}
	r.POST("/feedback", h.SubmitFeedback)

	if cfg.UIDistPath != "" {
		r.NoRoute(spaHandler(cfg.UIDistPath))
	}
	return r
}

// spaHandler serves files from dir and falls back to index.html so client
// side routes resolve.
func spaHandler(dir string) gin.HandlerFunc {
	index := filepath.Join(dir, "index.html")
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		rel := filepath.FromSlash(strings.TrimPrefix(filepath.Clean("/"+c.Request.URL.Path), "/"))
		if rel != "" {
			path := filepath.Join(dir, rel)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				c.File(path)
				return
			}
		}
		c.File(index)
	}
}

// Package kernel holds the explicitly constructed application dependencies.
// Nothing below it reads the environment; everything is handed down from here.
package kernel

import (
	"context"
	"errors"
	"sync"

	"github.com/lingxijiao/backend/internal/cache"
	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/email"
	"github.com/lingxijiao/backend/internal/repository"
	"github.com/lingxijiao/backend/internal/search"
	"github.com/lingxijiao/backend/internal/service"
	"github.com/lingxijiao/backend/internal/tokenizer"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kernel holds all application dependencies and their shutdown hooks
type Kernel struct {
	// Core infrastructure
	config *config.Config
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient

	// Optional backends
	search *search.Client
	sender email.Sender

	tokenizer tokenizer.Tokenizer
	users     repository.UserRepository
	posts     repository.PostRepository

	postService     *service.PostService
	feedbackService *service.FeedbackService

	// Lifecycle hooks, run in reverse order
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty kernel.
// Services should be registered using Set* methods.
func New() *Kernel {
	return &Kernel{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// SetConfig registers the loaded configuration
func (k *Kernel) SetConfig(cfg *config.Config) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.config = cfg
	return k
}

// Config returns the configuration
func (k *Kernel) Config() *config.Config {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.config
}

// SetDB registers the database connection
func (k *Kernel) SetDB(db *gorm.DB) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.db = db
	return k
}

// DB returns the database connection
func (k *Kernel) DB() *gorm.DB {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.db
}

// SetLogger registers the logger
func (k *Kernel) SetLogger(l *zap.Logger) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.logger = l
	return k
}

// Logger returns the logger, or a no-op logger when none is registered
func (k *Kernel) Logger() *zap.Logger {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.logger == nil {
		return zap.NewNop()
	}
	return k.logger
}

// SetCache registers the Redis client
func (k *Kernel) SetCache(client *cache.RedisClient) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cache = client
	return k
}

// Cache returns the Redis client; nil when Redis is not configured
func (k *Kernel) Cache() *cache.RedisClient {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.cache
}

// SetSearchClient registers the Elasticsearch client
func (k *Kernel) SetSearchClient(client *search.Client) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.search = client
	return k
}

// Search returns the Elasticsearch client; nil when search is disabled
func (k *Kernel) Search() *search.Client {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.search
}

// SetSender registers the mail sender
func (k *Kernel) SetSender(sender email.Sender) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sender = sender
	return k
}

// Sender returns the mail sender
func (k *Kernel) Sender() email.Sender {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.sender
}

// SetTokenizer registers the shared segmenter
func (k *Kernel) SetTokenizer(t tokenizer.Tokenizer) *Kernel {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.tokenizer = t
	return k
}

// Tokenizer returns the shared segmenter
func (k *Kernel) Tokenizer() tokenizer.Tokenizer {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.tokenizer
}

// Users returns the user repository
func (k *Kernel) Users() repository.UserRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.users
}

// Posts returns the post repository
func (k *Kernel) Posts() repository.PostRepository {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.posts
}

// PostService returns the post workflow service
func (k *Kernel) PostService() *service.PostService {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.postService
}

// FeedbackService returns the feedback service
func (k *Kernel) FeedbackService() *service.FeedbackService {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.feedbackService
}

// Wire builds the repositories and services from the registered
// infrastructure. It must run after the database, sender and tokenizer are set.
func (k *Kernel) Wire() error {
	if err := k.Validate(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.users = repository.NewUserRepository(k.db)
	k.posts = repository.NewPostRepository(k.db)

	var index service.SearchIndex
	if k.search != nil {
		index = k.search
	}
	limits := config.DefaultLimits()
	operator := ""
	if k.config != nil {
		limits = k.config.Limits
		operator = k.config.Mail.FromAddress
	}

	log := k.logger
	if log == nil {
		log = zap.NewNop()
	}
	k.postService = service.NewPostService(service.PostServiceConfig{
		Users:     k.users,
		Posts:     k.posts,
		Tokenizer: k.tokenizer,
		Search:    index,
		Sender:    k.sender,
		Limits:    limits,
		Logger:    log.Named("posts"),
	})
	k.feedbackService = service.NewFeedbackService(k.sender, operator, log.Named("feedback"))
	return nil
}

// OnShutdown registers a cleanup function
func (k *Kernel) OnShutdown(fn func(context.Context) error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cleanupFuncs = append(k.cleanupFuncs, fn)
}

// Shutdown waits for in-flight background mail and runs the cleanup
// functions in reverse registration order. Every function runs; their
// errors are joined.
func (k *Kernel) Shutdown(ctx context.Context) error {
	if fs := k.FeedbackService(); fs != nil {
		fs.Wait()
	}

	k.mu.Lock()
	funcs := k.cleanupFuncs
	k.cleanupFuncs = nil
	k.mu.Unlock()

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		if err := funcs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate checks that all required dependencies are registered
func (k *Kernel) Validate() error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	missingDeps := []string{}
	if k.db == nil {
		missingDeps = append(missingDeps, "database (DB)")
	}
	if k.sender == nil {
		missingDeps = append(missingDeps, "mail sender")
	}
	if k.tokenizer == nil {
		missingDeps = append(missingDeps, "tokenizer")
	}

	if len(missingDeps) > 0 {
		return NewInitializationError("Missing required dependencies", missingDeps)
	}
	return nil
}

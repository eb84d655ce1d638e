// Package service implements the post, reply and feedback workflows on top
// of the repositories, the search index and the mail sender.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/dto"
	"github.com/lingxijiao/backend/internal/email"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/i18n"
	"github.com/lingxijiao/backend/internal/logger"
	"github.com/lingxijiao/backend/internal/metrics"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/repository"
	"github.com/lingxijiao/backend/internal/search"
	"github.com/lingxijiao/backend/internal/telemetry"
	"github.com/lingxijiao/backend/internal/tokenizer"
	"github.com/lingxijiao/backend/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// sideEffectTimeout bounds the mail send and writes of an accepted reply
const sideEffectTimeout = 30 * time.Second

// SearchIndex is the optional external keyword index. search.Client
// implements it.
type SearchIndex interface {
	IndexPost(ctx context.Context, doc search.PostSearchDoc) error
	SearchPostIDs(ctx context.Context, q search.PostQuery) ([]string, error)
}

// PostServiceConfig carries the dependencies of PostService. Search may be nil.
type PostServiceConfig struct {
	Users     repository.UserRepository
	Posts     repository.PostRepository
	Tokenizer tokenizer.Tokenizer
	Search    SearchIndex
	Sender    email.Sender
	Limits    config.Limits
	Logger    *zap.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// PostService implements loading, creating and replying to posts
type PostService struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	tokens tokenizer.Tokenizer
	search SearchIndex
	sender email.Sender
	rules  *validation.Rules
	limits config.Limits
	log    *zap.Logger
	now    func() time.Time
}

// NewPostService creates a PostService
func NewPostService(cfg PostServiceConfig) *PostService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{
		users:  cfg.Users,
		posts:  cfg.Posts,
		tokens: cfg.Tokenizer,
		search: cfg.Search,
		sender: cfg.Sender,
		rules:  validation.NewRules(cfg.Limits),
		limits: cfg.Limits,
		log:    log,
		now:    now,
	}
}

func (s *PostService) reject(operation string, codes ...apperrors.ErrorCode) error {
	for _, code := range codes {
		metrics.RecordRejection(operation, string(code))
	}
	return apperrors.BadRequest(codes...)
}

// Load returns up to PostNumber posts of the requested gender created
// strictly before the cursor, newest first. A keyword restricts results to
// posts sharing at least one token with it.
func (s *PostService) Load(ctx context.Context, q *dto.PostQuery) (posts []dto.Post, err error) {
	ctx, span := telemetry.StartSpan(ctx, "post.load",
		attribute.String("post.gender", q.Gender),
		attribute.Bool("post.keyword", q.SearchKeyword != ""),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	now := s.now()
	filter := repository.PostFilter{
		Gender: models.Gender(q.Gender),
		Before: now,
		Limit:  q.PostNumber,
	}
	if q.StartTimestamp > 0 {
		filter.Before = time.UnixMilli(q.StartTimestamp)
	}
	if filter.Limit < 1 {
		filter.Limit = 1
	}
	if filter.Limit > s.limits.MaxPostsPerLoad {
		filter.Limit = s.limits.MaxPostsPerLoad
	}

	var found []models.Post
	if keyword := strings.TrimSpace(q.SearchKeyword); keyword != "" {
		filter.Tokens = s.tokens.Tokens(keyword)
		if len(filter.Tokens) == 0 {
			return []dto.Post{}, nil
		}
		found, err = s.searchPosts(ctx, filter)
	} else {
		found, err = s.posts.ListPosts(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	metrics.Get().PostsLoadedTotal.WithLabelValues(q.Gender).Add(float64(len(found)))
	return dto.NewPosts(found, now), nil
}

// searchPosts asks the external index first and falls back to the token
// table when it is absent or failing.
func (s *PostService) searchPosts(ctx context.Context, filter repository.PostFilter) ([]models.Post, error) {
	if s.search != nil {
		start := time.Now()
		ids, err := s.search.SearchPostIDs(ctx, search.PostQuery{
			Gender: filter.Gender,
			Before: filter.Before,
			Limit:  filter.Limit,
			Tokens: filter.Tokens,
		})
		metrics.RecordSearch("elasticsearch", time.Since(start), err)
		if err == nil {
			return s.posts.GetPosts(ctx, ids)
		}
		s.log.Warn("Elasticsearch search failed, falling back to database", zap.Error(err))
	}

	start := time.Now()
	posts, err := s.posts.ListPosts(ctx, filter)
	metrics.RecordSearch("database", time.Since(start), err)
	return posts, err
}

// Create validates and stores a new post for the author identified by email.
func (s *PostService) Create(ctx context.Context, req *dto.CreatePostRequest) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "post.create")
	defer func() { telemetry.EndSpan(span, err) }()

	if codes := s.rules.CreatePost(req); len(codes) > 0 {
		return s.reject("create", codes...)
	}

	now := s.now().UTC()
	emailAddr := validation.NormalizeEmail(req.Email)
	gender := models.Gender(req.Gender)
	birthYear := models.BirthYearFromAge(*req.Age, now)

	user, _, err := s.users.FindOrCreate(ctx, emailAddr, gender, birthYear)
	if err != nil {
		return fmt.Errorf("failed to resolve poster: %w", err)
	}

	count, err := s.users.CountPostsSince(ctx, user.ID, now.Add(-s.limits.Period()))
	if err != nil {
		return fmt.Errorf("failed to count recent posts: %w", err)
	}
	if count >= int64(s.limits.MaxPostsPerPeriod) {
		return s.reject("create", apperrors.ErrExceedPostCreationLimit)
	}

	post := &models.Post{
		PosterID:  user.ID,
		Questions: models.StringList(validation.CleanQuestions(req.Questions, s.limits.DefaultQuestion)),
		Gender:    gender,
		BirthYear: birthYear,
		Location:  strings.TrimSpace(req.Location),
		CreatedAt: now,
	}
	for i, n := range req.Narrations {
		post.Narrations = append(post.Narrations, models.PostNarration{
			Position: i,
			Label:    strings.TrimSpace(n.Label),
			Content:  strings.TrimSpace(n.Content),
		})
	}
	tokens := IndexTokens(s.tokens, post)

	if err := s.posts.Create(ctx, post, tokens); err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	metrics.Get().PostsCreatedTotal.Inc()
	span.SetAttributes(attribute.String("post.id", post.ID))

	if s.search != nil {
		if err := s.search.IndexPost(ctx, search.PostToSearchDoc(post, tokens)); err != nil {
			s.log.Warn("Failed to index post in Elasticsearch", logger.WithPostID(post.ID), zap.Error(err))
		}
	}

	s.log.Info("Post created", logger.WithPostID(post.ID), logger.WithUserID(user.ID))
	return nil
}

// Reply records a response to a post and notifies the poster by email.
// Mail failures are logged and never undo the reply.
func (s *PostService) Reply(ctx context.Context, req *dto.ReplyRequest) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "post.reply", attribute.String("post.id", req.PostID))
	defer func() { telemetry.EndSpan(span, err) }()

	if codes := s.rules.Reply(req); len(codes) > 0 {
		return s.reject("reply", codes...)
	}

	post, err := s.posts.GetPost(ctx, req.PostID)
	if errors.Is(err, repository.ErrPostNotFound) {
		return fmt.Errorf("reply to unknown post %q: %w", req.PostID, apperrors.ErrIntegrity)
	}
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}
	if post.Poster == nil {
		return fmt.Errorf("post %q has no poster: %w", post.ID, apperrors.ErrIntegrity)
	}
	if len(req.QuestionAndAnswers) != len(post.Questions) {
		return s.reject("reply", apperrors.ErrParsingRequest)
	}

	now := s.now().UTC()
	emailAddr := validation.NormalizeEmail(req.Email)
	gender := models.Gender(req.Gender)

	responder, _, err := s.users.FindOrCreate(ctx, emailAddr, gender, models.BirthYearFromAge(*req.Age, now))
	if err != nil {
		return fmt.Errorf("failed to resolve responder: %w", err)
	}

	responded, err := s.users.HasResponded(ctx, responder.ID, post.ID)
	if err != nil {
		return fmt.Errorf("failed to check responded posts: %w", err)
	}
	if responded {
		return s.reject("reply", apperrors.ErrPostResponded)
	}

	count, err := s.users.CountResponsesSince(ctx, responder.ID, now.Add(-s.limits.Period()))
	if err != nil {
		return fmt.Errorf("failed to count recent responses: %w", err)
	}
	if count >= int64(s.limits.MaxResponsesPerPeriod) {
		return s.reject("reply", apperrors.ErrExceedResponseLimit)
	}

	// The reply is accepted; finish it even if the client goes away.
	effectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	location := strings.TrimSpace(req.Location)
	s.notifyPoster(effectCtx, post, req, emailAddr, gender, location)

	answers := make([]string, len(req.QuestionAndAnswers))
	for i, qa := range req.QuestionAndAnswers {
		answers[i] = strings.TrimSpace(qa.Answer)
	}
	response := &models.PostResponse{
		PostID:      post.ID,
		ResponderID: responder.ID,
		Location:    location,
		Answers:     models.StringList(answers),
		CreatedAt:   now,
	}
	if err := s.posts.AddResponse(effectCtx, response); err != nil {
		if errors.Is(err, repository.ErrAlreadyResponded) {
			return s.reject("reply", apperrors.ErrPostResponded)
		}
		return fmt.Errorf("failed to record response: %w", err)
	}

	metrics.Get().RepliesTotal.Inc()
	s.log.Info("Reply recorded", logger.WithPostID(post.ID), logger.WithUserID(responder.ID))
	return nil
}

func (s *PostService) notifyPoster(ctx context.Context, post *models.Post, req *dto.ReplyRequest, responderEmail string, gender models.Gender, location string) {
	notification := email.ResponseNotification{
		PosterEmail:    post.Poster.Email,
		ResponderEmail: responderEmail,
		Gender:         gender,
		Age:            *req.Age,
		Location:       location,
	}
	// Questions come from the stored post; the count was checked against it
	for i, qa := range req.QuestionAndAnswers {
		notification.Answers = append(notification.Answers, email.QuestionAnswer{
			Question: post.Questions[i],
			Answer:   strings.TrimSpace(qa.Answer),
		})
	}
	for _, n := range post.Narrations {
		notification.Narrations = append(notification.Narrations, email.Narration{Label: n.Label, Content: n.Content})
	}

	msg, err := email.RenderResponseNotification(i18n.FromContext(ctx), notification)
	if err == nil {
		err = s.sender.Send(ctx, msg)
	}
	metrics.RecordEmail(metrics.EmailResponse, err)
	if err != nil {
		s.log.Error("Failed to send response notification",
			logger.WithPostID(post.ID),
			zap.Error(err),
		)
	}
}

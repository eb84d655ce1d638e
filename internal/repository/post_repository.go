package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingxijiao/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter selects a page of posts for the listing endpoint
type PostFilter struct {
	Gender models.Gender
	// Before is the exclusive upper bound on created_at
	Before time.Time
	Limit  int
	// Tokens, when non-empty, restricts results to posts indexed under at
	// least one of them
	Tokens []string
}

// PostRepository handles all database operations for posts and replies
type PostRepository interface {
	// Create inserts the post with its narrations and search tokens atomically
	Create(ctx context.Context, post *models.Post, tokens []string) error
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	// GetPosts loads posts by id, preserving the order of postIDs and
	// silently skipping ids that no longer exist
	GetPosts(ctx context.Context, postIDs []string) ([]models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error)

	// AddResponse appends a response and records the post in the responder's
	// respondedPosts. Returns ErrAlreadyResponded if the pair already exists.
	AddResponse(ctx context.Context, response *models.PostResponse) error

	// ReplaceTokens rewrites narration tokens and the post's index entries
	ReplaceTokens(ctx context.Context, post *models.Post, tokens []string) error
	// EachBatch walks every post (narrations preloaded) in primary key order
	EachBatch(ctx context.Context, batchSize int, fn func(posts []models.Post) error) error
	GetTotalPostCount(ctx context.Context) (int64, error)
}

// postRepository implements PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func orderedNarrations(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tokens []string) error {
	if post == nil || post.PosterID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Poster", "Responses", "Tokens").Create(post).Error; err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		return insertTokens(tx, post.ID, tokens)
	})
}

func insertTokens(tx *gorm.DB, postID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tokens))
	rows := make([]models.PostToken, 0, len(tokens))
	for _, token := range tokens {
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		rows = append(rows, models.PostToken{PostID: postID, Token: token})
	}
	if len(rows) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, 200).Error
	if err != nil {
		return fmt.Errorf("failed to index post tokens: %w", err)
	}
	return nil
}

func (r *postRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Poster").
		Preload("Narrations", orderedNarrations).
		Where("id = ?", postID).
		First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetPosts(ctx context.Context, postIDs []string) ([]models.Post, error) {
	if len(postIDs) == 0 {
		return []models.Post{}, nil
	}

	var found []models.Post
	err := r.db.WithContext(ctx).
		Preload("Narrations", orderedNarrations).
		Where("id IN ?", postIDs).
		Find(&found).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Post, len(found))
	for _, post := range found {
		byID[post.ID] = post
	}
	posts := make([]models.Post, 0, len(found))
	for _, id := range postIDs {
		if post, ok := byID[id]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *postRepository) ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	if filter.Limit <= 0 {
		return []models.Post{}, nil
	}

	query := r.db.WithContext(ctx).
		Preload("Narrations", orderedNarrations).
		Where("gender = ? AND created_at < ?", filter.Gender, filter.Before.UTC())

	if len(filter.Tokens) > 0 {
		matching := r.db.Model(&models.PostToken{}).
			Select("post_id").
			Where("token IN ?", filter.Tokens)
		query = query.Where("id IN (?)", matching)
	}

	var posts []models.Post
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) AddResponse(ctx context.Context, response *models.PostResponse) error {
	if response == nil || response.PostID == "" || response.ResponderID == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "responder_id"}},
			DoNothing: true,
		}).Create(response)
		if result.Error != nil {
			return fmt.Errorf("failed to create response: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyResponded
		}

		responded := models.RespondedPost{
			UserID:    response.ResponderID,
			PostID:    response.PostID,
			CreatedAt: response.CreatedAt,
		}
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&responded).Error
		if err != nil {
			return fmt.Errorf("failed to record responded post: %w", err)
		}
		return nil
	})
}

func (r *postRepository) ReplaceTokens(ctx context.Context, post *models.Post, tokens []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, narration := range post.Narrations {
			err := tx.Model(&models.PostNarration{}).
				Where("id = ?", narration.ID).
				Update("content_tokens", narration.ContentTokens).Error
			if err != nil {
				return fmt.Errorf("failed to update narration tokens: %w", err)
			}
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostToken{}).Error; err != nil {
			return fmt.Errorf("failed to clear post tokens: %w", err)
		}
		return insertTokens(tx, post.ID, tokens)
	})
}

func (r *postRepository) EachBatch(ctx context.Context, batchSize int, fn func(posts []models.Post) error) error {
	var batch []models.Post
	result := r.db.WithContext(ctx).
		Preload("Narrations", orderedNarrations).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

// GetTotalPostCount gets total post count
func (r *postRepository) GetTotalPostCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Count(&count).Error
	return count, err
}

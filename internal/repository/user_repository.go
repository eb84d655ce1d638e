package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles all database operations for users
type UserRepository interface {
	// FindOrCreate returns the user for email, inserting it with the given
	// profile if absent. Insert-if-absent is a single statement so concurrent
	// first posts from one address converge on the same row.
	FindOrCreate(ctx context.Context, email string, gender models.Gender, birthYear int) (*models.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CountPostsSince counts posts authored by userID created at or after since
	CountPostsSince(ctx context.Context, userID string, since time.Time) (int64, error)
	// HasResponded reports whether postID is in the user's respondedPosts
	HasResponded(ctx context.Context, userID, postID string) (bool, error)
	// CountResponsesSince counts distinct posts replied to at or after since
	CountResponsesSince(ctx context.Context, userID string, since time.Time) (int64, error)

	GetTotalUserCount(ctx context.Context) (int64, error)
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindOrCreate(ctx context.Context, email string, gender models.Gender, birthYear int) (*models.User, bool, error) {
	if email == "" {
		return nil, false, ErrInvalidInput
	}

	candidate := &models.User{
		Email:     email,
		Gender:    gender,
		BirthYear: birthYear,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(candidate)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to upsert user: %w", result.Error)
	}
	created := result.RowsAffected == 1

	user, err := r.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, false, fmt.Errorf("user %q missing after upsert: %w", email, apperrors.ErrIntegrity)
	}
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

// GetUserByEmail gets a user by (already normalized) email
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Limit(2).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	switch len(users) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("multiple users share email %q: %w", email, apperrors.ErrIntegrity)
	}
}

func (r *userRepository) CountPostsSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("poster_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&count).Error
	return count, err
}

func (r *userRepository) HasResponded(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RespondedPost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepository) CountResponsesSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RespondedPost{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&count).Error
	return count, err
}

// GetTotalUserCount gets total user count
func (r *userRepository) GetTotalUserCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Count(&count).Error
	return count, err
}

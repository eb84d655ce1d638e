package seed

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/database/dbtest"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/repository"
	"github.com/lingxijiao/backend/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedPosts(t *testing.T) {
	db := dbtest.New(t)
	seg, err := tokenizer.Default()
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	limits := config.DefaultLimits()
	s := NewSeeder(users, posts, seg, limits, 42, zap.NewNop())

	ids, err := s.SeedPosts(context.Background(), Options{Users: 3, Posts: 7, Prefix: "dev", Gender: models.GenderFemale})
	require.NoError(t, err)
	assert.Len(t, ids, 7)

	userCount, err := users.GetTotalUserCount(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, userCount)

	stored, err := posts.GetPosts(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, stored, 7)
	for _, p := range stored {
		assert.Equal(t, models.GenderFemale, p.Gender)
		assert.NotEmpty(t, p.Narrations)
		assert.LessOrEqual(t, len(p.Narrations), limits.MaxNarrations)
		assert.LessOrEqual(t, len(p.Questions), limits.MaxQuestions)
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Location), limits.MaxLocationChars)
		for _, n := range p.Narrations {
			assert.LessOrEqual(t, utf8.RuneCountInString(n.Content), limits.MaxNarrationChars)
			assert.NotEmpty(t, n.ContentTokens)
		}
	}

	user, err := users.GetUserByEmail(context.Background(), "dev-0@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.GenderFemale, user.Gender)
}

func TestSeedPostsRejectsBadOptions(t *testing.T) {
	s := NewSeeder(nil, nil, nil, config.DefaultLimits(), 1, nil)

	_, err := s.SeedPosts(context.Background(), Options{Users: 0, Posts: 1})
	assert.Error(t, err)

	_, err = s.SeedPosts(context.Background(), Options{Users: 1, Posts: 1, Gender: "other"})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "北京", truncate("北京市朝阳区", 2))
	assert.Equal(t, "abc", truncate(" abc ", 10))
	assert.Equal(t, "", truncate("abc", 0))
}

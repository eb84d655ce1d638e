// Package seed fills a development database with fake posts.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/lingxijiao/backend/internal/repository"
	"github.com/lingxijiao/backend/internal/service"
	"github.com/lingxijiao/backend/internal/tokenizer"
	"go.uber.org/zap"
)

// Options controls what SeedPosts generates
type Options struct {
	Users  int
	Posts  int
	// Prefix namespaces the generated addresses: <prefix>-<n>@example.com
	Prefix string
	// Gender fixes the gender of every post; empty picks at random
	Gender models.Gender
	// Spread is how far back creation times are scattered
	Spread time.Duration
}

// Seeder writes fake users and posts straight through the repositories.
// Creation limits do not apply.
type Seeder struct {
	users  repository.UserRepository
	posts  repository.PostRepository
	tokens tokenizer.Tokenizer
	limits config.Limits
	faker  *gofakeit.Faker
	log    *zap.Logger
	now    func() time.Time
}

// NewSeeder creates a seeder. A zero seed picks a random one.
func NewSeeder(users repository.UserRepository, posts repository.PostRepository, tok tokenizer.Tokenizer, limits config.Limits, seed uint64, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		users:  users,
		posts:  posts,
		tokens: tok,
		limits: limits,
		faker:  gofakeit.New(seed),
		log:    log,
		now:    time.Now,
	}
}

var narrationLabels = []string{"爱好", "性格", "工作", "理想型", "周末", "家乡"}

// SeedPosts creates opts.Users users and opts.Posts posts spread across them
// and returns the ids of the created posts.
func (s *Seeder) SeedPosts(ctx context.Context, opts Options) ([]string, error) {
	if opts.Users <= 0 || opts.Posts < 0 {
		return nil, fmt.Errorf("users must be positive and posts non-negative")
	}
	if opts.Gender != "" && !opts.Gender.Valid() {
		return nil, fmt.Errorf("invalid gender %q", opts.Gender)
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "seed"
	}
	spread := opts.Spread
	if spread <= 0 {
		spread = 30 * 24 * time.Hour
	}
	now := s.now().UTC()

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		gender := opts.Gender
		if gender == "" {
			gender = s.randomGender()
		}
		age := s.faker.IntRange(18, 45)
		addr := fmt.Sprintf("%s-%d@example.com", prefix, i)
		user, _, err := s.users.FindOrCreate(ctx, addr, gender, models.BirthYearFromAge(age, now))
		if err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", addr, err)
		}
		users = append(users, user)
	}
	s.log.Info("Seeded users", zap.Int("count", len(users)))

	ids := make([]string, 0, opts.Posts)
	for i := 0; i < opts.Posts; i++ {
		user := users[i%len(users)]
		post := s.fakePost(user, now.Add(-time.Duration(rand.Int64N(int64(spread)))))
		tokens := service.IndexTokens(s.tokens, post)
		if err := s.posts.Create(ctx, post, tokens); err != nil {
			return ids, fmt.Errorf("failed to seed post %d: %w", i, err)
		}
		ids = append(ids, post.ID)
	}
	s.log.Info("Seeded posts", zap.Int("count", len(ids)))
	return ids, nil
}

func (s *Seeder) randomGender() models.Gender {
	if s.faker.Bool() {
		return models.GenderMale
	}
	return models.GenderFemale
}

func (s *Seeder) fakePost(user *models.User, createdAt time.Time) *models.Post {
	post := &models.Post{
		PosterID:  user.ID,
		Gender:    user.Gender,
		BirthYear: user.BirthYear,
		Location:  truncate(s.faker.City(), s.limits.MaxLocationChars),
		CreatedAt: createdAt,
	}

	count := s.faker.IntRange(1, max(1, s.limits.MaxNarrations))
	for i := 0; i < count; i++ {
		post.Narrations = append(post.Narrations, models.PostNarration{
			Position: i,
			Label:    narrationLabels[i%len(narrationLabels)],
			Content:  truncate(s.faker.Sentence(8), s.limits.MaxNarrationChars),
		})
	}

	questions := make([]string, 0, s.limits.MaxQuestions)
	for i := s.faker.IntRange(0, s.limits.MaxQuestions); i > 0; i-- {
		q := strings.TrimSuffix(s.faker.Question(), "?")
		questions = append(questions, truncate(q, s.limits.MaxQuestionChars-1)+"?")
	}
	if s.limits.DefaultQuestion != "" && len(questions) < s.limits.MaxQuestions {
		questions = append([]string{s.limits.DefaultQuestion}, questions...)
	}
	post.Questions = models.StringList(questions)
	return post
}

// truncate cuts text to at most n runes
func truncate(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:n]))
}

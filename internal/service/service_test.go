package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/database/dbtest"
	"github.com/lingxijiao/backend/internal/dto"
	"github.com/lingxijiao/backend/internal/email/emailtest"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/repository"
	"github.com/lingxijiao/backend/internal/search"
	"github.com/lingxijiao/backend/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// clock is a manually advanced time source
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc    *PostService
	sender *emailtest.Recorder
	clock  *clock
	posts  repository.PostRepository
	users  repository.UserRepository
}

func newFixture(t *testing.T, limits config.Limits, index SearchIndex) *fixture {
	t.Helper()
	db := dbtest.New(t)
	seg, err := tokenizer.Default()
	require.NoError(t, err)

	f := &fixture{
		sender: &emailtest.Recorder{},
		clock:  &clock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)},
		posts:  repository.NewPostRepository(db),
		users:  repository.NewUserRepository(db),
	}
	f.svc = NewPostService(PostServiceConfig{
		Users:     f.users,
		Posts:     f.posts,
		Tokenizer: seg,
		Search:    index,
		Sender:    f.sender,
		Limits:    limits,
		Logger:    zap.NewNop(),
		Now:       f.clock.Now,
	})
	return f
}

func intPtr(v int) *int { return &v }

func createReq(emailAddr, gender string, contents ...string) *dto.CreatePostRequest {
	narrations := make([]dto.Narration, 0, len(contents))
	for i, content := range contents {
		narrations = append(narrations, dto.Narration{Label: fmt.Sprintf("L%d", i+1), Content: content})
	}
	return &dto.CreatePostRequest{
		Email:      emailAddr,
		Age:        intPtr(30),
		Gender:     gender,
		Narrations: narrations,
		Questions:  []string{"Q1"},
	}
}

// create stores a post and moves the clock past it
func (f *fixture) create(t *testing.T, req *dto.CreatePostRequest) {
	t.Helper()
	require.NoError(t, f.svc.Create(context.Background(), req))
	f.clock.Advance(time.Second)
}

func (f *fixture) load(t *testing.T, gender, keyword string) []dto.Post {
	t.Helper()
	posts, err := f.svc.Load(context.Background(), &dto.PostQuery{Gender: gender, SearchKeyword: keyword, PostNumber: 50})
	require.NoError(t, err)
	return posts
}

func replyReq(postID, emailAddr string, answers ...string) *dto.ReplyRequest {
	qas := make([]dto.QuestionAndAnswer, 0, len(answers))
	for _, a := range answers {
		qas = append(qas, dto.QuestionAndAnswer{Question: "Q1", Answer: a})
	}
	return &dto.ReplyRequest{
		PostID:             postID,
		Email:              emailAddr,
		Age:                intPtr(25),
		Gender:             "female",
		Location:           "上海",
		QuestionAndAnswers: qas,
	}
}

func assertCodes(t *testing.T, err error, codes ...apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusOf(err))
	assert.Equal(t, codes, apperrors.Codes(err))
}

func TestCreateThenLoadReturnsPostExactlyOnce(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	f.create(t, createReq("a@x.com", "male", "hello"))

	posts := f.load(t, "male", "")
	require.Len(t, posts, 1)
	assert.Empty(t, f.load(t, "female", ""))
}

func TestCreateRoundTrip(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	req := createReq("a@x.com", "female", "hello")
	req.Location = " 北京 "
	f.create(t, req)

	posts := f.load(t, "female", "")
	require.Len(t, posts, 1)
	got := posts[0]
	assert.Equal(t, []dto.Narration{{Label: "L1", Content: "hello"}}, got.Narrations)
	assert.Equal(t, []string{"Q1"}, got.Questions)
	assert.Equal(t, "female", got.Gender)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, "北京", got.Location)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(), got.CreationTimestamp)
	assert.NotEmpty(t, got.PostID)
}

func TestCreateRejectsOverPostLimit(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxPostsPerPeriod = 1
	f := newFixture(t, limits, nil)

	f.create(t, createReq("a@x.com", "male", "foo"))

	err := f.svc.Create(context.Background(), createReq("a@x.com", "male", "something else"))
	assertCodes(t, err, apperrors.ErrExceedPostCreationLimit)

	posts := f.load(t, "male", "")
	require.Len(t, posts, 1)
	assert.Equal(t, "foo", posts[0].Narrations[0].Content)
}

func TestCreateLimitWindowSlides(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxPostsPerPeriod = 1
	f := newFixture(t, limits, nil)

	f.create(t, createReq("a@x.com", "male", "foo"))
	f.clock.Advance(limits.Period())
	assert.NoError(t, f.svc.Create(context.Background(), createReq("A@X.com", "male", "bar")))
}

func TestCreateCollectsValidationErrors(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	req := createReq("bad", "male", " ", strings.Repeat("x", 41))
	req.Age = intPtr(-3)

	err := f.svc.Create(context.Background(), req)
	assertCodes(t, err,
		apperrors.ErrInvalidEmail,
		apperrors.ErrInvalidAge,
		apperrors.ErrEmptyNarration,
		apperrors.ErrExceedMaxNarrationChars,
	)
	assert.Empty(t, f.load(t, "male", ""))
}

func TestCreateAppliesDefaultQuestion(t *testing.T) {
	limits := config.DefaultLimits()
	limits.DefaultQuestion = "你为什么想认识我?"
	f := newFixture(t, limits, nil)

	req := createReq("a@x.com", "male", "hello")
	req.Questions = []string{"", " Q1 "}
	f.create(t, req)

	posts := f.load(t, "male", "")
	require.Len(t, posts, 1)
	assert.Equal(t, []string{"你为什么想认识我?", "Q1"}, posts[0].Questions)
}

func TestLoadPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	for i := 0; i < 3; i++ {
		f.create(t, createReq(fmt.Sprintf("u%d@x.com", i), "male", fmt.Sprintf("post %d", i)))
	}

	first, err := f.svc.Load(context.Background(), &dto.PostQuery{Gender: "male", PostNumber: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "post 2", first[0].Narrations[0].Content)
	assert.Equal(t, "post 1", first[1].Narrations[0].Content)

	next, err := f.svc.Load(context.Background(), &dto.PostQuery{
		Gender:         "male",
		PostNumber:     2,
		StartTimestamp: first[1].CreationTimestamp,
	})
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "post 0", next[0].Narrations[0].Content)
}

func TestLoadClampsPostNumber(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxPostsPerLoad = 2
	f := newFixture(t, limits, nil)
	for i := 0; i < 3; i++ {
		f.create(t, createReq(fmt.Sprintf("u%d@x.com", i), "female", "x"))
	}

	posts, err := f.svc.Load(context.Background(), &dto.PostQuery{Gender: "female", PostNumber: 100})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, err = f.svc.Load(context.Background(), &dto.PostQuery{Gender: "female"})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestLoadKeywordSearch(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	f.create(t, createReq("a@x.com", "male", "我喜欢在北京爬山"))
	f.create(t, createReq("b@x.com", "male", "周末常去海边游泳"))

	posts := f.load(t, "male", "爬山")
	require.Len(t, posts, 1)
	assert.Equal(t, "我喜欢在北京爬山", posts[0].Narrations[0].Content)

	assert.Len(t, f.load(t, "male", ""), 2)
	assert.Empty(t, f.load(t, "male", "!!!"))
	assert.Empty(t, f.load(t, "female", "爬山"))
}

func TestLoadKeywordMatchesLocation(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	req := createReq("a@x.com", "male", "hello")
	req.Location = "杭州"
	f.create(t, req)
	f.create(t, createReq("b@x.com", "male", "world"))

	posts := f.load(t, "male", "杭州")
	require.Len(t, posts, 1)
	assert.Equal(t, "hello", posts[0].Narrations[0].Content)
}

func (f *fixture) onlyPostID(t *testing.T, gender string) string {
	t.Helper()
	posts := f.load(t, gender, "")
	require.Len(t, posts, 1)
	return posts[0].PostID
}

func TestReplySendsNotificationAndRecords(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	f.create(t, createReq("poster@x.com", "male", "hello"))
	postID := f.onlyPostID(t, "male")

	require.NoError(t, f.svc.Reply(context.Background(), replyReq(postID, "Responder@X.com", "my answer")))

	msgs := f.sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"poster@x.com"}, msgs[0].To)
	assert.Contains(t, msgs[0].HTML, "responder@x.com")
	assert.Contains(t, msgs[0].HTML, "my answer")
	assert.Contains(t, msgs[0].HTML, "上海")
	assert.Contains(t, msgs[0].HTML, "hello")

	responder, err := f.users.GetUserByEmail(context.Background(), "responder@x.com")
	require.NoError(t, err)
	responded, err := f.users.HasResponded(context.Background(), responder.ID, postID)
	require.NoError(t, err)
	assert.True(t, responded)
}

func TestReplyTwiceIsRejected(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	f.create(t, createReq("poster@x.com", "male", "hello"))
	postID := f.onlyPostID(t, "male")

	require.NoError(t, f.svc.Reply(context.Background(), replyReq(postID, "r@x.com", "first")))
	err := f.svc.Reply(context.Background(), replyReq(postID, "r@x.com", "totally different"))
	assertCodes(t, err, apperrors.ErrPostResponded)
	assert.Len(t, f.sender.Messages(), 1, "no second notification")
}

func TestReplyRejectsOverResponseLimit(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxResponsesPerPeriod = 2
	f := newFixture(t, limits, nil)
	for i := 0; i < 3; i++ {
		f.create(t, createReq(fmt.Sprintf("p%d@x.com", i), "male", fmt.Sprintf("post %d", i)))
	}
	posts := f.load(t, "male", "")
	require.Len(t, posts, 3)

	require.NoError(t, f.svc.Reply(context.Background(), replyReq(posts[0].PostID, "r@x.com", "a")))
	require.NoError(t, f.svc.Reply(context.Background(), replyReq(posts[1].PostID, "r@x.com", "a")))
	err := f.svc.Reply(context.Background(), replyReq(posts[2].PostID, "r@x.com", "a"))
	assertCodes(t, err, apperrors.ErrExceedResponseLimit)

	f.clock.Advance(limits.Period() + time.Second)
	assert.NoError(t, f.svc.Reply(context.Background(), replyReq(posts[2].PostID, "r@x.com", "a")))
}

func TestReplyEmailFailureStillRecords(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	f.sender.Err = errors.New("smtp unavailable")
	f.create(t, createReq("poster@x.com", "male", "hello"))
	postID := f.onlyPostID(t, "male")

	require.NoError(t, f.svc.Reply(context.Background(), replyReq(postID, "r@x.com", "a")))

	err := f.svc.Reply(context.Background(), replyReq(postID, "r@x.com", "a"))
	assertCodes(t, err, apperrors.ErrPostResponded)
}

func TestReplyUnknownPostIsIntegrityError(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	err := f.svc.Reply(context.Background(), replyReq("00000000-0000-0000-0000-000000000000", "r@x.com", "a"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIntegrity))
	assert.Equal(t, 500, apperrors.StatusOf(err))
	assert.Equal(t, []apperrors.ErrorCode{apperrors.ErrUnexpectedServerError}, apperrors.Codes(err))
}

func TestReplyValidation(t *testing.T) {
	f := newFixture(t, config.DefaultLimits(), nil)
	f.create(t, createReq("poster@x.com", "male", "hello"))
	postID := f.onlyPostID(t, "male")

	err := f.svc.Reply(context.Background(), replyReq(postID, "nope", strings.Repeat("长", 41)))
	assertCodes(t, err, apperrors.ErrInvalidEmail, apperrors.ErrExceedMaxAnswerChars)

	err = f.svc.Reply(context.Background(), replyReq(postID, "r@x.com", "a", "b"))
	assertCodes(t, err, apperrors.ErrParsingRequest)

	assert.Empty(t, f.sender.Messages())
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    []search.PostSearchDoc
	ids     []string
	err     error
	queries []search.PostQuery
}

func (f *fakeIndex) IndexPost(ctx context.Context, doc search.PostSearchDoc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeIndex) SearchPostIDs(ctx context.Context, q search.PostQuery) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.ids, f.err
}

func TestSearchIndexIsUsedAndHydrated(t *testing.T) {
	index := &fakeIndex{}
	f := newFixture(t, config.DefaultLimits(), index)
	f.create(t, createReq("a@x.com", "male", "我喜欢在北京爬山"))
	f.create(t, createReq("b@x.com", "male", "周末常去海边游泳"))

	require.Len(t, index.docs, 2)
	assert.Contains(t, index.docs[0].Tokens, "爬山")

	index.ids = []string{index.docs[1].ID, "missing", index.docs[0].ID}
	posts := f.load(t, "male", "游泳")
	require.Len(t, posts, 2)
	assert.Equal(t, index.docs[1].ID, posts[0].PostID)
	assert.Equal(t, index.docs[0].ID, posts[1].PostID)
	require.Len(t, index.queries, 1)
	assert.Contains(t, index.queries[0].Tokens, "游泳")
}

func TestSearchIndexFailureFallsBackToDatabase(t *testing.T) {
	index := &fakeIndex{err: errors.New("cluster red")}
	f := newFixture(t, config.DefaultLimits(), index)
	f.create(t, createReq("a@x.com", "male", "我喜欢在北京爬山"))
	f.create(t, createReq("b@x.com", "male", "周末常去海边游泳"))

	posts := f.load(t, "male", "爬山")
	require.Len(t, posts, 1)
	assert.Equal(t, "我喜欢在北京爬山", posts[0].Narrations[0].Content)
}

func TestFeedbackIsForwarded(t *testing.T) {
	sender := &emailtest.Recorder{Err: errors.New("ignored")}
	svc := NewFeedbackService(sender, "ops@x.com", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	svc.Submit(ctx, "great app")
	cancel()
	svc.Wait()

	msgs := sender.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"ops@x.com"}, msgs[0].To)
	assert.Equal(t, "FEEDBACK", msgs[0].Subject)
	assert.Equal(t, "great app", msgs[0].Text)
}

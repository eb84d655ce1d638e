package validation

import (
	"strings"
	"testing"

	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/dto"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func validCreate() *dto.CreatePostRequest {
	return &dto.CreatePostRequest{
		Email:      "a@x.com",
		Age:        intPtr(30),
		Gender:     "male",
		Narrations: []dto.Narration{{Label: "L1", Content: "foo"}},
		Questions:  []string{"bar?"},
	}
}

func TestCreatePostValid(t *testing.T) {
	rules := NewRules(config.DefaultLimits())
	assert.Empty(t, rules.CreatePost(validCreate()))
}

func TestCreatePostCollectsAllCodesInOrder(t *testing.T) {
	rules := NewRules(config.DefaultLimits())
	req := validCreate()
	req.Email = "not-an-email"
	req.Age = intPtr(-1)
	req.Narrations = []dto.Narration{
		{Label: "L1", Content: "   "},
		{Label: "L2", Content: strings.Repeat("长", 41)},
		{Label: "L3", Content: " \t"},
	}
	req.Questions = []string{strings.Repeat("问", 21)}
	req.Location = strings.Repeat("地", 11)

	assert.Equal(t, []apperrors.ErrorCode{
		apperrors.ErrInvalidEmail,
		apperrors.ErrInvalidAge,
		apperrors.ErrEmptyNarration,
		apperrors.ErrExceedMaxNarrationChars,
		apperrors.ErrExceedMaxQuestionChars,
		apperrors.ErrExceedMaxLocationChars,
	}, rules.CreatePost(req))
}

func TestCreatePostCountsRunes(t *testing.T) {
	rules := NewRules(config.DefaultLimits())
	req := validCreate()
	req.Narrations[0].Content = strings.Repeat("长", 40)
	assert.Empty(t, rules.CreatePost(req), "40 CJK characters is within the cap")
}

func TestCreatePostStructuralErrors(t *testing.T) {
	rules := NewRules(config.DefaultLimits())

	req := validCreate()
	req.Narrations = nil
	assert.Equal(t, []apperrors.ErrorCode{apperrors.ErrParsingRequest}, rules.CreatePost(req))

	req = validCreate()
	req.Narrations = make([]dto.Narration, 5)
	assert.Equal(t, []apperrors.ErrorCode{apperrors.ErrParsingRequest}, rules.CreatePost(req))

	req = validCreate()
	req.Questions = []string{"a", "b", "c", "d"}
	assert.Equal(t, []apperrors.ErrorCode{apperrors.ErrParsingRequest}, rules.CreatePost(req))
}

func TestReply(t *testing.T) {
	rules := NewRules(config.DefaultLimits())
	req := &dto.ReplyRequest{
		PostID:             "p1",
		Email:              " Someone@Example.COM ",
		Age:                intPtr(0),
		Gender:             "female",
		Location:           "上海",
		QuestionAndAnswers: []dto.QuestionAndAnswer{{Question: "q", Answer: "a"}},
	}
	assert.Empty(t, rules.Reply(req))

	req.Email = ""
	req.Location = strings.Repeat("x", 11)
	req.QuestionAndAnswers[0].Answer = strings.Repeat("x", 41)
	assert.Equal(t, []apperrors.ErrorCode{
		apperrors.ErrInvalidEmail,
		apperrors.ErrExceedMaxLocationChars,
		apperrors.ErrExceedMaxAnswerChars,
	}, rules.Reply(req))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com\n"))
}

func TestCleanQuestions(t *testing.T) {
	assert.Equal(t, []string{"Q1", "Q2"}, CleanQuestions([]string{" Q1 ", "", "  ", "Q2"}, ""))
	assert.Equal(t, []string{"你好吗?", "Q1"}, CleanQuestions([]string{"Q1"}, "你好吗?"))
	assert.Equal(t, []string{"Q1", "你好吗?"}, CleanQuestions([]string{"Q1", "你好吗?"}, "你好吗?"))
	assert.Equal(t, []string{}, CleanQuestions(nil, ""))
}

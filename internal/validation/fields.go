// Package validation holds the field rules shared by create and reply, and
// the startup checks for backing services.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/dto"
	apperrors "github.com/lingxijiao/backend/internal/errors"
)

// Rules validates request fields against the configured caps. Character
// counts are Unicode code points after trimming surrounding whitespace.
type Rules struct {
	limits   config.Limits
	validate *validator.Validate
}

// NewRules creates the field rules for limits
func NewRules(limits config.Limits) *Rules {
	return &Rules{
		limits:   limits,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a syntactically valid address
func (r *Rules) ValidEmail(email string) bool {
	return r.validate.Var(email, "required,email") == nil
}

// codeSet collects codes in first-seen order without duplicates
type codeSet []apperrors.ErrorCode

func (s *codeSet) add(code apperrors.ErrorCode) {
	for _, c := range *s {
		if c == code {
			return
		}
	}
	*s = append(*s, code)
}

func (r *Rules) tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// CreatePost validates a create request in the order email, age,
// narrations, questions, location and returns every violated code. A
// narration count outside [1, MaxNarrations] or too many questions is a
// structural error and is reported alone.
func (r *Rules) CreatePost(req *dto.CreatePostRequest) []apperrors.ErrorCode {
	if len(req.Narrations) == 0 || len(req.Narrations) > r.limits.MaxNarrations ||
		len(req.Questions) > r.limits.MaxQuestions {
		return []apperrors.ErrorCode{apperrors.ErrParsingRequest}
	}

	var codes codeSet
	if !r.ValidEmail(NormalizeEmail(req.Email)) {
		codes.add(apperrors.ErrInvalidEmail)
	}
	if req.Age == nil || *req.Age < 0 {
		codes.add(apperrors.ErrInvalidAge)
	}
	for _, n := range req.Narrations {
		content := strings.TrimSpace(n.Content)
		if content == "" {
			codes.add(apperrors.ErrEmptyNarration)
		} else if r.tooLong(content, r.limits.MaxNarrationChars) {
			codes.add(apperrors.ErrExceedMaxNarrationChars)
		}
	}
	for _, q := range req.Questions {
		if r.tooLong(strings.TrimSpace(q), r.limits.MaxQuestionChars) {
			codes.add(apperrors.ErrExceedMaxQuestionChars)
		}
	}
	if r.tooLong(strings.TrimSpace(req.Location), r.limits.MaxLocationChars) {
		codes.add(apperrors.ErrExceedMaxLocationChars)
	}
	return codes
}

// Reply validates the responder fields of a reply request. The answer count
// is checked against the post by the caller.
func (r *Rules) Reply(req *dto.ReplyRequest) []apperrors.ErrorCode {
	var codes codeSet
	if !r.ValidEmail(NormalizeEmail(req.Email)) {
		codes.add(apperrors.ErrInvalidEmail)
	}
	if req.Age == nil || *req.Age < 0 {
		codes.add(apperrors.ErrInvalidAge)
	}
	if r.tooLong(strings.TrimSpace(req.Location), r.limits.MaxLocationChars) {
		codes.add(apperrors.ErrExceedMaxLocationChars)
	}
	for _, qa := range req.QuestionAndAnswers {
		if r.tooLong(strings.TrimSpace(qa.Answer), r.limits.MaxAnswerChars) {
			codes.add(apperrors.ErrExceedMaxAnswerChars)
		}
	}
	return codes
}

// CleanQuestions trims questions, drops empty ones and prepends
// defaultQuestion when it is set and not already present.
func CleanQuestions(questions []string, defaultQuestion string) []string {
	cleaned := make([]string, 0, len(questions)+1)
	seenDefault := false
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if q == defaultQuestion {
			seenDefault = true
		}
		cleaned = append(cleaned, q)
	}
	if defaultQuestion != "" && !seenDefault {
		cleaned = append([]string{defaultQuestion}, cleaned...)
	}
	return cleaned
}

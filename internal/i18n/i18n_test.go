package i18n

import (
	"context"
	"testing"

	"github.com/lingxijiao/backend/internal/config"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "zh"},
		{"zh-CN,zh;q=0.9", "zh"},
		{"en-US,en;q=0.8", "en"},
		{"fr-FR", "zh"},
		{"de;q=0.9, en;q=0.5", "en"},
		{"not a header;;", "zh"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, Negotiate(tt.header).Language())
		})
	}
}

func TestInterpolation(t *testing.T) {
	l := For("en")
	got := l.T(KeyResponseEmailNotice, map[string]interface{}{
		"email":    "a@x.com",
		"gender":   l.Gender(models.GenderMale),
		"age":      30,
		"location": "Beijing",
	})
	assert.Equal(t, "a@x.com (male, 30, Beijing) replied to your post.", got)
}

func TestUnknownKeyAndLanguage(t *testing.T) {
	assert.Equal(t, "missing.key", For("en").T("missing.key", nil))
	assert.Equal(t, "zh", For("ja").Language())
	assert.Equal(t, "女", For("ja").Gender(models.GenderFemale))
}

func TestEveryCodeHasMessages(t *testing.T) {
	limits := config.DefaultLimits()
	for _, lang := range []string{"zh", "en"} {
		for _, code := range apperrors.AllCodes {
			msg := For(lang).ErrorMessage(code, limits)
			assert.NotEqual(t, "error."+string(code), msg, "%s missing %s", lang, code)
			assert.NotContains(t, msg, "{{")
		}
	}
	assert.Equal(t, "You can create at most 3 posts in 7 days",
		For("en").ErrorMessage(apperrors.ErrExceedPostCreationLimit, limits))
}

func TestContext(t *testing.T) {
	assert.Equal(t, DefaultLanguage, FromContext(context.Background()).Language())
	ctx := WithLocalizer(context.Background(), For("en"))
	assert.Equal(t, "en", FromContext(ctx).Language())
}

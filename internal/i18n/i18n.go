// Package i18n holds the server-side message catalog and picks a language
// per request from Accept-Language.
package i18n

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/lingxijiao/backend/internal/config"
	apperrors "github.com/lingxijiao/backend/internal/errors"
	"github.com/lingxijiao/backend/internal/models"
)

// DefaultLanguage is used when negotiation finds nothing better
const DefaultLanguage = "zh"

// supported is ordered: the first tag is the matcher's fallback
var supported = []language.Tag{language.Chinese, language.English}

var matcher = language.NewMatcher(supported)

// Localizer renders catalog messages for one language
type Localizer struct {
	lang     string
	messages map[string]string
}

// For returns the localizer for a language code, falling back to zh
func For(lang string) *Localizer {
	messages, ok := catalog[lang]
	if !ok {
		lang = DefaultLanguage
		messages = catalog[DefaultLanguage]
	}
	return &Localizer{lang: lang, messages: messages}
}

// Negotiate picks the best supported language for an Accept-Language header
func Negotiate(acceptLanguage string) *Localizer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return For(DefaultLanguage)
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return For(DefaultLanguage)
	}
	base, _ := supported[index].Base()
	return For(base.String())
}

// Language returns the language code of the localizer
func (l *Localizer) Language() string {
	return l.lang
}

// T renders key with {{name}} placeholders replaced from args. Unknown keys
// render as the key itself.
func (l *Localizer) T(key string, args map[string]interface{}) string {
	msg, ok := l.messages[key]
	if !ok {
		if msg, ok = catalog[DefaultLanguage][key]; !ok {
			return key
		}
	}
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{{"+name+"}}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// Gender returns the localized gender name
func (l *Localizer) Gender(g models.Gender) string {
	if g == models.GenderMale {
		return l.T(KeyMale, nil)
	}
	return l.T(KeyFemale, nil)
}

// ErrorMessage renders an error code with the configured limits filled in
func (l *Localizer) ErrorMessage(code apperrors.ErrorCode, limits config.Limits) string {
	var args map[string]interface{}
	switch code {
	case apperrors.ErrExceedMaxAnswerChars:
		args = map[string]interface{}{"max": limits.MaxAnswerChars}
	case apperrors.ErrExceedMaxQuestionChars:
		args = map[string]interface{}{"max": limits.MaxQuestionChars}
	case apperrors.ErrExceedMaxNarrationChars:
		args = map[string]interface{}{"max": limits.MaxNarrationChars}
	case apperrors.ErrExceedMaxLocationChars:
		args = map[string]interface{}{"max": limits.MaxLocationChars}
	case apperrors.ErrExceedPostCreationLimit:
		args = map[string]interface{}{"day": limits.PeriodDays, "count": limits.MaxPostsPerPeriod}
	case apperrors.ErrExceedResponseLimit:
		args = map[string]interface{}{"day": limits.PeriodDays, "count": limits.MaxResponsesPerPeriod}
	}
	return l.T(errorKeyPrefix+string(code), args)
}

type ctxKey struct{}

// WithLocalizer stores l in ctx
func WithLocalizer(ctx context.Context, l *Localizer) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request localizer, or the default one
func FromContext(ctx context.Context) *Localizer {
	if l, ok := ctx.Value(ctxKey{}).(*Localizer); ok && l != nil {
		return l
	}
	return For(DefaultLanguage)
}

package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/lingxijiao/backend/internal/i18n"
	"github.com/lingxijiao/backend/internal/models"
)

// FeedbackSubject is the fixed subject of operator feedback mail
const FeedbackSubject = "FEEDBACK"

// QuestionAnswer is one answered question in a reply
type QuestionAnswer struct {
	Question string
	Answer   string
}

// Narration is one labeled narration of the original post
type Narration struct {
	Label   string
	Content string
}

// ResponseNotification is everything the poster is told about a reply
type ResponseNotification struct {
	PosterEmail    string
	ResponderEmail string
	Gender         models.Gender
	Age            int
	Location       string
	Answers        []QuestionAnswer
	Narrations     []Narration
}

var responseTemplate = template.Must(template.New("response").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body>
<div>{{.Notice}}</div><br/>
<b>{{.Warning}}</b><br/><br/>
{{range .Answers}}<i>{{.Question}}</i><br/>
<b>{{.Answer}}</b><br/><br/>
{{end}}<b>{{.OriginalPost}}</b><br/>
{{range .Narrations}}<div>{{.Label}}</div>
<div>{{.Content}}</div>
{{end}}</body>
</html>
`))

type responseView struct {
	Notice       string
	Warning      string
	OriginalPost string
	Answers      []QuestionAnswer
	Narrations   []Narration
}

// RenderResponseNotification builds the localized reply notification. User
// supplied text is escaped by html/template.
func RenderResponseNotification(loc *i18n.Localizer, n ResponseNotification) (Message, error) {
	location := n.Location
	if strings.TrimSpace(location) == "" {
		location = loc.T(i18n.KeyUnknownLocation, nil)
	}
	notice := loc.T(i18n.KeyResponseEmailNotice, map[string]interface{}{
		"email":    n.ResponderEmail,
		"gender":   loc.Gender(n.Gender),
		"age":      n.Age,
		"location": location,
	})
	view := responseView{
		Notice:       notice,
		Warning:      loc.T(i18n.KeyResponseEmailWarn, nil),
		OriginalPost: loc.T(i18n.KeyOriginalPost, nil),
		Answers:      n.Answers,
		Narrations:   n.Narrations,
	}

	var buf bytes.Buffer
	if err := responseTemplate.Execute(&buf, view); err != nil {
		return Message{}, fmt.Errorf("failed to render response email: %w", err)
	}

	var text strings.Builder
	text.WriteString(notice + "\n" + view.Warning + "\n\n")
	for _, qa := range n.Answers {
		fmt.Fprintf(&text, "%s\n%s\n\n", qa.Question, qa.Answer)
	}
	text.WriteString(view.OriginalPost + "\n")
	for _, narration := range n.Narrations {
		fmt.Fprintf(&text, "%s\n%s\n", narration.Label, narration.Content)
	}

	return Message{
		To:      []string{n.PosterEmail},
		Subject: loc.T(i18n.KeyResponseEmailTitle, nil),
		HTML:    buf.String(),
		Text:    text.String(),
	}, nil
}

// FeedbackMessage forwards feedback verbatim to the operator address
func FeedbackMessage(operator, feedback string) Message {
	return Message{
		To:      []string{operator},
		Subject: FeedbackSubject,
		Text:    feedback,
	}
}

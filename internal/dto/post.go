package dto

import (
	"time"

	"github.com/lingxijiao/backend/internal/models"
)

// PostQuery is the body of POST /post/load
type PostQuery struct {
	Gender        string `json:"gender" binding:"required,oneof=male female"`
	SearchKeyword string `json:"searchKeyword"`
	PostNumber    int    `json:"postNumber" binding:"min=0"`
	// StartTimestamp is the cursor in epoch milliseconds; 0 means now
	StartTimestamp int64 `json:"startTimestamp" binding:"min=0"`
}

// Narration is one labeled narration on the wire
type Narration struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// CreatePostRequest is the body of POST /post/create
type CreatePostRequest struct {
	Email      string      `json:"email"`
	Age        *int        `json:"age" binding:"required"`
	Gender     string      `json:"gender" binding:"required,oneof=male female"`
	Narrations []Narration `json:"narrations" binding:"required"`
	Questions  []string    `json:"questions"`
	Location   string      `json:"location"`
}

// QuestionAndAnswer pairs an answer with the question it answers
type QuestionAndAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ReplyRequest is the body of POST /post/reply
type ReplyRequest struct {
	PostID             string              `json:"postId" binding:"required"`
	Email              string              `json:"email"`
	Age                *int                `json:"age" binding:"required"`
	Gender             string              `json:"gender" binding:"required,oneof=male female"`
	Location           string              `json:"location"`
	QuestionAndAnswers []QuestionAndAnswer `json:"questionAndAnswers"`
}

// FeedbackRequest is the body of POST /feedback
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// Post is a post as returned by /post/load
type Post struct {
	PostID            string      `json:"postId"`
	Gender            string      `json:"gender"`
	Questions         []string    `json:"questions"`
	Narrations        []Narration `json:"narrations"`
	CreationTimestamp int64       `json:"creationTimestamp"`
	Age               int         `json:"age"`
	Location          string      `json:"location,omitempty"`
}

// NewPost converts a stored post for the wire. Age is derived from the
// birth year relative to now.
func NewPost(post *models.Post, now time.Time) Post {
	narrations := make([]Narration, 0, len(post.Narrations))
	for _, n := range post.Narrations {
		narrations = append(narrations, Narration{Label: n.Label, Content: n.Content})
	}
	questions := []string(post.Questions)
	if questions == nil {
		questions = []string{}
	}
	return Post{
		PostID:            post.ID,
		Gender:            string(post.Gender),
		Questions:         questions,
		Narrations:        narrations,
		CreationTimestamp: post.CreatedAt.UnixMilli(),
		Age:               models.AgeFromBirthYear(post.BirthYear, now),
		Location:          post.Location,
	}
}

// NewPosts converts a page of posts
func NewPosts(posts []models.Post, now time.Time) []Post {
	out := make([]Post, 0, len(posts))
	for i := range posts {
		out = append(out, NewPost(&posts[i], now))
	}
	return out
}

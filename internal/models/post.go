package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Post is one anonymous self-description. Gender and BirthYear are copied
// from the submitted form and are not kept in sync with the poster's User.
type Post struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PosterID string `gorm:"type:varchar(36);not null;index:idx_posts_poster_created,priority:1" json:"poster_id"`
	Poster   *User  `gorm:"foreignKey:PosterID" json:"poster,omitempty"`

	Narrations []PostNarration `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"narrations"`
	Questions  StringList      `gorm:"type:text;not null" json:"questions"`
	Responses  []PostResponse  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"responses,omitempty"`
	Tokens     []PostToken     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	Gender    Gender `gorm:"type:varchar(8);not null;index:idx_posts_gender_created,priority:1" json:"gender"`
	BirthYear int    `gorm:"not null" json:"birth_year"`
	// Location is the author's optional self-reported location
	Location string `gorm:"type:varchar(64)" json:"location"`

	CreatedAt time.Time `gorm:"not null;index:idx_posts_gender_created,priority:2;index:idx_posts_poster_created,priority:2" json:"created_at"`
}

// PostNarration is one labeled free-text field, ordered by Position.
// ContentTokens holds the segmented content joined by spaces.
type PostNarration struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	PostID        string `gorm:"type:varchar(36);not null;index" json:"-"`
	Position      int    `gorm:"not null" json:"-"`
	Label         string `gorm:"not null" json:"label"`
	Content       string `gorm:"type:text;not null" json:"content"`
	ContentTokens string `gorm:"type:text;not null" json:"-"`
}

// PostToken is one entry of the inverted search index over narration
// content and post location.
type PostToken struct {
	PostID string `gorm:"primaryKey;type:varchar(36)"`
	Token  string `gorm:"primaryKey;type:varchar(128);index"`
}

// PostResponse is one user's answers to a post's questions, aligned by
// position. Location is the responder's self-reported location.
type PostResponse struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_responses_post_responder,priority:1" json:"post_id"`
	ResponderID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_responses_post_responder,priority:2;index" json:"responder_id"`
	Location    string     `gorm:"type:varchar(64)" json:"location"`
	Answers     StringList `gorm:"type:text;not null" json:"answers"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (r *PostResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}

// SearchTokens returns the distinct tokens indexed for this post: every
// narration's ContentTokens plus the pre-segmented location tokens.
func (p *Post) SearchTokens(locationTokens []string) []string {
	seen := make(map[string]bool)
	var tokens []string
	add := func(token string) {
		token = strings.TrimSpace(token)
		if token == "" || seen[token] {
			return
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	for _, narration := range p.Narrations {
		for _, token := range strings.Fields(narration.ContentTokens) {
			add(token)
		}
	}
	for _, token := range locationTokens {
		add(token)
	}
	return tokens
}

// AllModels lists every model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&PostNarration{},
		&PostToken{},
		&PostResponse{},
		&RespondedPost{},
	}
}

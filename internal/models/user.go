package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender is stored as a lowercase string
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the two supported values
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User is identified by email only; there is no password or session. A row
// is created on the first post or reply from an unknown address.
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Gender    Gender `gorm:"type:varchar(8);not null" json:"gender"`
	BirthYear int    `gorm:"not null" json:"birth_year"`

	// Posts authored by this user (posts.poster_id)
	Posts []Post `gorm:"foreignKey:PosterID" json:"-"`
	// RespondedPosts is the set of posts this user has replied to
	RespondedPosts []RespondedPost `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RespondedPost records that UserID replied to PostID. The composite primary
// key gives respondedPosts set semantics; CreatedAt is the reply time and
// drives the response-limit window.
type RespondedPost struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36);index:idx_responded_posts_user_created,priority:1" json:"user_id"`
	PostID    string    `gorm:"primaryKey;type:varchar(36)" json:"post_id"`
	CreatedAt time.Time `gorm:"not null;index:idx_responded_posts_user_created,priority:2" json:"created_at"`
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

// BirthYearFromAge converts a submitted age into a birth year at write time
func BirthYearFromAge(age int, now time.Time) int {
	return now.Year() - age
}

// AgeFromBirthYear is the inverse used on the read path
func AgeFromBirthYear(birthYear int, now time.Time) int {
	return now.Year() - birthYear
}

func generateUUID() string {
	return uuid.New().String()
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Word is a dictionary entry used as the secret word of a classic game.
type Word struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Text      string    `json:"text" gorm:"not null;uniqueIndex:idx_word_text_lang"`
	Category  string    `json:"category" gorm:"not null;index"`
	Language  string    `json:"language" gorm:"not null;default:'en';uniqueIndex:idx_word_text_lang;index"`
	Approved  bool      `json:"approved" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Word) TableName() string {
	return "words"
}

// Category groups dictionary words; Count is the number of approved words.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

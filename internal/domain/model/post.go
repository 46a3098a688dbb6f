package model

import (
	"time"
)

type Post struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Content   string      `json:"content"`
	Image     *string     `json:"image"` // "/uploads/<file>" reference or null
	AuthorID  string      `json:"author_id"`
	Author    *PublicUser `json:"author,omitempty"` // Populated for responses
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

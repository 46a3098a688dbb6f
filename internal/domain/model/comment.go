package model

import (
	"time"
)

type Comment struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	AuthorID  string      `json:"author_id"`
	PostID    string      `json:"post_id"`
	Author    *PublicUser `json:"author,omitempty"` // Populated for responses
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

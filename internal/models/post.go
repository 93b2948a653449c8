package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxPostTextLength    = 1000
	MaxCommentTextLength = 500

	// Hard cap of the recent posts feed; there is no cursor beyond it
	RecentPostsLimit = 100
)

// Post aggregate: likes and comments live inside the post and are stored with it
type Post struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uuid.UUID
	Username  string
	Text      string
	Image     string
	Likes     []Like
	Comments  []Comment
}

// Like and Comment are persisted as JSONB documents, tags define the stored shape
type Like struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	LikedAt  time.Time `json:"liked_at"`
}

type Comment struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	CommentedAt time.Time `json:"commented_at"`
}

// Return true if user already liked the post
func (p *Post) LikedBy(userID uuid.UUID) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

package interaction

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindLike    Kind = "like"
	KindComment Kind = "comment"
)

type Interaction struct {
	ID          uuid.UUID `json:"id"`
	PostID      uuid.UUID `json:"postId"`
	UserID      uuid.UUID `json:"userId"`
	Kind        Kind      `json:"kind"`
	CommentText *string   `json:"commentText,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostInteractions is the aggregate view of one post's interactions:
// like total, whether the viewer liked it, and comments oldest-first.
type PostInteractions struct {
	LikeCount     int        `json:"likeCount"`
	LikedByViewer bool       `json:"likedByViewer"`
	Comments      []*Comment `json:"comments"`
}

type AddCommentRequest struct {
	Text string `json:"text"`
}

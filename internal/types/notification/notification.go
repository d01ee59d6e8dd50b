package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindLike    Kind = "like"
	KindComment Kind = "comment"
	KindFollow  Kind = "follow"
)

// excerptLimit is the comment length shown in a notification body before
// truncation kicks in.
const excerptLimit = 30

type Notification struct {
	ID             uuid.UUID  `json:"id"`
	RecipientID    uuid.UUID  `json:"recipientId"`
	SenderID       uuid.UUID  `json:"senderId"`
	SenderUsername string     `json:"senderUsername"`
	Kind           Kind       `json:"kind"`
	PostID         *uuid.UUID `json:"postId,omitempty"`
	PostTitle      *string    `json:"postTitle,omitempty"`
	CommentExcerpt *string    `json:"commentExcerpt,omitempty"`
	IsRead         bool       `json:"isRead"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Message renders the user-facing notification text. Pure function of the
// notification fields so clients and push payloads agree.
func (n *Notification) Message() string {
	switch n.Kind {
	case KindLike:
		return fmt.Sprintf("%s liked your post", n.SenderUsername)
	case KindComment:
		excerpt := ""
		if n.CommentExcerpt != nil {
			excerpt = *n.CommentExcerpt
		}
		return fmt.Sprintf("%s commented: %s", n.SenderUsername, excerpt)
	case KindFollow:
		return fmt.Sprintf("%s started following you", n.SenderUsername)
	}
	return fmt.Sprintf("%s sent you a notification", n.SenderUsername)
}

// Excerpt shortens comment text for notification bodies: the first 30
// characters plus an ellipsis when longer, untouched at exactly 30.
func Excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "..."
}

package notification

import (
	"time"

	"github.com/google/uuid"
)

// CreateNotificationRequest is what social actions hand to the
// notification service. Sender == recipient is silently dropped there.
type CreateNotificationRequest struct {
	RecipientID    uuid.UUID
	SenderID       uuid.UUID
	SenderUsername string
	Kind           Kind
	PostID         *uuid.UUID
	PostTitle      *string
	CommentText    string
}

type NotificationListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unreadCount"`
}

type DeviceToken struct {
	Token    string    `json:"token"`
	Platform string    `json:"platform"`
	AddedAt  time.Time `json:"addedAt"`
	LastUsed time.Time `json:"lastUsed"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

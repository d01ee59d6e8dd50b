package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/notification"
)

type NotificationService struct {
	db         *pgxpool.Pool
	dispatcher *NotificationDispatcher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	service := &NotificationService{
		db: db,
	}
	service.dispatcher = NewNotificationDispatcher(service)
	return service
}

// SetPushProvider injects the real FCM client from main.go. Without it the
// dispatcher persists notifications but skips push delivery.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

func (s *NotificationService) getUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE clerk_id = $1", clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperrors.NotFound("user")
		}
		return uuid.Nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	return userID, nil
}

// Notify persists a notification for a social action and queues its push.
// Self-notifications (sender == recipient) are never created; callers do
// not need to pre-check.
func (s *NotificationService) Notify(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	if req.RecipientID == req.SenderID {
		return nil, nil
	}

	var excerpt *string
	if req.Kind == notification.KindComment && req.CommentText != "" {
		e := notification.Excerpt(req.CommentText)
		excerpt = &e
	}

	query := `
	INSERT INTO notifications (id, recipient_id, sender_id, sender_username, kind, post_id, post_title, comment_excerpt, is_read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, NOW())
	RETURNING id, recipient_id, sender_id, sender_username, kind, post_id, post_title, comment_excerpt, is_read, created_at
	`

	notif := &notification.Notification{}
	err := s.db.QueryRow(
		ctx, query,
		uuid.New(), req.RecipientID, req.SenderID, req.SenderUsername,
		req.Kind, req.PostID, req.PostTitle, excerpt,
	).Scan(
		&notif.ID, &notif.RecipientID, &notif.SenderID, &notif.SenderUsername,
		&notif.Kind, &notif.PostID, &notif.PostTitle, &notif.CommentExcerpt,
		&notif.IsRead, &notif.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to create notification: %w", err))
	}

	tokens, err := s.deviceTokens(ctx, req.RecipientID)
	if err != nil {
		// Push is best-effort; the persisted notification is the contract.
		log.Printf("Notify: failed to load device tokens for %s: %v", req.RecipientID, err)
		tokens = nil
	}
	s.dispatcher.Dispatch(notif, tokens)

	return notif, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, limit int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if limit < 1 || limit > 100 {
		limit = 50
	}

	whereClause := "WHERE recipient_id = $1"
	if unreadOnly {
		whereClause += " AND is_read = false"
	}

	query := fmt.Sprintf(`
	SELECT id, recipient_id, sender_id, sender_username, kind, post_id, post_title, comment_excerpt, is_read, created_at
	FROM notifications
	%s
	ORDER BY created_at DESC
	LIMIT $2
	`, whereClause)

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to fetch notifications: %w", err))
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		notif := &notification.Notification{}
		err := rows.Scan(
			&notif.ID, &notif.RecipientID, &notif.SenderID, &notif.SenderUsername,
			&notif.Kind, &notif.PostID, &notif.PostTitle, &notif.CommentExcerpt,
			&notif.IsRead, &notif.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}
		notifications = append(notifications, notif)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	if notifications == nil {
		notifications = []*notification.Notification{}
	}

	var unreadCount int
	err = s.db.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false", userID).Scan(&unreadCount)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to get unread count: %w", err))
	}

	return &notification.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unreadCount,
	}, nil
}

// GetUnreadCount backs the read model the clients poll.
func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var unreadCount int
	query := "SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false"
	if err := s.db.QueryRow(ctx, query, userID).Scan(&unreadCount); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to get unread count: %w", err))
	}
	return unreadCount, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
	UPDATE notifications
	SET is_read = true
	WHERE id = $1 AND recipient_id = $2 AND is_read = false
	`
	result, err := s.db.Exec(ctx, query, notificationID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("notification (or already read)")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`
	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return apperrors.Wrap(apperrors.ErrUpdateFailed, err)
	}
	return nil
}

func (s *NotificationService) DeleteNotification(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, "DELETE FROM notifications WHERE id = $1 AND recipient_id = $2", notificationID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeleteFailed, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("notification")
	}
	return nil
}

// RegisterDevice upserts a push token for the caller's account.
func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req notification.RegisterDeviceRequest) error {
	userID, err := s.getUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	if req.Token == "" {
		return apperrors.Validation("device token is required")
	}

	query := `
	INSERT INTO user_devices (user_id, token, platform, added_at, last_used)
	VALUES ($1, $2, $3, NOW(), NOW())
	ON CONFLICT (user_id, token)
	DO UPDATE SET platform = $3, last_used = NOW()
	`
	if _, err := s.db.Exec(ctx, query, userID, req.Token, req.Platform); err != nil {
		return apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to register device: %w", err))
	}
	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		"SELECT token, platform, added_at, last_used FROM user_devices WHERE user_id = $1", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform, &t.AddedAt, &t.LastUsed); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// pruneStaleDevices drops tokens unused for 90 days. Called by the
// dispatcher's daily cleanup loop.
func (s *NotificationService) pruneStaleDevices(ctx context.Context) (int64, error) {
	result, err := s.db.Exec(ctx,
		"DELETE FROM user_devices WHERE last_used < NOW() - INTERVAL '90 days'")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

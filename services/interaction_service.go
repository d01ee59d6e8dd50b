package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sipReelAPI/internal/apperrors"
	"sipReelAPI/internal/types/interaction"
	"sipReelAPI/internal/types/notification"
)

type InteractionService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewInteractionService(db *pgxpool.Pool, notifications *NotificationService) *InteractionService {
	return &InteractionService{
		db:            db,
		notifications: notifications,
	}
}

func (s *InteractionService) getUser(ctx context.Context, clerkID string) (uuid.UUID, string, error) {
	var userID uuid.UUID
	var username string
	err := s.db.QueryRow(ctx, "SELECT id, username FROM users WHERE clerk_id = $1", clerkID).Scan(&userID, &username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", apperrors.NotFound("user")
		}
		return uuid.Nil, "", apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	return userID, username, nil
}

func (s *InteractionService) getPostForNotify(ctx context.Context, postID uuid.UUID) (ownerID uuid.UUID, title string, err error) {
	err = s.db.QueryRow(ctx, "SELECT user_id, title FROM posts WHERE id = $1", postID).Scan(&ownerID, &title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", apperrors.NotFound("post")
		}
		return uuid.Nil, "", apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	return ownerID, title, nil
}

// Like records a like on a post. Liking twice is a no-op and the post
// owner is only notified for the first like.
func (s *InteractionService) Like(ctx context.Context, clerkID string, postID uuid.UUID) error {
	userID, username, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}

	ownerID, title, err := s.getPostForNotify(ctx, postID)
	if err != nil {
		return err
	}

	// The partial unique index on (post_id, user_id) WHERE kind = 'like'
	// makes the duplicate check race-free.
	result, err := s.db.Exec(ctx, `
	INSERT INTO interactions (id, post_id, user_id, kind, created_at)
	VALUES ($1, $2, $3, 'like', NOW())
	ON CONFLICT (post_id, user_id) WHERE kind = 'like' DO NOTHING
	`, uuid.New(), postID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to like post: %w", err))
	}
	if result.RowsAffected() == 0 {
		return nil
	}

	if _, err := s.notifications.Notify(ctx, &notification.CreateNotificationRequest{
		RecipientID:    ownerID,
		SenderID:       userID,
		SenderUsername: username,
		Kind:           notification.KindLike,
		PostID:         &postID,
		PostTitle:      &title,
	}); err != nil {
		log.Printf("Like: failed to create notification: %v", err)
	}

	return nil
}

// Unlike removes the caller's like. Removing a like that does not exist
// is a no-op.
func (s *InteractionService) Unlike(ctx context.Context, clerkID string, postID uuid.UUID) error {
	userID, _, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx,
		"DELETE FROM interactions WHERE post_id = $1 AND user_id = $2 AND kind = 'like'", postID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeleteFailed, fmt.Errorf("failed to unlike post: %w", err))
	}
	return nil
}

// Comment adds a comment to a post. Unlike likes, a user may comment on
// the same post any number of times.
func (s *InteractionService) Comment(ctx context.Context, clerkID string, postID uuid.UUID, req *interaction.AddCommentRequest) (*interaction.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperrors.Validation("comment text is required")
	}

	userID, username, err := s.getUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	ownerID, title, err := s.getPostForNotify(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &interaction.Comment{
		ID:       uuid.New(),
		UserID:   userID,
		Username: username,
		Text:     text,
	}

	err = s.db.QueryRow(ctx, `
	INSERT INTO interactions (id, post_id, user_id, kind, comment_text, created_at)
	VALUES ($1, $2, $3, 'comment', $4, NOW())
	RETURNING created_at
	`, comment.ID, postID, userID, text).Scan(&comment.CreatedAt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrSaveFailed, fmt.Errorf("failed to save comment: %w", err))
	}

	if _, err := s.notifications.Notify(ctx, &notification.CreateNotificationRequest{
		RecipientID:    ownerID,
		SenderID:       userID,
		SenderUsername: username,
		Kind:           notification.KindComment,
		PostID:         &postID,
		PostTitle:      &title,
		CommentText:    text,
	}); err != nil {
		log.Printf("Comment: failed to create notification: %v", err)
	}

	return comment, nil
}

// DeleteComment removes one of the caller's own comments.
func (s *InteractionService) DeleteComment(ctx context.Context, clerkID string, commentID uuid.UUID) error {
	userID, _, err := s.getUser(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		"DELETE FROM interactions WHERE id = $1 AND user_id = $2 AND kind = 'comment'", commentID, userID)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrDeleteFailed, fmt.Errorf("failed to delete comment: %w", err))
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("comment")
	}
	return nil
}

// GetInteractions aggregates a post's likes and comments in one query.
func (s *InteractionService) GetInteractions(ctx context.Context, clerkID string, postID uuid.UUID) (*interaction.PostInteractions, error) {
	viewerID, _, err := s.getUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var exists bool
	if err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)", postID).Scan(&exists); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}
	if !exists {
		return nil, apperrors.NotFound("post")
	}

	query := `
	SELECT i.id, i.user_id, u.username, i.kind, i.comment_text, i.created_at
	FROM interactions i
	JOIN users u ON u.id = i.user_id
	WHERE i.post_id = $1
	ORDER BY i.created_at ASC
	`

	rows, err := s.db.Query(ctx, query, postID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, fmt.Errorf("failed to fetch interactions: %w", err))
	}
	defer rows.Close()

	result := &interaction.PostInteractions{Comments: []*interaction.Comment{}}
	for rows.Next() {
		var i interaction.Interaction
		var username string
		err := rows.Scan(&i.ID, &i.UserID, &username, &i.Kind, &i.CommentText, &i.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
		}

		switch i.Kind {
		case interaction.KindLike:
			result.LikeCount++
			if i.UserID == viewerID {
				result.LikedByViewer = true
			}
		case interaction.KindComment:
			text := ""
			if i.CommentText != nil {
				text = *i.CommentText
			}
			result.Comments = append(result.Comments, &interaction.Comment{
				ID:        i.ID,
				UserID:    i.UserID,
				Username:  username,
				Text:      text,
				CreatedAt: i.CreatedAt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFetchFailed, err)
	}

	return result, nil
}

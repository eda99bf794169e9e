package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/security"
)

// CommentListener is told about every recorded comment.
type CommentListener interface {
	OnCommentCreated(ctx context.Context, threadID uint, comment *models.Comment) error
}

type CommentService struct {
	store     repository.Store
	sanitizer security.ContentSanitizer
	listener  CommentListener
}

type CreateCommentInput struct {
	UserID   uint
	ThreadID uint
	Content  string
}

func NewCommentService(
	store repository.Store,
	sanitizer security.ContentSanitizer,
	listener CommentListener,
) *CommentService {
	return &CommentService{
		store:     store,
		sanitizer: sanitizer,
		listener:  listener,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	thread, err := s.store.Threads().GetByID(ctx, in.ThreadID)
	if err != nil {
		return nil, models.FromStorage(err, "Thread", in.ThreadID)
	}
	if thread.FrozenAt != nil {
		return nil, models.NewForbiddenError("This thread is frozen")
	}

	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(in.Content) > maxCommentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", maxCommentLen))
	}

	comment := &models.Comment{
		Content:  s.sanitizer.Sanitize(in.Content),
		UserID:   in.UserID,
		ThreadID: in.ThreadID,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, models.NewPersistenceError(err)
	}

	if s.listener != nil {
		if err := s.listener.OnCommentCreated(ctx, in.ThreadID, comment); err != nil {
			slog.ErrorContext(ctx, "comment follow-up failed",
				"thread_id", in.ThreadID,
				"comment_id", comment.ID,
				"error", err,
			)
		}
	}

	created, err := s.store.Comments().GetByID(ctx, comment.ID)
	if err != nil {
		return nil, models.FromStorage(err, "Comment", comment.ID)
	}
	return created, nil
}

func (s *CommentService) ListComments(ctx context.Context, threadID uint) ([]*models.Comment, error) {
	if _, err := s.store.Threads().GetByID(ctx, threadID); err != nil {
		return nil, models.FromStorage(err, "Thread", threadID)
	}
	comments, err := s.store.Comments().ListByThread(ctx, threadID)
	if err != nil {
		return nil, models.NewPersistenceError(err)
	}
	return comments, nil
}

package services

import (
	"context"
	"log/slog"

	"blogapi/app/models"
	"blogapi/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	repo repositories.CommentRepository
	log  *slog.Logger
}

// NewCommentService creates a new CommentService
func NewCommentService(repo repositories.CommentRepository, log *slog.Logger) *CommentService {
	return &CommentService{repo: repo, log: log}
}

// ListComments returns the comments of a post, newest first.
func (s *CommentService) ListComments(ctx context.Context, postSlug string) ([]*models.Comment, error) {
	if postSlug == "" {
		return nil, models.NewValidationError("postSlug", "is required")
	}
	return s.repo.List(ctx, postSlug)
}

// CreateComment validates and stores a new comment.
func (s *CommentService) CreateComment(ctx context.Context, postSlug, author, content string) (*models.Comment, error) {
	comment := &models.Comment{PostSlug: postSlug, Author: author, Content: content}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		s.log.Error("failed to create comment", "post_slug", postSlug, "error", err)
		return nil, err
	}

	s.log.Info("comment created", "post_slug", postSlug, "comment_id", comment.ID)
	return comment, nil
}

// UpdateComment replaces the author and content of an existing comment.
func (s *CommentService) UpdateComment(ctx context.Context, postSlug, commentID, author, content string) (*models.Comment, error) {
	candidate := models.Comment{PostSlug: postSlug, Author: author, Content: content}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if commentID == "" {
		return nil, models.NewValidationError("id", "is required")
	}

	comment, err := s.repo.Update(ctx, postSlug, commentID, author, content)
	if err != nil {
		s.log.Warn("failed to update comment", "post_slug", postSlug, "comment_id", commentID, "error", err)
		return nil, err
	}

	s.log.Info("comment updated", "post_slug", postSlug, "comment_id", commentID)
	return comment, nil
}

// DeleteComment removes a comment. Deleting a missing comment succeeds.
func (s *CommentService) DeleteComment(ctx context.Context, postSlug, commentID string) error {
	if postSlug == "" {
		return models.NewValidationError("postSlug", "is required")
	}
	if commentID == "" {
		return models.NewValidationError("id", "is required")
	}
	if err := s.repo.Delete(ctx, postSlug, commentID); err != nil {
		s.log.Error("failed to delete comment", "post_slug", postSlug, "comment_id", commentID, "error", err)
		return err
	}

	s.log.Info("comment deleted", "post_slug", postSlug, "comment_id", commentID)
	return nil
}

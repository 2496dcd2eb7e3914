package mock

import (
	"context"

	"blogapi/app/models"
	"blogapi/app/repositories"
)

// CommentRepository is an in-memory repository whose calls fail with Err when
// it is set.
type CommentRepository struct {
	*repositories.MemoryCommentRepository
	Err error
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{MemoryCommentRepository: repositories.NewMemoryCommentRepository()}
}

func (m *CommentRepository) List(ctx context.Context, postSlug string) ([]*models.Comment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.MemoryCommentRepository.List(ctx, postSlug)
}

func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.Err != nil {
		return m.Err
	}
	return m.MemoryCommentRepository.Create(ctx, comment)
}

func (m *CommentRepository) Update(ctx context.Context, postSlug, commentID, author, content string) (*models.Comment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.MemoryCommentRepository.Update(ctx, postSlug, commentID, author, content)
}

func (m *CommentRepository) Delete(ctx context.Context, postSlug, commentID string) error {
	if m.Err != nil {
		return m.Err
	}
	return m.MemoryCommentRepository.Delete(ctx, postSlug, commentID)
}

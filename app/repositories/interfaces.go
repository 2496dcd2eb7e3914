package repositories

import (
	"context"

	"blogapi/app/models"
)

// CommentRepository defines the interface for comment data access. Lists are
// keyed by post slug and returned newest first. Implementations serialize
// mutations per slug.
type CommentRepository interface {
	List(ctx context.Context, postSlug string) ([]*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	Update(ctx context.Context, postSlug, commentID, author, content string) (*models.Comment, error)
	Delete(ctx context.Context, postSlug, commentID string) error
	Close() error
}

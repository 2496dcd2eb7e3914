package repositories

import (
	"context"
	"sync"
	"time"

	"blogapi/app/models"
)

// MemoryCommentRepository keeps comments in process memory. Contents are lost
// when the process exits.
type MemoryCommentRepository struct {
	mu      sync.RWMutex
	buckets map[string]*commentBucket
	now     func() time.Time
}

// commentBucket is one slug's list, newest first.
type commentBucket struct {
	mu       sync.RWMutex
	comments []*models.Comment
}

// NewMemoryCommentRepository creates an empty MemoryCommentRepository
func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{
		buckets: make(map[string]*commentBucket),
		now:     time.Now,
	}
}

func (r *MemoryCommentRepository) bucket(postSlug string, create bool) *commentBucket {
	r.mu.RLock()
	b, ok := r.buckets[postSlug]
	r.mu.RUnlock()
	if ok || !create {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok = r.buckets[postSlug]; !ok {
		b = &commentBucket{}
		r.buckets[postSlug] = b
	}
	return b
}

// List returns the comments of a post, newest first
func (r *MemoryCommentRepository) List(ctx context.Context, postSlug string) ([]*models.Comment, error) {
	if err := checkSlug(postSlug); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comments := []*models.Comment{}
	b := r.bucket(postSlug, false)
	if b == nil {
		return comments, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.comments {
		comments = append(comments, c.Clone())
	}
	return comments, nil
}

// Create stores a new comment at the head of its post's list
func (r *MemoryCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareCreate(comment, r.now()); err != nil {
		return err
	}

	b := r.bucket(comment.PostSlug, true)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.comments = append([]*models.Comment{comment.Clone()}, b.comments...)
	return nil
}

// Update replaces author and content of an existing comment in place
func (r *MemoryCommentRepository) Update(ctx context.Context, postSlug, commentID, author, content string) (*models.Comment, error) {
	if err := checkUpdate(postSlug, commentID, author, content); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := r.bucket(postSlug, false)
	if b == nil {
		return nil, &models.NotFoundError{Resource: "post", PostSlug: postSlug}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.comments {
		if c.ID == commentID {
			c.ApplyUpdate(author, content, r.now())
			return c.Clone(), nil
		}
	}
	return nil, &models.NotFoundError{Resource: "comment", PostSlug: postSlug, ID: commentID}
}

// Delete removes a comment; missing posts or comments are ignored
func (r *MemoryCommentRepository) Delete(ctx context.Context, postSlug, commentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := r.bucket(postSlug, false)
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, c := range b.comments {
		if c.ID == commentID {
			b.comments = append(b.comments[:i:i], b.comments[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryCommentRepository) Close() error {
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"blogapi/app/content"
	"blogapi/app/models"
)

// PostService answers post listings and lookups from a content source.
type PostService struct {
	source content.PostSource
	engine *PostQueryEngine
	log    *slog.Logger
}

// NewPostService creates a new PostService
func NewPostService(source content.PostSource, engine *PostQueryEngine, log *slog.Logger) *PostService {
	if engine == nil {
		engine = defaultEngine
	}
	return &PostService{source: source, engine: engine, log: log}
}

// ListPosts fetches every post and applies q.
func (s *PostService) ListPosts(ctx context.Context, q models.PostQuery) (models.PostList, error) {
	posts, err := s.source.FetchAllPosts(ctx)
	if err != nil {
		s.log.Error("failed to fetch posts", "error", err)
		return models.PostList{}, fmt.Errorf("failed to fetch posts: %w", err)
	}

	res := s.engine.Query(posts, q)
	return models.PostList{
		Posts: res.Results,
		Meta:  q.Meta(res.Total),
	}, nil
}

// GetPost returns the post with the given slug or a NotFoundError.
func (s *PostService) GetPost(ctx context.Context, slug string) (*models.Post, error) {
	if slug == "" {
		return nil, models.NewValidationError("slug", "is required")
	}

	post, err := s.source.FetchPostBySlug(ctx, slug)
	if err != nil {
		s.log.Error("failed to fetch post", "slug", slug, "error", err)
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	if post == nil {
		return nil, &models.NotFoundError{Resource: "post", PostSlug: slug}
	}
	return post, nil
}

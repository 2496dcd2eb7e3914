// Package content supplies blog posts from the CMS and its stand-ins.
package content

import (
	"context"
	"slices"

	"blogapi/app/models"
)

// PostSource is the upstream supplier of posts. FetchPostBySlug returns a nil
// post and nil error when no post has the slug.
type PostSource interface {
	FetchAllPosts(ctx context.Context) ([]models.Post, error)
	FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error)
}

// StaticSource serves a fixed set of posts.
type StaticSource []models.Post

func (s StaticSource) FetchAllPosts(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone([]models.Post(s)), nil
}

func (s StaticSource) FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return findBySlug(s, slug), nil
}

func findBySlug(posts []models.Post, slug string) *models.Post {
	for _, p := range posts {
		if p.Slug == slug {
			post := p
			return &post
		}
	}
	return nil
}

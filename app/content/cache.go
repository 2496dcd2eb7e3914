package content

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"blogapi/app/models"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

const allPostsKey = "posts:all"

// CachedSource keeps upstream results for a fixed TTL. Concurrent misses for
// the same key share one upstream call. Lookups that find nothing are not cached.
type CachedSource struct {
	source PostSource
	cache  *ristretto.Cache[string, []models.Post]
	ttl    time.Duration
	group  singleflight.Group
	log    *slog.Logger
}

func NewCachedSource(source PostSource, ttl time.Duration, log *slog.Logger) (*CachedSource, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []models.Post]{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl, log: log}, nil
}

func (s *CachedSource) FetchAllPosts(ctx context.Context) ([]models.Post, error) {
	if posts, ok := s.cache.Get(allPostsKey); ok {
		return slices.Clone(posts), nil
	}

	// The shared fetch outlives any single caller; each caller still
	// returns as soon as its own context is done.
	upstream := context.WithoutCancel(ctx)
	v, err := s.do(ctx, allPostsKey, func() (interface{}, error) {
		posts, err := s.source.FetchAllPosts(upstream)
		if err != nil {
			return nil, err
		}
		s.store(allPostsKey, posts)
		return posts, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]models.Post)), nil
}

func (s *CachedSource) FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	key := "post:" + slug
	if posts, ok := s.cache.Get(key); ok && len(posts) == 1 {
		post := posts[0]
		return &post, nil
	}
	if posts, ok := s.cache.Get(allPostsKey); ok {
		if post := findBySlug(posts, slug); post != nil {
			return post, nil
		}
	}

	upstream := context.WithoutCancel(ctx)
	v, err := s.do(ctx, key, func() (interface{}, error) {
		post, err := s.source.FetchPostBySlug(upstream, slug)
		if err != nil || post == nil {
			return post, err
		}
		s.store(key, []models.Post{*post})
		return post, nil
	})
	if err != nil {
		return nil, err
	}
	post, _ := v.(*models.Post)
	if post == nil {
		return nil, nil
	}
	out := *post
	return &out, nil
}

func (s *CachedSource) do(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	select {
	case res := <-s.group.DoChan(key, fn):
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops every cached entry.
func (s *CachedSource) Invalidate() {
	s.cache.Clear()
}

func (s *CachedSource) Close() {
	s.cache.Close()
}

func (s *CachedSource) store(key string, posts []models.Post) {
	if !s.cache.SetWithTTL(key, slices.Clone(posts), int64(len(posts)+1), s.ttl) {
		s.log.Debug("post cache rejected entry", "key", key)
		return
	}
	s.cache.Wait()
}

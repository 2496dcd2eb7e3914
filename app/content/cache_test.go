package content

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blogapi/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	PostSource
	all    atomic.Int32
	bySlug atomic.Int32
	err    error
}

func (s *countingSource) FetchAllPosts(ctx context.Context) ([]models.Post, error) {
	s.all.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.PostSource.FetchAllPosts(ctx)
}

func (s *countingSource) FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	s.bySlug.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.PostSource.FetchPostBySlug(ctx, slug)
}

var cachedPosts = StaticSource{
	{Title: "One", Slug: "one", Author: "Alice", Date: "2024-01-01"},
	{Title: "Two", Slug: "two", Author: "Bob", Date: "2024-01-02"},
}

func newCached(t *testing.T, upstream PostSource, ttl time.Duration) *CachedSource {
	t.Helper()
	cached, err := NewCachedSource(upstream, ttl, discardLogger())
	require.NoError(t, err)
	t.Cleanup(cached.Close)
	return cached
}

func TestCachedSourceServesFromCache(t *testing.T) {
	upstream := &countingSource{PostSource: cachedPosts}
	cached := newCached(t, upstream, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		posts, err := cached.FetchAllPosts(ctx)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	}
	assert.Equal(t, int32(1), upstream.all.Load())

	post, err := cached.FetchPostBySlug(ctx, "two")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "Two", post.Title)
	assert.Equal(t, int32(0), upstream.bySlug.Load())
}

func TestCachedSourceReturnsCopies(t *testing.T) {
	cached := newCached(t, cachedPosts, time.Minute)
	ctx := context.Background()

	posts, err := cached.FetchAllPosts(ctx)
	require.NoError(t, err)
	posts[0].Title = "mutated"

	again, err := cached.FetchAllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "One", again[0].Title)
}

func TestCachedSourceExpires(t *testing.T) {
	upstream := &countingSource{PostSource: cachedPosts}
	cached := newCached(t, upstream, 50*time.Millisecond)
	ctx := context.Background()

	_, err := cached.FetchAllPosts(ctx)
	require.NoError(t, err)
	time.Sleep(1200 * time.Millisecond)
	_, err = cached.FetchAllPosts(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), upstream.all.Load())
}

func TestCachedSourceDoesNotCacheFailuresOrMisses(t *testing.T) {
	upstream := &countingSource{PostSource: cachedPosts, err: &models.UpstreamError{Op: "test", Err: errors.New("down")}}
	cached := newCached(t, upstream, time.Minute)
	ctx := context.Background()

	_, err := cached.FetchAllPosts(ctx)
	assert.ErrorIs(t, err, models.ErrUpstream)
	upstream.err = nil
	posts, err := cached.FetchAllPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	cached.Invalidate()
	missing, err := cached.FetchPostBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	_, _ = cached.FetchPostBySlug(ctx, "nope")
	assert.Equal(t, int32(2), upstream.bySlug.Load())
}

func TestCachedSourceConcurrentReads(t *testing.T) {
	upstream := &countingSource{PostSource: cachedPosts}
	cached := newCached(t, upstream, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			posts, err := cached.FetchAllPosts(context.Background())
			assert.NoError(t, err)
			assert.Len(t, posts, 2)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, upstream.all.Load(), int32(20))
}

type blockingSource struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
	ctxErr  atomic.Value
}

func (s *blockingSource) FetchAllPosts(ctx context.Context) ([]models.Post, error) {
	if s.calls.Add(1) == 1 {
		close(s.started)
	}
	<-s.release
	if err := ctx.Err(); err != nil {
		s.ctxErr.Store(err)
		return nil, err
	}
	return cachedPosts.FetchAllPosts(ctx)
}

func (s *blockingSource) FetchPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return nil, nil
}

func TestCachedSourceSharedMissSurvivesCallerCancel(t *testing.T) {
	upstream := &blockingSource{started: make(chan struct{}), release: make(chan struct{})}
	cached := newCached(t, upstream, time.Minute)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cached.FetchAllPosts(firstCtx)
		firstErr <- err
	}()
	<-upstream.started

	type result struct {
		posts []models.Post
		err   error
	}
	second := make(chan result, 1)
	go func() {
		posts, err := cached.FetchAllPosts(context.Background())
		second <- result{posts, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(upstream.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.posts, 2)
	assert.Nil(t, upstream.ctxErr.Load())
}

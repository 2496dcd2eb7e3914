package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"blogapi/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postsYAML = `posts:
  - title: First
    slug: first
    author: Alice
    date: "2024-01-01"
    content: Hello
  - title: Second
    slug: second
    author: Bob
    date: "2024-02-01T10:00:00Z"
    content: World
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestFileSource(t *testing.T) {
	source := NewFileSource(writeFile(t, postsYAML))
	ctx := context.Background()

	posts, err := source.FetchAllPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, models.Post{Title: "First", Slug: "first", Author: "Alice", Date: "2024-01-01", Content: "Hello"}, posts[0])

	post, err := source.FetchPostBySlug(ctx, "second")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "Bob", post.Author)

	missing, err := source.FetchPostBySlug(ctx, "third")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileSourceEmptyDocument(t *testing.T) {
	posts, err := NewFileSource(writeFile(t, "")).FetchAllPosts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestFileSourceErrors(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.yaml")).FetchAllPosts(context.Background())
	assert.ErrorIs(t, err, models.ErrUpstream)

	_, err = NewFileSource(writeFile(t, "posts: [unclosed")).FetchAllPosts(context.Background())
	assert.ErrorIs(t, err, models.ErrUpstream)
}

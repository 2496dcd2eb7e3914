package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"blogapi/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCommentRepository runs the behaviour every CommentRepository must share.
func testCommentRepository(t *testing.T, newRepo func(t *testing.T) CommentRepository) {
	ctx := context.Background()

	t.Run("create list update delete", func(t *testing.T) {
		repo := newRepo(t)

		comment := &models.Comment{PostSlug: "p1", Author: "Alice", Content: "Hello world test"}
		require.NoError(t, repo.Create(ctx, comment))
		assert.NotEmpty(t, comment.ID)
		assert.False(t, comment.CreatedAt.IsZero())
		assert.Nil(t, comment.UpdatedAt)

		comments, err := repo.List(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, comment.ID, comments[0].ID)
		assert.Equal(t, "Alice", comments[0].Author)
		assert.Equal(t, "Hello world test", comments[0].Content)
		assert.Nil(t, comments[0].UpdatedAt)

		updated, err := repo.Update(ctx, "p1", comment.ID, "Alice", "Edited content here")
		require.NoError(t, err)
		assert.Equal(t, comment.ID, updated.ID)
		assert.Equal(t, "Edited content here", updated.Content)
		assert.True(t, comment.CreatedAt.Equal(updated.CreatedAt))
		require.NotNil(t, updated.UpdatedAt)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

		require.NoError(t, repo.Delete(ctx, "p1", comment.ID))
		comments, err = repo.List(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("list is newest first and update keeps position", func(t *testing.T) {
		repo := newRepo(t)

		var ids []string
		for i := 0; i < 3; i++ {
			c := &models.Comment{PostSlug: "order", Author: "Bob", Content: fmt.Sprintf("comment %d", i)}
			require.NoError(t, repo.Create(ctx, c))
			ids = append(ids, c.ID)
		}

		_, err := repo.Update(ctx, "order", ids[0], "Bob", "oldest, edited")
		require.NoError(t, err)

		comments, err := repo.List(ctx, "order")
		require.NoError(t, err)
		require.Len(t, comments, 3)
		assert.Equal(t, ids[2], comments[0].ID)
		assert.Equal(t, ids[1], comments[1].ID)
		assert.Equal(t, ids[0], comments[2].ID)
		assert.Equal(t, "oldest, edited", comments[2].Content)
	})

	t.Run("unknown slug lists empty", func(t *testing.T) {
		repo := newRepo(t)

		comments, err := repo.List(ctx, "nobody-commented")
		require.NoError(t, err)
		assert.NotNil(t, comments)
		assert.Empty(t, comments)
	})

	t.Run("slugs are isolated", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, &models.Comment{PostSlug: "a", Author: "A", Content: "on a"}))
		require.NoError(t, repo.Create(ctx, &models.Comment{PostSlug: "a:b", Author: "B", Content: "on a:b"}))

		comments, err := repo.List(ctx, "a")
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "on a", comments[0].Content)
	})

	t.Run("validation", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.List(ctx, "")
		assert.True(t, errors.Is(err, models.ErrValidation))

		for _, c := range []*models.Comment{
			{Author: "A", Content: "c"},
			{PostSlug: "p", Content: "c"},
			{PostSlug: "p", Author: "A"},
		} {
			err := repo.Create(ctx, c)
			assert.True(t, errors.Is(err, models.ErrValidation), "comment %+v", c)
		}
	})

	t.Run("update missing comment is not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Update(ctx, "ghost", "missing", "A", "c")
		assert.True(t, errors.Is(err, models.ErrNotFound))

		require.NoError(t, repo.Create(ctx, &models.Comment{PostSlug: "real", Author: "A", Content: "c"}))
		_, err = repo.Update(ctx, "real", "missing", "A", "c")
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("delete missing is a no-op", func(t *testing.T) {
		repo := newRepo(t)

		c := &models.Comment{PostSlug: "keep", Author: "A", Content: "stays"}
		require.NoError(t, repo.Create(ctx, c))

		assert.NoError(t, repo.Delete(ctx, "keep", "missing"))
		assert.NoError(t, repo.Delete(ctx, "never-existed", "missing"))

		comments, err := repo.List(ctx, "keep")
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, c.ID, comments[0].ID)
	})

	t.Run("concurrent creates are not lost", func(t *testing.T) {
		repo := newRepo(t)

		const writers = 20
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- repo.Create(ctx, &models.Comment{PostSlug: "busy", Author: "W", Content: fmt.Sprintf("write %d", i)})
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		comments, err := repo.List(ctx, "busy")
		require.NoError(t, err)
		assert.Len(t, comments, writers)

		seen := make(map[string]bool)
		for _, c := range comments {
			assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
			seen[c.ID] = true
		}
	})
	t.Run("concurrent updates and delete on one slug stay consistent", func(t *testing.T) {
		repo := newRepo(t)

		target := &models.Comment{PostSlug: "race", Author: "A", Content: "target"}
		require.NoError(t, repo.Create(ctx, target))
		other := &models.Comment{PostSlug: "race", Author: "B", Content: "bystander"}
		require.NoError(t, repo.Create(ctx, other))

		const editors = 10
		var wg sync.WaitGroup
		errs := make(chan error, 2*editors+1)
		for i := 0; i < editors; i++ {
			wg.Add(2)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Update(ctx, "race", target.ID, "A", fmt.Sprintf("target edit %d", i))
				if errors.Is(err, models.ErrNotFound) {
					err = nil
				}
				errs <- err
			}(i)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Update(ctx, "race", other.ID, "B", fmt.Sprintf("bystander edit %d", i))
				errs <- err
			}(i)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Delete(ctx, "race", target.ID)
		}()
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		comments, err := repo.List(ctx, "race")
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, other.ID, comments[0].ID)
		assert.Equal(t, "B", comments[0].Author)
		assert.Contains(t, comments[0].Content, "bystander edit ")
		require.NotNil(t, comments[0].UpdatedAt)

		_, err = repo.Update(ctx, "race", target.ID, "A", "too late")
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

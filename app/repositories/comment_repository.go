package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blogapi/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB. Comment
// ids are time ordered, so a reverse prefix scan yields newest first.
type BadgerCommentRepository struct {
	db    *badger.DB
	locks slugLocker
	now   func() time.Time
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db, now: time.Now}
}

// List retrieves all comments for a post, newest first
func (r *BadgerCommentRepository) List(ctx context.Context, postSlug string) ([]*models.Comment, error) {
	if err := checkSlug(postSlug); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	comments := []*models.Comment{}
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := commentPrefix(postSlug)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			var comment models.Comment
			err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &comment)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal comment: %w", err)
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Create creates a new comment
func (r *BadgerCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareCreate(comment, r.now()); err != nil {
		return err
	}

	data, err := marshalEntity(comment)
	if err != nil {
		return err
	}

	unlock := r.locks.lock(comment.PostSlug)
	defer unlock()
	return r.update(func(txn *badger.Txn) error {
		return txn.Set(commentKey(comment.PostSlug, comment.ID), data)
	})
}

// Update updates an existing comment
func (r *BadgerCommentRepository) Update(ctx context.Context, postSlug, commentID, author, content string) (*models.Comment, error) {
	if err := checkUpdate(postSlug, commentID, author, content); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.locks.lock(postSlug)
	defer unlock()

	var updated models.Comment
	err := r.update(func(txn *badger.Txn) error {
		key := commentKey(postSlug, commentID)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &models.NotFoundError{Resource: "comment", PostSlug: postSlug, ID: commentID}
		}
		if err != nil {
			return err
		}

		updated = models.Comment{}
		if err := item.Value(func(val []byte) error {
			return unmarshalEntity(val, &updated)
		}); err != nil {
			return err
		}
		updated.ApplyUpdate(author, content, r.now())

		data, err := marshalEntity(&updated)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete deletes a comment; deleting a missing comment is a no-op
func (r *BadgerCommentRepository) Delete(ctx context.Context, postSlug, commentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := r.locks.lock(postSlug)
	defer unlock()
	return r.update(func(txn *badger.Txn) error {
		return txn.Delete(commentKey(postSlug, commentID))
	})
}

// Close closes the underlying database
func (r *BadgerCommentRepository) Close() error {
	return r.db.Close()
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (r *BadgerCommentRepository) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnRetries; attempt++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

package repositories

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"blogapi/app/models"
)

const (
	// Key prefix for comment records; keys are comment:<escaped slug>:<id>
	CommentKeyPrefix = "comment:"

	maxTxnRetries = 5
)

func commentPrefix(postSlug string) []byte {
	return []byte(CommentKeyPrefix + url.QueryEscape(postSlug) + ":")
}

func commentKey(postSlug, commentID string) []byte {
	return append(commentPrefix(postSlug), commentID...)
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}

// prepareCreate validates a new comment and assigns its id and creation time.
func prepareCreate(comment *models.Comment, now time.Time) error {
	if comment == nil {
		return models.NewValidationError("", "comment is required")
	}
	if err := comment.Validate(); err != nil {
		return err
	}
	return comment.BeforeCreate(now)
}

func checkSlug(postSlug string) error {
	if postSlug == "" {
		return models.NewValidationError("postSlug", "is required")
	}
	return nil
}

func checkUpdate(postSlug, commentID, author, content string) error {
	if err := checkSlug(postSlug); err != nil {
		return err
	}
	if commentID == "" {
		return models.NewValidationError("id", "is required")
	}
	if author == "" {
		return models.NewValidationError("author", "is required")
	}
	if content == "" {
		return models.NewValidationError("content", "is required")
	}
	return nil
}

// slugLocker hands out one mutex per post slug and forgets it once no
// goroutine holds or waits on it.
type slugLocker struct {
	mu    sync.Mutex
	locks map[string]*slugLock
}

type slugLock struct {
	mu   sync.Mutex
	refs int
}

func (l *slugLocker) lock(postSlug string) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*slugLock)
	}
	sl, ok := l.locks[postSlug]
	if !ok {
		sl = &slugLock{}
		l.locks[postSlug] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, postSlug)
		}
		l.mu.Unlock()
	}
}

package repositories

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerOptions configures the on-disk comment database.
type BadgerOptions struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// OpenBadger opens (or creates) the Badger database used for comments.
func OpenBadger(o BadgerOptions) (*badger.DB, error) {
	path := o.Path
	if o.InMemory {
		path = ""
	}
	if path == "" && !o.InMemory {
		return nil, fmt.Errorf("badger path is required")
	}

	opts := badger.DefaultOptions(path).
		WithInMemory(o.InMemory).
		WithLogger(nil).
		WithSyncWrites(o.SyncWrites).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return db, nil
}

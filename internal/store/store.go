// Package store persists the meeting collection. Two drivers exist: a local
// JSON document store and a Postgres table. Both preserve insertion order in
// List, which the list view relies on for stable tie-breaking.
package store

import (
	"context"
	"errors"

	"meetcal/internal/model"
)

// ErrNotFound is returned when an id does not exist in the store.
var ErrNotFound = errors.New("store: meeting not found")

// Store is the row-level adapter the dashboard reads and mutates through.
// The grid core never touches a Store directly; it only sees the meeting
// snapshot List produces.
type Store interface {
	List(ctx context.Context) ([]model.Meeting, error)
	Get(ctx context.Context, id string) (model.Meeting, error)
	// Put inserts a new meeting or replaces an existing one by ID. Inserts
	// append at the end of the collection order.
	Put(ctx context.Context, m model.Meeting) error
	Delete(ctx context.Context, id string) error
	Close() error
}

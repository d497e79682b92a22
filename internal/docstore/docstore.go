// Package docstore is a small document database client: named collections of
// JSON documents addressed by id, with merge updates, equality queries and
// server-resolved sentinel values.
//
// Three backends implement Store: SQLite (the default), Badger and an
// in-process map used by tests and the "memory" driver.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned by Get and Update when the document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrUnavailable wraps every backend failure (I/O, closed store, driver errors).
	ErrUnavailable = errors.New("document store unavailable")
	// ErrInvalidName is returned for collection or field names the backends cannot address.
	ErrInvalidName = errors.New("invalid collection or field name")
)

// Document is the body of a stored document. Values read back from a store are
// JSON types: string, float64, bool, nil, []any and map[string]any.
type Document map[string]any

// Snapshot is a document read from a store together with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Store is the document store client consumed by the typed repositories.
type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Snapshot, error)
	// Set replaces the document, creating it if absent.
	Set(ctx context.Context, collection, id string, data Document) error
	// Update merges data into an existing document. Returns ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, data Document) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Query returns documents matching every filter, ordered by id.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error)
	// Add stores data under a generated id and returns the id.
	Add(ctx context.Context, collection string, data Document) (string, error)
	Close() error
}

var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func checkName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func checkFilters(filters []Filter) error {
	for _, f := range filters {
		if err := checkName(f.Field); err != nil {
			return err
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

package store

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorequest/internal/docstore"
)

// Collection names.
const (
	CollectionUsers      = "users"
	CollectionHouseholds = "households"
	CollectionTasks      = "tasks"
	CollectionBadges     = "badges"
)

// Document fields shared across collections.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldCreatedAt   = "createdAt"
	fieldHouseholdID = "householdId"
)

// fields reads typed values out of a decoded document, recording the first
// type mismatch.
type fields struct {
	doc docstore.Document
	err error
}

func (f *fields) fail(key string, v any, want string) {
	if f.err == nil {
		f.err = fmt.Errorf("field %q: got %T, want %s", key, v, want)
	}
}

func (f *fields) str(key string) string {
	v, ok := f.doc[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.fail(key, v, "string")
	}
	return s
}

func (f *fields) optStr(key string) *string {
	v, ok := f.doc[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		f.fail(key, v, "string")
		return nil
	}
	return &s
}

func (f *fields) integer(key string) int {
	v, ok := f.doc[key]
	if !ok || v == nil {
		return 0
	}
	n, ok := v.(float64)
	if !ok {
		f.fail(key, v, "number")
	}
	return int(n)
}

func (f *fields) strings(key string) []string {
	v, ok := f.doc[key]
	if !ok || v == nil {
		return []string{}
	}
	arr, ok := v.([]any)
	if !ok {
		f.fail(key, v, "array")
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			f.fail(key, e, "string element")
			continue
		}
		out = append(out, s)
	}
	return out
}

func (f *fields) time(key string) time.Time {
	t := f.optTime(key)
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (f *fields) optTime(key string) *time.Time {
	s := f.optStr(key)
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("field %q: %w", key, err)
		}
		return nil
	}
	return &t
}

// optional converts a nil pointer to a stored null.
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

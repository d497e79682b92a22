package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/chorequest/internal/id"
)

// SQLite stores documents in the documents table created by the
// internal/database migrations.
type SQLite struct {
	db  *sql.DB
	// mu serializes read-merge-write updates; SQLite deferred transactions
	// fail with SQLITE_BUSY when two readers try to upgrade.
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLite wraps an open, migrated database. Close closes db.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

func (s *SQLite) Get(ctx context.Context, collection, docID string) (*Snapshot, error) {
	if err := checkName(collection); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, docID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get document", err)
	}
	doc, err := decode(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: docID, Data: doc}, nil
}

func (s *SQLite) Set(ctx context.Context, collection, docID string, data Document) error {
	if err := checkName(collection); err != nil {
		return err
	}
	encoded, err := merge(nil, data, s.now())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		collection, docID, string(encoded),
	)
	if err != nil {
		return unavailable("set document", err)
	}
	return nil
}

func (s *SQLite) Update(ctx context.Context, collection, docID string, data Document) error {
	if err := checkName(collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin tx", err)
	}
	defer tx.Rollback()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, docID,
	).Scan(&existing)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return unavailable("read document for update", err)
	}

	base, err := decode(existing)
	if err != nil {
		return err
	}
	encoded, err := merge(base, data, s.now())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
		string(encoded), collection, docID,
	); err != nil {
		return unavailable("update document", err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit update", err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, collection, docID string) error {
	if err := checkName(collection); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, docID,
	)
	if err != nil {
		return unavailable("delete document", err)
	}
	return nil
}

// Query pushes string and integer filters down to json_extract and re-checks
// every filter on the decoded document.
func (s *SQLite) Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	if err := checkName(collection); err != nil {
		return nil, err
	}
	if err := checkFilters(filters); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	args := []any{collection}
	for _, f := range filters {
		v, ok := pushable(f.Value)
		if !ok {
			continue
		}
		// field names are checked against nameRegexp, so the path can be
		// inlined and match the expression indexes
		fmt.Fprintf(&b, ` AND json_extract(data, '$.%s') = ?`, f.Field)
		args = append(args, v)
	}
	b.WriteString(` ORDER BY id ASC`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, unavailable("query documents", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var docID string
		var data []byte
		if err := rows.Scan(&docID, &data); err != nil {
			return nil, unavailable("scan document", err)
		}
		doc, err := decode(data)
		if err != nil {
			return nil, err
		}
		ok, err := matches(doc, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			snaps = append(snaps, Snapshot{ID: docID, Data: doc})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate documents", err)
	}
	return snaps, nil
}

func (s *SQLite) Add(ctx context.Context, collection string, data Document) (string, error) {
	docID, err := id.Generate()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, collection, docID, data); err != nil {
		return "", err
	}
	return docID, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// pushable returns v as a driver value when json_extract can compare it
// directly. Named string and integer types are reduced to their base kind.
func pushable(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return nil, false
}

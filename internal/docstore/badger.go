package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dukerupert/chorequest/internal/id"
)

const maxConflictRetries = 5

// Badger stores each document under the key "<collection>/<id>".
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenBadger opens a Badger database at path. An empty path opens an
// in-memory database.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("badger document store opened", "path", path, "in_memory", path == "")
	}

	return &Badger{db: db, logger: logger, now: time.Now}, nil
}

func docKey(collection, docID string) []byte {
	return []byte(collection + "/" + docID)
}

func (b *Badger) Get(ctx context.Context, collection, docID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get document", err)
	}
	if err := checkName(collection); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, docID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
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

func (b *Badger) Set(ctx context.Context, collection, docID string, data Document) error {
	if err := ctx.Err(); err != nil {
		return unavailable("set document", err)
	}
	if err := checkName(collection); err != nil {
		return err
	}
	encoded, err := merge(nil, data, b.now())
	if err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(collection, docID), encoded)
	}); err != nil {
		return unavailable("set document", err)
	}
	return nil
}

// Update retries on transaction conflicts so concurrent merges to the same
// document both land.
func (b *Badger) Update(ctx context.Context, collection, docID string, data Document) error {
	if err := checkName(collection); err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return unavailable("update document", err)
		}
		err := b.db.Update(func(txn *badger.Txn) error {
			key := docKey(collection, docID)
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			existing, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			base, err := decode(existing)
			if err != nil {
				return err
			}
			encoded, err := merge(base, data, b.now())
			if err != nil {
				return err
			}
			return txn.Set(key, encoded)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, badger.ErrKeyNotFound):
			return ErrNotFound
		case errors.Is(err, ErrInvalidName):
			return err
		case errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries:
			if b.logger != nil {
				b.logger.Debug("retrying conflicted update", "collection", collection, "id", docID, "attempt", attempt+1)
			}
			continue
		default:
			return unavailable("update document", err)
		}
	}
}

func (b *Badger) Delete(ctx context.Context, collection, docID string) error {
	if err := ctx.Err(); err != nil {
		return unavailable("delete document", err)
	}
	if err := checkName(collection); err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(docKey(collection, docID))
	}); err != nil {
		return unavailable("delete document", err)
	}
	return nil
}

func (b *Badger) Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("query documents", err)
	}
	if err := checkName(collection); err != nil {
		return nil, err
	}
	if err := checkFilters(filters); err != nil {
		return nil, err
	}

	prefix := []byte(collection + "/")
	var snaps []Snapshot
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := decode(data)
			if err != nil {
				return err
			}
			ok, err := matches(doc, filters)
			if err != nil {
				return err
			}
			if ok {
				docID := string(item.Key()[len(prefix):])
				snaps = append(snaps, Snapshot{ID: docID, Data: doc})
			}
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("query documents", err)
	}
	// Badger iterates in key order, which is id order within a prefix.
	return snaps, nil
}

func (b *Badger) Add(ctx context.Context, collection string, data Document) (string, error) {
	docID, err := id.Generate()
	if err != nil {
		return "", err
	}
	if err := b.Set(ctx, collection, docID, data); err != nil {
		return "", err
	}
	return docID, nil
}

func (b *Badger) Close() error {
	if b.logger != nil {
		b.logger.Info("closing badger document store")
	}
	return b.db.Close()
}

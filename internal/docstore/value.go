package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"
)

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's clock (UTC) when written.
var ServerTimestamp any = serverTimestamp{}

type arrayUnion struct {
	values []any
}

// ArrayUnion adds values to an array field, skipping values already present.
// A missing or non-array field is replaced by the values.
func ArrayUnion(values ...any) any {
	return arrayUnion{values: values}
}

// merge applies patch on top of base, resolving sentinels, and returns the
// encoded document. base may be nil.
func merge(base, patch Document, now time.Time) ([]byte, error) {
	out := make(Document, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if err := checkName(k); err != nil {
			return nil, err
		}
		switch s := v.(type) {
		case serverTimestamp:
			out[k] = now.UTC()
		case arrayUnion:
			u, err := union(out[k], s.values)
			if err != nil {
				return nil, err
			}
			out[k] = u
		default:
			out[k] = v
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func union(existing any, values []any) ([]any, error) {
	arr, _ := existing.([]any)
	out := make([]any, 0, len(arr)+len(values))
	out = append(out, arr...)
	for _, v := range values {
		nv, err := normalize(v)
		if err != nil {
			return nil, err
		}
		if !containsValue(out, nv) {
			out = append(out, nv)
		}
	}
	return out, nil
}

func containsValue(arr []any, v any) bool {
	for _, a := range arr {
		if reflect.DeepEqual(a, v) {
			return true
		}
	}
	return false
}

// normalize converts a Go value to the shape it has after a JSON round trip.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

func decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// matches reports whether doc satisfies every filter. A missing field equals nil.
func matches(doc Document, filters []Filter) (bool, error) {
	for _, f := range filters {
		want, err := normalize(f.Value)
		if err != nil {
			return false, err
		}
		if !reflect.DeepEqual(doc[f.Field], want) {
			return false, nil
		}
	}
	return true, nil
}

func sortSnapshots(snaps []Snapshot) {
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Collections used by the application.
const (
	Users       = "users"
	Courses     = "courses"
	Assignments = "assignments"
	Submissions = "submissions"
	Credentials = "credentials"
)

// Fields is the JSON-shaped body of a document. Values are always the
// types encoding/json produces: string, float64, bool, nil, []any and
// map[string]any.
type Fields map[string]any

type Document struct {
	ID      string
	Version int64
	Fields  Fields
}

type ListOptions struct {
	// Filters match top-level fields by equality.
	Filters map[string]any
	// Limit <= 0 means no limit.
	Limit int
}

// DocumentStore is the remote store every component reads and writes through.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	// SetFields merges fields into the document, creating it when absent.
	SetFields(ctx context.Context, collection, id string, fields Fields) error
	// UpdateIfVersion merges fields only when the stored version still equals
	// version. It returns apperr.ErrConflict otherwise.
	UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields Fields) error
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Insert creates the document under id. It returns apperr.ErrConflict
	// when id is already taken and never touches the existing document.
	Insert(ctx context.Context, collection, id string, fields Fields) error
	List(ctx context.Context, collection string, opts ListOptions) ([]*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// normalize round-trips fields through JSON so callers never share
// references with stored state and numbers always come back as float64.
func normalize(fields Fields) (Fields, error) {
	if fields == nil {
		return Fields{}, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := Fields{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func merge(dst, src Fields) Fields {
	if dst == nil {
		dst = Fields{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func matches(fields Fields, filters map[string]any) bool {
	for k, want := range filters {
		got, ok := fields[k]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(got, normalizeValue(want)) {
			return false
		}
	}
	return true
}

func applyListOptions(docs []*Document, opts ListOptions) []*Document {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if !matches(d.Fields, opts.Filters) {
			continue
		}
		out = append(out, d)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out
}

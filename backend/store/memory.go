package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"learnhub/backend/apperr"
)

type memoryDoc struct {
	version int64
	fields  Fields
}

// MemoryStore keeps documents in process. It backs tests and DB_DRIVER=memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]*memoryDoc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]*memoryDoc)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	fields, err := normalize(doc.fields)
	if err != nil {
		return nil, err
	}
	return &Document{ID: id, Version: doc.version, Fields: fields}, nil
}

func (s *MemoryStore) SetFields(ctx context.Context, collection, id string, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	doc, ok := coll[id]
	if !ok {
		coll[id] = &memoryDoc{version: 1, fields: clean}
		return nil
	}
	doc.fields = merge(doc.fields, clean)
	doc.version++
	return nil
}

func (s *MemoryStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return apperr.ErrNotFound
	}
	if doc.version != version {
		return apperr.ErrConflict
	}
	doc.fields = merge(doc.fields, clean)
	doc.version++
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	clean, err := normalize(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = &memoryDoc{version: 1, fields: clean}
	return id, nil
}

func (s *MemoryStore) Insert(ctx context.Context, collection, id string, fields Fields) error {
	clean, err := normalize(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	if _, ok := coll[id]; ok {
		return apperr.ErrConflict
	}
	coll[id] = &memoryDoc{version: 1, fields: clean}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string, opts ListOptions) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*Document, 0, len(s.data[collection]))
	for id, doc := range s.data[collection] {
		fields, err := normalize(doc.fields)
		if err != nil {
			return nil, err
		}
		docs = append(docs, &Document{ID: id, Version: doc.version, Fields: fields})
	}
	return applyListOptions(docs, opts), nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.data[collection], id)
	return nil
}

func (s *MemoryStore) collection(name string) map[string]*memoryDoc {
	coll, ok := s.data[name]
	if !ok {
		coll = make(map[string]*memoryDoc)
		s.data[name] = coll
	}
	return coll
}

package assets

import (
	"context"
	"sync"
)

type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryUploader keeps objects in process. Used in tests and local runs
// without a bucket.
type MemoryUploader struct {
	mu         sync.RWMutex
	publicBase string
	objects    map[string]StoredObject
}

func NewMemoryUploader(publicBase string) *MemoryUploader {
	return &MemoryUploader{publicBase: publicBase, objects: map[string]StoredObject{}}
}

func (m *MemoryUploader) Upload(ctx context.Context, a Asset, folder string) (string, error) {
	data, ct, err := resolve(ctx, a)
	if err != nil {
		return "", err
	}
	object := objectName(folder, a.Name, ct)

	m.mu.Lock()
	m.objects[object] = StoredObject{Data: append([]byte(nil), data...), ContentType: ct}
	m.mu.Unlock()
	return publicURL(m.publicBase, object), nil
}

func (m *MemoryUploader) Object(name string) (StoredObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[name]
	return o, ok
}

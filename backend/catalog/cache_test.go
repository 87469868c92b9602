package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

type countingStore struct {
	store.DocumentStore
	lists int
}

func (s *countingStore) List(ctx context.Context, collection string, opts store.ListOptions) ([]*store.Document, error) {
	s.lists++
	return s.DocumentStore.List(ctx, collection, opts)
}

type fakeSnapshot struct {
	courses []models.Course
	saved   int
	loadErr error
}

func (f *fakeSnapshot) Load(ctx context.Context) ([]models.Course, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	return f.courses, f.courses != nil, nil
}

func (f *fakeSnapshot) Save(ctx context.Context, courses []models.Course, ttl time.Duration) error {
	f.courses = courses
	f.saved++
	return nil
}

func (f *fakeSnapshot) Clear(ctx context.Context) error {
	f.courses = nil
	return nil
}

func seedCourse(t *testing.T, s store.DocumentStore, title string) string {
	t.Helper()
	c := models.Course{Title: title, Level: models.LevelBeginner, Lectures: []models.Lecture{{Title: "one"}}}
	id, err := s.Create(context.Background(), store.Courses, c.Fields())
	require.NoError(t, err)
	return id
}

func TestCacheLoadsOnce(t *testing.T) {
	ctx := context.Background()
	s := &countingStore{DocumentStore: store.NewMemoryStore()}
	seedCourse(t, s, "A")
	seedCourse(t, s, "B")

	cache := NewCache(s, nil, 0, utils.NopLogger())
	first, err := cache.Courses(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	_, err = cache.Courses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.lists)

	cache.Invalidate(ctx)
	_, err = cache.Courses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.lists)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	s := &countingStore{DocumentStore: store.NewMemoryStore()}
	seedCourse(t, s, "A")

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCache(s, nil, time.Minute, utils.NopLogger())
	cache.now = func() time.Time { return now }

	_, err := cache.Courses(ctx)
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = cache.Courses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.lists)
}

func TestCacheCourseLookup(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	a := seedCourse(t, s, "A")

	cache := NewCache(s, nil, 0, utils.NopLogger())
	got, err := cache.Course(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)

	// created after the load, still visible
	b := seedCourse(t, s, "B")
	got, err = cache.Course(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)

	_, err = cache.Course(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCacheUsesSnapshot(t *testing.T) {
	ctx := context.Background()
	s := &countingStore{DocumentStore: store.NewMemoryStore()}
	seedCourse(t, s, "A")
	snap := &fakeSnapshot{}

	first := NewCache(s, snap, time.Minute, utils.NopLogger())
	_, err := first.Courses(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.saved)

	second := NewCache(s, snap, time.Minute, utils.NopLogger())
	courses, err := second.Courses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, s.lists)
}

func TestCacheFallsBackWhenSnapshotFails(t *testing.T) {
	ctx := context.Background()
	s := &countingStore{DocumentStore: store.NewMemoryStore()}
	seedCourse(t, s, "A")

	cache := NewCache(s, &fakeSnapshot{loadErr: errors.New("redis down")}, time.Minute, utils.NopLogger())
	courses, err := cache.Courses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, s.lists)
}

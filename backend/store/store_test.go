package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"learnhub/backend/apperr"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s, err := NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) DocumentStore { return NewMemoryStore() })
}

func TestGormStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) DocumentStore { return newSQLiteStore(t) })
}

func runStoreSuite(t *testing.T, newStore func(t *testing.T) DocumentStore) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, Users, "nobody")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("SetFieldsMerges", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetFields(ctx, Users, "u1", Fields{"name": "Ann", "role": "learner"}))
		require.NoError(t, s.SetFields(ctx, Users, "u1", Fields{"name": "Anna"}))

		doc, err := s.Get(ctx, Users, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Anna", doc.Fields["name"])
		assert.Equal(t, "learner", doc.Fields["role"])
		assert.Equal(t, int64(2), doc.Version)
	})

	t.Run("NumbersComeBackAsFloat", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetFields(ctx, Courses, "c1", Fields{"price": 10}))
		doc, err := s.Get(ctx, Courses, "c1")
		require.NoError(t, err)
		assert.Equal(t, float64(10), doc.Fields["price"])
	})

	t.Run("InsertRejectsTakenID", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Insert(ctx, Credentials, "ann@example.com", Fields{"userId": "u1"}))

		err := s.Insert(ctx, Credentials, "ann@example.com", Fields{"userId": "u2"})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		doc, err := s.Get(ctx, Credentials, "ann@example.com")
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.Fields["userId"])
		assert.Equal(t, int64(1), doc.Version)

		// the same id in another collection is unrelated
		require.NoError(t, s.Insert(ctx, Users, "ann@example.com", Fields{}))
	})

	t.Run("UpdateIfVersion", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetFields(ctx, Users, "u1", Fields{"n": 1}))

		require.NoError(t, s.UpdateIfVersion(ctx, Users, "u1", 1, Fields{"n": 2}))
		err := s.UpdateIfVersion(ctx, Users, "u1", 1, Fields{"n": 3})
		assert.ErrorIs(t, err, apperr.ErrConflict)

		doc, err := s.Get(ctx, Users, "u1")
		require.NoError(t, err)
		assert.Equal(t, float64(2), doc.Fields["n"])

		err = s.UpdateIfVersion(ctx, Users, "missing", 1, Fields{"n": 1})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("StoredStateIsNotShared", func(t *testing.T) {
		s := newStore(t)
		nested := map[string]any{"0": true}
		require.NoError(t, s.SetFields(ctx, Users, "u1", Fields{"bitmap": nested}))
		nested["1"] = true

		doc, err := s.Get(ctx, Users, "u1")
		require.NoError(t, err)
		assert.Len(t, doc.Fields["bitmap"], 1)

		doc.Fields["bitmap"].(map[string]any)["2"] = true
		again, err := s.Get(ctx, Users, "u1")
		require.NoError(t, err)
		assert.Len(t, again.Fields["bitmap"], 1)
	})

	t.Run("CreateListDelete", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Create(ctx, Courses, Fields{"level": "Beginner"})
		require.NoError(t, err)
		_, err = s.Create(ctx, Courses, Fields{"level": "Advanced"})
		require.NoError(t, err)
		_, err = s.Create(ctx, Courses, Fields{"level": "Beginner"})
		require.NoError(t, err)

		all, err := s.List(ctx, Courses, ListOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		beginners, err := s.List(ctx, Courses, ListOptions{Filters: map[string]any{"level": "Beginner"}})
		require.NoError(t, err)
		assert.Len(t, beginners, 2)

		limited, err := s.List(ctx, Courses, ListOptions{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		require.NoError(t, s.Delete(ctx, Courses, a))
		assert.ErrorIs(t, s.Delete(ctx, Courses, a), apperr.ErrNotFound)
		_, err = s.Get(ctx, Courses, a)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

// Snapshot is an optional shared copy of the catalog, so that several
// server instances do not each list the whole collection.
type Snapshot interface {
	Load(ctx context.Context) ([]models.Course, bool, error)
	Save(ctx context.Context, courses []models.Course, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// Cache loads the course collection once and serves it from memory until
// the TTL passes or Invalidate is called.
type Cache struct {
	store    store.DocumentStore
	snapshot Snapshot
	ttl      time.Duration
	log      *utils.Logger
	now      func() time.Time

	mu       sync.Mutex
	loaded   bool
	loadedAt time.Time
	courses  []models.Course
	byID     map[string]int
}

// NewCache builds a cache over s. snapshot may be nil; ttl <= 0 keeps the
// loaded list until Invalidate.
func NewCache(s store.DocumentStore, snapshot Snapshot, ttl time.Duration, log *utils.Logger) *Cache {
	return &Cache{
		store:    s,
		snapshot: snapshot,
		ttl:      ttl,
		log:      log.With("component", "CatalogCache"),
		now:      time.Now,
	}
}

// Courses returns a copy of the whole catalog.
func (c *Cache) Courses(ctx context.Context) ([]models.Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]models.Course(nil), c.courses...), nil
}

// Course looks a course up by id. A miss in memory falls through to the
// store, so a course created after the load is still found and a deleted
// one is reported as apperr.ErrNotFound.
func (c *Cache) Course(ctx context.Context, id string) (*models.Course, error) {
	c.mu.Lock()
	if err := c.ensureLoaded(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if i, ok := c.byID[id]; ok {
		course := c.courses[i]
		c.mu.Unlock()
		return &course, nil
	}
	c.mu.Unlock()

	doc, err := c.store.Get(ctx, store.Courses, id)
	if err != nil {
		return nil, err
	}
	course := models.CourseFromDocument(doc)
	return &course, nil
}

// Invalidate drops the in-memory list and the shared snapshot.
func (c *Cache) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.loaded = false
	c.courses = nil
	c.byID = nil
	c.mu.Unlock()

	if c.snapshot != nil {
		if err := c.snapshot.Clear(ctx); err != nil {
			c.log.Warn("catalog snapshot clear failed", "error", err)
		}
	}
}

func (c *Cache) ensureLoaded(ctx context.Context) error {
	if c.loaded && (c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl) {
		return nil
	}

	if c.snapshot != nil {
		courses, ok, err := c.snapshot.Load(ctx)
		if err != nil {
			c.log.Warn("catalog snapshot load failed", "error", err)
		}
		if ok && err == nil {
			c.set(courses)
			return nil
		}
	}

	docs, err := c.store.List(ctx, store.Courses, store.ListOptions{})
	if err != nil {
		return fmt.Errorf("list courses: %w", err)
	}
	courses := make([]models.Course, 0, len(docs))
	for _, d := range docs {
		courses = append(courses, models.CourseFromDocument(d))
	}
	c.set(courses)

	if c.snapshot != nil {
		if err := c.snapshot.Save(ctx, courses, c.ttl); err != nil {
			c.log.Warn("catalog snapshot save failed", "error", err)
		}
	}
	c.log.Debug("catalog loaded", "courses", len(courses))
	return nil
}

func (c *Cache) set(courses []models.Course) {
	c.courses = courses
	c.byID = make(map[string]int, len(courses))
	for i, course := range courses {
		c.byID[course.ID] = i
	}
	c.loaded = true
	c.loadedAt = c.now()
}

package catalog

import (
	"context"
	"fmt"
	"strings"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/store"
)

// CourseInput is the authoring payload for create and update.
type CourseInput struct {
	Title       string                  `json:"title" validate:"required,max=200"`
	Description string                  `json:"description"`
	Instructor  string                  `json:"instructor" validate:"required"`
	Price       float64                 `json:"price" validate:"gte=0"`
	Duration    models.Duration         `json:"duration"`
	Level       string                  `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Category    string                  `json:"category"`
	ImageURL    string                  `json:"imageUrl" validate:"omitempty,url"`
	Lectures    []models.Lecture        `json:"lectures" validate:"dive"`
	Outline     []models.OutlineSection `json:"outline" validate:"dive"`
}

func (in CourseInput) course() models.Course {
	level, ok := models.ParseLevel(in.Level)
	if !ok {
		level = models.LevelBeginner
	}
	return models.Course{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Instructor:  strings.TrimSpace(in.Instructor),
		Price:       in.Price,
		Duration:    in.Duration,
		Level:       level,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    in.ImageURL,
		Lectures:    in.Lectures,
		Outline:     in.Outline,
	}
}

// CreateCourse writes a new course and drops the cached catalog.
func (c *Cache) CreateCourse(ctx context.Context, in CourseInput, authorID string) (*models.Course, error) {
	course := in.course()
	course.CreatedBy = authorID
	course.CreatedAt = c.now().UTC()

	id, err := c.store.Create(ctx, store.Courses, course.Fields())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	course.ID = id
	c.Invalidate(ctx)
	c.log.Info("course created", "course_id", id, "author", authorID)
	return &course, nil
}

// UpdateCourse replaces the editable fields. Authorship and creation time
// are kept. Lecture indices of existing learners are not remapped.
func (c *Cache) UpdateCourse(ctx context.Context, id string, in CourseInput) (*models.Course, error) {
	doc, err := c.store.Get(ctx, store.Courses, id)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", id, err)
	}
	existing := models.CourseFromDocument(doc)

	course := in.course()
	course.ID = id
	course.CreatedBy = existing.CreatedBy
	course.CreatedAt = existing.CreatedAt
	if course.CreatedAt.IsZero() {
		course.CreatedAt = c.now().UTC()
	}

	if err := c.store.UpdateIfVersion(ctx, store.Courses, id, doc.Version, course.Fields()); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	c.Invalidate(ctx)
	return &course, nil
}

// DeleteCourse removes the course. Learners still holding its id are pruned
// the next time their profile is loaded.
func (c *Cache) DeleteCourse(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, store.Courses, id); err != nil {
		return fmt.Errorf("course %s: %w", id, err)
	}
	c.Invalidate(ctx)
	c.log.Info("course deleted", "course_id", id)
	return nil
}

// OwnedBy reports whether the course was authored by userID or is listed
// under the instructor display name.
func OwnedBy(course *models.Course, userID, displayName string) bool {
	if course.CreatedBy != "" && course.CreatedBy == userID {
		return true
	}
	return displayName != "" && strings.EqualFold(course.Instructor, displayName)
}

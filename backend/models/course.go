package models

import (
	"strings"
	"time"

	"learnhub/backend/store"
)

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// ParseLevel matches case-insensitively and reports whether s named a level.
func ParseLevel(s string) (Level, bool) {
	for _, l := range []Level{LevelBeginner, LevelIntermediate, LevelAdvanced} {
		if strings.EqualFold(strings.TrimSpace(s), string(l)) {
			return l, true
		}
	}
	return "", false
}

type Lecture struct {
	Title       string `json:"title" validate:"required"`
	VideoURL    string `json:"videoUrl"`
	Description string `json:"description"`
}

type OutlineSection struct {
	Title  string   `json:"title" validate:"required"`
	Topics []string `json:"topics"`
}

type Duration struct {
	Value float64 `json:"value" validate:"gte=0"`
	Unit  string  `json:"unit"` // hours, weeks, ...
}

type Course struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Instructor  string           `json:"instructor"` // free text, not a user id
	Price       float64          `json:"price"`
	Duration    Duration         `json:"duration"`
	Level       Level            `json:"level"`
	Category    string           `json:"category"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Lectures    []Lecture        `json:"lectures"`
	Outline     []OutlineSection `json:"outline,omitempty"`
	CreatedBy   string           `json:"createdBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (c *Course) TotalLectures() int {
	return len(c.Lectures)
}

// CourseFromDocument is the single place course defaults are resolved.
func CourseFromDocument(doc *store.Document) Course {
	f := doc.Fields
	level, ok := ParseLevel(str(f, "level"))
	if !ok {
		level = LevelBeginner
	}
	price := num(f, "price")
	if price < 0 {
		price = 0
	}

	c := Course{
		ID:          doc.ID,
		Title:       firstNonEmpty(str(f, "title"), "Untitled course"),
		Description: str(f, "description"),
		Instructor:  str(f, "instructor"),
		Price:       price,
		Level:       level,
		Category:    str(f, "category"),
		ImageURL:    str(f, "imageUrl"),
		CreatedBy:   str(f, "createdBy"),
		CreatedAt:   parseTime(str(f, "createdAt")),
	}
	if d := obj(f["duration"]); d != nil {
		c.Duration = Duration{Value: toFloat(d["value"]), Unit: str(d, "unit")}
	}
	for _, l := range objects(f, "lectures") {
		c.Lectures = append(c.Lectures, Lecture{
			Title:       str(l, "title"),
			VideoURL:    str(l, "videoUrl"),
			Description: str(l, "description"),
		})
	}
	for _, s := range objects(f, "outline") {
		c.Outline = append(c.Outline, OutlineSection{
			Title:  str(s, "title"),
			Topics: strSlice(s, "topics"),
		})
	}
	return c
}

// Fields is the persisted form of the course, without its id.
func (c *Course) Fields() store.Fields {
	lectures := make([]any, 0, len(c.Lectures))
	for _, l := range c.Lectures {
		lectures = append(lectures, map[string]any{
			"title":       l.Title,
			"videoUrl":    l.VideoURL,
			"description": l.Description,
		})
	}
	outline := make([]any, 0, len(c.Outline))
	for _, s := range c.Outline {
		topics := make([]any, 0, len(s.Topics))
		for _, t := range s.Topics {
			topics = append(topics, t)
		}
		outline = append(outline, map[string]any{"title": s.Title, "topics": topics})
	}
	return store.Fields{
		"title":       c.Title,
		"description": c.Description,
		"instructor":  c.Instructor,
		"price":       c.Price,
		"duration":    map[string]any{"value": c.Duration.Value, "unit": c.Duration.Unit},
		"level":       string(c.Level),
		"category":    c.Category,
		"imageUrl":    c.ImageURL,
		"lectures":    lectures,
		"outline":     outline,
		"createdBy":   c.CreatedBy,
		"createdAt":   formatTime(c.CreatedAt),
	}
}

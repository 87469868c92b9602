package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
)

// Filter narrows the catalog. Empty values and "all" match everything.
type Filter struct {
	SearchText string
	Level      string
	Category   string
}

type SortField string

const (
	SortByTitle SortField = "title"
	SortByPrice SortField = "price"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseSortField(s string) (SortField, bool) {
	switch SortField(strings.ToLower(strings.TrimSpace(s))) {
	case SortByTitle:
		return SortByTitle, true
	case SortByPrice:
		return SortByPrice, true
	}
	return "", false
}

func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// FilterCourses keeps courses whose title, description or instructor
// contains the search text, and whose level and category match.
func FilterCourses(courses []models.Course, f Filter) []models.Course {
	search := strings.ToLower(strings.TrimSpace(f.SearchText))
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Title), search) &&
			!strings.Contains(strings.ToLower(c.Description), search) &&
			!strings.Contains(strings.ToLower(c.Instructor), search) {
			continue
		}
		if !matchesDimension(f.Level, string(c.Level)) || !matchesDimension(f.Category, c.Category) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesDimension(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" || strings.EqualFold(want, "all") {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

// SortCourses sorts a copy of courses with English collation for titles.
func SortCourses(courses []models.Course, field SortField, dir Direction) []models.Course {
	return SortCoursesLocale(courses, field, dir, language.English)
}

// SortCoursesLocale is SortCourses with titles compared under the collation
// rules of tag. The sort is stable; Desc reverses the comparator.
func SortCoursesLocale(courses []models.Course, field SortField, dir Direction, tag language.Tag) []models.Course {
	out := append([]models.Course(nil), courses...)

	var cmp func(a, b *models.Course) int
	switch field {
	case SortByTitle:
		col := collate.New(tag, collate.IgnoreCase)
		cmp = func(a, b *models.Course) int { return col.CompareString(a.Title, b.Title) }
	case SortByPrice:
		cmp = func(a, b *models.Course) int {
			switch {
			case a.Price < b.Price:
				return -1
			case a.Price > b.Price:
				return 1
			}
			return 0
		}
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(&out[i], &out[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Paginate returns the 1-indexed page of items. Pages past the end come
// back empty; clamping them is the caller's job.
func Paginate[T any](items []T, pageSize, pageNumber int) ([]T, error) {
	if pageNumber < 1 || pageSize < 1 {
		return nil, fmt.Errorf("page %d of size %d: %w", pageNumber, pageSize, apperr.ErrIndexOutOfRange)
	}
	if len(items) == 0 || pageNumber-1 > (len(items)-1)/pageSize {
		return []T{}, nil
	}
	start := (pageNumber - 1) * pageSize
	end := len(items)
	if pageSize < end-start {
		end = start + pageSize
	}
	return items[start:end], nil
}

// PageCount is the number of pages needed for total items; at least 1.
func PageCount(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

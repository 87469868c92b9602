package controllers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"learnhub/backend/apperr"
	"learnhub/backend/catalog"
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/session"
	"learnhub/backend/utils"
)

const (
	defaultPageSize = 9
	maxPageSize     = 100
)

type CoursesController struct {
	Catalog *catalog.Cache
	Cfg     *config.Config
}

func NewCoursesController(cat *catalog.Cache, cfg *config.Config) *CoursesController {
	return &CoursesController{Catalog: cat, Cfg: cfg}
}

// ListCourses godoc
// @Summary Browse the catalog
// @Tags courses
// @Param search query string false "Search in title, description and instructor"
// @Param level query string false "Beginner|Intermediate|Advanced|all"
// @Param category query string false "Category or all"
// @Param sort query string false "title|price"
// @Param dir query string false "asc|desc"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(9)
// @Success 200 {object} utils.PaginatedResponse
// @Router /courses [get]
func (cc *CoursesController) ListCourses(c *fiber.Ctx) error {
	courses, err := cc.Catalog.Courses(c.UserContext())
	if err != nil {
		return utils.Fail(c, err)
	}

	courses = catalog.FilterCourses(courses, catalog.Filter{
		SearchText: c.Query("search"),
		Level:      c.Query("level"),
		Category:   c.Query("category"),
	})
	if field, ok := catalog.ParseSortField(c.Query("sort")); ok {
		courses = catalog.SortCoursesLocale(courses, field, catalog.ParseDirection(c.Query("dir")), preferredLanguage(c))
	}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		return utils.Fail(c, err)
	}
	pageSize, err := queryInt(c, "page_size", defaultPageSize)
	if err != nil {
		return utils.Fail(c, err)
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	items, err := catalog.Paginate(courses, pageSize, page)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Paginate(c, items, int64(len(courses)), page, pageSize)
}

// GetCourse godoc
// @Summary Course details
// @Tags courses
// @Param id path string true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} utils.ErrorResponse
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourse(c *fiber.Ctx) error {
	course, err := cc.Catalog.Course(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, course)
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var input catalog.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.Instructor == "" && s.Role == models.RoleInstructor {
		input.Instructor = s.DisplayName
	}
	if err := utils.Validate(input); err != nil {
		return utils.Fail(c, err)
	}

	course, err := cc.Catalog.CreateCourse(c.UserContext(), input, s.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, course)
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	id := c.Params("id")
	if err := cc.authorize(c, s, id); err != nil {
		return utils.Fail(c, err)
	}

	var input catalog.CourseInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.Validate(input); err != nil {
		return utils.Fail(c, err)
	}
	course, err := cc.Catalog.UpdateCourse(c.UserContext(), id, input)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, course)
}

func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	id := c.Params("id")
	if err := cc.authorize(c, s, id); err != nil {
		return utils.Fail(c, err)
	}
	if err := cc.Catalog.DeleteCourse(c.UserContext(), id); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}

// authorize lets admins edit any course and instructors only their own.
func (cc *CoursesController) authorize(c *fiber.Ctx, s session.Session, id string) error {
	course, err := cc.Catalog.Course(c.UserContext(), id)
	if err != nil {
		return err
	}
	if s.Role == models.RoleAdmin || catalog.OwnedBy(course, s.UserID, s.DisplayName) {
		return nil
	}
	return fmt.Errorf("course %s belongs to another instructor: %w", id, apperr.ErrForbidden)
}

func preferredLanguage(c *fiber.Ctx) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
	if err != nil || len(tags) == 0 {
		return language.English
	}
	return tags[0]
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidation(map[string]string{key: "must be an integer"})
	}
	return v, nil
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/backend/config"
	"learnhub/backend/grading"
	"learnhub/backend/models"
	"learnhub/backend/session"
	"learnhub/backend/utils"
)

type AssignmentsController struct {
	Grading *grading.Service
	Cfg     *config.Config
}

func NewAssignmentsController(svc *grading.Service, cfg *config.Config) *AssignmentsController {
	return &AssignmentsController{Grading: svc, Cfg: cfg}
}

// ListAssignments godoc
// @Summary Assignments with the caller's latest status, answer key removed
// @Tags assignments
// @Param course_id query string false "Only assignments of this course"
// @Security ApiKeyAuth
// @Router /assignments [get]
func (ac *AssignmentsController) ListAssignments(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	ctx := c.UserContext()
	assignments, err := ac.Grading.List(ctx, c.Query("course_id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	subs, err := ac.Grading.Submissions(ctx, s.UserID, "")
	if err != nil {
		return utils.Fail(c, err)
	}

	views := make([]grading.AssignmentView, 0, len(assignments))
	for i := range assignments {
		views = append(views, grading.ViewFor(&assignments[i], subs))
	}
	return utils.Success(c, fiber.StatusOK, views)
}

func (ac *AssignmentsController) GetAssignment(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	ctx := c.UserContext()
	a, err := ac.Grading.Assignment(ctx, c.Params("id"))
	if err != nil {
		return utils.Fail(c, err)
	}
	subs, err := ac.Grading.Submissions(ctx, s.UserID, a.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, grading.ViewFor(a, subs))
}

// Submit godoc
// @Summary Submit answers; graded on the server
// @Tags assignments
// @Param id path string true "Assignment ID"
// @Param input body object true "{selections: [int|null]}"
// @Failure 422 {object} utils.ErrorResponse "unanswered questions"
// @Security ApiKeyAuth
// @Router /assignments/{id}/submit [post]
func (ac *AssignmentsController) Submit(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var input struct {
		Selections []*int `json:"selections"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	sub, err := ac.Grading.Submit(c.UserContext(), s.UserID, c.Params("id"), input.Selections)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, sub)
}

// CreateAssignment accepts the full answer key; it is validated before
// anything is stored.
func (ac *AssignmentsController) CreateAssignment(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var input models.Assignment
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.ID = ""

	a, err := ac.Grading.Create(c.UserContext(), input, s.UserID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Created(c, a)
}

func (ac *AssignmentsController) DeleteAssignment(c *fiber.Ctx) error {
	if err := ac.Grading.Delete(c.UserContext(), c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}

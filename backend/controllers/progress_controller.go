package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"learnhub/backend/apperr"
	"learnhub/backend/config"
	"learnhub/backend/enrollment"
	"learnhub/backend/models"
	"learnhub/backend/session"
	"learnhub/backend/utils"
)

// ProgressController serves the enrollment ledger of the calling learner.
type ProgressController struct {
	Ledger *enrollment.Ledger
	Cfg    *config.Config
}

func NewProgressController(ledger *enrollment.Ledger, cfg *config.Config) *ProgressController {
	return &ProgressController{Ledger: ledger, Cfg: cfg}
}

func (pc *ProgressController) profile(c *fiber.Ctx) (*models.LearnerProfile, error) {
	s, err := session.From(c)
	if err != nil {
		return nil, err
	}
	return pc.Ledger.Load(c.UserContext(), s.UserID, s.DisplayName)
}

// GetEnrollments godoc
// @Summary Enrollment ledger of the caller
// @Tags progress
// @Security ApiKeyAuth
// @Router /enrollments [get]
func (pc *ProgressController) GetEnrollments(c *fiber.Ctx) error {
	p, err := pc.profile(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"enrolledCourseIds": p.SortedEnrollments(),
		"enrollmentDates":   p.EnrollmentDates,
		"progressPercent":   p.ProgressPercent,
		"completedLectures": p.CompletedLectures,
	})
}

func (pc *ProgressController) Enroll(c *fiber.Ctx) error {
	p, err := pc.profile(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	courseID := c.Params("id")
	p, err = pc.Ledger.Enroll(c.UserContext(), p, courseID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"courseId":   courseID,
		"enrolledAt": p.EnrollmentDates[courseID],
		"percent":    p.ProgressPercent[courseID],
	})
}

func (pc *ProgressController) Drop(c *fiber.Ctx) error {
	p, err := pc.profile(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	if _, err := pc.Ledger.Drop(c.UserContext(), p, c.Params("id")); err != nil {
		return utils.Fail(c, err)
	}
	return utils.NoContent(c)
}

// SetLecture godoc
// @Summary Mark a lecture complete or incomplete
// @Tags progress
// @Param id path string true "Course ID"
// @Param index path int true "Lecture index, 0-based"
// @Param input body object true "{completed: bool}"
// @Security ApiKeyAuth
// @Router /courses/{id}/lectures/{index} [put]
func (pc *ProgressController) SetLecture(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return utils.Fail(c, apperr.ErrIndexOutOfRange)
	}
	var input struct {
		Completed *bool `json:"completed" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.Validate(input); err != nil {
		return utils.Fail(c, err)
	}

	p, err := pc.profile(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	update, err := pc.Ledger.SetLectureComplete(c.UserContext(), p, c.Params("id"), index, *input.Completed)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"courseId":          c.Params("id"),
		"percent":           update.Percent,
		"completedLectures": update.CompletedCount,
		"totalLectures":     update.TotalLectures,
		"justCompleted":     update.JustCompleted,
	})
}

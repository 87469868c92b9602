package controllers

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/backend/catalog"
	"learnhub/backend/config"
	"learnhub/backend/dashboard"
	"learnhub/backend/enrollment"
	"learnhub/backend/models"
	"learnhub/backend/session"
	"learnhub/backend/utils"
)

type DashboardController struct {
	Dashboard *dashboard.Service
	Ledger    *enrollment.Ledger
	Cfg       *config.Config
}

func NewDashboardController(svc *dashboard.Service, ledger *enrollment.Ledger, cfg *config.Config) *DashboardController {
	return &DashboardController{Dashboard: svc, Ledger: ledger, Cfg: cfg}
}

// GetDashboard godoc
// @Summary Role-specific overview
// @Description Learners get their courses and progress, instructors the
// @Description enrollment stats of their courses, admins platform counts.
// @Tags dashboard
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	ctx := c.UserContext()

	switch s.Role {
	case models.RoleAdmin:
		stats, err := dc.Dashboard.Platform(ctx)
		if err != nil {
			return utils.Fail(c, err)
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"role": s.Role, "platform": stats})

	case models.RoleInstructor:
		overview, err := dc.Dashboard.Instructor(ctx, s.DisplayName, func(course *models.Course) bool {
			return catalog.OwnedBy(course, s.UserID, s.DisplayName)
		})
		if err != nil {
			return utils.Fail(c, err)
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"role": s.Role, "instructor": overview})

	default:
		p, err := dc.Ledger.Load(ctx, s.UserID, s.DisplayName)
		if err != nil {
			return utils.Fail(c, err)
		}
		overview, err := dc.Dashboard.Learner(ctx, p)
		if err != nil {
			return utils.Fail(c, err)
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{"role": s.Role, "learner": overview})
	}
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/backend/accounts"
	"learnhub/backend/config"
	"learnhub/backend/enrollment"
	"learnhub/backend/session"
	"learnhub/backend/utils"
)

type UserController struct {
	Accounts *accounts.Service
	Ledger   *enrollment.Ledger
	Cfg      *config.Config
}

func NewUserController(svc *accounts.Service, ledger *enrollment.Ledger, cfg *config.Config) *UserController {
	return &UserController{Accounts: svc, Ledger: ledger, Cfg: cfg}
}

type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// GetProfile godoc
// @Summary Get user profile
// @Description Returns the caller's profile with a reconciled enrollment ledger
// @Tags users
// @Produce json
// @Success 200 {object} models.LearnerProfile
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /user/profile [get]
func (uc *UserController) GetProfile(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	p, err := uc.Ledger.Load(c.UserContext(), s.UserID, s.DisplayName)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, p)
}

// UpdateProfile godoc
// @Summary Update display name
// @Description Only the display name is editable; the role is fixed at signup.
// @Tags users
// @Accept json
// @Param input body UpdateProfileRequest true "Profile update data"
// @Security ApiKeyAuth
// @Router /user/profile [put]
func (uc *UserController) UpdateProfile(c *fiber.Ctx) error {
	s, err := session.From(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var input UpdateProfileRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := utils.Validate(input); err != nil {
		return utils.Fail(c, err)
	}

	p, err := uc.Accounts.Rename(c.UserContext(), s.UserID, input.Name)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"id":   p.ID,
		"name": p.Name,
		"role": p.Role,
	})
}

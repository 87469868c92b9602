package controllers

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/backend/accounts"
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"
)

type AuthController struct {
	Accounts *accounts.Service
	Cfg      *config.Config
}

func NewAuthController(svc *accounts.Service, cfg *config.Config) *AuthController {
	return &AuthController{Accounts: svc, Cfg: cfg}
}

// Register godoc
// @Summary Register a new user
// @Description Creates the profile and returns a token. Role is learner or instructor and cannot be changed later.
// @Tags auth
// @Accept json
// @Produce json
// @Param user body accounts.RegisterInput true "User registration data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input accounts.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	profile, err := ac.Accounts.Register(c.UserContext(), input)
	if err != nil {
		return utils.Fail(c, err)
	}
	return ac.respondWithToken(c, fiber.StatusCreated, profile)
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body accounts.LoginInput true "Login credentials"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input accounts.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	profile, err := ac.Accounts.Login(c.UserContext(), input)
	if err != nil {
		return utils.Fail(c, err)
	}
	return ac.respondWithToken(c, fiber.StatusOK, profile)
}

func (ac *AuthController) respondWithToken(c *fiber.Ctx, status int, p *models.LearnerProfile) error {
	token, err := utils.GenerateJWTToken(accounts.SessionFor(p), ac.Cfg)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, err)
	}
	return utils.Success(c, status, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    p.ID,
			"name":  p.Name,
			"email": p.Email,
			"role":  p.Role,
		},
	})
}

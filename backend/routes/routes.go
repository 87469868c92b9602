package routes

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/backend/accounts"
	"learnhub/backend/assets"
	"learnhub/backend/catalog"
	"learnhub/backend/config"
	"learnhub/backend/controllers"
	"learnhub/backend/dashboard"
	"learnhub/backend/enrollment"
	"learnhub/backend/grading"
	"learnhub/backend/middleware"
	"learnhub/backend/models"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

// Services are the domain components the HTTP layer is built on.
type Services struct {
	Catalog   *catalog.Cache
	Ledger    *enrollment.Ledger
	Grading   *grading.Service
	Accounts  *accounts.Service
	Dashboard *dashboard.Service
	Uploader  assets.Uploader
}

// NewServices wires every component over one document store.
func NewServices(s store.DocumentStore, snapshot catalog.Snapshot, uploader assets.Uploader, cfg *config.Config, log *utils.Logger) *Services {
	cat := catalog.NewCache(s, snapshot, cfg.CatalogTTL, log)
	return &Services{
		Catalog:   cat,
		Ledger:    enrollment.NewLedger(s, cat, cfg.LedgerMaxRetries, log),
		Grading:   grading.NewService(s, cfg.AssignmentAttempts, log),
		Accounts:  accounts.NewService(s, log),
		Dashboard: dashboard.NewService(s, cat),
		Uploader:  uploader,
	}
}

func SetupRoutes(app *fiber.App, svc *Services, cfg *config.Config) {
	api := app.Group("/api")

	// Auth routes
	authController := controllers.NewAuthController(svc.Accounts, cfg)
	api.Post("/auth/register", authController.Register)
	api.Post("/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	authorMiddleware := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)

	// User routes
	userController := controllers.NewUserController(svc.Accounts, svc.Ledger, cfg)
	api.Get("/user/profile", authMiddleware, userController.GetProfile)
	api.Put("/user/profile", authMiddleware, userController.UpdateProfile)

	// Dashboard
	dashboardController := controllers.NewDashboardController(svc.Dashboard, svc.Ledger, cfg)
	api.Get("/dashboard", authMiddleware, dashboardController.GetDashboard)

	// Catalog is public
	coursesController := controllers.NewCoursesController(svc.Catalog, cfg)
	api.Get("/courses", coursesController.ListCourses)
	api.Get("/courses/:id", coursesController.GetCourse)

	// Enrollment ledger
	progressController := controllers.NewProgressController(svc.Ledger, cfg)
	api.Get("/enrollments", authMiddleware, progressController.GetEnrollments)
	api.Post("/courses/:id/enroll", authMiddleware, progressController.Enroll)
	api.Delete("/courses/:id/enroll", authMiddleware, progressController.Drop)
	api.Put("/courses/:id/lectures/:index", authMiddleware, progressController.SetLecture)

	// Assignments
	assignmentsController := controllers.NewAssignmentsController(svc.Grading, cfg)
	assignments := api.Group("/assignments", authMiddleware)
	assignments.Get("/", assignmentsController.ListAssignments)
	assignments.Get("/:id", assignmentsController.GetAssignment)
	assignments.Post("/:id/submit", assignmentsController.Submit)

	// Assets
	assetsController := controllers.NewAssetsController(svc.Uploader, cfg)
	api.Post("/assets", authMiddleware, authorMiddleware, assetsController.Upload)

	// Authoring routes for courses
	adminCourses := api.Group("/admin/courses", authMiddleware, authorMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Delete("/:id", coursesController.DeleteCourse)

	// Authoring routes for assignments
	adminAssignments := api.Group("/admin/assignments", authMiddleware, authorMiddleware)
	adminAssignments.Post("/", assignmentsController.CreateAssignment)
	adminAssignments.Delete("/:id", assignmentsController.DeleteAssignment)
}

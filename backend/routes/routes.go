package routes

import (
	"project/backend/config"
	"project/backend/controllers"
	"project/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Dashboard
	dashboardController := controllers.NewDashboardController(db, cfg)
	app.Get("/api/dashboard", authMiddleware, dashboardController.GetDashboard)

	// Progress / unlock routes
	unlockController := controllers.NewUnlockController(db, cfg)
	app.Get("/api/progress", authMiddleware, unlockController.GetProgress)
	app.Post("/api/progress/check-unlock", authMiddleware, unlockController.CheckUnlock)

	// Week routes
	weeksController := controllers.NewWeeksController(db, cfg)
	submissionsController := controllers.NewSubmissionsController(db, cfg)
	weeks := app.Group("/api/weeks", authMiddleware)
	weeks.Get("/:id", weeksController.GetWeekDetails)
	weeks.Post("/:id/video-watch", weeksController.RecordVideoWatch)
	weeks.Post("/:id/quiz", submissionsController.SubmitQuiz)
	weeks.Post("/:id/assignment", submissionsController.SubmitAssignment)

	// Submission routes
	submissions := app.Group("/api/submissions", authMiddleware)
	submissions.Get("/", submissionsController.GetMySubmissions)
	submissions.Get("/:id/result", submissionsController.GetSubmissionResult)
	submissions.Delete("/:id", submissionsController.DeleteSubmission)

	// Admin routes for phases and weeks
	contentController := controllers.NewContentController(db, cfg)
	adminPhases := app.Group("/api/admin/phases", authMiddleware, adminMiddleware)
	adminPhases.Post("/", contentController.CreatePhase)
	adminPhases.Put("/:id", contentController.UpdatePhase)
	adminPhases.Delete("/:id", contentController.DeletePhase)

	adminController := controllers.NewAdminController(db, cfg)
	adminWeeks := app.Group("/api/admin/weeks", authMiddleware, adminMiddleware)
	adminWeeks.Post("/", contentController.CreateWeek)
	adminWeeks.Put("/:id", contentController.UpdateWeek)
	adminWeeks.Delete("/:id", contentController.DeleteWeek)
	adminWeeks.Put("/:id/content", contentController.UpsertWeekContent)
	adminWeeks.Get("/:id/submissions", adminController.ListWeekSubmissions)

	// Admin routes for submissions and students
	adminSubmissions := app.Group("/api/admin/submissions", authMiddleware, adminMiddleware)
	adminSubmissions.Put("/:id/review", adminController.ReviewSubmission)
	adminSubmissions.Delete("/:id", adminController.DeleteSubmission)

	adminStudents := app.Group("/api/admin/students", authMiddleware, adminMiddleware)
	adminStudents.Get("/", adminController.ListStudents)
	adminStudents.Get("/:id/progress", adminController.GetStudentProgress)
	adminStudents.Post("/:id/approve", adminController.ApproveAdvancement)
	adminStudents.Put("/:id/progress/:weekId", adminController.OverrideProgress)
}

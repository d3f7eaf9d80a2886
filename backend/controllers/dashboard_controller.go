package controllers

import (
	"project/backend/config"
	"project/backend/models"
	"project/backend/progress"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewDashboardController(db *gorm.DB, cfg *config.Config) *DashboardController {
	return &DashboardController{DB: db, Cfg: cfg}
}

// GetDashboard godoc
// @Summary Get the student dashboard tree
// @Description Returns phases with weeks, per-week progress, derived percentages and lock state
// @Tags dashboard
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, dc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var phases []models.Phase
	if err := dc.DB.Preload("Weeks", func(db *gorm.DB) *gorm.DB {
		return db.Order("week_number ASC")
	}).Order("number ASC").Find(&phases).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	records, err := progressRecordsByWeek(dc.DB, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	status, err := loadStudentStatus(dc.DB, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Percentages are always derived here from the live records, never
	// read from a stored column
	var allWeeks []progress.WeekPoints
	phaseViews := make([]fiber.Map, 0, len(phases))
	for _, phase := range phases {
		points := weekPointsFor(phase.Weeks, records)
		allWeeks = append(allWeeks, points...)
		percent := progress.PhasePercent(points)
		unlocked := progress.PhaseUnlocked(phase.Number, status.CurrentPhase)

		weekViews := make([]fiber.Map, 0, len(phase.Weeks))
		for _, week := range phase.Weeks {
			record := records[week.ID]
			weekViews = append(weekViews, fiber.Map{
				"id":                   week.ID,
				"week_number":          week.WeekNumber,
				"title":                week.Title,
				"max_points":           week.MaxPoints,
				"points":               record.Points,
				"progress":             progress.WeekPercent(record.Points, week.MaxPoints),
				"video_watched":        record.VideoWatched,
				"assignment_submitted": record.AssignmentSubmitted,
				"completed":            record.Completed,
				"locked":               !unlocked || record.IsLocked,
			})
		}

		phaseViews = append(phaseViews, fiber.Map{
			"id":         phase.ID,
			"number":     phase.Number,
			"title":      phase.Title,
			"start_week": phase.StartWeek,
			"end_week":   phase.EndWeek,
			"progress":   percent,
			"completed":  progress.PhaseCompleted(percent),
			"unlocked":   unlocked,
			"weeks":      weekViews,
		})
	}

	return c.JSON(fiber.Map{
		"current_phase":    status.CurrentPhase,
		"pending_approval": status.PendingApproval,
		"overall_progress": progress.OverallPercent(allWeeks),
		"phases":           phaseViews,
	})
}

package controllers

import (
	"encoding/json"
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/progress"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WeeksController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewWeeksController(db *gorm.DB, cfg *config.Config) *WeeksController {
	return &WeeksController{DB: db, Cfg: cfg}
}

func (wc *WeeksController) GetWeekDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, wc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	var week models.Week
	if err := wc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	accessible, err := weekAccessible(wc.DB, userID, &week)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if !accessible {
		return utils.RespondError(c, utils.NewFailedPrecondition("Phase is locked"))
	}

	// Reads never create a progress record - absence is zero progress
	var record models.ProgressRecord
	wc.DB.Where("student_id = ? AND week_id = ?", userID, week.ID).First(&record)

	response := fiber.Map{
		"week": fiber.Map{
			"id":                week.ID,
			"week_number":       week.WeekNumber,
			"title":             week.Title,
			"description":       week.Description,
			"max_points":        week.MaxPoints,
			"video_points":      week.VideoPoints,
			"assignment_points": week.AssignmentPoints,
		},
		"progress": fiber.Map{
			"points":               record.Points,
			"progress":             progress.WeekPercent(record.Points, week.MaxPoints),
			"video_watched":        record.VideoWatched,
			"assignment_submitted": record.AssignmentSubmitted,
			"completed":            record.Completed,
		},
	}

	var content models.WeekContent
	err = wc.DB.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Preload("Resources", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Where("week_id = ?", week.ID).First(&content).Error

	// Unpublished content is invisible to students
	if err == nil && content.IsPublished {
		response["content"] = studentContentView(&content)
	}

	return c.JSON(response)
}

// studentContentView shapes week content for the student side. Correct
// answers stay server-side.
func studentContentView(content *models.WeekContent) fiber.Map {
	videos := make([]fiber.Map, 0, len(content.Videos))
	for _, v := range content.Videos {
		videos = append(videos, fiber.Map{
			"id":               v.ID,
			"title":            v.Title,
			"url":              v.URL,
			"duration_seconds": v.DurationSeconds,
			"order":            v.SequenceOrder,
		})
	}

	questions := make([]fiber.Map, 0, len(content.Questions))
	for _, q := range content.Questions {
		var options []string
		json.Unmarshal([]byte(q.Options), &options)

		questions = append(questions, fiber.Map{
			"id":       q.ID,
			"question": q.Question,
			"options":  options,
			"order":    q.SequenceOrder,
		})
	}

	resources := make([]fiber.Map, 0, len(content.Resources))
	for _, r := range content.Resources {
		resources = append(resources, fiber.Map{
			"id":    r.ID,
			"title": r.Title,
			"url":   r.URL,
			"order": r.SequenceOrder,
		})
	}

	return fiber.Map{
		"instructions":           content.Instructions,
		"notes":                  content.Notes,
		"assignment_description": content.AssignmentDescription,
		"assignment_deadline":    content.AssignmentDeadline,
		"grading_criteria":       content.GradingCriteria,
		"videos":                 videos,
		"questions":              questions,
		"resources":              resources,
	}
}

// RecordVideoWatch awards the week's video points once the student has
// played enough of the videos. Calling it again after credit was given
// is a no-op.
func (wc *WeeksController) RecordVideoWatch(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, wc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	var input struct {
		PlayedFraction float64 `json:"played_fraction"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var week models.Week
	if err := wc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	accessible, err := weekAccessible(wc.DB, userID, &week)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if !accessible {
		return utils.RespondError(c, utils.NewFailedPrecondition("Phase is locked"))
	}

	var record *models.ProgressRecord
	err = wc.DB.Transaction(func(tx *gorm.DB) error {
		record, err = lockProgressRecord(tx, userID, week.ID)
		if err != nil {
			return err
		}
		if record.IsLocked {
			return utils.NewFailedPrecondition("Week is locked")
		}

		credit, err := progress.VideoCredit(input.PlayedFraction, record.VideoWatched)
		if err != nil {
			return utils.NewValidationError("played_fraction must be between 0 and 1")
		}
		if !credit {
			// Either below the watch threshold or already credited
			return nil
		}

		record.VideoWatched = true
		record.VideoPoints = week.VideoPoints
		record.Points = progress.TotalPoints(record.VideoPoints, record.AssignmentPoints, week.MaxPoints)
		record.Completed = record.Completed || progress.WeekCompleted(record.Points, week.MaxPoints)
		return tx.Save(record).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Progress updated",
		"progress": fiber.Map{
			"points":        record.Points,
			"video_watched": record.VideoWatched,
			"video_points":  record.VideoPoints,
			"completed":     record.Completed,
		},
	})
}

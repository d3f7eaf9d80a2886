package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/progress"
	"project/backend/utils"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SubmissionsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewSubmissionsController(db *gorm.DB, cfg *config.Config) *SubmissionsController {
	return &SubmissionsController{DB: db, Cfg: cfg}
}

// SubmitQuiz grades the student's answers against the week's quiz and
// stores the result as a submission. The score is informational for the
// admin side; it does not move progress-record points.
func (sc *SubmissionsController) SubmitQuiz(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
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
		Answers []progress.QuizAnswer `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var week models.Week
	if err := sc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	accessible, err := weekAccessible(sc.DB, userID, &week)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if !accessible {
		return utils.RespondError(c, utils.NewFailedPrecondition("Phase is locked"))
	}

	if err := rejectLockedWeek(sc.DB, userID, week.ID); err != nil {
		return utils.RespondError(c, err)
	}

	// Draft content is invisible to students, so it cannot be submitted against
	var content models.WeekContent
	if err := sc.DB.Preload("Questions").Where("week_id = ?", week.ID).First(&content).Error; err != nil ||
		!content.IsPublished || len(content.Questions) == 0 {
		return utils.RespondError(c, utils.NewFailedPrecondition("Week has no quiz"))
	}

	// One attempt per week
	var existing int64
	sc.DB.Model(&models.Submission{}).
		Where("student_id = ? AND week_id = ? AND type = ?", userID, week.ID, models.SubmissionTypeQuiz).
		Count(&existing)
	if existing > 0 {
		return utils.RespondError(c, utils.NewFailedPrecondition("Quiz already submitted"))
	}

	correct := make(map[uint]int, len(content.Questions))
	for _, q := range content.Questions {
		correct[q.ID] = q.CorrectAnswer
	}

	score, err := progress.GradeQuiz(input.Answers, correct)
	if err != nil {
		return utils.RespondError(c, utils.NewValidationError(err.Error()))
	}

	submission := models.Submission{
		WeekID:      week.ID,
		StudentID:   userID,
		Type:        models.SubmissionTypeQuiz,
		SubmittedAt: time.Now(),
		Status:      models.SubmissionStatusSubmitted,
		Score:       score,
	}
	if err := sc.DB.Create(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save submission",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Quiz submitted",
		"result": fiber.Map{
			"submission_id": submission.ID,
			"score":         score,
			"total":         len(content.Questions),
		},
	})
}

func (sc *SubmissionsController) SubmitAssignment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
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
		GithubURL string `json:"github_url"`
		FileName  string `json:"file_name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.GithubURL == "" && input.FileName == "" {
		return utils.RespondError(c, utils.NewValidationError("github_url or file_name is required"))
	}

	var week models.Week
	if err := sc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	accessible, err := weekAccessible(sc.DB, userID, &week)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if !accessible {
		return utils.RespondError(c, utils.NewFailedPrecondition("Phase is locked"))
	}

	if err := rejectLockedWeek(sc.DB, userID, week.ID); err != nil {
		return utils.RespondError(c, err)
	}

	submission := models.Submission{
		WeekID:      week.ID,
		StudentID:   userID,
		Type:        models.SubmissionTypeAssignment,
		SubmittedAt: time.Now(),
		Status:      models.SubmissionStatusSubmitted,
		GithubURL:   input.GithubURL,
		FileName:    input.FileName,
	}
	if err := sc.DB.Create(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save submission",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Assignment submitted",
		"submission": submissionView(&submission),
	})
}

func (sc *SubmissionsController) GetMySubmissions(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	query := sc.DB.Where("student_id = ?", userID)
	if weekID := c.Query("week_id"); weekID != "" {
		query = query.Where("week_id = ?", weekID)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	views := make([]fiber.Map, 0, len(submissions))
	for i := range submissions {
		views = append(views, submissionView(&submissions[i]))
	}

	return c.JSON(fiber.Map{
		"submissions": views,
	})
}

func (sc *SubmissionsController) GetSubmissionResult(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	submissionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	var submission models.Submission
	if err := sc.DB.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Submission not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if submission.StudentID != userID {
		return utils.RespondError(c, utils.NewForbidden("Not your submission"))
	}

	return c.JSON(fiber.Map{
		"submission": submissionView(&submission),
	})
}

// DeleteSubmission removes the student's own submission. Once an admin
// has reviewed it the delete is rejected, so an in-flight review cannot
// be undone by a racing student delete.
func (sc *SubmissionsController) DeleteSubmission(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, sc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	submissionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	err = sc.DB.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := lockForUpdate(tx).First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFound("Submission not found")
			}
			return err
		}

		if submission.StudentID != userID {
			return utils.NewForbidden("Not your submission")
		}
		if submission.Status != models.SubmissionStatusSubmitted {
			return utils.NewFailedPrecondition("Submission has already been reviewed")
		}

		return tx.Delete(&submission).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Submission deleted",
	})
}

func submissionView(s *models.Submission) fiber.Map {
	return fiber.Map{
		"id":           s.ID,
		"week_id":      s.WeekID,
		"student_id":   s.StudentID,
		"type":         s.Type,
		"submitted_at": s.SubmittedAt,
		"status":       s.Status,
		"score":        s.Score,
		"feedback":     s.Feedback,
		"github_url":   s.GithubURL,
		"file_name":    s.FileName,
	}
}

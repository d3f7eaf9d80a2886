package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/progress"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminController carries submission review, student management and
// phase-advancement approval.
type AdminController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAdminController(db *gorm.DB, cfg *config.Config) *AdminController {
	return &AdminController{DB: db, Cfg: cfg}
}

func (ac *AdminController) ListWeekSubmissions(c *fiber.Ctx) error {
	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	var submissions []models.Submission
	if err := ac.DB.Where("week_id = ?", weekID).Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	views := make([]fiber.Map, 0, len(submissions))
	for i := range submissions {
		s := &submissions[i]
		view := submissionView(s)

		var student models.User
		if err := ac.DB.First(&student, s.StudentID).Error; err == nil {
			view["username"] = student.Username
		}
		views = append(views, view)
	}

	return c.JSON(fiber.Map{
		"submissions": views,
	})
}

// ReviewSubmission records an admin verdict on a submission. An
// approved assignment pushes its points onto the student's progress
// record; a verdict that unwinds an earlier approval pulls them back.
// Everything happens in one locked transaction so a racing student
// delete or second review sees a consistent state.
func (ac *AdminController) ReviewSubmission(c *fiber.Ctx) error {
	submissionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	var input struct {
		Score    *int   `json:"score"`
		Feedback string `json:"feedback"`
		Status   string `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	switch input.Status {
	case models.SubmissionStatusReviewed, models.SubmissionStatusApproved, models.SubmissionStatusRejected:
	default:
		return utils.RespondError(c, utils.NewValidationError("status must be reviewed, approved or rejected"))
	}
	if input.Score == nil {
		return utils.RespondError(c, utils.NewValidationError("score is required"))
	}

	var submission models.Submission
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFound("Submission not found")
			}
			return err
		}

		var week models.Week
		if err := tx.First(&week, submission.WeekID).Error; err != nil {
			return err
		}

		// Score bounds depend on the submission kind; nothing is
		// mutated when the bound check fails
		var assignmentPoints int
		switch submission.Type {
		case models.SubmissionTypeAssignment:
			pts, err := progress.AssignmentPointsFor(*input.Score, week.AssignmentPoints)
			if err != nil {
				return utils.NewValidationError("score must be between 0 and 100")
			}
			assignmentPoints = pts
		case models.SubmissionTypeQuiz:
			var total int64
			tx.Model(&models.QuizQuestion{}).
				Joins("JOIN week_contents ON week_contents.id = quiz_questions.week_content_id").
				Where("week_contents.week_id = ?", week.ID).
				Count(&total)
			if *input.Score < 0 || int64(*input.Score) > total {
				return utils.NewValidationError("score exceeds the question count")
			}
		}

		wasApproved := submission.Status == models.SubmissionStatusApproved
		submission.Score = *input.Score
		submission.Feedback = input.Feedback
		submission.Status = input.Status
		if err := tx.Save(&submission).Error; err != nil {
			return err
		}

		if submission.Type != models.SubmissionTypeAssignment {
			return nil
		}

		approved := submission.Status == models.SubmissionStatusApproved
		if !approved && !wasApproved {
			return nil
		}

		record, err := lockProgressRecord(tx, submission.StudentID, submission.WeekID)
		if err != nil {
			return err
		}
		if approved {
			record.AssignmentSubmitted = true
			record.AssignmentPoints = assignmentPoints
		} else {
			// Approval withdrawn: pull the points back
			record.AssignmentSubmitted = false
			record.AssignmentPoints = 0
		}
		record.Points = progress.TotalPoints(record.VideoPoints, record.AssignmentPoints, week.MaxPoints)
		record.Completed = progress.WeekCompleted(record.Points, week.MaxPoints)
		return tx.Save(record).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":    "Submission reviewed",
		"submission": submissionView(&submission),
	})
}

// DeleteSubmission is the admin-side delete: any status is fair game,
// and deleting an approved assignment rolls its points back off the
// progress record so derived percentages stay honest.
func (ac *AdminController) DeleteSubmission(c *fiber.Ctx) error {
	submissionID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := lockForUpdate(tx).First(&submission, submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFound("Submission not found")
			}
			return err
		}

		if submission.Type == models.SubmissionTypeAssignment &&
			submission.Status == models.SubmissionStatusApproved {
			var week models.Week
			if err := tx.First(&week, submission.WeekID).Error; err != nil {
				return err
			}
			record, err := lockProgressRecord(tx, submission.StudentID, submission.WeekID)
			if err != nil {
				return err
			}
			record.AssignmentSubmitted = false
			record.AssignmentPoints = 0
			record.Points = progress.TotalPoints(record.VideoPoints, 0, week.MaxPoints)
			record.Completed = progress.WeekCompleted(record.Points, week.MaxPoints)
			if err := tx.Save(record).Error; err != nil {
				return err
			}
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

func (ac *AdminController) ListStudents(c *fiber.Ctx) error {
	var students []models.User
	if err := ac.DB.Where("role = ?", models.RoleStudent).Order("username ASC").Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	views := make([]fiber.Map, 0, len(students))
	for _, student := range students {
		var status models.StudentStatus
		ac.DB.Where("student_id = ?", student.ID).First(&status)
		if status.CurrentPhase == 0 {
			status.CurrentPhase = 1
		}

		views = append(views, fiber.Map{
			"id":               student.ID,
			"username":         student.Username,
			"email":            student.Email,
			"group":            student.Group,
			"university":       student.University,
			"current_phase":    status.CurrentPhase,
			"pending_approval": status.PendingApproval,
		})
	}

	return c.JSON(fiber.Map{
		"students": views,
	})
}

func (ac *AdminController) GetStudentProgress(c *fiber.Ctx) error {
	studentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.User
	if err := ac.DB.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Student not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	view, err := studentProgressView(ac.DB, student.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	view["student"] = fiber.Map{
		"id":       student.ID,
		"username": student.Username,
	}

	return c.JSON(view)
}

// ApproveAdvancement grants a pending phase advancement raised by the
// unlock evaluator for the 80-99% band.
func (ac *AdminController) ApproveAdvancement(c *fiber.Ctx) error {
	studentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var status models.StudentStatus
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("student_id = ?", studentID).First(&status).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewFailedPrecondition("No advancement pending")
			}
			return err
		}
		if status.PendingApproval == 0 {
			return utils.NewFailedPrecondition("No advancement pending")
		}

		status.CurrentPhase = status.PendingApproval
		status.PendingApproval = 0
		return tx.Save(&status).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":       "Advancement approved",
		"current_phase": status.CurrentPhase,
	})
}

// OverrideProgress lets an admin correct a student's record: set points
// directly, mark a week completed regardless of points, or lock it.
func (ac *AdminController) OverrideProgress(c *fiber.Ctx) error {
	studentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}
	weekID, err := strconv.Atoi(c.Params("weekId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	var input struct {
		VideoPoints      *int  `json:"video_points"`
		AssignmentPoints *int  `json:"assignment_points"`
		Completed        *bool `json:"completed"`
		Locked           *bool `json:"locked"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	// An unknown student ID must not lazily create an orphan record
	var student models.User
	if err := ac.DB.First(&student, studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Student not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var week models.Week
	if err := ac.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	if input.VideoPoints != nil && (*input.VideoPoints < 0 || *input.VideoPoints > week.VideoPoints) {
		return utils.RespondError(c, utils.NewValidationError("video_points out of range for this week"))
	}
	if input.AssignmentPoints != nil && (*input.AssignmentPoints < 0 || *input.AssignmentPoints > week.AssignmentPoints) {
		return utils.RespondError(c, utils.NewValidationError("assignment_points out of range for this week"))
	}

	var record *models.ProgressRecord
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		record, err = lockProgressRecord(tx, uint(studentID), week.ID)
		if err != nil {
			return err
		}

		if input.VideoPoints != nil {
			record.VideoPoints = *input.VideoPoints
			record.VideoWatched = *input.VideoPoints > 0
		}
		if input.AssignmentPoints != nil {
			record.AssignmentPoints = *input.AssignmentPoints
			record.AssignmentSubmitted = *input.AssignmentPoints > 0
		}
		record.Points = progress.TotalPoints(record.VideoPoints, record.AssignmentPoints, week.MaxPoints)
		if input.Completed != nil {
			// Explicit admin override of the completion flag
			record.Completed = *input.Completed
		} else {
			record.Completed = progress.WeekCompleted(record.Points, week.MaxPoints)
		}
		if input.Locked != nil {
			record.IsLocked = *input.Locked
		}
		return tx.Save(record).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Progress updated",
		"progress": fiber.Map{
			"points":    record.Points,
			"completed": record.Completed,
			"locked":    record.IsLocked,
		},
	})
}

package controllers

import (
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/progress"
	"project/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UnlockController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUnlockController(db *gorm.DB, cfg *config.Config) *UnlockController {
	return &UnlockController{DB: db, Cfg: cfg}
}

// GetProgress godoc
// @Summary Get per-phase progress and unlock state
// @Description Returns derived phase percentages, the current phase and any pending approval
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress [get]
func (uc *UnlockController) GetProgress(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	view, err := studentProgressView(uc.DB, userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	return c.JSON(view)
}

// CheckUnlock re-evaluates the student's phase unlock state. A finished
// phase (100%) advances immediately; the 80-99% band raises a pending
// approval for an admin to grant. Calling it again without new progress
// changes nothing.
func (uc *UnlockController) CheckUnlock(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, uc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var status models.StudentStatus
	var decision progress.UnlockDecision
	err = uc.DB.Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).Where("student_id = ?", userID).First(&status).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = models.StudentStatus{StudentID: userID, CurrentPhase: 1}
			if err := tx.Create(&status).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var phases []models.Phase
		if err := tx.Preload("Weeks").Order("number ASC").Find(&phases).Error; err != nil {
			return err
		}
		if len(phases) == 0 {
			return nil
		}
		lastPhase := phases[len(phases)-1].Number

		records, err := progressRecordsByWeek(tx, userID)
		if err != nil {
			return err
		}

		// The stored current phase is ground truth; if its row is gone
		// from the phase table the evaluation is a no-op
		percent := 0
		found := false
		for _, phase := range phases {
			if phase.Number == status.CurrentPhase {
				percent = progress.PhasePercent(weekPointsFor(phase.Weeks, records))
				found = true
				break
			}
		}
		if !found {
			return nil
		}

		decision = progress.EvaluateUnlock(status.CurrentPhase, lastPhase, percent)
		switch decision {
		case progress.UnlockAdvance:
			status.CurrentPhase++
			status.PendingApproval = 0
			return tx.Save(&status).Error
		case progress.UnlockNeedsApproval:
			target := status.CurrentPhase + 1
			if status.PendingApproval == target {
				return nil
			}
			status.PendingApproval = target
			return tx.Save(&status).Error
		}
		return nil
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	message := "No change"
	switch decision {
	case progress.UnlockAdvance:
		message = "Phase advanced"
	case progress.UnlockNeedsApproval:
		message = "Awaiting admin approval"
	}

	return c.JSON(fiber.Map{
		"message":          message,
		"current_phase":    status.CurrentPhase,
		"pending_approval": status.PendingApproval,
	})
}

// studentProgressView builds the per-phase progress summary shared by
// the student progress endpoint and the admin student view.
func studentProgressView(db *gorm.DB, studentID uint) (fiber.Map, error) {
	var phases []models.Phase
	if err := db.Preload("Weeks").Order("number ASC").Find(&phases).Error; err != nil {
		return nil, err
	}

	records, err := progressRecordsByWeek(db, studentID)
	if err != nil {
		return nil, err
	}

	status, err := loadStudentStatus(db, studentID)
	if err != nil {
		return nil, err
	}

	var allWeeks []progress.WeekPoints
	phaseViews := make([]fiber.Map, 0, len(phases))
	for _, phase := range phases {
		points := weekPointsFor(phase.Weeks, records)
		allWeeks = append(allWeeks, points...)
		percent := progress.PhasePercent(points)

		phaseViews = append(phaseViews, fiber.Map{
			"number":    phase.Number,
			"title":     phase.Title,
			"progress":  percent,
			"completed": progress.PhaseCompleted(percent),
			"unlocked":  progress.PhaseUnlocked(phase.Number, status.CurrentPhase),
		})
	}

	return fiber.Map{
		"current_phase":    status.CurrentPhase,
		"pending_approval": status.PendingApproval,
		"overall_progress": progress.OverallPercent(allWeeks),
		"phases":           phaseViews,
	}, nil
}

package controllers

import (
	"encoding/json"
	"errors"
	"project/backend/config"
	"project/backend/models"
	"project/backend/utils"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ContentController carries the admin-side CRUD for phases, weeks and
// week content.
type ContentController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewContentController(db *gorm.DB, cfg *config.Config) *ContentController {
	return &ContentController{DB: db, Cfg: cfg}
}

func (cc *ContentController) CreatePhase(c *fiber.Ctx) error {
	var input struct {
		Number    int    `json:"number"`
		Title     string `json:"title"`
		StartWeek int    `json:"start_week"`
		EndWeek   int    `json:"end_week"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	if input.Number < 1 {
		return utils.RespondError(c, utils.NewValidationError("phase number must be at least 1"))
	}
	if input.StartWeek > input.EndWeek {
		return utils.RespondError(c, utils.NewValidationError("start_week must not exceed end_week"))
	}

	var existing int64
	cc.DB.Model(&models.Phase{}).Where("number = ?", input.Number).Count(&existing)
	if existing > 0 {
		return utils.RespondError(c, utils.NewFailedPrecondition("Phase number already exists"))
	}

	phase := models.Phase{
		Number:    input.Number,
		Title:     input.Title,
		StartWeek: input.StartWeek,
		EndWeek:   input.EndWeek,
	}
	if err := cc.DB.Create(&phase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create phase",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Phase created",
		"phase":   phase,
	})
}

func (cc *ContentController) UpdatePhase(c *fiber.Ctx) error {
	phaseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid phase ID",
		})
	}

	var input struct {
		Title     string `json:"title"`
		StartWeek *int   `json:"start_week"`
		EndWeek   *int   `json:"end_week"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var phase models.Phase
	if err := cc.DB.First(&phase, phaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Phase not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Update fields
	if input.Title != "" {
		phase.Title = input.Title
	}
	if input.StartWeek != nil {
		phase.StartWeek = *input.StartWeek
	}
	if input.EndWeek != nil {
		phase.EndWeek = *input.EndWeek
	}
	if phase.StartWeek > phase.EndWeek {
		return utils.RespondError(c, utils.NewValidationError("start_week must not exceed end_week"))
	}

	if err := cc.DB.Save(&phase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update phase",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Phase updated",
		"phase":   phase,
	})
}

func (cc *ContentController) DeletePhase(c *fiber.Ctx) error {
	phaseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid phase ID",
		})
	}

	var phase models.Phase
	if err := cc.DB.First(&phase, phaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Phase not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var weekCount int64
	cc.DB.Model(&models.Week{}).Where("phase_id = ?", phase.ID).Count(&weekCount)
	if weekCount > 0 {
		return utils.RespondError(c, utils.NewFailedPrecondition("Phase still has weeks"))
	}

	if err := cc.DB.Delete(&phase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete phase",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Phase deleted",
	})
}

func (cc *ContentController) CreateWeek(c *fiber.Ctx) error {
	var input struct {
		PhaseID          uint   `json:"phase_id"`
		WeekNumber       int    `json:"week_number"`
		Title            string `json:"title"`
		Description      string `json:"description"`
		MaxPoints        int    `json:"max_points"`
		VideoPoints      int    `json:"video_points"`
		AssignmentPoints int    `json:"assignment_points"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var phase models.Phase
	if err := cc.DB.First(&phase, input.PhaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Phase not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Conventional split when the caller does not specify one
	if input.MaxPoints == 0 && input.VideoPoints == 0 && input.AssignmentPoints == 0 {
		input.MaxPoints = 100
		input.VideoPoints = 50
		input.AssignmentPoints = 50
	}
	if input.VideoPoints+input.AssignmentPoints != input.MaxPoints {
		return utils.RespondError(c, utils.NewValidationError("video_points + assignment_points must equal max_points"))
	}

	var existing int64
	cc.DB.Model(&models.Week{}).
		Where("phase_id = ? AND week_number = ?", phase.ID, input.WeekNumber).
		Count(&existing)
	if existing > 0 {
		return utils.RespondError(c, utils.NewFailedPrecondition("Week number already exists in this phase"))
	}

	week := models.Week{
		PhaseID:          phase.ID,
		WeekNumber:       input.WeekNumber,
		Title:            input.Title,
		Description:      input.Description,
		MaxPoints:        input.MaxPoints,
		VideoPoints:      input.VideoPoints,
		AssignmentPoints: input.AssignmentPoints,
	}
	if err := cc.DB.Create(&week).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create week",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Week created",
		"week":    week,
	})
}

func (cc *ContentController) UpdateWeek(c *fiber.Ctx) error {
	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	var input struct {
		Title            string `json:"title"`
		Description      string `json:"description"`
		MaxPoints        *int   `json:"max_points"`
		VideoPoints      *int   `json:"video_points"`
		AssignmentPoints *int   `json:"assignment_points"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var week models.Week
	if err := cc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// Update fields
	if input.Title != "" {
		week.Title = input.Title
	}
	if input.Description != "" {
		week.Description = input.Description
	}
	pointsChanged := false
	if input.MaxPoints != nil && *input.MaxPoints != week.MaxPoints {
		week.MaxPoints = *input.MaxPoints
		pointsChanged = true
	}
	if input.VideoPoints != nil && *input.VideoPoints != week.VideoPoints {
		week.VideoPoints = *input.VideoPoints
		pointsChanged = true
	}
	if input.AssignmentPoints != nil && *input.AssignmentPoints != week.AssignmentPoints {
		week.AssignmentPoints = *input.AssignmentPoints
		pointsChanged = true
	}
	if week.VideoPoints+week.AssignmentPoints != week.MaxPoints {
		return utils.RespondError(c, utils.NewValidationError("video_points + assignment_points must equal max_points"))
	}

	// Changing the point split under credited records would let stored
	// points exceed the new week maximum
	if pointsChanged {
		var recordCount int64
		cc.DB.Model(&models.ProgressRecord{}).Where("week_id = ?", week.ID).Count(&recordCount)
		if recordCount > 0 {
			return utils.RespondError(c, utils.NewFailedPrecondition("Week already has student progress"))
		}
	}

	if err := cc.DB.Save(&week).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update week",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Week updated",
		"week":    week,
	})
}

func (cc *ContentController) DeleteWeek(c *fiber.Ctx) error {
	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	var week models.Week
	if err := cc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var submissionCount int64
	cc.DB.Model(&models.Submission{}).Where("week_id = ?", week.ID).Count(&submissionCount)
	if submissionCount > 0 {
		return utils.RespondError(c, utils.NewFailedPrecondition("Week still has submissions"))
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		var content models.WeekContent
		if err := tx.Where("week_id = ?", week.ID).First(&content).Error; err == nil {
			if err := deleteContentChildren(tx, content.ID); err != nil {
				return err
			}
			if err := tx.Delete(&content).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("week_id = ?", week.ID).Delete(&models.ProgressRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&week).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete week",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Week deleted",
	})
}

// UpsertWeekContent replaces the week's content in one call: scalar
// fields, the publish flag and the full video/question/resource lists.
// Content shapes are validated here, once, at the boundary.
func (cc *ContentController) UpsertWeekContent(c *fiber.Ctx) error {
	weekID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid week ID",
		})
	}

	type VideoInput struct {
		Title           string `json:"title"`
		URL             string `json:"url"`
		DurationSeconds int    `json:"duration_seconds"`
	}
	type QuestionInput struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correct_answer"`
	}
	type ResourceInput struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}

	var input struct {
		Instructions          string          `json:"instructions"`
		Notes                 string          `json:"notes"`
		AssignmentDescription string          `json:"assignment_description"`
		AssignmentDeadline    string          `json:"assignment_deadline"`
		GradingCriteria       string          `json:"grading_criteria"`
		IsPublished           bool            `json:"is_published"`
		Videos                []VideoInput    `json:"videos"`
		Questions             []QuestionInput `json:"questions"`
		Resources             []ResourceInput `json:"resources"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var week models.Week
	if err := cc.DB.First(&week, weekID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, utils.NewNotFound("Week not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	for _, v := range input.Videos {
		if v.URL == "" {
			return utils.RespondError(c, utils.NewValidationError("every video needs a url"))
		}
	}
	for _, q := range input.Questions {
		if q.Question == "" {
			return utils.RespondError(c, utils.NewValidationError("every question needs text"))
		}
		if len(q.Options) < 2 {
			return utils.RespondError(c, utils.NewValidationError("every question needs at least two options"))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return utils.RespondError(c, utils.NewValidationError("correct_answer must index an option"))
		}
	}
	for _, r := range input.Resources {
		if r.URL == "" {
			return utils.RespondError(c, utils.NewValidationError("every resource needs a url"))
		}
	}

	var content models.WeekContent
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("week_id = ?", week.ID).First(&content).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			content = models.WeekContent{WeekID: week.ID}
			if err := tx.Create(&content).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		content.Instructions = input.Instructions
		content.Notes = input.Notes
		content.AssignmentDescription = input.AssignmentDescription
		content.AssignmentDeadline = input.AssignmentDeadline
		content.GradingCriteria = input.GradingCriteria
		content.IsPublished = input.IsPublished
		if err := tx.Save(&content).Error; err != nil {
			return err
		}

		// Replace the child lists wholesale
		if err := deleteContentChildren(tx, content.ID); err != nil {
			return err
		}
		for i, v := range input.Videos {
			video := models.WeekVideo{
				WeekContentID:   content.ID,
				Title:           v.Title,
				URL:             v.URL,
				DurationSeconds: v.DurationSeconds,
				SequenceOrder:   i + 1,
			}
			if err := tx.Create(&video).Error; err != nil {
				return err
			}
		}
		for i, q := range input.Questions {
			optionsJSON, err := json.Marshal(q.Options)
			if err != nil {
				return err
			}
			question := models.QuizQuestion{
				WeekContentID: content.ID,
				Question:      q.Question,
				Options:       string(optionsJSON),
				CorrectAnswer: q.CorrectAnswer,
				SequenceOrder: i + 1,
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		for i, r := range input.Resources {
			resource := models.WeekResource{
				WeekContentID: content.ID,
				Title:         r.Title,
				URL:           r.URL,
				SequenceOrder: i + 1,
			}
			if err := tx.Create(&resource).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save content",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Content saved",
	})
}

func deleteContentChildren(tx *gorm.DB, contentID uint) error {
	if err := tx.Where("week_content_id = ?", contentID).Delete(&models.WeekVideo{}).Error; err != nil {
		return err
	}
	if err := tx.Where("week_content_id = ?", contentID).Delete(&models.QuizQuestion{}).Error; err != nil {
		return err
	}
	return tx.Where("week_content_id = ?", contentID).Delete(&models.WeekResource{}).Error
}

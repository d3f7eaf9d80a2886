package controllers

import (
	"errors"
	"project/backend/models"
	"project/backend/progress"
	"project/backend/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate takes a row lock so concurrent writers of the same
// progress record or submission serialize. SQLite rejects FOR UPDATE
// and serializes writers on its own, so the clause is postgres-only.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// loadStudentStatus returns the student's phase status, creating the
// default (phase 1, nothing pending) on first touch.
func loadStudentStatus(db *gorm.DB, studentID uint) (models.StudentStatus, error) {
	var status models.StudentStatus
	err := db.Where("student_id = ?", studentID).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		status = models.StudentStatus{StudentID: studentID, CurrentPhase: 1}
		if err := db.Create(&status).Error; err != nil {
			return status, err
		}
		return status, nil
	}
	return status, err
}

// lockProgressRecord loads the per-student-week record under a row
// lock, creating it lazily on first interaction with the week.
func lockProgressRecord(tx *gorm.DB, studentID, weekID uint) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	err := lockForUpdate(tx).Where("student_id = ? AND week_id = ?", studentID, weekID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.ProgressRecord{StudentID: studentID, WeekID: weekID}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
		return &record, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// rejectLockedWeek returns a FailedPrecondition when an admin has locked
// the student's record for the week. An absent record is an open week.
func rejectLockedWeek(db *gorm.DB, studentID, weekID uint) error {
	var record models.ProgressRecord
	err := db.Where("student_id = ? AND week_id = ?", studentID, weekID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if record.IsLocked {
		return utils.NewFailedPrecondition("Week is locked")
	}
	return nil
}

// progressRecordsByWeek loads all of a student's records keyed by week.
// Absent records are simply absent - the aggregator treats them as zero.
func progressRecordsByWeek(db *gorm.DB, studentID uint) (map[uint]models.ProgressRecord, error) {
	var records []models.ProgressRecord
	if err := db.Where("student_id = ?", studentID).Find(&records).Error; err != nil {
		return nil, err
	}
	byWeek := make(map[uint]models.ProgressRecord, len(records))
	for _, r := range records {
		byWeek[r.WeekID] = r
	}
	return byWeek, nil
}

func weekPointsFor(weeks []models.Week, records map[uint]models.ProgressRecord) []progress.WeekPoints {
	points := make([]progress.WeekPoints, 0, len(weeks))
	for _, w := range weeks {
		points = append(points, progress.WeekPoints{
			Earned: records[w.ID].Points,
			Max:    w.MaxPoints,
		})
	}
	return points
}

// weekAccessible reports whether the student may act on the week:
// the week's phase must be unlocked for them.
func weekAccessible(db *gorm.DB, studentID uint, week *models.Week) (bool, error) {
	var phase models.Phase
	if err := db.First(&phase, week.PhaseID).Error; err != nil {
		return false, err
	}
	status, err := loadStudentStatus(db, studentID)
	if err != nil {
		return false, err
	}
	return progress.PhaseUnlocked(phase.Number, status.CurrentPhase), nil
}

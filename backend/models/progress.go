package models

import "gorm.io/gorm"

type ProgressRecord struct {
	gorm.Model
	WeekID              uint `gorm:"uniqueIndex:idx_student_week"`
	StudentID           uint `gorm:"uniqueIndex:idx_student_week"`
	VideoWatched        bool `gorm:"default:false"`
	VideoPoints         int  `gorm:"default:0"`
	AssignmentSubmitted bool `gorm:"default:false"`
	AssignmentPoints    int  `gorm:"default:0"`
	Points              int  `gorm:"default:0"` // video + assignment, capped at week max
	Completed           bool `gorm:"default:false"`
	IsLocked            bool `gorm:"default:false"`
}

type StudentStatus struct {
	gorm.Model
	StudentID       uint `gorm:"uniqueIndex"`
	CurrentPhase    int  `gorm:"default:1"`
	PendingApproval int  `gorm:"default:0"` // phase number awaiting admin approval, 0 = none
}

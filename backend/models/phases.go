package models

import "gorm.io/gorm"

type Phase struct {
	gorm.Model
	Number    int `gorm:"uniqueIndex;not null"` // 1..N, ordered
	Title     string
	StartWeek int
	EndWeek   int
	Weeks     []Week
}

type Week struct {
	gorm.Model
	PhaseID          uint
	WeekNumber       int // unique within phase
	Title            string
	Description      string
	MaxPoints        int `gorm:"default:100"`
	VideoPoints      int
	AssignmentPoints int
	Content          *WeekContent
}

type WeekContent struct {
	gorm.Model
	WeekID                uint `gorm:"uniqueIndex"`
	Instructions          string
	Notes                 string
	AssignmentDescription string
	AssignmentDeadline    string
	GradingCriteria       string
	IsPublished           bool `gorm:"default:false"`
	Videos                []WeekVideo
	Questions             []QuizQuestion
	Resources             []WeekResource
}

type WeekVideo struct {
	gorm.Model
	WeekContentID   uint
	Title           string
	URL             string
	DurationSeconds int
	SequenceOrder   int
}

type QuizQuestion struct {
	gorm.Model
	WeekContentID uint
	Question      string
	Options       string // JSON array of options
	CorrectAnswer int    // index into Options
	SequenceOrder int
}

type WeekResource struct {
	gorm.Model
	WeekContentID uint
	Title         string
	URL           string
	SequenceOrder int
}

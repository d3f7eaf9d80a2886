package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubmissionTypeQuiz       = "quiz"
	SubmissionTypeAssignment = "assignment"
)

const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusReviewed  = "reviewed"
	SubmissionStatusApproved  = "approved"
	SubmissionStatusRejected  = "rejected"
)

type Submission struct {
	gorm.Model
	WeekID      uint
	StudentID   uint
	Type        string // quiz, assignment
	SubmittedAt time.Time
	Status      string `gorm:"default:submitted"` // submitted, reviewed, approved, rejected
	Score       int
	Feedback    string
	GithubURL   string
	FileName    string
}

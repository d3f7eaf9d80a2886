package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeekPercent(t *testing.T) {
	assert.Equal(t, 0, WeekPercent(0, 100))
	assert.Equal(t, 50, WeekPercent(50, 100))
	assert.Equal(t, 100, WeekPercent(100, 100))
	// Rounded to nearest integer for display
	assert.Equal(t, 33, WeekPercent(1, 3))
	assert.Equal(t, 67, WeekPercent(2, 3))
	// A week with nothing to earn is 0%, not a division error
	assert.Equal(t, 0, WeekPercent(0, 0))
}

func TestPhasePercent(t *testing.T) {
	// maxPoints [100,100,50], earned [100,50,50] => 200/250 = 80%
	weeks := []WeekPoints{
		{Earned: 100, Max: 100},
		{Earned: 50, Max: 100},
		{Earned: 50, Max: 50},
	}
	assert.Equal(t, 80, PhasePercent(weeks))

	// Zero-week phase is defined as 0%
	assert.Equal(t, 0, PhasePercent(nil))
	assert.Equal(t, 0, PhasePercent([]WeekPoints{}))
}

func TestPhasePercentMonotonic(t *testing.T) {
	weeks := []WeekPoints{
		{Earned: 0, Max: 100},
		{Earned: 0, Max: 100},
	}
	last := PhasePercent(weeks)
	for earned := 10; earned <= 100; earned += 10 {
		weeks[0].Earned = earned
		percent := PhasePercent(weeks)
		assert.GreaterOrEqual(t, percent, last)
		last = percent
	}
}

func TestOverallPercent(t *testing.T) {
	weeks := []WeekPoints{
		{Earned: 100, Max: 100},
		{Earned: 0, Max: 100},
	}
	assert.Equal(t, 50, OverallPercent(weeks))
}

func TestPhaseCompleted(t *testing.T) {
	assert.False(t, PhaseCompleted(79))
	assert.True(t, PhaseCompleted(80))
	assert.True(t, PhaseCompleted(100))
}

func TestVideoCredit(t *testing.T) {
	credit, err := VideoCredit(0.95, false)
	assert.NoError(t, err)
	assert.True(t, credit)

	// Exactly at the threshold counts
	credit, err = VideoCredit(0.90, false)
	assert.NoError(t, err)
	assert.True(t, credit)

	// Below the threshold earns nothing - no partial credit
	credit, err = VideoCredit(0.89, false)
	assert.NoError(t, err)
	assert.False(t, credit)

	// Idempotent: a record that already has credit earns nothing again
	credit, err = VideoCredit(1.0, true)
	assert.NoError(t, err)
	assert.False(t, credit)

	_, err = VideoCredit(-0.1, false)
	assert.ErrorIs(t, err, ErrFractionOutOfRange)
	_, err = VideoCredit(1.1, false)
	assert.ErrorIs(t, err, ErrFractionOutOfRange)
}

func TestGradeQuiz(t *testing.T) {
	correct := map[uint]int{1: 0, 2: 2, 3: 1}

	score, err := GradeQuiz([]QuizAnswer{
		{QuestionID: 1, Answer: 0},
		{QuestionID: 2, Answer: 2},
		{QuestionID: 3, Answer: 0},
	}, correct)
	assert.NoError(t, err)
	assert.Equal(t, 2, score)

	// Every question must be answered
	_, err = GradeQuiz([]QuizAnswer{
		{QuestionID: 1, Answer: 0},
	}, correct)
	assert.ErrorIs(t, err, ErrAnswerCountMismatch)

	_, err = GradeQuiz([]QuizAnswer{
		{QuestionID: 1, Answer: 0},
		{QuestionID: 2, Answer: 2},
		{QuestionID: 99, Answer: 0},
	}, correct)
	assert.ErrorIs(t, err, ErrUnknownQuestion)

	_, err = GradeQuiz([]QuizAnswer{
		{QuestionID: 1, Answer: 0},
		{QuestionID: 1, Answer: 0},
		{QuestionID: 2, Answer: 2},
	}, correct)
	assert.ErrorIs(t, err, ErrDuplicateAnswer)
}

func TestAssignmentPointsFor(t *testing.T) {
	points, err := AssignmentPointsFor(100, 50)
	assert.NoError(t, err)
	assert.Equal(t, 50, points)

	points, err = AssignmentPointsFor(75, 50)
	assert.NoError(t, err)
	assert.Equal(t, 38, points) // round(37.5)

	points, err = AssignmentPointsFor(0, 50)
	assert.NoError(t, err)
	assert.Equal(t, 0, points)

	_, err = AssignmentPointsFor(101, 50)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
	_, err = AssignmentPointsFor(-1, 50)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestTotalPoints(t *testing.T) {
	assert.Equal(t, 90, TotalPoints(50, 40, 100))
	// Capped at the week maximum
	assert.Equal(t, 100, TotalPoints(60, 60, 100))
	assert.Equal(t, 0, TotalPoints(0, 0, 100))
}

func TestWeekCompleted(t *testing.T) {
	assert.False(t, WeekCompleted(99, 100))
	assert.True(t, WeekCompleted(100, 100))
	assert.False(t, WeekCompleted(0, 0))
}

func TestPhaseUnlocked(t *testing.T) {
	// Phase 1 is always open
	assert.True(t, PhaseUnlocked(1, 1))

	// Later phases open only once the current phase reached them
	assert.False(t, PhaseUnlocked(2, 1))
	assert.True(t, PhaseUnlocked(2, 2))
	assert.True(t, PhaseUnlocked(2, 3))
	assert.False(t, PhaseUnlocked(3, 2))
}

func TestEvaluateUnlock(t *testing.T) {
	// 79% leaves everything as is
	assert.Equal(t, UnlockNoChange, EvaluateUnlock(1, 3, 79))

	// The 80-99% band needs an admin to sign off
	assert.Equal(t, UnlockNeedsApproval, EvaluateUnlock(1, 3, 80))
	assert.Equal(t, UnlockNeedsApproval, EvaluateUnlock(1, 3, 99))

	// A finished phase advances without approval
	assert.Equal(t, UnlockAdvance, EvaluateUnlock(1, 3, 100))

	// Nothing past the last phase
	assert.Equal(t, UnlockNoChange, EvaluateUnlock(3, 3, 100))
}

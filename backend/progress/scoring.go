package progress

import (
	"errors"
	"math"
)

// VideoWatchThreshold is the minimum played fraction that counts as
// having watched the week's videos.
const VideoWatchThreshold = 0.90

var (
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrUnknownQuestion     = errors.New("answer references an unknown question")
	ErrDuplicateAnswer     = errors.New("question answered more than once")
	ErrScoreOutOfRange     = errors.New("score out of range")
	ErrFractionOutOfRange  = errors.New("played fraction out of range")
)

// QuizAnswer is one student answer, matched to a question by ID.
type QuizAnswer struct {
	QuestionID uint `json:"question_id"`
	Answer     int  `json:"answer"`
}

// VideoCredit reports whether a playback event earns the week's video
// points. Full credit only: fractions below the threshold earn nothing,
// and a record that already has credit earns nothing again.
func VideoCredit(playedFraction float64, alreadyWatched bool) (bool, error) {
	if playedFraction < 0 || playedFraction > 1 {
		return false, ErrFractionOutOfRange
	}
	return !alreadyWatched && playedFraction >= VideoWatchThreshold, nil
}

// GradeQuiz scores a set of answers against the correct answers, keyed
// by question ID. Every question must be answered exactly once; the
// score is the count of matches.
func GradeQuiz(answers []QuizAnswer, correct map[uint]int) (int, error) {
	if len(answers) != len(correct) {
		return 0, ErrAnswerCountMismatch
	}
	seen := make(map[uint]bool, len(answers))
	score := 0
	for _, a := range answers {
		want, ok := correct[a.QuestionID]
		if !ok {
			return 0, ErrUnknownQuestion
		}
		if seen[a.QuestionID] {
			return 0, ErrDuplicateAnswer
		}
		seen[a.QuestionID] = true
		if a.Answer == want {
			score++
		}
	}
	return score, nil
}

// AssignmentPointsFor converts a 0-100 review score into week
// assignment points, rounded to the nearest integer.
func AssignmentPointsFor(score, weekAssignmentPoints int) (int, error) {
	if score < 0 || score > 100 {
		return 0, ErrScoreOutOfRange
	}
	return int(math.Round(float64(score) / 100 * float64(weekAssignmentPoints))), nil
}

// TotalPoints sums video and assignment points, capped at the week
// maximum.
func TotalPoints(videoPoints, assignmentPoints, maxPoints int) int {
	total := videoPoints + assignmentPoints
	if total > maxPoints {
		return maxPoints
	}
	return total
}

// WeekCompleted reports whether a record's points satisfy the week.
func WeekCompleted(points, maxPoints int) bool {
	return maxPoints > 0 && points >= maxPoints
}

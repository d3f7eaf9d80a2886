// Package progress holds the pure progress rules: point aggregation,
// event scoring and phase unlocking. It has no database or HTTP
// dependencies so the same rules back every view that shows percentages.
package progress

import "math"

// CompletionThreshold is the percentage of a phase's points a student
// needs before the next phase can open. Shared by the aggregator and the
// unlock evaluator so the two can never disagree.
const CompletionThreshold = 80

// WeekPoints is one week's earned/max pair as seen by the aggregator.
// A week the student never touched contributes Earned 0.
type WeekPoints struct {
	Earned int
	Max    int
}

// WeekPercent returns the week completion percentage rounded to the
// nearest integer. A week with no points to earn counts as 0%.
func WeekPercent(earned, maxPoints int) int {
	if maxPoints <= 0 {
		return 0
	}
	return roundPercent(earned, maxPoints)
}

// PhasePercent rolls per-week points into a phase percentage. A phase
// with no weeks (or no earnable points) is 0%, not a division error.
func PhasePercent(weeks []WeekPoints) int {
	earned, max := 0, 0
	for _, w := range weeks {
		earned += w.Earned
		max += w.Max
	}
	if max <= 0 {
		return 0
	}
	return roundPercent(earned, max)
}

// OverallPercent is the course-level percentage over every week.
func OverallPercent(weeks []WeekPoints) int {
	return PhasePercent(weeks)
}

// PhaseCompleted reports whether a phase percentage meets the
// completion threshold.
func PhaseCompleted(percent int) bool {
	return percent >= CompletionThreshold
}

func roundPercent(earned, max int) int {
	return int(math.Round(float64(earned) / float64(max) * 100))
}

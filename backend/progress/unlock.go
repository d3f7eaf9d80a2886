package progress

// UnlockDecision is the outcome of a check-unlock evaluation.
type UnlockDecision int

const (
	// UnlockNoChange: below the threshold, or already at the last phase.
	UnlockNoChange UnlockDecision = iota
	// UnlockNeedsApproval: threshold reached but not 100%; an admin has
	// to sign off before the next phase opens.
	UnlockNeedsApproval
	// UnlockAdvance: the current phase is at 100%, advance immediately.
	UnlockAdvance
)

// PhaseUnlocked reports whether a phase is accessible to a student.
// Phase 1 is always open; later phases open once the student's current
// phase has reached them. The stored current phase is authoritative
// ground truth here - derived percentages are not consulted, so
// inconsistent progress data can never lock a student out of a phase
// they already reached.
func PhaseUnlocked(phaseNumber, currentPhase int) bool {
	if phaseNumber <= 1 {
		return true
	}
	return currentPhase >= phaseNumber
}

// EvaluateUnlock decides what a check-unlock call should do given the
// student's current phase, the last phase number in the course and the
// aggregated percentage of the current phase. Repeated calls without
// new progress keep returning the same decision, so applying it is
// idempotent.
func EvaluateUnlock(currentPhase, lastPhase, currentPhasePercent int) UnlockDecision {
	if currentPhase >= lastPhase {
		return UnlockNoChange
	}
	if currentPhasePercent >= 100 {
		return UnlockAdvance
	}
	if currentPhasePercent >= CompletionThreshold {
		return UnlockNeedsApproval
	}
	return UnlockNoChange
}

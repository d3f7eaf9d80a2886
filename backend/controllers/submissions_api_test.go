package controllers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// quizWeek makes a published phase-1 week with a two-question quiz and
// returns the week ID plus the question IDs in order.
func quizWeek(t *testing.T) (uint, []uint) {
	weekID := createWeek(t, phaseOne.ID)

	status, _ := doRequest(t, "PUT", "/api/admin/weeks/"+itoa(weekID)+"/content", adminToken, map[string]interface{}{
		"is_published": true,
		"questions": []map[string]interface{}{
			{"question": "2+2?", "options": []string{"3", "4"}, "correct_answer": 1},
			{"question": "3*3?", "options": []string{"9", "6"}, "correct_answer": 0},
		},
	})
	assert.Equal(t, fiber.StatusOK, status)

	_, studentToken := registerStudent(t, "quizprobe"+itoa(weekID))
	_, result := doRequest(t, "GET", "/api/weeks/"+itoa(weekID), studentToken, nil)
	content := result["content"].(map[string]interface{})
	questions := content["questions"].([]interface{})

	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, uint(q.(map[string]interface{})["id"].(float64)))
	}
	return weekID, ids
}

func TestSubmitQuiz(t *testing.T) {
	weekID, questionIDs := quizWeek(t)
	_, token := registerStudent(t, "quiztaker")

	status, result := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/quiz", token, map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": questionIDs[0], "answer": 1},
			{"question_id": questionIDs[1], "answer": 1},
		},
	})
	assert.Equal(t, fiber.StatusOK, status)

	quizResult := result["result"].(map[string]interface{})
	assert.Equal(t, float64(1), quizResult["score"])
	assert.Equal(t, float64(2), quizResult["total"])
}

func TestSubmitQuizAnswerCountMismatch(t *testing.T) {
	weekID, questionIDs := quizWeek(t)
	_, token := registerStudent(t, "shortquiz")

	status, _ := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/quiz", token, map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": questionIDs[0], "answer": 1},
		},
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	// Nothing was stored for the failed attempt
	status, result := doRequest(t, "GET", "/api/submissions/?week_id="+itoa(weekID), token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, result["submissions"])
}

func TestSubmitQuizUnpublishedContentRejected(t *testing.T) {
	weekID := createWeek(t, phaseOne.ID)

	status, _ := doRequest(t, "PUT", "/api/admin/weeks/"+itoa(weekID)+"/content", adminToken, map[string]interface{}{
		"is_published": false,
		"questions": []map[string]interface{}{
			{"question": "Draft?", "options": []string{"yes", "no"}, "correct_answer": 0},
		},
	})
	assert.Equal(t, fiber.StatusOK, status)

	// A draft quiz is not submittable even with a guessed week ID
	_, token := registerStudent(t, "draftguesser")
	status, _ = doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/quiz", token, map[string]interface{}{
		"answers": []map[string]interface{}{},
	})
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestSubmitQuizSecondAttemptRejected(t *testing.T) {
	weekID, questionIDs := quizWeek(t)
	_, token := registerStudent(t, "retaker")

	answers := map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": questionIDs[0], "answer": 1},
			{"question_id": questionIDs[1], "answer": 0},
		},
	}

	status, _ := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/quiz", token, answers)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/quiz", token, answers)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestSubmitAssignmentRequiresArtifact(t *testing.T) {
	weekID := createWeek(t, phaseOne.ID)
	_, token := registerStudent(t, "emptyhanded")

	status, _ := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/assignment", token, map[string]interface{}{})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestAssignmentReviewFlow(t *testing.T) {
	weekID := createWeek(t, phaseOne.ID)
	studentID, token := registerStudent(t, "reviewee")

	status, result := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/assignment", token, map[string]interface{}{
		"github_url": "https://github.com/reviewee/work",
	})
	assert.Equal(t, fiber.StatusOK, status)
	submission := result["submission"].(map[string]interface{})
	submissionID := uint(submission["id"].(float64))

	// Out-of-range score fails validation and mutates nothing
	status, _ = doRequest(t, "PUT", "/api/admin/submissions/"+itoa(submissionID)+"/review", adminToken, map[string]interface{}{
		"score":  101,
		"status": "approved",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	record := loadRecord(t, studentID, weekID)
	assert.Equal(t, 0, record.AssignmentPoints)

	// Approval converts the score into week assignment points
	status, _ = doRequest(t, "PUT", "/api/admin/submissions/"+itoa(submissionID)+"/review", adminToken, map[string]interface{}{
		"score":    80,
		"feedback": "Good work",
		"status":   "approved",
	})
	assert.Equal(t, fiber.StatusOK, status)

	record = loadRecord(t, studentID, weekID)
	assert.True(t, record.AssignmentSubmitted)
	assert.Equal(t, 40, record.AssignmentPoints) // round(80/100 * 50)
	assert.Equal(t, 40, record.Points)
	assert.False(t, record.Completed)

	// Video credit on top brings the record to 90 of 100, still short
	// of completion
	status, _ = doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/video-watch", token, map[string]interface{}{
		"played_fraction": 1.0,
	})
	assert.Equal(t, fiber.StatusOK, status)
	record = loadRecord(t, studentID, weekID)
	assert.Equal(t, 90, record.Points)
	assert.False(t, record.Completed)

	// A perfect re-review completes the week
	status, _ = doRequest(t, "PUT", "/api/admin/submissions/"+itoa(submissionID)+"/review", adminToken, map[string]interface{}{
		"score":  100,
		"status": "approved",
	})
	assert.Equal(t, fiber.StatusOK, status)
	record = loadRecord(t, studentID, weekID)
	assert.Equal(t, 100, record.Points)
	assert.True(t, record.Completed)
}

func TestReviewWithdrawalRollsBackPoints(t *testing.T) {
	weekID := createWeek(t, phaseOne.ID)
	studentID, token := registerStudent(t, "withdrawn")

	_, result := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/assignment", token, map[string]interface{}{
		"github_url": "https://github.com/withdrawn/work",
	})
	submissionID := uint(result["submission"].(map[string]interface{})["id"].(float64))

	doRequest(t, "PUT", "/api/admin/submissions/"+itoa(submissionID)+"/review", adminToken, map[string]interface{}{
		"score":  100,
		"status": "approved",
	})
	record := loadRecord(t, studentID, weekID)
	assert.Equal(t, 50, record.AssignmentPoints)

	// Re-reviewing to rejected pulls the points back off the record
	status, _ := doRequest(t, "PUT", "/api/admin/submissions/"+itoa(submissionID)+"/review", adminToken, map[string]interface{}{
		"score":  100,
		"status": "rejected",
	})
	assert.Equal(t, fiber.StatusOK, status)
	record = loadRecord(t, studentID, weekID)
	assert.False(t, record.AssignmentSubmitted)
	assert.Equal(t, 0, record.AssignmentPoints)
	assert.Equal(t, 0, record.Points)
}

func TestStudentDeleteGuards(t *testing.T) {
	weekID := createWeek(t, phaseOne.ID)
	_, token := registerStudent(t, "deleter")

	_, result := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/assignment", token, map[string]interface{}{
		"github_url": "https://github.com/deleter/work",
	})
	submissionID := uint(result["submission"].(map[string]interface{})["id"].(float64))

	// Someone else's submission is untouchable
	_, otherToken := registerStudent(t, "notdeleter")
	status, _ := doRequest(t, "DELETE", "/api/submissions/"+itoa(submissionID), otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	// Own pending submission deletes fine
	status, _ = doRequest(t, "DELETE", "/api/submissions/"+itoa(submissionID), token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestStudentCannotDeleteReviewedSubmission(t *testing.T) {
	weekID := createWeek(t, phaseOne.ID)
	studentID, token := registerStudent(t, "lateregret")

	_, result := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/assignment", token, map[string]interface{}{
		"github_url": "https://github.com/lateregret/work",
	})
	submissionID := uint(result["submission"].(map[string]interface{})["id"].(float64))

	doRequest(t, "PUT", "/api/admin/submissions/"+itoa(submissionID)+"/review", adminToken, map[string]interface{}{
		"score":  90,
		"status": "approved",
	})

	// Once reviewed, the student-side delete is rejected
	status, _ := doRequest(t, "DELETE", "/api/submissions/"+itoa(submissionID), token, nil)
	assert.Equal(t, fiber.StatusConflict, status)

	// The admin may still delete it, and the earned points roll back
	status, _ = doRequest(t, "DELETE", "/api/admin/submissions/"+itoa(submissionID), adminToken, nil)
	assert.Equal(t, fiber.StatusOK, status)
	record := loadRecord(t, studentID, weekID)
	assert.Equal(t, 0, record.AssignmentPoints)
	assert.False(t, record.AssignmentSubmitted)
}

func TestGetSubmissionResult(t *testing.T) {
	weekID, questionIDs := quizWeek(t)
	_, token := registerStudent(t, "resultchecker")

	_, result := doRequest(t, "POST", "/api/weeks/"+itoa(weekID)+"/quiz", token, map[string]interface{}{
		"answers": []map[string]interface{}{
			{"question_id": questionIDs[0], "answer": 1},
			{"question_id": questionIDs[1], "answer": 0},
		},
	})
	submissionID := uint(result["result"].(map[string]interface{})["submission_id"].(float64))

	status, result := doRequest(t, "GET", "/api/submissions/"+itoa(submissionID)+"/result", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	submission := result["submission"].(map[string]interface{})
	assert.Equal(t, float64(2), submission["score"])
	assert.Equal(t, "quiz", submission["type"])

	// Other students cannot read it
	_, otherToken := registerStudent(t, "snooper")
	status, _ = doRequest(t, "GET", "/api/submissions/"+itoa(submissionID)+"/result", otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

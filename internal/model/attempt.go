package model

import "time"

// Termination reasons recorded on a finished attempt. NORMAL means the
// candidate answered the last question; the other two are involuntary.
const (
	TerminationNormal    = "NORMAL"
	TerminationTimeout   = "TIMEOUT"
	TerminationViolation = "POLICY_VIOLATION"
)

// Attempt is the durable record of one finished assessment session.
// Sessions themselves are transient and in-memory; only the outcome is
// persisted. A user may hold several attempts for the same offering since
// entitlements are not consumed by sitting the exam.
//
// Fields:
//  ID                – primary key identifier.
//  UserID            – candidate; nil when the session was authorized purely
//                      by a bypass token with no signed-in principal.
//  OfferingID        – offering the attempt belongs to.
//  Score             – number of correct answers.
//  QuestionCount     – total questions in the exam at the time of sitting.
//  Percentage        – round(100*score/questionCount).
//  Passed            – whether Percentage met the pass threshold.
//  TerminationReason – NORMAL, TIMEOUT or POLICY_VIOLATION.
//  ViolationCount    – visibility losses recorded during the session.
//  StartedAt         – when the session entered IN_PROGRESS.
//  FinishedAt        – when the session reached FINISHED.
type Attempt struct {
	ID                uint64    // attempts.id
	UserID            *uint64   // attempts.user_id (nullable)
	OfferingID        string    // attempts.offering_id
	Score             int       // attempts.score
	QuestionCount     int       // attempts.question_count
	Percentage        int       // attempts.percentage
	Passed            bool      // attempts.passed
	TerminationReason string    // attempts.termination_reason
	ViolationCount    int       // attempts.violation_count
	StartedAt         time.Time // attempts.started_at
	FinishedAt        time.Time // attempts.finished_at
}

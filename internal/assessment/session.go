// Package assessment implements the timed, soft-proctored exam runtime.
// Authorization (token or entitlement) happens before a Session exists;
// a Session is always IN_PROGRESS at birth and FINISHED is terminal.
// Scoring is entirely server-side: answers arrive as option indices and the
// correct index never leaves this package.
package assessment

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/interna-ai/assessment-service/internal/model"
)

var (
	// ErrFinished is returned for any mutation after the session reached
	// its terminal state.
	ErrFinished = errors.New("assessment session already finished")
	// ErrInvalidOption is returned when the submitted option index is out
	// of range for the current question.
	ErrInvalidOption = errors.New("invalid option index")
)

// Config bundles the exam policy. Values come from configuration, not
// hardcoded constants, because the 300s/600s and 2-vs-3 drafts of this flow
// diverged historically and deployments need a single tunable source.
type Config struct {
	Duration       time.Duration // wall-clock budget from start
	ViolationLimit int           // visibility losses tolerated before forced finish
	PassPercentage int           // minimum percentage counted as a pass
}

// QuestionView is the client-safe projection of a question: prompt and
// options only.
type QuestionView struct {
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Result is the outcome snapshot of a finished session.
type Result struct {
	Score             int       `json:"score"`
	QuestionCount     int       `json:"question_count"`
	Percentage        int       `json:"percentage"`
	Passed            bool      `json:"passed"`
	TerminationReason string    `json:"termination_reason"`
	Violations        int       `json:"violations"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Session is one in-flight exam. All mutation goes through the mutex, and
// every entry point first settles the timer: the deadline, the violation
// monitor and normal completion all race to finish the session, so the
// finish itself is a check-and-set — the first reason to land wins and is
// never overwritten.
type Session struct {
	ID         string
	OfferingID string
	UserID     *uint64

	mu         sync.Mutex
	questions  []model.Question
	current    int
	score      int
	violation  int
	finished   bool
	reason     string
	recorded   bool
	startedAt  time.Time
	deadline   time.Time
	finishedAt time.Time
	cfg        Config

	now func() time.Time // overridable in tests
}

func newSession(id, offeringID string, userID *uint64, questions []model.Question, cfg Config, now func() time.Time) *Session {
	start := now()
	return &Session{
		ID:         id,
		OfferingID: offeringID,
		UserID:     userID,
		questions:  questions,
		startedAt:  start,
		deadline:   start.Add(cfg.Duration),
		cfg:        cfg,
		now:        now,
	}
}

// CurrentQuestion returns the question awaiting an answer. ok is false once
// the session is finished.
func (s *Session) CurrentQuestion() (QuestionView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleTimerLocked()
	if s.finished {
		return QuestionView{}, false
	}
	return s.viewLocked(), true
}

// Answer records the submitted option for the current question, advances
// the cursor and finishes the session when the last question is answered.
// The returned view is the next question; ok is false when the answer
// finished the exam.
func (s *Session) Answer(optionIndex int) (QuestionView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleTimerLocked()
	if s.finished {
		return QuestionView{}, false, ErrFinished
	}
	q := s.questions[s.current]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return QuestionView{}, false, ErrInvalidOption
	}
	if optionIndex == q.CorrectOption {
		s.score++
	}
	s.current++
	if s.current >= len(s.questions) {
		s.finishLocked(model.TerminationNormal)
		return QuestionView{}, false, nil
	}
	return s.viewLocked(), true, nil
}

// RecordViolation counts one visibility loss. It returns the updated count,
// how many more are tolerated, and whether the session was terminated by
// this violation. Violations reported after the session finished are
// ignored rather than rejected: the client's monitor may fire while the
// finish response is still in flight.
func (s *Session) RecordViolation() (count, remaining int, terminated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleTimerLocked()
	if s.finished {
		return s.violation, 0, true
	}
	s.violation++
	if s.violation >= s.cfg.ViolationLimit {
		s.finishLocked(model.TerminationViolation)
		return s.violation, 0, true
	}
	return s.violation, s.cfg.ViolationLimit - s.violation, false
}

// TimeRemaining returns whole seconds left on the exam clock, never
// negative.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleTimerLocked()
	if s.finished {
		return 0
	}
	rem := s.deadline.Sub(s.now())
	if rem < 0 {
		return 0
	}
	return int(rem / time.Second)
}

// Result returns the outcome snapshot; ok is false while the exam is still
// running.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleTimerLocked()
	if !s.finished {
		return Result{}, false
	}
	return s.resultLocked(), true
}

// ShouldRecord reports true exactly once after the session finished, so the
// caller can persist the attempt without double-writing when several
// request paths observe the finish concurrently.
func (s *Session) ShouldRecord() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleTimerLocked()
	if !s.finished || s.recorded {
		return false
	}
	s.recorded = true
	return true
}

// Attempt materializes the finished session as a persistable attempt row.
// Call only after ShouldRecord returned true.
func (s *Session) Attempt() model.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := s.resultLocked()
	return model.Attempt{
		UserID:            s.UserID,
		OfferingID:        s.OfferingID,
		Score:             res.Score,
		QuestionCount:     res.QuestionCount,
		Percentage:        res.Percentage,
		Passed:            res.Passed,
		TerminationReason: res.TerminationReason,
		ViolationCount:    res.Violations,
		StartedAt:         res.StartedAt,
		FinishedAt:        res.FinishedAt,
	}
}

// settleTimerLocked force-finishes the session once the wall-clock budget
// is exhausted. Hidden-tab time does not pause the clock; the budget runs
// from start regardless.
func (s *Session) settleTimerLocked() {
	if !s.finished && !s.now().Before(s.deadline) {
		s.finishLocked(model.TerminationTimeout)
	}
}

// finishLocked is the single place the terminal transition happens. The
// guard makes it first-wins: a later reason never overwrites the recorded
// one.
func (s *Session) finishLocked(reason string) {
	if s.finished {
		return
	}
	s.finished = true
	s.reason = reason
	s.finishedAt = s.now()
}

func (s *Session) viewLocked() QuestionView {
	q := s.questions[s.current]
	return QuestionView{
		Index:   s.current,
		Total:   len(s.questions),
		Prompt:  q.Prompt,
		Options: q.Options,
	}
}

func (s *Session) resultLocked() Result {
	total := len(s.questions)
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(s.score) / float64(total)))
	}
	return Result{
		Score:             s.score,
		QuestionCount:     total,
		Percentage:        pct,
		Passed:            pct >= s.cfg.PassPercentage,
		TerminationReason: s.reason,
		Violations:        s.violation,
		StartedAt:         s.startedAt,
		FinishedAt:        s.finishedAt,
	}
}

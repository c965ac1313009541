package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/interna-ai/assessment-service/internal/assessment"
	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/repository"
)

type questionSource interface {
	ListByOffering(ctx context.Context, offeringID string) ([]model.Question, error)
}

type entitlementChecker interface {
	Has(ctx context.Context, userID uint64, offeringID string) (bool, error)
	Grant(ctx context.Context, userID uint64, offeringID string, cfOrderID *string) error
}

type attemptStore interface {
	Create(ctx context.Context, a *model.Attempt) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Attempt, error)
}

type tokenValidator interface {
	Validate(tok string) bool
}

// AssessmentHandler runs the exam flow: authorize, start, answer, report
// violations, fetch the result. Sessions live in the in-memory store; only
// finished attempts reach the database.
type AssessmentHandler struct {
	Sessions     *assessment.Store
	Questions    questionSource
	Entitlements entitlementChecker
	Attempts     attemptStore
	Issuer       tokenValidator
	Offerings    offeringSource

	ViolationLimit int
}

type startResp struct {
	SessionID      string                  `json:"session_id"`
	TimeRemaining  int                     `json:"time_remaining"`
	ViolationLimit int                     `json:"violation_limit"`
	Question       assessment.QuestionView `json:"question"`
}

// Start authorizes entry to the offering's assessment and opens a session.
//
// Access is granted on either leg:
//   - a fresh bypass token in the ?token= query param (the student just
//     returned from hosted checkout and the webhook may not have landed);
//   - a durable entitlement for the authenticated principal.
//
// A valid token presented by an authenticated student also grants the
// durable entitlement, so re-entry keeps working after the token expires
// even if the webhook is delayed.
func (h *AssessmentHandler) Start(c echo.Context) error {
	offeringID := c.Param("offeringId")
	if offeringID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offering id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Offerings.GetByID(ctx, offeringID); err != nil {
		if errors.Is(err, repository.ErrOfferingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "offering lookup failed"})
	}

	uid := principalID(c)
	tokenOK := false
	if tok := c.QueryParam("token"); tok != "" {
		tokenOK = h.Issuer.Validate(tok)
	}

	authorized := tokenOK
	if !authorized && uid != nil {
		has, err := h.Entitlements.Has(ctx, *uid, offeringID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "entitlement lookup failed"})
		}
		authorized = has
	}
	if !authorized {
		if uid == nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "sign in or complete payment to access this assessment"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "payment required for this assessment"})
	}

	// Token entry by a signed-in student becomes a durable grant, so the
	// 5-minute window only ever has to be crossed once.
	if tokenOK && uid != nil {
		if err := h.Entitlements.Grant(ctx, *uid, offeringID, nil); err != nil {
			log.Printf("entitlement grant on token entry failed: user=%d offering=%s err=%v", *uid, offeringID, err)
		}
	}

	questions, err := h.Questions.ListByOffering(ctx, offeringID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "question load failed"})
	}

	sess, err := h.Sessions.Create(offeringID, uid, questions)
	if err != nil {
		if errors.Is(err, assessment.ErrNoQuestions) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "assessment has no questions"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session create failed"})
	}

	view, _ := sess.CurrentQuestion()
	return c.JSON(http.StatusOK, startResp{
		SessionID:      sess.ID,
		TimeRemaining:  sess.TimeRemaining(),
		ViolationLimit: h.ViolationLimit,
		Question:       view,
	})
}

type answerReq struct {
	OptionIndex int `json:"option_index"`
}

// Answer submits an option for the session's current question. While the
// exam is running it returns the next question; once this answer (or the
// clock, or the violation monitor) finishes the exam it returns the result.
func (h *AssessmentHandler) Answer(c echo.Context) error {
	sess, ok := h.Sessions.Get(c.Param("sessionId"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	var req answerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	view, more, err := sess.Answer(req.OptionIndex)
	if err != nil {
		if errors.Is(err, assessment.ErrInvalidOption) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "option index out of range"})
		}
		// Already finished (normally, by timeout or by violation): surface
		// the result instead of an opaque error.
		h.persistIfNeeded(c.Request().Context(), sess)
		res, _ := sess.Result()
		return c.JSON(http.StatusConflict, echo.Map{"finished": true, "result": res})
	}
	if more {
		return c.JSON(http.StatusOK, echo.Map{
			"finished":       false,
			"question":       view,
			"time_remaining": sess.TimeRemaining(),
		})
	}

	h.persistIfNeeded(c.Request().Context(), sess)
	res, _ := sess.Result()
	return c.JSON(http.StatusOK, echo.Map{"finished": true, "result": res})
}

// Violation records one tab-switch/visibility loss reported by the client
// monitor.
func (h *AssessmentHandler) Violation(c echo.Context) error {
	sess, ok := h.Sessions.Get(c.Param("sessionId"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}

	count, remaining, terminated := sess.RecordViolation()
	if terminated {
		h.persistIfNeeded(c.Request().Context(), sess)
		res, _ := sess.Result()
		return c.JSON(http.StatusOK, echo.Map{
			"violations": count,
			"remaining":  0,
			"terminated": true,
			"result":     res,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"violations": count,
		"remaining":  remaining,
		"terminated": false,
	})
}

// Result returns the outcome of a finished session, 409 while it is still
// running.
func (h *AssessmentHandler) Result(c echo.Context) error {
	sess, ok := h.Sessions.Get(c.Param("sessionId"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	res, done := sess.Result()
	if !done {
		return c.JSON(http.StatusConflict, echo.Map{"error": "assessment still in progress"})
	}
	h.persistIfNeeded(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, res)
}

// ListAttempts returns the caller's recorded attempt history.
func (h *AssessmentHandler) ListAttempts(c echo.Context) error {
	uid, ok := mustPrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Attempts.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]attemptPart, 0, len(list))
	for _, a := range list {
		out = append(out, attemptPart{
			OfferingID:        a.OfferingID,
			Score:             a.Score,
			QuestionCount:     a.QuestionCount,
			Percentage:        a.Percentage,
			Passed:            a.Passed,
			TerminationReason: a.TerminationReason,
			ViolationCount:    a.ViolationCount,
			StartedAt:         a.StartedAt,
			FinishedAt:        a.FinishedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"attempts": out})
}

type attemptPart struct {
	OfferingID        string    `json:"offering_id"`
	Score             int       `json:"score"`
	QuestionCount     int       `json:"question_count"`
	Percentage        int       `json:"percentage"`
	Passed            bool      `json:"passed"`
	TerminationReason string    `json:"termination_reason"`
	ViolationCount    int       `json:"violation_count"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// persistIfNeeded writes the attempt row exactly once per finished session.
// Persistence failures are logged, never surfaced: the student still gets
// their result.
func (h *AssessmentHandler) persistIfNeeded(ctx context.Context, sess *assessment.Session) {
	if !sess.ShouldRecord() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	a := sess.Attempt()
	if err := h.Attempts.Create(ctx, &a); err != nil {
		log.Printf("attempt persist failed: session=%s offering=%s err=%v", sess.ID, sess.OfferingID, err)
	}
}

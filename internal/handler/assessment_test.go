package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/interna-ai/assessment-service/internal/assessment"
	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/repository"
)

type stubEntitlements struct {
	has    map[string]bool // offering id -> entitled
	grants int
}

func (s *stubEntitlements) Has(_ context.Context, _ uint64, offeringID string) (bool, error) {
	return s.has[offeringID], nil
}

func (s *stubEntitlements) Grant(_ context.Context, _ uint64, offeringID string, _ *string) error {
	s.grants++
	if s.has == nil {
		s.has = make(map[string]bool)
	}
	s.has[offeringID] = true
	return nil
}

type stubQuestions struct {
	questions []model.Question
}

func (s *stubQuestions) ListByOffering(context.Context, string) ([]model.Question, error) {
	return s.questions, nil
}

type stubAttempts struct {
	created []model.Attempt
}

func (s *stubAttempts) Create(_ context.Context, a *model.Attempt) error {
	s.created = append(s.created, *a)
	return nil
}

func (s *stubAttempts) ListByUser(context.Context, uint64) ([]model.Attempt, error) {
	return s.created, nil
}

type stubValidator struct{ valid map[string]bool }

func (s *stubValidator) Validate(tok string) bool { return s.valid[tok] }

type stubOfferings struct {
	offerings map[string]model.Offering
}

func (s *stubOfferings) GetByID(_ context.Context, id string) (model.Offering, error) {
	o, ok := s.offerings[id]
	if !ok {
		return model.Offering{}, repository.ErrOfferingNotFound
	}
	return o, nil
}

func newAssessmentHandler(t *testing.T, ents *stubEntitlements, tokens *stubValidator) (*AssessmentHandler, *stubAttempts) {
	t.Helper()
	store := assessment.NewStore(assessment.Config{
		Duration:       30 * time.Minute,
		ViolationLimit: 3,
		PassPercentage: 50,
	})
	t.Cleanup(store.Close)

	attempts := &stubAttempts{}
	h := &AssessmentHandler{
		Sessions:     store,
		Questions:    &stubQuestions{questions: assessmentTestQuestions(4)},
		Entitlements: ents,
		Attempts:     attempts,
		Issuer:       tokens,
		Offerings: &stubOfferings{offerings: map[string]model.Offering{
			"off1": {ID: "off1", Title: "Backend Internship", PricePaise: 49900, IsActive: true},
		}},
		ViolationLimit: 3,
	}
	return h, attempts
}

func assessmentTestQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			OfferingID:    "off1",
			Position:      uint32(i),
			Prompt:        "prompt",
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: 0,
		}
	}
	return qs
}

func startRequest(h *AssessmentHandler, offeringID, token string, userID *uint64) *httptest.ResponseRecorder {
	e := echo.New()
	target := "/v1/assessments/" + offeringID + "/start"
	if token != "" {
		target += "?token=" + token
	}
	req := httptest.NewRequest(http.MethodPost, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("offeringId")
	c.SetParamValues(offeringID)
	if userID != nil {
		c.Set("user_id", float64(*userID)) // as the JWT middleware stores it
		c.Set("role", "STUDENT")
	}
	_ = h.Start(c)
	return rec
}

func TestStartWithEntitlement(t *testing.T) {
	t.Parallel()

	uid := uint64(7)
	ents := &stubEntitlements{has: map[string]bool{"off1": true}}
	h, _ := newAssessmentHandler(t, ents, &stubValidator{})

	rec := startRequest(h, "off1", "", &uid)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID      string `json:"session_id"`
		TimeRemaining  int    `json:"time_remaining"`
		ViolationLimit int    `json:"violation_limit"`
		Question       struct {
			Index   int      `json:"index"`
			Total   int      `json:"total"`
			Options []string `json:"options"`
		} `json:"question"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("session_id empty")
	}
	if resp.TimeRemaining != 1800 {
		t.Errorf("time_remaining = %d, want 1800", resp.TimeRemaining)
	}
	if resp.ViolationLimit != 3 {
		t.Errorf("violation_limit = %d, want 3", resp.ViolationLimit)
	}
	if resp.Question.Total != 4 || len(resp.Question.Options) != 4 {
		t.Errorf("question = %+v", resp.Question)
	}
}

func TestStartWithBypassToken(t *testing.T) {
	t.Parallel()

	uid := uint64(7)
	ents := &stubEntitlements{}
	tokens := &stubValidator{valid: map[string]bool{"1717243200_deadbeef": true}}
	h, _ := newAssessmentHandler(t, ents, tokens)

	rec := startRequest(h, "off1", "1717243200_deadbeef", &uid)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	// A signed-in student entering on a token gets the durable entitlement.
	if ents.grants != 1 || !ents.has["off1"] {
		t.Errorf("grants = %d has = %v, want durable grant", ents.grants, ents.has)
	}
}

func TestStartAnonymousWithTokenOnly(t *testing.T) {
	t.Parallel()

	tokens := &stubValidator{valid: map[string]bool{"tok": true}}
	h, _ := newAssessmentHandler(t, &stubEntitlements{}, tokens)

	rec := startRequest(h, "off1", "tok", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, token alone must authorize", rec.Code)
	}
}

func TestStartDenied(t *testing.T) {
	t.Parallel()

	uid := uint64(7)
	tests := []struct {
		name   string
		token  string
		userID *uint64
		want   int
	}{
		{"anonymous, no token", "", nil, http.StatusUnauthorized},
		{"anonymous, expired token", "expired", nil, http.StatusUnauthorized},
		{"signed in, no entitlement", "", &uid, http.StatusForbidden},
		{"signed in, expired token, no entitlement", "expired", &uid, http.StatusForbidden},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _ := newAssessmentHandler(t, &stubEntitlements{}, &stubValidator{})
			rec := startRequest(h, "off1", tt.token, tt.userID)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestStartUnknownOffering(t *testing.T) {
	t.Parallel()

	uid := uint64(7)
	h, _ := newAssessmentHandler(t, &stubEntitlements{has: map[string]bool{"off1": true}}, &stubValidator{})
	rec := startRequest(h, "nope", "", &uid)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func sessionRequest(h *AssessmentHandler, method, path, sessionID, body string, fn func(echo.Context) error) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("sessionId")
	c.SetParamValues(sessionID)
	_ = fn(c)
	return rec
}

func startSession(t *testing.T, h *AssessmentHandler) string {
	t.Helper()
	uid := uint64(7)
	rec := startRequest(h, "off1", "", &uid)
	if rec.Code != http.StatusOK {
		t.Fatalf("start failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.SessionID
}

func TestAnswerFlowToResult(t *testing.T) {
	t.Parallel()

	ents := &stubEntitlements{has: map[string]bool{"off1": true}}
	h, attempts := newAssessmentHandler(t, ents, &stubValidator{})
	sid := startSession(t, h)

	// Correct option is always 0; answer three right, one wrong.
	for i := 0; i < 3; i++ {
		rec := sessionRequest(h, http.MethodPost, "/answer", sid, `{"option_index":0}`, h.Answer)
		if rec.Code != http.StatusOK {
			t.Fatalf("answer %d status = %d %s", i, rec.Code, rec.Body.String())
		}
		var resp struct {
			Finished bool `json:"finished"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Finished {
			t.Fatalf("answer %d finished early", i)
		}
	}

	rec := sessionRequest(h, http.MethodPost, "/answer", sid, `{"option_index":1}`, h.Answer)
	if rec.Code != http.StatusOK {
		t.Fatalf("last answer status = %d", rec.Code)
	}
	var final struct {
		Finished bool `json:"finished"`
		Result   struct {
			Score             int    `json:"score"`
			Percentage        int    `json:"percentage"`
			Passed            bool   `json:"passed"`
			TerminationReason string `json:"termination_reason"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &final); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !final.Finished {
		t.Fatal("last answer did not finish")
	}
	if final.Result.Score != 3 || final.Result.Percentage != 75 || !final.Result.Passed {
		t.Errorf("result = %+v", final.Result)
	}
	if final.Result.TerminationReason != model.TerminationNormal {
		t.Errorf("reason = %q", final.Result.TerminationReason)
	}

	if len(attempts.created) != 1 {
		t.Fatalf("attempts persisted = %d, want 1", len(attempts.created))
	}
	if a := attempts.created[0]; a.Score != 3 || !a.Passed {
		t.Errorf("persisted attempt = %+v", a)
	}

	// Result endpoint now serves the snapshot.
	rec = sessionRequest(h, http.MethodGet, "/result", sid, "", h.Result)
	if rec.Code != http.StatusOK {
		t.Errorf("result status = %d", rec.Code)
	}
	// And persistence stays once-only.
	if len(attempts.created) != 1 {
		t.Errorf("attempts persisted after result fetch = %d", len(attempts.created))
	}
}

func TestAnswerInvalidOption(t *testing.T) {
	t.Parallel()

	h, _ := newAssessmentHandler(t, &stubEntitlements{has: map[string]bool{"off1": true}}, &stubValidator{})
	sid := startSession(t, h)

	rec := sessionRequest(h, http.MethodPost, "/answer", sid, `{"option_index":9}`, h.Answer)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAnswerUnknownSession(t *testing.T) {
	t.Parallel()

	h, _ := newAssessmentHandler(t, &stubEntitlements{}, &stubValidator{})
	rec := sessionRequest(h, http.MethodPost, "/answer", "missing", `{"option_index":0}`, h.Answer)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestViolationFlowTerminates(t *testing.T) {
	t.Parallel()

	h, attempts := newAssessmentHandler(t, &stubEntitlements{has: map[string]bool{"off1": true}}, &stubValidator{})
	sid := startSession(t, h)

	for i := 1; i <= 2; i++ {
		rec := sessionRequest(h, http.MethodPost, "/violation", sid, "", h.Violation)
		if rec.Code != http.StatusOK {
			t.Fatalf("violation %d status = %d", i, rec.Code)
		}
		var resp struct {
			Violations int  `json:"violations"`
			Remaining  int  `json:"remaining"`
			Terminated bool `json:"terminated"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Violations != i || resp.Terminated {
			t.Fatalf("violation %d = %+v", i, resp)
		}
	}

	rec := sessionRequest(h, http.MethodPost, "/violation", sid, "", h.Violation)
	var resp struct {
		Terminated bool `json:"terminated"`
		Result     struct {
			TerminationReason string `json:"termination_reason"`
		} `json:"result"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.Terminated {
		t.Fatal("third violation did not terminate")
	}
	if resp.Result.TerminationReason != model.TerminationViolation {
		t.Errorf("reason = %q, want POLICY_VIOLATION", resp.Result.TerminationReason)
	}
	if len(attempts.created) != 1 {
		t.Errorf("attempts persisted = %d, want 1", len(attempts.created))
	}
}

func TestResultWhileRunning(t *testing.T) {
	t.Parallel()

	h, _ := newAssessmentHandler(t, &stubEntitlements{has: map[string]bool{"off1": true}}, &stubValidator{})
	sid := startSession(t, h)

	rec := sessionRequest(h, http.MethodGet, "/result", sid, "", h.Result)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 while in progress", rec.Code)
	}
}

package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"

	"act-companion/internal/domain"
	"act-companion/internal/domain/flow"
	"act-companion/internal/domain/model"
	"act-companion/internal/infra/logging"
	"act-companion/internal/usecase"
)

type completeResponse struct {
	Summary string       `json:"summary"`
	View    usecase.View `json:"view"`
}

type deniedResponse struct {
	Error      string          `json:"error"`
	Transition flow.Transition `json:"transition"`
}

// IssueToken hands out a token for a new anonymous user, or renews the
// caller's token when it presents a valid one.
func (s *Server) IssueToken(w http.ResponseWriter, r *http.Request) {
	userID := ""
	if claims, err := s.auth.ParseFromRequest(r); err == nil {
		userID = claims.Subject
	}
	token, sub, err := s.auth.Mint(w, userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, UserId: sub})
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller(r).View())
}

func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)
	c.ResetSession(r.Context())
	writeJSON(w, http.StatusOK, c.View())
}

func (s *Server) SetPrivacy(w http.ResponseWriter, r *http.Request) {
	var req SetPrivacyJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	mode, err := model.ParsePrivacyMode(req.Mode)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := s.controller(r)
	if err := c.SetPrivacyMode(r.Context(), mode); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (s *Server) GoToStage(w http.ResponseWriter, r *http.Request) {
	var req GoToStageJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	s.respond(w, r, c, c.GoToStage(r.Context(), flow.Stage(req.Stage)), nil)
}

func (s *Server) SetProfile(w http.ResponseWriter, r *http.Request) {
	var req SetProfileJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	scores := make(map[model.ProfileCategory]float64, len(req.Scores))
	for k, v := range req.Scores {
		scores[model.ProfileCategory(k)] = v
	}
	p, err := model.ScoreProfile(scores)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := s.controller(r)
	if err := c.SetActProfile(r.Context(), *p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (s *Server) SetDiagnosis(w http.ResponseWriter, r *http.Request) {
	var req SetDiagnosisJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	t, err := c.SetDiagnosis(r.Context(), req.toModel())
	s.respond(w, r, c, t, err)
}

func (s *Server) StartRitual(w http.ResponseWriter, r *http.Request) {
	var req StartRitualJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	t, err := c.StartRitual(r.Context(), req.AiMode != nil && *req.AiMode)
	s.respond(w, r, c, t, err)
}

func (s *Server) NextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.guide.NextQuestion(r.Context(), s.controller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// AnswerQuestion records the answer and returns the next question.
func (s *Server) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req AnswerQuestionJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	if err := s.guide.Answer(r.Context(), c, req.Answer); err != nil {
		s.fail(w, r, err)
		return
	}
	s.NextQuestion(w, r)
}

func (s *Server) PauseRitual(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)
	s.simple(w, r, c, c.PauseCurrentRitual(r.Context()))
}

func (s *Server) ResumeRitual(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)
	s.simple(w, r, c, c.ResumeCurrentRitual(r.Context()))
}

func (s *Server) TakeBreak(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)
	s.simple(w, r, c, c.TakeSomaticBreak(r.Context()))
}

func (s *Server) AddMetrics(w http.ResponseWriter, r *http.Request) {
	var req AddMetricsJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	s.simple(w, r, c, c.AddMetrics(r.Context(), model.MetricsSnapshot{
		Intensity: req.Intensity, Fusion: req.Fusion, Avoidance: req.Avoidance,
	}))
}

func (s *Server) CompleteRitual(w http.ResponseWriter, r *http.Request) {
	var req CompleteRitualJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	summary, t, err := s.guide.Finish(r.Context(), c, req.FinalIntensity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !t.Allowed {
		s.denied(w, t)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Summary: summary, View: c.View()})
}

func (s *Server) AddTag(w http.ResponseWriter, r *http.Request) {
	var req AddTagJSONRequestBody
	if !decode(w, r, &req) {
		return
	}
	c := s.controller(r)
	s.simple(w, r, c, c.AddTag(r.Context(), req.Tag))
}

func (s *Server) RemoveTag(w http.ResponseWriter, r *http.Request, tag string) {
	c := s.controller(r)
	s.simple(w, r, c, c.RemoveTag(r.Context(), tag))
}

func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request, params ListHistoryParams) {
	q := ""
	if params.Q != nil {
		q = *params.Q
	}
	items := s.controller(r).SearchHistory(r.Context(), q)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request, id string) {
	items := s.controller(r).DeleteHistoryEntry(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) DrainNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := logging.UserID(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"items": s.inbox.Drain(userID)})
}

func (s *Server) SyncPush(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		s.fail(w, r, domain.ErrSyncNotConfigured)
		return
	}
	c := s.controller(r)
	if err := s.sync.Push(r.Context(), c.UserID(), c.Session()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncPull replaces the local session with the remote copy.
func (s *Server) SyncPull(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		s.fail(w, r, domain.ErrSyncNotConfigured)
		return
	}
	c := s.controller(r)
	remote, err := s.sync.Pull(r.Context(), c.UserID())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.simple(w, r, c, c.AdoptSession(r.Context(), remote))
}

// ---- helpers ----

func (d Diagnosis) toModel() model.Diagnosis {
	out := model.Diagnosis{CoreBelief: d.CoreBelief, Intensity: d.Intensity}
	if d.EmotionalHistory != nil {
		out.EmotionalHistory = *d.EmotionalHistory
	}
	if d.Triggers != nil {
		out.Triggers = *d.Triggers
	}
	if d.Narrative != nil {
		out.Narrative = *d.Narrative
	}
	if d.Origin != nil {
		out.Origin = *d.Origin
	}
	return out
}

func (s *Server) controller(r *http.Request) *usecase.FlowController {
	userID, _ := logging.UserID(r.Context())
	return s.reg.Get(r.Context(), userID)
}

func (s *Server) simple(w http.ResponseWriter, r *http.Request, c *usecase.FlowController, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, c *usecase.FlowController, t flow.Transition, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !t.Allowed {
		s.denied(w, t)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (s *Server) denied(w http.ResponseWriter, t flow.Transition) {
	writeJSON(w, http.StatusConflict, deniedResponse{Error: "transition denied", Transition: t})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, code, Error{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoRitual),
		errors.Is(err, domain.ErrRitualPaused),
		errors.Is(err, domain.ErrSessionCompleted),
		errors.Is(err, domain.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSyncNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Error{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

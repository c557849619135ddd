//go:build !integration

package apiv1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"act-companion/internal/domain/flow"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/api"
	apiv1 "act-companion/internal/infra/api/apiv1"
	"act-companion/internal/infra/i18n"
	"act-companion/internal/infra/notify"
	"act-companion/internal/infra/storage"
	"act-companion/internal/usecase"
)

//
// -------------------- test helpers --------------------
//

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

type testAPI struct {
	handler http.Handler
	auth    *api.AuthManager
	reg     *usecase.Registry
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("translator: %v", err)
	}
	kv := storage.NewMemoryKV()
	stores := func(userID string) (repository.SessionRepository, repository.HistoryRepository) {
		scoped := storage.NewPrefixed(kv, userID)
		return storage.NewSessionStore(scoped, newLogger()), storage.NewHistoryStore(scoped, newLogger())
	}
	inbox := notify.NewInbox(newLogger())
	reg := usecase.NewRegistry(stores, usecase.FlowDeps{
		Notifier:   inbox,
		Translator: tr,
		Logger:     newLogger(),
	})
	guide := usecase.NewRitualGuide(nil, nil, tr, usecase.RitualGuideConfig{}, newLogger())
	auth := api.NewAuthManager("test-secret", false, time.Hour)

	srv := apiv1.NewServer(reg, guide, nil, inbox, auth, newLogger())
	return &testAPI{handler: apiv1.NewRouter(srv, 5*time.Second), auth: auth, reg: reg}
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := a.auth.Mint(nil, userID)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v, body=%s", err, rec.Body.String())
	}
	return v
}

const (
	profileBody   = `{"scores":{"A":9,"B":3}}`
	diagnosisBody = `{"coreBelief":"I am not good enough","emotionalHistory":["shame"],"triggers":["feedback"],"intensity":8}`
)

//
// -------------------- tests --------------------
//

func TestPublicRoutes(t *testing.T) {
	a := newTestAPI(t)

	t.Run("should report health", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/health", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("should echo the request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("X-Request-ID = %q", got)
		}
	})

	t.Run("should issue an anonymous token", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/auth/token", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		body := decodeBody[struct {
			Token  string `json:"token"`
			UserID string `json:"userId"`
		}](t, rec)
		if body.Token == "" || body.UserID == "" {
			t.Fatalf("empty token response: %+v", body)
		}
		if len(rec.Result().Cookies()) == 0 {
			t.Error("expected a session cookie")
		}
	})

	t.Run("should renew a token for the same user", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/auth/token", a.token(t, "user-7"), "")
		body := decodeBody[struct {
			UserID string `json:"userId"`
		}](t, rec)
		if body.UserID != "user-7" {
			t.Errorf("userId = %q", body.UserID)
		}
	})

	t.Run("should reject session routes without a token", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/v1/session", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("should reject a forged token", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/v1/session", "not.a.jwt", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})
}

func TestContractRoutes(t *testing.T) {
	a := newTestAPI(t)
	routes, ok := a.handler.(chi.Routes)
	if !ok {
		t.Fatalf("router is %T, want chi.Routes", a.handler)
	}
	params := strings.NewReplacer("{tag}", "work", "{id}", "entry-1")

	t.Run("should require a token on every route but token issuance", func(t *testing.T) {
		var checked int
		err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if !strings.HasPrefix(route, "/api/v1/") || route == "/api/v1/auth/token" {
				return nil
			}
			checked++
			rec := a.do(t, method, params.Replace(route), "", "")
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("%s %s: want 401, got %d", method, route, rec.Code)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk: %v", err)
		}
		if checked != 21 {
			t.Errorf("checked %d secured routes, want 21", checked)
		}
	})

	t.Run("should unescape the tag path parameter", func(t *testing.T) {
		tok := a.token(t, "user-9")
		_ = a.do(t, http.MethodPost, "/api/v1/tags", tok, `{"tag":"self doubt"}`)
		view := decodeBody[usecase.View](t, a.do(t, http.MethodDelete, "/api/v1/tags/self%20doubt", tok, ""))
		if len(view.Session.Tags) != 0 {
			t.Errorf("tags = %v", view.Session.Tags)
		}
	})
}

func TestJourney(t *testing.T) {
	a := newTestAPI(t)
	tok := a.token(t, "user-1")

	t.Run("should start idle", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/v1/session", tok, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		view := decodeBody[usecase.View](t, rec)
		if view.Stage != flow.StageIdle || view.Session == nil {
			t.Fatalf("unexpected view: %+v", view)
		}
	})

	t.Run("should deny the ritual before a profile exists", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/ritual/start", tok, `{"aiMode":false}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d, body=%s", rec.Code, rec.Body.String())
		}
		body := decodeBody[struct {
			Transition flow.Transition `json:"transition"`
		}](t, rec)
		if body.Transition.Allowed || body.Transition.Reason != flow.ReasonProfileRequired || body.Transition.Suggestion == "" {
			t.Errorf("transition = %+v", body.Transition)
		}
	})

	t.Run("should reject an unknown profile category", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/profile", tok, `{"scores":{"Z":3}}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/profile", tok, `{"scores":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("should score the profile", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/profile", tok, profileBody)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		view := decodeBody[usecase.View](t, rec)
		if view.Session.ACTProfile == nil || view.Session.ACTProfile.Primary != model.ProfileA {
			t.Errorf("profile = %+v", view.Session.ACTProfile)
		}
	})

	t.Run("should reject an incomplete diagnosis", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/diagnosis", tok, `{"coreBelief":"no","intensity":11}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("should save the diagnosis", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/diagnosis", tok, diagnosisBody)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		view := decodeBody[usecase.View](t, rec)
		if view.Session.InitialMetrics == nil || view.Session.InitialMetrics.Intensity != 8 {
			t.Errorf("initial metrics = %+v", view.Session.InitialMetrics)
		}
	})

	t.Run("should refuse questions before the ritual starts", func(t *testing.T) {
		rec := a.do(t, http.MethodGet, "/api/v1/ritual/question", tok, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
	})

	t.Run("should start the ritual", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/ritual/start", tok, `{"aiMode":true}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		view := decodeBody[usecase.View](t, rec)
		if view.Stage != flow.StageRitual || view.Session.RitualState == nil {
			t.Errorf("view = %+v", view)
		}
	})

	t.Run("should pause and refuse answers until resumed", func(t *testing.T) {
		if rec := a.do(t, http.MethodPost, "/api/v1/ritual/pause", tok, ""); rec.Code != http.StatusOK {
			t.Fatalf("pause: %d", rec.Code)
		}
		if rec := a.do(t, http.MethodPost, "/api/v1/ritual/answer", tok, `{"answer":"x"}`); rec.Code != http.StatusConflict {
			t.Fatalf("answer while paused: want 409, got %d", rec.Code)
		}
		if rec := a.do(t, http.MethodPost, "/api/v1/ritual/resume", tok, ""); rec.Code != http.StatusOK {
			t.Fatalf("resume: %d", rec.Code)
		}
	})

	t.Run("should serve static questions through all phases", func(t *testing.T) {
		first := decodeBody[usecase.Question](t, a.do(t, http.MethodGet, "/api/v1/ritual/question", tok, ""))
		if first.PhaseIndex != 0 || first.IsAIGenerated || first.Text == "" {
			t.Fatalf("first question = %+v", first)
		}
		var q usecase.Question
		for i := 0; i < model.RitualPhaseCount; i++ {
			rec := a.do(t, http.MethodPost, "/api/v1/ritual/answer", tok, `{"answer":"answer"}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("answer %d: %d, body=%s", i, rec.Code, rec.Body.String())
			}
			q = decodeBody[usecase.Question](t, rec)
			if i == 1 && !strings.Contains(q.Text, "I am not good enough") {
				t.Errorf("defusion question should quote the belief: %q", q.Text)
			}
		}
		if !q.Done {
			t.Errorf("expected the last answer to finish the phases, got %+v", q)
		}
	})

	t.Run("should record metrics and tags", func(t *testing.T) {
		if rec := a.do(t, http.MethodPost, "/api/v1/ritual/metrics", tok, `{"intensity":5}`); rec.Code != http.StatusOK {
			t.Fatalf("metrics: %d, body=%s", rec.Code, rec.Body.String())
		}
		if rec := a.do(t, http.MethodPost, "/api/v1/ritual/metrics", tok, `{"intensity":0}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("out of range metrics: want 400, got %d", rec.Code)
		}
		rec := a.do(t, http.MethodPost, "/api/v1/tags", tok, `{"tag":"work"}`)
		view := decodeBody[usecase.View](t, rec)
		if len(view.Session.Tags) != 1 || view.Session.Tags[0] != "work" {
			t.Errorf("tags = %v", view.Session.Tags)
		}
	})

	t.Run("should complete with a static summary", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/ritual/complete", tok, `{"finalIntensity":4}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		body := decodeBody[struct {
			Summary string       `json:"summary"`
			View    usecase.View `json:"view"`
		}](t, rec)
		if !strings.Contains(body.Summary, "8 to 4") {
			t.Errorf("summary = %q", body.Summary)
		}
		if body.View.Stage != flow.StageComplete || body.View.Session.CompletedAt == nil {
			t.Errorf("view = %+v", body.View)
		}
	})

	t.Run("should refuse changes to a completed session", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/ritual/break", tok, "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
	})

	t.Run("should list and search the history", func(t *testing.T) {
		type items struct {
			Items []model.CompletedSession `json:"items"`
		}
		all := decodeBody[items](t, a.do(t, http.MethodGet, "/api/v1/history", tok, ""))
		if len(all.Items) != 1 || all.Items[0].CoreBelief != "I am not good enough" {
			t.Fatalf("history = %+v", all.Items)
		}
		none := decodeBody[items](t, a.do(t, http.MethodGet, "/api/v1/history?q=nothing-matches", tok, ""))
		if len(none.Items) != 0 {
			t.Errorf("search returned %d items", len(none.Items))
		}
		hit := decodeBody[items](t, a.do(t, http.MethodGet, "/api/v1/history?q=SHAME", tok, ""))
		if len(hit.Items) != 1 {
			t.Errorf("search for an emotion returned %d items", len(hit.Items))
		}
		left := decodeBody[items](t, a.do(t, http.MethodDelete, "/api/v1/history/"+all.Items[0].ID, tok, ""))
		if len(left.Items) != 0 {
			t.Errorf("delete left %d items", len(left.Items))
		}
	})

	t.Run("should queue notifications for the user", func(t *testing.T) {
		body := decodeBody[struct {
			Items []struct {
				Level   string `json:"level"`
				Message string `json:"message"`
			} `json:"items"`
		}](t, a.do(t, http.MethodGet, "/api/v1/notifications", tok, ""))
		if len(body.Items) == 0 {
			t.Fatal("expected notifications")
		}
		again := decodeBody[struct {
			Items []any `json:"items"`
		}](t, a.do(t, http.MethodGet, "/api/v1/notifications", tok, ""))
		if len(again.Items) != 0 {
			t.Errorf("drain should empty the inbox, got %d", len(again.Items))
		}
	})

	t.Run("should reset to a fresh session", func(t *testing.T) {
		before := a.reg.Get(t.Context(), "user-1").Session().ID
		view := decodeBody[usecase.View](t, a.do(t, http.MethodPost, "/api/v1/session/reset", tok, ""))
		if view.Session.ID == before || view.Stage != flow.StageIdle {
			t.Errorf("reset view = %+v", view)
		}
	})
}

func TestSessionSettings(t *testing.T) {
	a := newTestAPI(t)
	tok := a.token(t, "user-2")

	t.Run("should switch privacy mode", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, "/api/v1/session/privacy", tok, `{"mode":"session"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		view := decodeBody[usecase.View](t, rec)
		if view.Session.PrivacyMode != model.PrivacySession || view.Session.ExpiresAt != nil {
			t.Errorf("session = %+v", view.Session)
		}
	})

	t.Run("should reject an unknown privacy mode", func(t *testing.T) {
		rec := a.do(t, http.MethodPut, "/api/v1/session/privacy", tok, `{"mode":"public"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("should move the view between allowed stages", func(t *testing.T) {
		rec := a.do(t, http.MethodPost, "/api/v1/session/stage", tok, `{"stage":"TEST"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		if view := decodeBody[usecase.View](t, rec); view.Stage != flow.StageTest {
			t.Errorf("stage = %s", view.Stage)
		}
		rec = a.do(t, http.MethodPost, "/api/v1/session/stage", tok, `{"stage":"COMPLETE"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("want 409, got %d", rec.Code)
		}
	})

	t.Run("should remove a tag", func(t *testing.T) {
		_ = a.do(t, http.MethodPost, "/api/v1/tags", tok, `{"tag":"sleep"}`)
		view := decodeBody[usecase.View](t, a.do(t, http.MethodDelete, "/api/v1/tags/sleep", tok, ""))
		if len(view.Session.Tags) != 0 {
			t.Errorf("tags = %v", view.Session.Tags)
		}
	})

	t.Run("should report sync as not configured", func(t *testing.T) {
		if rec := a.do(t, http.MethodPost, "/api/v1/sync/push", tok, ""); rec.Code != http.StatusNotImplemented {
			t.Fatalf("push: want 501, got %d", rec.Code)
		}
		if rec := a.do(t, http.MethodPost, "/api/v1/sync/pull", tok, ""); rec.Code != http.StatusNotImplemented {
			t.Fatalf("pull: want 501, got %d", rec.Code)
		}
	})

	t.Run("should keep users apart", func(t *testing.T) {
		other := a.token(t, "user-3")
		view := decodeBody[usecase.View](t, a.do(t, http.MethodGet, "/api/v1/session", other, ""))
		if view.Session.PrivacyMode != model.PrivacyPersist {
			t.Errorf("user-3 sees user-2's settings: %+v", view.Session)
		}
	})
}

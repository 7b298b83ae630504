package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soaringjerry/Pulse/internal/config"
	"github.com/soaringjerry/Pulse/internal/db"
	"github.com/soaringjerry/Pulse/internal/logger"
	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/models"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/session"
)

type testEnv struct {
	store   *db.Store
	handler http.Handler
	// wellbeingID is a 10-question, 1..5 scale assessment with a
	// [25,35] "Severe" band.
	wellbeingID uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithSessions(t, session.NewMemoryStore())
}

func newTestEnvWithSessions(t *testing.T, sessions session.Store) *testEnv {
	t.Helper()
	store, err := db.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, logger.Nop())
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Bootstrap(context.Background(), "", true); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}

	at := models.AssessmentType{Code: "WELLBEING", Title: "Wellbeing Check"}
	if err := store.DB().Create(&at).Error; err != nil {
		t.Fatalf("create assessment type: %v", err)
	}
	for i := 1; i <= 10; i++ {
		q := models.AssessmentQuestion{AssessmentTypeID: at.ID, QuestionOrder: i, QuestionText: fmt.Sprintf("Item %d", i)}
		if err := store.DB().Create(&q).Error; err != nil {
			t.Fatalf("create question: %v", err)
		}
	}
	for v := 1; v <= 5; v++ {
		o := models.ResponseOption{AssessmentTypeID: at.ID, OptionOrder: v, OptionText: fmt.Sprintf("Level %d", v), OptionValue: v}
		if err := store.DB().Create(&o).Error; err != nil {
			t.Fatalf("create option: %v", err)
		}
	}
	for _, l := range []models.SeverityLevel{
		{AssessmentTypeID: at.ID, MinScore: 10, MaxScore: 17, SeverityLabel: "Low"},
		{AssessmentTypeID: at.ID, MinScore: 18, MaxScore: 24, SeverityLabel: "Moderate"},
		{AssessmentTypeID: at.ID, MinScore: 25, MaxScore: 35, SeverityLabel: "Severe"},
		{AssessmentTypeID: at.ID, MinScore: 36, MaxScore: 50, SeverityLabel: "Extreme"},
	} {
		if err := store.DB().Create(&l).Error; err != nil {
			t.Fatalf("create severity level: %v", err)
		}
	}

	rt := NewRouter(Deps{
		Store:       store,
		Sessions:    session.NewManager(sessions, time.Hour),
		Tokens:      middleware.NewAuthenticator("test-secret"),
		Policy:      services.DefaultReversePolicy(),
		Log:         logger.Nop(),
		CORSOrigins: []string{"*"},
	})
	return &testEnv{store: store, handler: rt.Handler(), wellbeingID: at.ID}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type authBody struct {
	Token   string        `json:"token"`
	Session session.State `json:"session"`
}

func (e *testEnv) register(t *testing.T, email string) authBody {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "pw-123456", "department": "Ops", "city": "Leeds",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	return decode[authBody](t, rec)
}

func (e *testEnv) login(t *testing.T, email string) authBody {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "pw-123456"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	return decode[authBody](t, rec)
}

func (e *testEnv) admin(t *testing.T, email string) authBody {
	t.Helper()
	e.register(t, email)
	if err := e.store.SetAdmin(context.Background(), email, true); err != nil {
		t.Fatalf("SetAdmin returned error: %v", err)
	}
	return e.login(t, email)
}

// answers picks, for each question in order, the option with the given raw value.
func (e *testEnv) answers(t *testing.T, token string, typeID uint, raws []int) []services.Answer {
	t.Helper()
	rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/assessments/%d/questions", typeID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("questions status = %d: %s", rec.Code, rec.Body.String())
	}
	q := decode[services.Questionnaire](t, rec)
	if len(q.Questions) != len(raws) {
		t.Fatalf("questions = %d, want %d", len(q.Questions), len(raws))
	}
	out := make([]services.Answer, len(raws))
	for i, question := range q.Questions {
		for _, o := range question.Options {
			if o.Value == raws[i] {
				out[i] = services.Answer{QuestionID: question.ID, OptionID: o.ID, RawValue: raws[i]}
			}
		}
	}
	return out
}

type submitBody struct {
	ResponseID string                     `json:"response_id"`
	Session    session.State              `json:"session"`
	Result     *services.SubmissionResult `json:"result"`
}

func (e *testEnv) submit(t *testing.T, token string, typeID uint, raws []int) submitBody {
	t.Helper()
	answers := e.answers(t, token, typeID, raws)
	rec := e.do(t, http.MethodPost, fmt.Sprintf("/api/assessments/%d/responses", typeID), token, map[string]any{"answers": answers})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	return decode[submitBody](t, rec)
}

type dashboardBody struct {
	Session  session.State          `json:"session"`
	History  services.HistoryView   `json:"history"`
	Selected *services.HistoryEntry `json:"selected"`
}

func TestSubmitHidesScoresOutsideAdminView(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "user@example.com")
	if auth.Session.AdminView || auth.Session.Section != session.SectionDashboard {
		t.Fatalf("unexpected initial session %+v", auth.Session)
	}
	if rec := e.do(t, http.MethodPut, "/api/session/section", auth.Token, map[string]string{"section": "Assessments"}); rec.Code != http.StatusOK {
		t.Fatalf("section status = %d: %s", rec.Code, rec.Body.String())
	}

	res := e.submit(t, auth.Token, e.wellbeingID, []int{3, 4, 2, 5, 1, 3, 4, 2, 5, 1})
	if res.Result != nil {
		t.Fatalf("score leaked to non-admin: %+v", res.Result)
	}
	if res.Session.Section != session.SectionDashboard {
		t.Fatalf("section after submit = %q, want Dashboard", res.Session.Section)
	}

	rec := e.do(t, http.MethodGet, "/api/dashboard", auth.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(`"score"`)) || bytes.Contains(rec.Body.Bytes(), []byte(`"Severe"`)) {
		t.Fatalf("dashboard exposes score: %s", rec.Body.String())
	}
	dash := decode[dashboardBody](t, rec)
	if dash.History.ShowScores || len(dash.History.Entries) != 1 || len(dash.History.Radar) != 0 {
		t.Fatalf("unexpected history %+v", dash.History)
	}
	if got := len(dash.History.Entries[0].Details); got != 10 {
		t.Fatalf("details = %d, want 10", got)
	}
}

func TestAdminSeesScoreAndSeverity(t *testing.T) {
	e := newTestEnv(t)
	auth := e.admin(t, "admin@example.com")
	if !auth.Session.AdminView {
		t.Fatalf("admin should start in admin view")
	}

	res := e.submit(t, auth.Token, e.wellbeingID, []int{3, 4, 2, 5, 1, 3, 4, 2, 5, 1})
	if res.Result == nil || res.Result.TotalScore != 30 || res.Result.SeverityLabel != "Severe" {
		t.Fatalf("result = %+v, want 30 Severe", res.Result)
	}

	rel, err := e.store.GetAssessmentTypeByCode(context.Background(), "RELATIONSHIP")
	if err != nil || rel == nil {
		t.Fatalf("RELATIONSHIP missing: %v", err)
	}
	relRes := e.submit(t, auth.Token, rel.ID, []int{5, 4, 3, 2, 1, 3, 4})
	if relRes.Result == nil || relRes.Result.TotalScore != 22 {
		t.Fatalf("relationship result = %+v, want 22", relRes.Result)
	}
	want := []int{5, 4, 3, 4, 1, 3, 2}
	for i, a := range relRes.Result.Answers {
		if a.ResponseValue != want[i] {
			t.Fatalf("answer %d value = %d, want %d", i, a.ResponseValue, want[i])
		}
	}

	dash := decode[dashboardBody](t, e.do(t, http.MethodGet, "/api/dashboard", auth.Token, nil))
	if !dash.History.ShowScores || len(dash.History.Entries) != 2 {
		t.Fatalf("unexpected history %+v", dash.History)
	}
	newest := dash.History.Entries[0]
	if newest.AssessmentCode != "RELATIONSHIP" || newest.Score == nil || *newest.Score != 22 {
		t.Fatalf("newest entry = %+v", newest)
	}
	older := dash.History.Entries[1]
	if older.Score == nil || *older.Score != 30 || older.Severity == nil || *older.Severity != "Severe" {
		t.Fatalf("older entry = %+v", older)
	}
	if len(dash.History.Radar) != 2 || dash.History.Radar[0].Category != "RELATIONSHIP" {
		t.Fatalf("radar = %+v", dash.History.Radar)
	}

	if rec := e.do(t, http.MethodGet, "/api/admin/analytics/wellbeing", auth.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("analytics status = %d: %s", rec.Code, rec.Body.String())
	}
	rec := e.do(t, http.MethodGet, "/api/admin/export?format=score", auth.Token, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("export status = %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	// Turning admin view off hides scores again.
	if rec := e.do(t, http.MethodPut, "/api/session/admin-view", auth.Token, map[string]bool{"admin_view": false}); rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	dash = decode[dashboardBody](t, e.do(t, http.MethodGet, "/api/dashboard", auth.Token, nil))
	if dash.History.ShowScores || dash.History.Entries[0].Score != nil {
		t.Fatalf("scores visible with admin view off: %+v", dash.History)
	}
	if rec := e.do(t, http.MethodGet, "/api/admin/export", auth.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("export with admin view off = %d, want 403", rec.Code)
	}
}

func TestAdminToggleIgnoredForNonAdmin(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "plain@example.com")
	rec := e.do(t, http.MethodPut, "/api/session/admin-view", auth.Token, map[string]bool{"admin_view": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Session session.State `json:"session"`
		Changed bool          `json:"changed"`
	}](t, rec)
	if body.Changed || body.Session.AdminView {
		t.Fatalf("non-admin toggled admin view: %+v", body)
	}
	if rec := e.do(t, http.MethodGet, "/api/admin/analytics/PHQ9", auth.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("analytics status = %d, want 403", rec.Code)
	}
}

func TestSelectedResponseAndLogout(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "nav@example.com")
	res := e.submit(t, auth.Token, e.wellbeingID, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

	rec := e.do(t, http.MethodPut, "/api/session/response", auth.Token, map[string]string{"response_id": res.ResponseID})
	if rec.Code != http.StatusOK {
		t.Fatalf("open response status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := e.do(t, http.MethodPut, "/api/session/section", auth.Token, map[string]string{"section": "Profile"}); rec.Code != http.StatusOK {
		t.Fatalf("section status = %d", rec.Code)
	}
	dash := decode[dashboardBody](t, e.do(t, http.MethodGet, "/api/dashboard", auth.Token, nil))
	if dash.Selected == nil || dash.Selected.ResponseID != res.ResponseID || dash.Session.Section != session.SectionProfile {
		t.Fatalf("selection lost across navigation: %+v", dash)
	}
	if rec := e.do(t, http.MethodPut, "/api/session/section", auth.Token, map[string]string{"section": "Settings"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown section status = %d, want 400", rec.Code)
	}

	if rec := e.do(t, http.MethodPost, "/api/auth/logout", auth.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/session", auth.Token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout = %d, want 401", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/dashboard", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("dashboard without token = %d, want 401", rec.Code)
	}

	again := e.login(t, "nav@example.com")
	if again.Session.SelectedResponse != "" || again.Session.Section != session.SectionDashboard {
		t.Fatalf("new session inherited state: %+v", again.Session)
	}
}

func TestOpenResponseOfAnotherUserIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	owner := e.register(t, "owner@example.com")
	res := e.submit(t, owner.Token, e.wellbeingID, []int{2, 2, 2, 2, 2, 2, 2, 2, 2, 2})
	other := e.register(t, "other@example.com")
	rec := e.do(t, http.MethodPut, "/api/session/response", other.Token, map[string]string{"response_id": res.ResponseID})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSubmitValidationErrors(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "v@example.com")
	answers := e.answers(t, auth.Token, e.wellbeingID, []int{1, 2, 3, 4, 5, 1, 2, 3, 4, 5})

	rec := e.do(t, http.MethodPost, fmt.Sprintf("/api/assessments/%d/responses", e.wellbeingID), auth.Token, map[string]any{"answers": answers[:9]})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete submit = %d, want 400", rec.Code)
	}
	answers[0].RawValue = 4
	rec = e.do(t, http.MethodPost, fmt.Sprintf("/api/assessments/%d/responses", e.wellbeingID), auth.Token, map[string]any{"answers": answers})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("mismatched raw value = %d, want 400", rec.Code)
	}
	if rec := e.do(t, http.MethodGet, "/api/assessments/999/questions", auth.Token, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown assessment = %d, want 404", rec.Code)
	}
	dash := decode[dashboardBody](t, e.do(t, http.MethodGet, "/api/dashboard", auth.Token, nil))
	if len(dash.History.Entries) != 0 {
		t.Fatalf("rejected submissions were stored: %+v", dash.History.Entries)
	}
}

func TestRegisterDuplicateAndBadLogin(t *testing.T) {
	e := newTestEnv(t)
	e.register(t, "dup@example.com")
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "DUP@example.com", "password": "x"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "dup@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", rec.Code)
	}
}

func TestProfileAndSettings(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "prof@example.com")
	rec := e.do(t, http.MethodPut, "/api/profile", auth.Token, services.ProfileUpdate{
		FullName: "Ada", Age: 17, Gender: "Female", YearsService: 3, Department: "Ops", City: "Leeds",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("underage profile = %d, want 400", rec.Code)
	}
	rec = e.do(t, http.MethodPut, "/api/profile", auth.Token, services.ProfileUpdate{
		FullName: "Ada", Age: 36, Gender: "female", YearsService: 3, Department: "Ops", City: "Leeds",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update profile = %d: %s", rec.Code, rec.Body.String())
	}
	p := decode[services.ProfileRecord](t, e.do(t, http.MethodGet, "/api/profile", auth.Token, nil))
	if p.Email != "prof@example.com" || p.Gender == nil || *p.Gender != "Female" || p.Age == nil || *p.Age != 36 {
		t.Fatalf("profile = %+v", p)
	}

	rec = e.do(t, http.MethodPut, "/api/settings", auth.Token, map[string]bool{"hide_scores": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings = %d", rec.Code)
	}
	s := decode[services.Settings](t, e.do(t, http.MethodGet, "/api/settings", auth.Token, nil))
	if !s.HideScores || s.IsAdmin {
		t.Fatalf("settings = %+v", s)
	}
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health?lang=zh", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["locale"] != "zh" || body["ok"] != true {
		t.Fatalf("health body = %v", body)
	}
}

func TestRevokedAdminLosesScoresMidSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	auth := e.admin(t, "chief@example.com")
	staff := e.register(t, "staff@example.com")
	e.submit(t, staff.Token, e.wellbeingID, []int{3, 4, 2, 5, 1, 3, 4, 2, 5, 1})

	if err := e.store.SetAdmin(ctx, "chief@example.com", false); err != nil {
		t.Fatalf("SetAdmin returned error: %v", err)
	}
	if rec := e.do(t, http.MethodGet, "/api/admin/export?format=score", auth.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("export after revoke = %d, want 403: %s", rec.Code, rec.Body.String())
	}
	if rec := e.do(t, http.MethodGet, "/api/admin/analytics/wellbeing", auth.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("analytics after revoke = %d, want 403", rec.Code)
	}
	res := e.submit(t, auth.Token, e.wellbeingID, []int{3, 4, 2, 5, 1, 3, 4, 2, 5, 1})
	if res.Result != nil || res.Session.IsAdmin || res.Session.AdminView {
		t.Fatalf("revoked admin still sees scores: %+v", res)
	}
	st := decode[struct {
		session.State
		Sections []session.Section `json:"sections"`
	}](t, e.do(t, http.MethodGet, "/api/session", auth.Token, nil))
	if st.IsAdmin || st.AdminView || len(st.Sections) != 3 || st.Sections[0] != session.SectionDashboard {
		t.Fatalf("session after revoke = %+v", st)
	}
}

func TestGrantedAdminMustOptIntoAdminView(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "new-chief@example.com")
	if err := e.store.SetAdmin(context.Background(), "new-chief@example.com", true); err != nil {
		t.Fatalf("SetAdmin returned error: %v", err)
	}
	if rec := e.do(t, http.MethodGet, "/api/admin/export", auth.Token, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("export before opting in = %d, want 403", rec.Code)
	}
	rec := e.do(t, http.MethodPut, "/api/session/admin-view", auth.Token, map[string]bool{"admin_view": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := e.do(t, http.MethodGet, "/api/admin/export", auth.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("export after opting in = %d, want 200", rec.Code)
	}
}

func TestSessionUpdatesRequireBody(t *testing.T) {
	e := newTestEnv(t)
	auth := e.admin(t, "body@example.com")
	for _, body := range []any{nil, map[string]any{}} {
		if rec := e.do(t, http.MethodPut, "/api/session/admin-view", auth.Token, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("admin-view with body %v = %d, want 400", body, rec.Code)
		}
		if rec := e.do(t, http.MethodPut, "/api/settings", auth.Token, body); rec.Code != http.StatusBadRequest {
			t.Fatalf("settings with body %v = %d, want 400", body, rec.Code)
		}
	}
	if rec := e.do(t, http.MethodPut, "/api/session/section", auth.Token, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("section without body = %d, want 400", rec.Code)
	}
	st := decode[session.State](t, e.do(t, http.MethodGet, "/api/session", auth.Token, nil))
	if !st.AdminView {
		t.Fatalf("rejected request changed admin view: %+v", st)
	}
}

func TestUnknownSectionMessageIsLocalized(t *testing.T) {
	e := newTestEnv(t)
	auth := e.register(t, "zh@example.com")
	rec := e.do(t, http.MethodPut, "/api/session/section?lang=zh", auth.Token, map[string]string{"section": "Settings"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decode[errorEnvelope](t, rec)
	if body.Error.Message != "未知的页面。" || body.Error.Code != string(services.ErrorInvalid) {
		t.Fatalf("error = %+v", body.Error)
	}
}

// failingSaves wraps a MemoryStore and rejects writes once armed.
type failingSaves struct {
	*session.MemoryStore
	fail bool
}

func (f *failingSaves) Save(ctx context.Context, st *session.State, ttl time.Duration) error {
	if f.fail {
		return errors.New("session backend unavailable")
	}
	return f.MemoryStore.Save(ctx, st, ttl)
}

func TestSubmitSucceedsWhenSessionSaveFails(t *testing.T) {
	sessions := &failingSaves{MemoryStore: session.NewMemoryStore()}
	e := newTestEnvWithSessions(t, sessions)
	auth := e.register(t, "flaky@example.com")
	if rec := e.do(t, http.MethodPut, "/api/session/section", auth.Token, map[string]string{"section": "Assessments"}); rec.Code != http.StatusOK {
		t.Fatalf("section status = %d", rec.Code)
	}

	sessions.fail = true
	res := e.submit(t, auth.Token, e.wellbeingID, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	if res.ResponseID == "" || res.Session.Section != session.SectionDashboard {
		t.Fatalf("submit response = %+v", res)
	}
	sessions.fail = false
	dash := decode[dashboardBody](t, e.do(t, http.MethodGet, "/api/dashboard", auth.Token, nil))
	if len(dash.History.Entries) != 1 || dash.History.Entries[0].ResponseID != res.ResponseID {
		t.Fatalf("committed response missing: %+v", dash.History)
	}
}

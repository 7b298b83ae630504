package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/session"
	"github.com/soaringjerry/Pulse/internal/utils"
)

func assessmentIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id == 0 {
		return 0, services.ErrAssessmentNotFound
	}
	return uint(id), nil
}

// GET /api/assessments
func (rt *Router) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	if _, err := rt.currentSession(r); err != nil {
		rt.writeError(w, r, err)
		return
	}
	types, err := rt.catalog.ListAssessments(r.Context())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": types})
}

// GET /api/assessments/{id}/questions
func (rt *Router) handleQuestionnaire(w http.ResponseWriter, r *http.Request) {
	if _, err := rt.currentSession(r); err != nil {
		rt.writeError(w, r, err)
		return
	}
	id, err := assessmentIDParam(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	q, err := rt.catalog.Questionnaire(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// POST /api/assessments/{id}/responses {"answers": [{question_id, option_id, raw_value}]}
//
// Score and severity are only echoed back in admin view.
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	id, err := assessmentIDParam(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req struct {
		Answers []services.Answer `json:"answers"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.scoring.Submit(r.Context(), services.Submission{UserID: st.UserID, AssessmentTypeID: id, Answers: req.Answers})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	// The response is committed; a session write failure must not report
	// the submission as failed.
	if updated, err := rt.sessions.Update(r.Context(), st.ID, func(st *session.State) error {
		st.AssessmentSubmitted()
		return nil
	}); err != nil {
		rt.log.Warn("session update after submit failed", "session_id", st.ID, "response_id", res.ResponseID, "error", err)
		st.AssessmentSubmitted()
	} else {
		st = updated
	}
	out := map[string]any{
		"response_id": res.ResponseID,
		"message":     utils.T(middleware.LocaleFromContext(r.Context()), "assessment.submitted"),
		"session":     st,
	}
	if st.ShowScores() {
		out["result"] = res
	}
	writeJSON(w, http.StatusCreated, out)
}

// GET /api/dashboard returns the history for the session's view mode and,
// when one is open, the selected response.
func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	role := services.RoleContext{AdminView: st.AdminView}
	view, err := rt.history.History(r.Context(), st.UserID, role)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	out := map[string]any{"session": st, "history": view}
	if st.SelectedResponse != "" {
		entry, err := rt.history.Entry(r.Context(), st.UserID, st.SelectedResponse, role)
		switch {
		case err == nil:
			out["selected"] = entry
		case !errors.Is(err, services.ErrResponseNotFound):
			rt.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, out)
}

package api

import (
	"net/http"

	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/utils"
)

// GET /api/profile
func (rt *Router) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	p, err := rt.profile.Get(r.Context(), st.UserID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /api/profile
func (rt *Router) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req services.ProfileUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	p, err := rt.profile.Update(r.Context(), st.UserID, req)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": p,
		"message": utils.T(middleware.LocaleFromContext(r.Context()), "profile.updated"),
	})
}

// GET /api/settings
func (rt *Router) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	s, err := rt.profile.Settings(r.Context(), st.UserID)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// PUT /api/settings {"hide_scores": bool}
func (rt *Router) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	var req struct {
		HideScores *bool `json:"hide_scores"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if req.HideScores == nil {
		rt.writeError(w, r, services.NewInvalidError("hide_scores required"))
		return
	}
	s, err := rt.profile.SetHideScores(r.Context(), st.UserID, *req.HideScores)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

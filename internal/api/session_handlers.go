package api

import (
	"errors"
	"net/http"

	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/models"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/session"
	"github.com/soaringjerry/Pulse/internal/utils"
)

type authResponse struct {
	Token   string         `json:"token"`
	User    *models.User   `json:"user"`
	Session *session.State `json:"session"`
}

// currentSession resolves the bearer token to a live session owned by the
// token's user. Any mismatch is treated as logged out. The admin flag is
// re-read from the store so a grant or revoke applies to live sessions.
func (rt *Router) currentSession(r *http.Request) (*session.State, error) {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, session.ErrUnauthenticated
	}
	st, err := rt.sessions.Load(r.Context(), c.SID)
	if err != nil {
		return nil, err
	}
	if st.UserID != c.UID {
		return nil, session.ErrUnauthenticated
	}
	settings, err := rt.profile.Settings(r.Context(), st.UserID)
	if errors.Is(err, services.ErrUserNotFound) {
		return nil, session.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if st.IsAdmin != settings.IsAdmin {
		rt.log.Info("admin flag changed, syncing session", "user_id", st.UserID, "admin", settings.IsAdmin)
		return rt.sessions.Update(r.Context(), st.ID, func(st *session.State) error {
			st.SyncAdmin(settings.IsAdmin)
			return nil
		})
	}
	return st, nil
}

// transition applies fn to the caller's session and persists it.
func (rt *Router) transition(r *http.Request, fn func(st *session.State) error) (*session.State, error) {
	st, err := rt.currentSession(r)
	if err != nil {
		return nil, err
	}
	return rt.sessions.Update(r.Context(), st.ID, fn)
}

func (rt *Router) startSession(w http.ResponseWriter, r *http.Request, status int, u *models.User) {
	st, err := rt.sessions.Login(r.Context(), u.ID, u.IsAdmin)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	tok, err := rt.tokens.SignToken(u.ID, st.ID, u.IsAdmin, rt.sessions.TTL())
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, status, authResponse{Token: tok, User: u, Session: st})
}

// POST /api/auth/register
func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Department string `json:"department"`
		City       string `json:"city"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	u, err := rt.auth.Register(r.Context(), services.Registration{
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		City:       req.City,
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.startSession(w, r, http.StatusCreated, u)
}

// POST /api/auth/login
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	u, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.startSession(w, r, http.StatusOK, u)
}

// POST /api/auth/logout drops the whole session at once.
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	c, _ := middleware.ClaimsFromContext(r.Context())
	if err := rt.sessions.Logout(r.Context(), c.SID); err != nil {
		rt.writeError(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": utils.T(locale, "auth.logged_out")})
}

// sessionView is the navigation state plus the menu it navigates.
type sessionView struct {
	*session.State
	Sections []session.Section `json:"sections"`
}

// GET /api/session
func (rt *Router) handleSession(w http.ResponseWriter, r *http.Request) {
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{State: st, Sections: session.Sections()})
}

// PUT /api/session/admin-view {"admin_view": bool}
func (rt *Router) handleToggleAdminView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminView *bool `json:"admin_view"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	if req.AdminView == nil {
		rt.writeError(w, r, services.NewInvalidError("admin_view required"))
		return
	}
	changed := false
	st, err := rt.transition(r, func(st *session.State) error {
		changed = st.ToggleAdminView(*req.AdminView)
		return nil
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": st, "changed": changed})
}

// PUT /api/session/section {"section": "Profile"}
func (rt *Router) handleSelectSection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Section string `json:"section"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	st, err := rt.transition(r, func(st *session.State) error {
		return st.SelectSection(req.Section)
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// PUT /api/session/response {"response_id": "..."} opens a drill-down on one
// of the caller's own responses.
func (rt *Router) handleOpenResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResponseID string `json:"response_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, err)
		return
	}
	st, err := rt.currentSession(r)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	entry, err := rt.history.Entry(r.Context(), st.UserID, req.ResponseID, services.RoleContext{AdminView: st.AdminView})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	st, err = rt.sessions.Update(r.Context(), st.ID, func(st *session.State) error {
		st.OpenResponse(entry.ResponseID)
		return nil
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": st, "response": entry})
}

// DELETE /api/session/response
func (rt *Router) handleCloseResponse(w http.ResponseWriter, r *http.Request) {
	st, err := rt.transition(r, func(st *session.State) error {
		st.CloseResponse()
		return nil
	})
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

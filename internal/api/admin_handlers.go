package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soaringjerry/Pulse/internal/services"
)

var errAdminViewRequired = services.NewForbiddenError("admin view required")

// requireAdminView admits admins whose session is in admin view.
func (rt *Router) requireAdminView(r *http.Request) error {
	st, err := rt.currentSession(r)
	if err != nil {
		return err
	}
	if !st.ShowScores() {
		return errAdminViewRequired
	}
	return nil
}

// GET /api/admin/analytics/{code}
func (rt *Router) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if err := rt.requireAdminView(r); err != nil {
		rt.writeError(w, r, err)
		return
	}
	sum, err := rt.analytics.Summary(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/admin/export?code=PHQ9&format=long|score
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if err := rt.requireAdminView(r); err != nil {
		rt.writeError(w, r, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "long"
	}
	b, err := rt.export.Export(r.Context(), code, format)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	name := format
	if code != "" {
		name = strings.ToLower(code) + "_" + format
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", name))
	_, _ = w.Write(b)
}

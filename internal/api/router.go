package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/soaringjerry/Pulse/internal/db"
	"github.com/soaringjerry/Pulse/internal/logger"
	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/session"
	"github.com/soaringjerry/Pulse/internal/utils"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Store       *db.Store
	Sessions    *session.Manager
	Tokens      *middleware.Authenticator
	Policy      services.ReversePolicy
	Log         *logger.Logger
	CORSOrigins []string
	StaticDir   string
	Commit      string
	BuildTime   string
}

type Router struct {
	auth      *services.AuthService
	profile   *services.ProfileService
	catalog   *services.CatalogService
	scoring   *services.ScoringService
	history   *services.HistoryService
	analytics *services.AnalyticsService
	export    *services.ExportService

	sessions *session.Manager
	tokens   *middleware.Authenticator
	pinger   interface{ Ping(ctx context.Context) error }
	log      *logger.Logger

	corsOrigins []string
	staticDir   string
	commit      string
	buildTime   string
}

func NewRouter(d Deps) *Router {
	return &Router{
		auth:        services.NewAuthService(d.Store, d.Log),
		profile:     services.NewProfileService(d.Store),
		catalog:     services.NewCatalogService(d.Store),
		scoring:     services.NewScoringService(d.Store, d.Policy, d.Log),
		history:     services.NewHistoryService(d.Store),
		analytics:   services.NewAnalyticsService(d.Store),
		export:      services.NewExportService(d.Store),
		sessions:    d.Sessions,
		tokens:      d.Tokens,
		pinger:      d.Store,
		log:         d.Log.With("component", "api"),
		corsOrigins: d.CORSOrigins,
		staticDir:   d.StaticDir,
		commit:      d.Commit,
		buildTime:   d.BuildTime,
	}
}

// Handler builds the chi route tree with the middleware stack.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(rt.tokens.WithAuth)
	r.Use(middleware.RequestLogger(rt.log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(rt.corsOrigins))
	r.Use(middleware.LocaleMiddleware)

	r.Get("/health", rt.handleHealth)
	r.Get("/version", rt.handleVersion)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Post("/auth/register", rt.handleRegister)
		r.Post("/auth/login", rt.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Post("/auth/logout", rt.handleLogout)

			r.Get("/session", rt.handleSession)
			r.Put("/session/admin-view", rt.handleToggleAdminView)
			r.Put("/session/section", rt.handleSelectSection)
			r.Put("/session/response", rt.handleOpenResponse)
			r.Delete("/session/response", rt.handleCloseResponse)

			r.Get("/profile", rt.handleGetProfile)
			r.Put("/profile", rt.handleUpdateProfile)
			r.Get("/settings", rt.handleGetSettings)
			r.Put("/settings", rt.handleUpdateSettings)

			r.Get("/assessments", rt.handleListAssessments)
			r.Get("/assessments/{id}/questions", rt.handleQuestionnaire)
			r.Post("/assessments/{id}/responses", rt.handleSubmit)

			r.Get("/dashboard", rt.handleDashboard)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/analytics/{code}", rt.handleAnalytics)
				r.Get("/export", rt.handleExport)
			})
		})
	})

	if rt.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(rt.staticDir)))
	}
	return r
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := rt.pinger.Ping(ctx); err != nil {
		rt.log.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "name": "Pulse API", "locale": locale})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"name":    "Pulse API",
		"locale":  locale,
		"locales": utils.Locales(),
		"msg":     utils.T(locale, "health.ok"),
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"commit": rt.commit, "build_time": rt.buildTime})
}

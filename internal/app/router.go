package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coursepilot/coursepilot/internal/auth"
	"github.com/coursepilot/coursepilot/internal/categories"
	"github.com/coursepilot/coursepilot/internal/observability"
	"github.com/coursepilot/coursepilot/internal/permissions"
	"github.com/coursepilot/coursepilot/internal/platform/httpx"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/roles"
	"github.com/coursepilot/coursepilot/internal/shared"
	"github.com/coursepilot/coursepilot/internal/users"
	"github.com/coursepilot/coursepilot/internal/view"
	"github.com/coursepilot/coursepilot/jobs"
	"github.com/coursepilot/coursepilot/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Pages              *view.Pages
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	EdgeGuard          *rbac.EdgeGuard
	AuthHandler        *auth.Handler
	PermissionsHandler *permissions.Handler
	RolesHandler       *roles.Handler
	UsersHandler       *users.Handler
	CategoriesHandler  *categories.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	HealthCheck        func(r *http.Request) error
}

// NewRouter constructs the chi.Router with coursepilot defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		EdgeGuard:      params.EdgeGuard,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.HealthCheck != nil {
			if err := params.HealthCheck(r); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	limiter := LoginRateLimit(loginRateLimit(params.Config))
	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) { params.AuthHandler.MountAPI(r, limiter) })
		}
		r.Route("/admin", func(r chi.Router) {
			if params.PermissionsHandler != nil {
				r.Route("/permissions", params.PermissionsHandler.MountAPI)
			}
			if params.RolesHandler != nil {
				r.Route("/roles", params.RolesHandler.MountAPI)
			}
			if params.UsersHandler != nil {
				r.Route("/users", params.UsersHandler.MountAPI)
			}
			if params.CategoriesHandler != nil {
				r.Route("/categories", params.CategoriesHandler.MountAPI)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			httpx.Error(w, http.StatusNotFound, "not found")
		})
	})

	if params.AuthHandler != nil {
		params.AuthHandler.MountPages(r, limiter)
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		params.Pages.Render(w, r, http.StatusOK, "pages/home.html", "Dashboard", nil)
	})
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountPages)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountPages)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountPages)
	}
	if params.CategoriesHandler != nil {
		r.Route("/categories", params.CategoriesHandler.MountPages)
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func loginRateLimit(cfg *Config) int {
	if cfg == nil {
		return 0
	}
	return cfg.LoginRateLimit
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

package rbac

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

// CORSConfig controls the headers attached to API responses.
type CORSConfig struct {
	AllowedOrigin string
}

const (
	corsMethods = "GET,POST,PUT,DELETE,OPTIONS"
	corsHeaders = "Content-Type, Authorization"
)

// EdgeGuard runs before page handlers. It redirects instead of failing and
// never touches the database: the role snapshot comes from the session or token.
type EdgeGuard struct {
	Resolver *Resolver
	Routes   []RouteRule
	CORS     CORSConfig
	Logger   *slog.Logger
	Recorder DecisionRecorder

	APIPrefix     string
	HomePath      string
	SignInPath    string
	ForbiddenPath string
	AuthPages     []string
	Passthrough   []string
}

// NewEdgeGuard returns an EdgeGuard with the default paths and PageRoutes.
func NewEdgeGuard(resolver *Resolver, cors CORSConfig, logger *slog.Logger) *EdgeGuard {
	if cors.AllowedOrigin == "" {
		cors.AllowedOrigin = "*"
	}
	return &EdgeGuard{
		Resolver:      resolver,
		Routes:        PageRoutes,
		CORS:          cors,
		Logger:        logger,
		APIPrefix:     "/api",
		HomePath:      "/",
		SignInPath:    "/signin",
		ForbiddenPath: "/403",
		AuthPages:     []string{"/signin"},
		Passthrough:   []string{"/static/", "/healthz", "/metrics"},
	}
}

// Handler wraps next with the edge rules, first applicable rule wins.
func (g *EdgeGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if g.isAPI(path) {
			g.writeCORS(w.Header())
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if g.isPassthrough(path) {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := g.Resolver.Resolve(r)
		if err != nil {
			g.logger().Debug("edge credential ignored", slog.String("path", path), slog.Any("error", err))
			actor = nil
		}
		authPage := slices.Contains(g.AuthPages, path)

		switch {
		case actor != nil && authPage:
			http.Redirect(w, r, g.HomePath, http.StatusFound)
			return
		case actor == nil && !authPage:
			g.record(OutcomeUnauthorized)
			http.Redirect(w, r, g.SignInPath, http.StatusFound)
			return
		case actor == nil:
			next.ServeHTTP(w, r)
			return
		case actor.Role.IsSuperAdmin:
			g.record(OutcomeAllowed)
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
			return
		}

		if rule, ok := MatchRoute(g.Routes, path); ok && !HasPermission(&actor.Role, rule.Permission) {
			g.record(OutcomeForbidden)
			http.Redirect(w, r, g.ForbiddenPath, http.StatusFound)
			return
		}
		g.record(OutcomeAllowed)
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

func (g *EdgeGuard) writeCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", g.CORS.AllowedOrigin)
	h.Set("Access-Control-Allow-Methods", corsMethods)
	h.Set("Access-Control-Allow-Headers", corsHeaders)
	// Browsers refuse credentials with a wildcard origin.
	if g.CORS.AllowedOrigin != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

func (g *EdgeGuard) isAPI(path string) bool {
	return path == g.APIPrefix || strings.HasPrefix(path, g.APIPrefix+"/")
}

func (g *EdgeGuard) isPassthrough(path string) bool {
	// Root level files such as /favicon.ico. Deeper dotted paths stay guarded.
	if name, ok := strings.CutPrefix(path, "/"); ok && !strings.Contains(name, "/") && strings.Contains(name, ".") {
		return true
	}
	for _, prefix := range g.Passthrough {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *EdgeGuard) record(outcome string) {
	if g.Recorder != nil {
		g.Recorder.RecordDecision(LayerEdge, outcome)
	}
}

func (g *EdgeGuard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

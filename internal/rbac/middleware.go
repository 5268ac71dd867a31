package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursepilot/coursepilot/internal/platform/httpx"
	"github.com/coursepilot/coursepilot/internal/shared"
)

// Middleware wires the Guard into chi route groups.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
}

// RequireAny lets the request through when the caller holds at least one of
// perms. The resolved actor is stored in the request context.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := m.Guard.RequirePermission(r, perms...)
			if err != nil {
				httpx.RespondError(w, m.Logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

type actorContextKey struct{}

// ContextWithActor stores the actor in ctx.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor stored by RequireAny, if any.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}

// RequirePage is RequireAny for HTML pages: callers are redirected to the
// sign-in or 403 page instead of receiving a JSON error.
func (m Middleware) RequirePage(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := m.Guard.RequirePermission(r, perms...)
			switch {
			case errors.Is(err, shared.ErrUnauthorized):
				http.Redirect(w, r, "/signin", http.StatusFound)
				return
			case errors.Is(err, shared.ErrForbidden):
				http.Redirect(w, r, "/403", http.StatusFound)
				return
			case err != nil:
				httpx.RespondError(w, m.Logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

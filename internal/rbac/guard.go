package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursepilot/coursepilot/internal/shared"
)

// Decision layers and outcomes reported to a DecisionRecorder.
const (
	LayerGuard = "guard"
	LayerEdge  = "edge"

	OutcomeAllowed      = "allowed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeInvalid      = "invalid_credential"
	OutcomeForbidden    = "forbidden"
)

// DecisionRecorder receives one call per authorization decision.
type DecisionRecorder interface {
	RecordDecision(layer, outcome string)
}

// Guard is the per-operation authorization check run before any handler work.
type Guard struct {
	Resolver *Resolver
	Logger   *slog.Logger
	Recorder DecisionRecorder
}

// RequirePermission resolves the caller and checks that it holds at least one
// of required. It returns the actor so handlers can pass it to services.
func (g *Guard) RequirePermission(r *http.Request, required ...string) (*Actor, error) {
	actor, err := g.Resolver.Resolve(r)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredential) {
			return nil, err
		}
		g.logger().Warn("rejected bearer token", slog.String("path", r.URL.Path), slog.Any("error", err))
		g.record(OutcomeInvalid)
		return nil, shared.Unauthorized("Unauthorized")
	}
	if actor == nil {
		g.record(OutcomeUnauthorized)
		return nil, shared.Unauthorized("Unauthorized")
	}
	if !HasPermission(&actor.Role, required...) {
		g.logger().Debug("permission denied",
			slog.Int64("actor_id", actor.ID),
			slog.String("path", r.URL.Path),
			slog.Any("required", required))
		g.record(OutcomeForbidden)
		return nil, shared.Forbidden("Forbidden")
	}
	g.record(OutcomeAllowed)
	return actor, nil
}

func (g *Guard) record(outcome string) {
	if g.Recorder != nil {
		g.Recorder.RecordDecision(LayerGuard, outcome)
	}
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

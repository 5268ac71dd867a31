package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/coursepilot/coursepilot/internal/shared"
)

// SessionActorKey is the session value holding the actor snapshot.
const SessionActorKey = "actor"

// Resolver finds the caller from the browser session or a bearer token.
type Resolver struct {
	Tokens *TokenManager
}

// NewResolver constructs a Resolver.
func NewResolver(tokens *TokenManager) *Resolver {
	return &Resolver{Tokens: tokens}
}

// Resolve reads the session from the request context and the Authorization header.
func (rv *Resolver) Resolve(r *http.Request) (*Actor, error) {
	return rv.ResolveCredentials(r.Context(), shared.SessionFromContext(r.Context()), r.Header.Get("Authorization"))
}

// ResolveCredentials tries the session first, then a bearer token.
// It returns (nil, nil) when no credential is presented and wraps
// shared.ErrInvalidCredential when a bearer token fails verification.
func (rv *Resolver) ResolveCredentials(_ context.Context, sess *shared.Session, authorization string) (*Actor, error) {
	if actor := ActorFromSession(sess); actor != nil {
		return actor, nil
	}
	raw, ok := bearerToken(authorization)
	if !ok {
		return nil, nil
	}
	if raw == "" || rv.Tokens == nil {
		return nil, fmt.Errorf("%w: empty bearer token", shared.ErrInvalidCredential)
	}
	actor, err := rv.Tokens.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredential, err)
	}
	return actor, nil
}

// HasBearer reports whether the request presents a bearer token.
func HasBearer(r *http.Request) bool {
	_, ok := bearerToken(r.Header.Get("Authorization"))
	return ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(header), " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// StoreActor writes the actor snapshot into the session.
func StoreActor(sess *shared.Session, actor Actor) error {
	if sess == nil {
		return errors.New("rbac: session missing")
	}
	data, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("rbac: encode actor: %w", err)
	}
	sess.Set(SessionActorKey, string(data))
	sess.SetUser(strconv.FormatInt(actor.ID, 10))
	return nil
}

// ActorFromSession decodes the snapshot stored by StoreActor.
// Missing or malformed snapshots yield nil.
func ActorFromSession(sess *shared.Session) *Actor {
	if sess == nil {
		return nil
	}
	raw := sess.Get(SessionActorKey)
	if raw == "" {
		return nil
	}
	var actor Actor
	if err := json.Unmarshal([]byte(raw), &actor); err != nil {
		return nil
	}
	if err := actor.Validate(); err != nil {
		return nil
	}
	return &actor
}

package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
)

var errBadCredentials = &shared.Error{Kind: shared.ErrInvalidCredentials, Message: "Invalid username or password"}

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *rbac.TokenManager
	now    func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *rbac.TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens, now: time.Now}
}

// Authenticate validates username/password credentials. Unknown, inactive and
// mismatching accounts fail the same way.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, input LoginInput) (TokenResponse, *User, error) {
	user, err := s.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		return TokenResponse{}, nil, err
	}
	resp, err := s.issue(user)
	return resp, user, err
}

// Refresh reloads the actor from the database and issues a new token, so role
// changes reach the caller. Deleted or deactivated accounts are refused.
func (s *Service) Refresh(ctx context.Context, actor rbac.Actor) (TokenResponse, *User, error) {
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return TokenResponse{}, nil, shared.Unauthorized("Unauthorized")
		}
		return TokenResponse{}, nil, err
	}
	if !user.IsActive {
		return TokenResponse{}, nil, shared.Unauthorized("Unauthorized")
	}
	resp, err := s.issue(user)
	return resp, user, err
}

func (s *Service) issue(user *User) (TokenResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.Actor())
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{AccessToken: token, ExpiresAt: expiresAt, User: user.profile()}, nil
}

// RegisterSession persists the login session in the audit table.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes the audit row of a signed-out session.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// PurgeExpiredSessions drops audit rows whose session has expired.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredSessions(ctx, s.now())
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursepilot/coursepilot/internal/platform/httpx"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
	"github.com/coursepilot/coursepilot/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	pages          *view.Pages
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	resolver       *rbac.Resolver
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, sessions *shared.SessionManager, csrf *shared.CSRFManager, resolver *rbac.Resolver) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		pages:          pages,
		sessionManager: sessions,
		csrfManager:    csrf,
		resolver:       resolver,
		validator:      httpx.NewValidator(),
	}
}

// MountAPI registers /api/auth routes. limiter, when set, throttles login attempts.
func (h *Handler) MountAPI(r chi.Router, limiter func(http.Handler) http.Handler) {
	login := r
	if limiter != nil {
		login = r.With(limiter)
	}
	login.Post("/login", h.login)
	r.Post("/refresh", h.refresh)
	r.Get("/me", h.me)
}

// MountPages registers the sign-in, sign-out and 403 pages.
func (h *Handler) MountPages(r chi.Router, limiter func(http.Handler) http.Handler) {
	r.Get("/signin", h.showSignIn)
	if limiter != nil {
		r.With(limiter).Post("/signin", h.handleSignIn)
	} else {
		r.Post("/signin", h.handleSignIn)
	}
	r.Post("/signout", h.handleSignOut)
	r.Get("/403", h.forbidden)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if !httpx.DecodeAndValidate(w, r, h.validator, &input) {
		return
	}
	resp, user, err := h.service.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Info("login failed", slog.String("username", input.Username))
		}
		httpx.RespondError(w, h.logger, err)
		return
	}
	h.logger.Info("token issued", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentActor(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	resp, user, err := h.service.Refresh(r.Context(), *actor)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); rbac.ActorFromSession(sess) != nil {
		if err := rbac.StoreActor(sess, user.Actor()); err != nil {
			httpx.RespondError(w, h.logger, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	actor, err := h.currentActor(r)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, actor)
}

func (h *Handler) currentActor(r *http.Request) (*rbac.Actor, error) {
	actor, err := h.resolver.Resolve(r)
	if err != nil {
		h.logger.Warn("rejected bearer token", slog.String("path", r.URL.Path), slog.Any("error", err))
		return nil, shared.Unauthorized("Unauthorized")
	}
	if actor == nil {
		return nil, shared.Unauthorized("Unauthorized")
	}
	return actor, nil
}

type signInPageData struct {
	Form   LoginInput
	Errors map[string]string
}

func (h *Handler) showSignIn(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "pages/login.html", "Sign in", signInPageData{})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := LoginInput{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = fe.Tag()
			}
		}
	}

	if len(errs) == 0 {
		user, err := h.service.Authenticate(r.Context(), form.Username, form.Password)
		switch {
		case err == nil:
			h.startSession(w, r, user)
			return
		case errors.Is(err, shared.ErrInvalidCredentials):
			errs["general"] = shared.UserSafeMessage(err)
		default:
			h.logger.Error("sign in", slog.Any("error", err))
			errs["general"] = "Sign in is temporarily unavailable"
		}
	}

	form.Password = ""
	h.pages.Render(w, r, http.StatusBadRequest, "pages/login.html", "Sign in", signInPageData{Form: form, Errors: errs})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during sign in")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.sessionManager.Renew(sess)
	sess.Delete(shared.CSRFSessionKey)
	if err := rbac.StoreActor(sess, user.Actor()); err != nil {
		h.logger.Error("store actor", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	expiresAt := h.service.now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	view.RedirectWithFlash(w, r, "/", "success", "Welcome back, "+user.Username)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (h *Handler) forbidden(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusForbidden, "pages/forbidden.html", "Access denied", nil)
}

package roles

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursepilot/coursepilot/internal/platform/httpx"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/shared"
	"github.com/coursepilot/coursepilot/internal/view"
)

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pages     *view.Pages
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, pages: pages, rbac: rbac, validator: httpx.NewValidator()}
}

// MountAPI registers /api/admin/roles routes.
func (h *Handler) MountAPI(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermRoleCreate)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.PermRoleRead, rbac.PermUserCreate, rbac.PermUserUpdate)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.PermRoleRead)).Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(rbac.PermRoleUpdate)).Put("/{id}", h.update)
	r.With(h.rbac.RequireAny(rbac.PermRoleDelete)).Delete("/{id}", h.delete)
}

// MountPages registers the /roles page.
func (h *Handler) MountPages(r chi.Router) {
	r.With(h.rbac.RequirePage(rbac.PermRoleRead)).Get("/", h.page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if !httpx.DecodeAndValidate(w, r, h.validator, &input) {
		return
	}
	role, err := h.service.Create(r.Context(), *rbac.ActorFromContext(r.Context()), input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), shared.ParseListFilters(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var input UpdateInput
	if !httpx.DecodeAndValidate(w, r, h.validator, &input) {
		return
	}
	role, err := h.service.Update(r.Context(), *rbac.ActorFromContext(r.Context()), id, input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), *rbac.ActorFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r)
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		h.pages.Render(w, r, http.StatusInternalServerError, "pages/roles.html", "Roles", map[string]any{"Error": "Could not load roles"})
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/roles.html", "Roles", map[string]any{"Page": page, "Filters": filters})
}

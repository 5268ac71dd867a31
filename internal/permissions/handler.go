package permissions

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

// Handler exposes the permission admin API and page.
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

// MountAPI registers /api/admin/permissions routes.
func (h *Handler) MountAPI(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermPermissionCreate)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.PermPermissionRead, rbac.PermRoleCreate, rbac.PermRoleUpdate)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.PermPermissionRead)).Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(rbac.PermPermissionUpdate)).Put("/{id}", h.update)
	r.With(h.rbac.RequireAny(rbac.PermPermissionDelete)).Delete("/{id}", h.delete)
}

// MountPages registers the /permissions page.
func (h *Handler) MountPages(r chi.Router) {
	r.With(h.rbac.RequirePage(rbac.PermPermissionRead)).Get("/", h.page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if !httpx.DecodeAndValidate(w, r, h.validator, &input) {
		return
	}
	result, err := h.service.CreateOrGenerate(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
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
	permission, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, permission)
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
	permission, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, permission)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r)
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		h.pages.Render(w, r, http.StatusInternalServerError, "pages/permissions.html", "Permissions", map[string]any{"Error": "Could not load permissions"})
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/permissions.html", "Permissions", map[string]any{"Page": page, "Filters": filters})
}

package categories

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coursepilot/coursepilot/internal/platform/httpx"
	"github.com/coursepilot/coursepilot/internal/rbac"
	"github.com/coursepilot/coursepilot/internal/view"
)

// Handler exposes category endpoints.
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

// MountAPI registers /api/admin/categories routes.
func (h *Handler) MountAPI(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermCategoryCreate)).Post("/", h.create)
	r.With(h.rbac.RequireAny(rbac.PermCategoryRead)).Get("/", h.list)
	r.With(h.rbac.RequireAny(rbac.PermCategoryRead)).Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(rbac.PermCategoryUpdate)).Put("/{id}", h.update)
	r.With(h.rbac.RequireAny(rbac.PermCategoryDelete)).Delete("/{id}", h.delete)
}

// MountPages registers the /categories page.
func (h *Handler) MountPages(r chi.Router) {
	r.With(h.rbac.RequirePage(rbac.PermCategoryRead)).Get("/", h.page)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if !httpx.DecodeAndValidate(w, r, h.validator, &input) {
		return
	}
	c, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), ParseListFilters(r))
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
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
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
	c, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
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
	filters := ParseListFilters(r)
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		h.pages.Render(w, r, http.StatusInternalServerError, "pages/categories.html", "Categories", map[string]any{"Error": "Could not load categories"})
		return
	}
	h.pages.Render(w, r, http.StatusOK, "pages/categories.html", "Categories", map[string]any{"Page": page, "Filters": filters})
}

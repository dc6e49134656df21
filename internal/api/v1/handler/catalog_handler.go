package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"campusportal/internal/api/v1/dto"
	"campusportal/internal/catalog"
	"campusportal/internal/middleware"
	"campusportal/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CatalogHandler serves the course section search
type CatalogHandler struct {
	catalogService service.CatalogService
	validate       *validator.Validate
	logger         zerolog.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, validate *validator.Validate, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, validate: validate, logger: logger}
}

// RegisterRoutes mounts catalog routes. Reload and import are admin only.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/catalog/sections", h.searchSections)
	mux.HandleFunc("/catalog/campuses", h.listCampuses)
	mux.Handle("/catalog/reload", authMw(middleware.RequireAdmin(http.HandlerFunc(h.reload))))
	mux.Handle("/catalog/import", authMw(middleware.RequireAdmin(http.HandlerFunc(h.importCatalog))))
}

// searchSections godoc
// @Summary Search course sections
// @Tags catalog
// @Produce json
// @Param q query string false "Text matched against professor, NRC, course name and code"
// @Param campus query string false "Exact campus name"
// @Param modality query string false "virtual or semipresencial"
// @Param page query int false "1-based page, clamped to the result"
// @Success 200 {object} dto.CatalogSearchResponseDTO
// @Failure 400 {string} string "Invalid modality or page"
// @Router /catalog/sections [get]
func (h *CatalogHandler) searchSections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	modality, err := catalog.ParseModality(q.Get("modality"))
	if err != nil {
		http.Error(w, "Invalid modality: "+err.Error(), http.StatusBadRequest)
		return
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid page: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	f := catalog.Filter{Query: q.Get("q"), Campus: q.Get("campus"), Modality: modality}

	cat := h.catalogService.Current()
	res := cat.Search(f, page)
	writeJSON(w, http.StatusOK, dto.NewCatalogSearchResponse(cat, res))
}

func (h *CatalogHandler) listCampuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.catalogService.Campuses())
}

// reload godoc
// @Summary Reload the catalog from its source
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.CatalogReloadResponseDTO
// @Failure 401 {string} string "Unauthorized"
// @Failure 403 {string} string "Forbidden"
// @Router /catalog/reload [post]
func (h *CatalogHandler) reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	n := h.catalogService.Reload(r.Context())
	h.logger.Info().Int("sections", n).Msg("Catalog reloaded")
	writeJSON(w, http.StatusOK, dto.CatalogReloadResponseDTO{Sections: n})
}

func (h *CatalogHandler) importCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.CatalogImportDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	data := catalog.Data{Courses: req.Courses, Sections: req.Sections}
	if err := h.catalogService.Import(r.Context(), data); err != nil {
		writeServiceError(w, h.logger, err, "Import catalog")
		return
	}
	writeJSON(w, http.StatusOK, dto.CatalogReloadResponseDTO{Sections: h.catalogService.Current().Len()})
}

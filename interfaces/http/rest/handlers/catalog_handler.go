package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"kgexplorer/application/commands"
	"kgexplorer/application/commands/bus"
	"kgexplorer/application/explorers"
	"kgexplorer/application/ports"
	"kgexplorer/application/services"
	apperrors "kgexplorer/pkg/errors"
	"kgexplorer/pkg/utils"
)

// CatalogHandler serves the explorer catalog and the relationship vocabulary
type CatalogHandler struct {
	commandBus *bus.CommandBus
	registry   *explorers.Registry
	vocabulary *services.VocabularyService
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(
	commandBus *bus.CommandBus,
	registry *explorers.Registry,
	vocabulary *services.VocabularyService,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		commandBus: commandBus,
		registry:   registry,
		vocabulary: vocabulary,
		errors:     errorHandler,
		logger:     logger,
	}
}

// ListExplorers handles GET /explorers?shape=
func (h *CatalogHandler) ListExplorers(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	if raw := r.URL.Query().Get("shape"); raw != "" {
		shape := explorers.DataShape(raw)
		if !shape.IsValid() {
			h.errors.Handle(w, r, apperrors.NewValidationError("unknown data shape "+strconv.Quote(raw)))
			return
		}
		list = h.registry.GetByDataShape(shape)
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"explorers": explorers.Configs(list),
	})
}

// ListTypes handles GET /vocabulary/types?includeInactive=&category=&limit=
func (h *CatalogHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := ports.VocabularyOptions{
		IncludeInactive: q.Get("includeInactive") == "true",
		Category:        q.Get("category"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("limit must be an integer"))
			return
		}
		opts.Limit = limit
	}
	if err := utils.ValidateStruct(opts); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	types, err := h.vocabulary.GetTypes(r.Context(), opts)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"types": types,
		"count": len(types),
	})
}

// ListCategories handles GET /vocabulary/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	groups, err := h.vocabulary.Categories(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"categories": groups,
	})
}

// RefreshVocabulary handles POST /vocabulary/refresh
func (h *CatalogHandler) RefreshVocabulary(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RefreshVocabularyCommand
	if err := decodeBody(w, r, &cmd, true); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	result, err := h.commandBus.Dispatch(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

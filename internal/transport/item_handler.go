package transport

import (
	"errors"
	"net/http"
	"strconv"

	"item-catalog/internal/domain"
	"item-catalog/internal/middleware"
	"item-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Query parameters accepted by the list endpoint
const (
	QueryCategory = "category"
	QuerySearch   = "search"
	QueryOrdering = "ordering"
)

// ItemHandler handles HTTP requests for item operations
type ItemHandler struct {
	itemService service.ItemService
	logger      *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService service.ItemService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		itemService: itemService,
		logger:      logger,
	}
}

// RegisterRoutes registers all item routes behind the given middlewares
func (h *ItemHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	r.Route("/items", func(r chi.Router) {
		r.Use(middlewares...)

		r.With(middleware.AllowedQueryParams(h.logger, QueryCategory, QuerySearch, QueryOrdering)).Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Replace)
			r.Patch("/", h.Patch)
			r.Delete("/", h.Delete)
		})
	})
}

// List handles listing items with filtering, search and ordering
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	ordering, err := domain.ParseOrdering(params.Get(QueryOrdering))
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	query := domain.ItemQuery{
		Category:    params.Get(QueryCategory),
		SearchTerms: domain.ParseSearchTerms(params.Get(QuerySearch)),
		Ordering:    ordering,
	}

	items, err := h.itemService.List(r.Context(), query)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	response := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, NewItemResponse(item))
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Create handles item creation
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	item, err := h.itemService.Create(r.Context(), fields)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.logger.Info("Item created", zap.Int64("item_id", item.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, NewItemResponse(item))
}

// Get handles retrieving a single item
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, NewItemResponse(item))
}

// Replace handles full item updates
func (h *ItemHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// Patch handles partial item updates
func (h *ItemHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *ItemHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	item, err := h.itemService.Update(r.Context(), id, fields, partial)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.logger.Info("Item updated", zap.Int64("item_id", item.ID), zap.Bool("partial", partial))
	middleware.RespondWithJSON(w, http.StatusOK, NewItemResponse(item))
}

// Delete handles item removal
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.itemService.Delete(r.Context(), id); err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	h.logger.Info("Item deleted", zap.Int64("item_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// itemID parses the {id} path segment. Anything that is not a positive
// integer cannot name an item, so it is reported as not found.
func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrItemNotFound.Error())
		return 0, false
	}
	return id, true
}

func (h *ItemHandler) decodeFields(w http.ResponseWriter, r *http.Request) (domain.ItemFields, bool) {
	raw, err := middleware.DecodeJSONObject(w, r)
	if err != nil {
		h.logger.Debug("Request body decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return domain.ItemFields{}, false
	}

	fields, err := parseItemFields(raw)
	if err != nil {
		h.respondWithServiceError(w, err)
		return domain.ItemFields{}, false
	}

	return fields, true
}

// respondWithServiceError maps domain errors to HTTP responses
func (h *ItemHandler) respondWithServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.logger.Debug("Item validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, verr.Fields)
	case errors.Is(err, domain.ErrItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, domain.ErrItemNotFound.Error())
	default:
		h.logger.Error("Item request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

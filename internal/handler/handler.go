// Package handler provides HTTP handlers for the storefront API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/model"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	catalog *catalog.Service
	cart    *cart.Reconciler
	logger  *slog.Logger
}

// New creates a new Handler over the catalog service and the process's cart reconciler.
func New(catalog *catalog.Service, cart *cart.Reconciler, logger *slog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		cart:    cart,
		logger:  logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("GET /products", h.handleProducts)
	mux.HandleFunc("GET /products/{id}", h.handleProduct)
	mux.HandleFunc("GET /products/{id}/variants", h.handleVariants)
	mux.HandleFunc("GET /collections", h.handleCollections)
	mux.HandleFunc("GET /collections/{id}", h.handleCollectionPreview)
	mux.HandleFunc("GET /collections/{id}/products", h.handleCollectionProducts)
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("GET /search/predictive", h.handlePredictiveSearch)

	// Cart
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart/lines", h.handleAddLine)
	mux.HandleFunc("PUT /cart/lines", h.handleSyncLines)
	mux.HandleFunc("PATCH /cart/lines/{id}", h.handleUpdateLine)
	mux.HandleFunc("DELETE /cart/lines/{id}", h.handleRemoveLine)
	mux.HandleFunc("GET /checkout", h.handleCheckout)
	mux.HandleFunc("POST /buy-now", h.handleBuyNow)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth reports liveness plus the cart lifecycle state.
// A degraded cart still answers 200: catalog browsing keeps working.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Cart: h.cart.State().String()})
}

type healthResponse struct {
	Status string `json:"status"`
	Cart   string `json:"cart"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	apiErr := h.apiError(err)
	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// apiError finds the APIError in err's chain, or wraps an unexpected error as internal.
func (h *Handler) apiError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	h.logger.Error("internal error", slog.String("error", err.Error()))
	return &model.APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// queryInt reads an optional positive integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(key, "must be a non-negative integer")
	}
	return n, nil
}

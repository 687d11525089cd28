package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/model"
)

// writePage fetches one page of a feed after the "cursor" query parameter.
func writePage[T any](h *Handler, w http.ResponseWriter, r *http.Request, feed catalog.Feed[T]) {
	cursor := r.URL.Query().Get("cursor")
	page, err := feed.Page(r.Context(), cursor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	h.writeJSON(w, http.StatusOK, page)
}

// handleProducts returns one page of the all-products grid.
// GET /products?cursor=
func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	writePage(h, w, r, h.catalog.Products())
}

// handleProduct returns the product page: details, first variants and the default selection.
// GET /products/{id}
func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("id")

	h.logger.DebugContext(ctx, "getting product", slog.String("product_id", productID))

	detail, err := h.catalog.ProductDetail(ctx, productID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// GET /products/{id}/variants?cursor=
func (h *Handler) handleVariants(w http.ResponseWriter, r *http.Request) {
	writePage(h, w, r, h.catalog.Variants(r.PathValue("id")))
}

// GET /collections?cursor=
func (h *Handler) handleCollections(w http.ResponseWriter, r *http.Request) {
	writePage(h, w, r, h.catalog.Collections())
}

// handleCollectionPreview returns a collection header with its first few products.
// GET /collections/{id}?n=
func (h *Handler) handleCollectionPreview(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n")
	if err != nil {
		h.writeError(w, err)
		return
	}
	preview, err := h.catalog.CollectionPreview(r.Context(), r.PathValue("id"), n)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, preview)
}

// GET /collections/{id}/products?cursor=
func (h *Handler) handleCollectionProducts(w http.ResponseWriter, r *http.Request) {
	writePage(h, w, r, h.catalog.CollectionProducts(r.PathValue("id")))
}

// handleSearch returns one page of products matching q.
// GET /search?q=&cursor=
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	writePage(h, w, r, h.catalog.Search(r.URL.Query().Get("q")))
}

// handlePredictiveSearch returns type-ahead suggestions, products first.
// GET /search/predictive?q=
func (h *Handler) handlePredictiveSearch(w http.ResponseWriter, r *http.Request) {
	results, err := h.catalog.PredictiveSearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, predictiveResponse{Results: results.All()})
}

type predictiveResponse struct {
	Results []model.PredictiveResult `json:"results"`
}

// buyNowRequest is the body of POST /buy-now.
type buyNowRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// handleBuyNow creates a one-off cart for a single variant and returns its checkout URL.
// POST /buy-now
func (h *Handler) handleBuyNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req buyNowRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.logger.InfoContext(ctx, "buy now",
		slog.String("variant_id", req.VariantID),
		slog.Int("quantity", req.Quantity),
	)

	url, err := h.catalog.BuyNow(ctx, req.VariantID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, checkoutResponse{CheckoutURL: url})
}

package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/model"
)

// cartResponse is the published snapshot plus the reconciler's lifecycle flags.
type cartResponse struct {
	State    string     `json:"state"`
	Busy     bool       `json:"busy"`
	Subtotal string     `json:"subtotalDisplay"`
	Cart     model.Cart `json:"cart"`
}

func (h *Handler) cartView() cartResponse {
	snap := h.cart.Snapshot()
	if snap.Lines == nil {
		snap.Lines = []model.CartLineItem{}
	}
	return cartResponse{
		State:    h.cart.State().String(),
		Busy:     h.cart.Busy(),
		Subtotal: snap.Subtotal.Format(),
		Cart:     snap,
	}
}

// handleGetCart refetches the cart and returns the new snapshot.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Refresh(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartView())
}

// addLineRequest is the body of POST /cart/lines.
type addLineRequest struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// handleAddLine adds a variant to the cart.
// POST /cart/lines
func (h *Handler) handleAddLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "adding cart line",
		slog.String("variant_id", req.VariantID),
		slog.Int("quantity", req.Quantity),
	)

	if err := h.cart.AddLine(ctx, req.VariantID, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartView())
}

// updateLineRequest is the body of PATCH /cart/lines/{id}.
type updateLineRequest struct {
	Quantity *int `json:"quantity"`
}

// handleUpdateLine sets a line's quantity.
// PATCH /cart/lines/{id}
func (h *Handler) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lineID := r.PathValue("id")

	var req updateLineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, model.NewValidationError("quantity", "required"))
		return
	}

	h.logger.InfoContext(ctx, "updating cart line",
		slog.String("line_id", lineID),
		slog.Int("quantity", *req.Quantity),
	)

	if err := h.cart.UpdateLineQuantity(ctx, lineID, *req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartView())
}

// handleRemoveLine removes a line.
// DELETE /cart/lines/{id}
func (h *Handler) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lineID := r.PathValue("id")

	h.logger.InfoContext(ctx, "removing cart line", slog.String("line_id", lineID))

	if err := h.cart.RemoveLine(ctx, lineID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartView())
}

// syncLinesRequest is the body of PUT /cart/lines: the complete desired cart.
type syncLinesRequest struct {
	Lines []cart.DesiredLine `json:"lines"`
}

// handleSyncLines replaces the cart contents with the desired lines.
// Full PUT semantics: variants not listed are removed.
// PUT /cart/lines
func (h *Handler) handleSyncLines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req syncLinesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "syncing cart lines", slog.Int("lines", len(req.Lines)))

	if err := h.cart.SyncLines(ctx, req.Lines); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartView())
}

// handleCheckout hands off to the external checkout page.
// GET /checkout
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	url, err := h.cart.CheckoutURL()
	if err != nil {
		h.writeError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// MCP transport handler for the storefront using the official MCP Go SDK.
// Exposes catalog browsing and cart operations as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/cart"
	"storefront/internal/model"
)

// === MCP Tool Input/Output Types ===

// PageInput pages through a feed. An empty cursor asks for the first page.
type PageInput struct {
	Cursor string `json:"cursor,omitempty" jsonschema:"endCursor of the previous page"`
}

// ListProductsInput is the input schema for list_products tool.
type ListProductsInput struct {
	CollectionID string `json:"collection_id,omitempty" jsonschema:"restrict to one collection"`
	Cursor       string `json:"cursor,omitempty" jsonschema:"endCursor of the previous page"`
}

// SearchInput is the input schema for search tool.
type SearchInput struct {
	Query  string `json:"query" jsonschema:"search terms"`
	Cursor string `json:"cursor,omitempty" jsonschema:"endCursor of the previous page"`
}

// PredictiveSearchInput is the input schema for predictive_search tool.
type PredictiveSearchInput struct {
	Query string `json:"query" jsonschema:"partial search terms"`
}

// GetProductInput is the input schema for get_product tool.
type GetProductInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
}

// GetCartInput is the input schema for get_cart tool.
type GetCartInput struct{}

// AddToCartInput is the input schema for add_to_cart and buy_now tools.
type AddToCartInput struct {
	VariantID string `json:"variant_id" jsonschema:"variant ID"`
	Quantity  int    `json:"quantity" jsonschema:"quantity, at least 1"`
}

// UpdateCartLineInput is the input schema for update_cart_line tool.
type UpdateCartLineInput struct {
	LineID   string `json:"line_id" jsonschema:"cart line ID"`
	Quantity int    `json:"quantity" jsonschema:"new quantity; 0 removes the line"`
}

// RemoveCartLineInput is the input schema for remove_cart_line tool.
type RemoveCartLineInput struct {
	LineID string `json:"line_id" jsonschema:"cart line ID"`
}

// SyncCartInput is the input schema for sync_cart tool.
// Uses full PUT semantics: variants not listed are removed.
type SyncCartInput struct {
	Lines []cart.DesiredLine `json:"lines" jsonschema:"complete desired cart contents"`
}

// PredictiveSearchOutput lists suggestions, products before collections.
type PredictiveSearchOutput struct {
	Results []model.PredictiveResult `json:"results"`
}

// CheckoutOutput carries a checkout URL.
type CheckoutOutput struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// NewMCPServer creates an MCP server with catalog and cart tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront - browse the catalog and manage the shopper's cart. " +
				"Paged tools return pageInfo.endCursor; pass it back as cursor for the next page.",
		},
	)

	// Catalog tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List one page of products, optionally within a collection.",
	}, h.mcpListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_collections",
		Description: "List one page of collections.",
	}, h.mcpListCollections)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get a product with its first page of variants and the default selection.",
	}, h.mcpGetProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search",
		Description: "Search products by keyword, one page at a time.",
	}, h.mcpSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "predictive_search",
		Description: "Quick type-ahead suggestions: matching products, then collections.",
	}, h.mcpPredictiveSearch)

	// Cart tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Refetch the cart and return every line with the subtotal.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a variant to the cart.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_line",
		Description: "Set the quantity of a cart line.",
	}, h.mcpUpdateCartLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_cart_line",
		Description: "Remove a line from the cart.",
	}, h.mcpRemoveCartLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_cart",
		Description: "Make the cart hold exactly the given lines. Requires full state.",
	}, h.mcpSyncCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout_url",
		Description: "Get the checkout URL for the current cart.",
	}, h.mcpCheckoutURL)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "buy_now",
		Description: "Create a one-off cart for a single variant and return its checkout URL. The shopper's cart is untouched.",
	}, h.mcpBuyNow)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===
// Outputs carrying Money stay untyped: decimal amounts marshal as JSON strings.

func (h *Handler) mcpListProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, any, error) {
	feed := h.catalog.Products()
	if input.CollectionID != "" {
		feed = h.catalog.CollectionProducts(input.CollectionID)
	}
	page, err := feed.Page(ctx, input.Cursor)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if page.Items == nil {
		page.Items = []model.ProductSummary{}
	}
	return nil, &page, nil
}

func (h *Handler) mcpListCollections(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PageInput,
) (*mcp.CallToolResult, *model.Page[model.CollectionSummary], error) {
	page, err := h.catalog.Collections().Page(ctx, input.Cursor)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if page.Items == nil {
		page.Items = []model.CollectionSummary{}
	}
	return nil, &page, nil
}

func (h *Handler) mcpGetProduct(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetProductInput,
) (*mcp.CallToolResult, any, error) {
	if input.ProductID == "" {
		return nil, nil, fmt.Errorf("product_id is required")
	}
	detail, err := h.catalog.ProductDetail(ctx, input.ProductID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, detail, nil
}

func (h *Handler) mcpSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, any, error) {
	page, err := h.catalog.Search(input.Query).Page(ctx, input.Cursor)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if page.Items == nil {
		page.Items = []model.ProductSummary{}
	}
	return nil, &page, nil
}

func (h *Handler) mcpPredictiveSearch(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PredictiveSearchInput,
) (*mcp.CallToolResult, *PredictiveSearchOutput, error) {
	results, err := h.catalog.PredictiveSearch(ctx, input.Query)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	out := &PredictiveSearchOutput{Results: results.All()}
	if out.Results == nil {
		out.Results = []model.PredictiveResult{}
	}
	return nil, out, nil
}

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartInput,
) (*mcp.CallToolResult, any, error) {
	if err := h.cart.Refresh(ctx); err != nil {
		return nil, nil, h.mcpError(err)
	}
	view := h.cartView()
	return nil, &view, nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, any, error) {
	if err := h.cart.AddLine(ctx, input.VariantID, input.Quantity); err != nil {
		return nil, nil, h.mcpError(err)
	}
	view := h.cartView()
	return nil, &view, nil
}

func (h *Handler) mcpUpdateCartLine(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateCartLineInput,
) (*mcp.CallToolResult, any, error) {
	if err := h.cart.UpdateLineQuantity(ctx, input.LineID, input.Quantity); err != nil {
		return nil, nil, h.mcpError(err)
	}
	view := h.cartView()
	return nil, &view, nil
}

func (h *Handler) mcpRemoveCartLine(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveCartLineInput,
) (*mcp.CallToolResult, any, error) {
	if err := h.cart.RemoveLine(ctx, input.LineID); err != nil {
		return nil, nil, h.mcpError(err)
	}
	view := h.cartView()
	return nil, &view, nil
}

func (h *Handler) mcpSyncCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SyncCartInput,
) (*mcp.CallToolResult, any, error) {
	if err := h.cart.SyncLines(ctx, input.Lines); err != nil {
		return nil, nil, h.mcpError(err)
	}
	view := h.cartView()
	return nil, &view, nil
}

func (h *Handler) mcpCheckoutURL(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetCartInput,
) (*mcp.CallToolResult, *CheckoutOutput, error) {
	url, err := h.cart.CheckoutURL()
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &CheckoutOutput{CheckoutURL: url}, nil
}

func (h *Handler) mcpBuyNow(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CheckoutOutput, error) {
	url, err := h.catalog.BuyNow(ctx, input.VariantID, input.Quantity)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &CheckoutOutput{CheckoutURL: url}, nil
}

// mcpError converts domain errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

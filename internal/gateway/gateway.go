// Package gateway defines the contract between the storefront core and the remote
// e-commerce API. Implementations translate platform-specific responses into model types.
package gateway

import (
	"context"

	"storefront/internal/model"
)

// Gateway abstracts every remote operation the core consumes.
// The concrete GraphQL implementation lives in internal/storefront.
//
// Any call that comes back with an errors array is a failure: implementations return an
// error and callers must not read partial data.
type Gateway interface {
	CartGateway
	CatalogGateway
}

// CartGateway is the subset used by the cart reconciler.
type CartGateway interface {
	// CreateCart creates a new remote cart, optionally seeded with lines (buy-now).
	CreateCart(ctx context.Context, lines []model.LineInput) (*model.CartSession, error)

	// FetchCart returns the cart header and one page of lines.
	// Returns model.ErrCartNotFound (via errors.Is) when the remote reports no such cart.
	FetchCart(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error)

	// AddCartLines, UpdateCartLines and RemoveCartLines return only a minimal echo
	// (id, checkout URL). The echo is never trusted for line detail; refetch instead.
	AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error)
	UpdateCartLines(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.CartSession, error)
	RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*model.CartSession, error)
}

// CatalogGateway is the read-only catalog surface. Paged methods take a page size and an
// opaque cursor ("" for the first page).
type CatalogGateway interface {
	FetchProductPage(ctx context.Context, count int, cursor string) (model.Page[model.ProductSummary], error)
	FetchCollectionProducts(ctx context.Context, collectionID string, count int, cursor string) (model.Page[model.ProductSummary], error)
	FetchVariants(ctx context.Context, productID string, count int, cursor string) (model.Page[model.Variant], error)
	Search(ctx context.Context, query string, count int, cursor string) (model.Page[model.ProductSummary], error)
	PredictiveSearch(ctx context.Context, query string, maxResults int) (*model.PredictiveResults, error)

	FetchCollections(ctx context.Context, count int, cursor string) (model.Page[model.CollectionSummary], error)
	FetchCollection(ctx context.Context, collectionID string) (*model.Collection, error)
	FetchProduct(ctx context.Context, productID string) (*model.Product, error)
}

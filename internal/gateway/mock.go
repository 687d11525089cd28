package gateway

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Gateway for testing.
// Each method can be configured via function fields; unset methods fail with a not-found error.
type Mock struct {
	CreateCartFunc      func(ctx context.Context, lines []model.LineInput) (*model.CartSession, error)
	FetchCartFunc       func(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error)
	AddCartLinesFunc    func(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error)
	UpdateCartLinesFunc func(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.CartSession, error)
	RemoveCartLinesFunc func(ctx context.Context, cartID string, lineIDs []string) (*model.CartSession, error)

	FetchProductPageFunc        func(ctx context.Context, count int, cursor string) (model.Page[model.ProductSummary], error)
	FetchCollectionProductsFunc func(ctx context.Context, collectionID string, count int, cursor string) (model.Page[model.ProductSummary], error)
	FetchVariantsFunc           func(ctx context.Context, productID string, count int, cursor string) (model.Page[model.Variant], error)
	SearchFunc                  func(ctx context.Context, query string, count int, cursor string) (model.Page[model.ProductSummary], error)
	PredictiveSearchFunc        func(ctx context.Context, query string, maxResults int) (*model.PredictiveResults, error)
	FetchCollectionsFunc        func(ctx context.Context, count int, cursor string) (model.Page[model.CollectionSummary], error)
	FetchCollectionFunc         func(ctx context.Context, collectionID string) (*model.Collection, error)
	FetchProductFunc            func(ctx context.Context, productID string) (*model.Product, error)
}

// CreateCart calls the configured CreateCartFunc or returns an error.
func (m *Mock) CreateCart(ctx context.Context, lines []model.LineInput) (*model.CartSession, error) {
	if m.CreateCartFunc != nil {
		return m.CreateCartFunc(ctx, lines)
	}
	return nil, model.NewInternalError(nil)
}

// FetchCart calls the configured FetchCartFunc or returns an error.
func (m *Mock) FetchCart(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
	if m.FetchCartFunc != nil {
		return m.FetchCartFunc(ctx, cartID, count, cursor)
	}
	return nil, model.NewNotFoundError("cart")
}

// AddCartLines calls the configured AddCartLinesFunc or returns an error.
func (m *Mock) AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error) {
	if m.AddCartLinesFunc != nil {
		return m.AddCartLinesFunc(ctx, cartID, lines)
	}
	return nil, model.NewNotFoundError("cart")
}

// UpdateCartLines calls the configured UpdateCartLinesFunc or returns an error.
func (m *Mock) UpdateCartLines(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.CartSession, error) {
	if m.UpdateCartLinesFunc != nil {
		return m.UpdateCartLinesFunc(ctx, cartID, lines)
	}
	return nil, model.NewNotFoundError("cart")
}

// RemoveCartLines calls the configured RemoveCartLinesFunc or returns an error.
func (m *Mock) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*model.CartSession, error) {
	if m.RemoveCartLinesFunc != nil {
		return m.RemoveCartLinesFunc(ctx, cartID, lineIDs)
	}
	return nil, model.NewNotFoundError("cart")
}

// FetchProductPage calls the configured FetchProductPageFunc or returns an empty last page.
func (m *Mock) FetchProductPage(ctx context.Context, count int, cursor string) (model.Page[model.ProductSummary], error) {
	if m.FetchProductPageFunc != nil {
		return m.FetchProductPageFunc(ctx, count, cursor)
	}
	return model.Page[model.ProductSummary]{}, nil
}

// FetchCollectionProducts calls the configured FetchCollectionProductsFunc or returns an error.
func (m *Mock) FetchCollectionProducts(ctx context.Context, collectionID string, count int, cursor string) (model.Page[model.ProductSummary], error) {
	if m.FetchCollectionProductsFunc != nil {
		return m.FetchCollectionProductsFunc(ctx, collectionID, count, cursor)
	}
	return model.Page[model.ProductSummary]{}, model.NewNotFoundError("collection")
}

// FetchVariants calls the configured FetchVariantsFunc or returns an error.
func (m *Mock) FetchVariants(ctx context.Context, productID string, count int, cursor string) (model.Page[model.Variant], error) {
	if m.FetchVariantsFunc != nil {
		return m.FetchVariantsFunc(ctx, productID, count, cursor)
	}
	return model.Page[model.Variant]{}, model.NewNotFoundError("product")
}

// Search calls the configured SearchFunc or returns an empty last page.
func (m *Mock) Search(ctx context.Context, query string, count int, cursor string) (model.Page[model.ProductSummary], error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, count, cursor)
	}
	return model.Page[model.ProductSummary]{}, nil
}

// PredictiveSearch calls the configured PredictiveSearchFunc or returns no results.
func (m *Mock) PredictiveSearch(ctx context.Context, query string, maxResults int) (*model.PredictiveResults, error) {
	if m.PredictiveSearchFunc != nil {
		return m.PredictiveSearchFunc(ctx, query, maxResults)
	}
	return &model.PredictiveResults{}, nil
}

// FetchCollections calls the configured FetchCollectionsFunc or returns an empty last page.
func (m *Mock) FetchCollections(ctx context.Context, count int, cursor string) (model.Page[model.CollectionSummary], error) {
	if m.FetchCollectionsFunc != nil {
		return m.FetchCollectionsFunc(ctx, count, cursor)
	}
	return model.Page[model.CollectionSummary]{}, nil
}

// FetchCollection calls the configured FetchCollectionFunc or returns an error.
func (m *Mock) FetchCollection(ctx context.Context, collectionID string) (*model.Collection, error) {
	if m.FetchCollectionFunc != nil {
		return m.FetchCollectionFunc(ctx, collectionID)
	}
	return nil, model.NewNotFoundError("collection")
}

// FetchProduct calls the configured FetchProductFunc or returns an error.
func (m *Mock) FetchProduct(ctx context.Context, productID string) (*model.Product, error) {
	if m.FetchProductFunc != nil {
		return m.FetchProductFunc(ctx, productID)
	}
	return nil, model.NewNotFoundError("product")
}

// Verify Mock implements Gateway interface at compile time.
var _ Gateway = (*Mock)(nil)

// Package catalog serves the browse, search and product surfaces on top of the gateway.
package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/paginate"
	"storefront/internal/variant"
)

var errMissingCheckoutURL = errors.New("cart has no checkout url")

// PageSizes is the per-feed page size. Each feed keeps its own.
type PageSizes struct {
	Products           int
	Collections        int
	CollectionProducts int
	Variants           int
	Search             int
}

// DefaultPageSizes mirror the storefront screens.
var DefaultPageSizes = PageSizes{
	Products:           20,
	Collections:        2,
	CollectionProducts: 20,
	Variants:           10,
	Search:             10,
}

// Options configures the Service. Zero values fall back to defaults.
type Options struct {
	PageSizes     PageSizes
	MaxItems      int // cap for load-more affordance on product feeds; 0 = none
	PredictiveMax int
	PreviewSize   int
	Logger        *slog.Logger
}

// Service builds feeds and one-shot catalog reads.
type Service struct {
	gw     gateway.Gateway
	opts   Options
	logger *slog.Logger
}

func NewService(gw gateway.Gateway, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := DefaultPageSizes
	opts.PageSizes.Products = orDefault(opts.PageSizes.Products, d.Products)
	opts.PageSizes.Collections = orDefault(opts.PageSizes.Collections, d.Collections)
	opts.PageSizes.CollectionProducts = orDefault(opts.PageSizes.CollectionProducts, d.CollectionProducts)
	opts.PageSizes.Variants = orDefault(opts.PageSizes.Variants, d.Variants)
	opts.PageSizes.Search = orDefault(opts.PageSizes.Search, d.Search)
	opts.PredictiveMax = orDefault(opts.PredictiveMax, 10)
	opts.PreviewSize = orDefault(opts.PreviewSize, 4)
	return &Service{gw: gw, opts: opts, logger: opts.Logger}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Feed is one cursor-paged listing with a fixed page size.
// Page serves stateless callers that carry the cursor themselves; Paginator accumulates.
type Feed[T any] struct {
	fetch paginate.FetchFunc[T]
	opts  paginate.Options
}

// Page fetches one page after cursor.
func (f Feed[T]) Page(ctx context.Context, cursor string) (model.Page[T], error) {
	return f.fetch(ctx, f.opts.PageSize, cursor)
}

// Paginator returns a fresh accumulating paginator over this feed.
func (f Feed[T]) Paginator() *paginate.Paginator[T] {
	return paginate.New(f.fetch, f.opts)
}

// PageSize returns the count requested per page.
func (f Feed[T]) PageSize() int {
	return f.opts.PageSize
}

func newFeed[T any](fetch paginate.FetchFunc[T], pageSize, maxItems int, logger *slog.Logger) Feed[T] {
	return Feed[T]{fetch: fetch, opts: paginate.Options{PageSize: pageSize, MaxItems: maxItems, Logger: logger}}
}

// Products is the home/all-products grid.
func (s *Service) Products() Feed[model.ProductSummary] {
	return newFeed(s.gw.FetchProductPage, s.opts.PageSizes.Products, s.opts.MaxItems,
		s.logger.With(slog.String("feed", "products")))
}

// CollectionProducts lists the products of one collection.
func (s *Service) CollectionProducts(collectionID string) Feed[model.ProductSummary] {
	fetch := func(ctx context.Context, count int, cursor string) (model.Page[model.ProductSummary], error) {
		return s.gw.FetchCollectionProducts(ctx, collectionID, count, cursor)
	}
	return newFeed(fetch, s.opts.PageSizes.CollectionProducts, s.opts.MaxItems,
		s.logger.With(slog.String("feed", "collection_products"), slog.String("collection_id", collectionID)))
}

// Variants lists the variants of one product.
func (s *Service) Variants(productID string) Feed[model.Variant] {
	fetch := func(ctx context.Context, count int, cursor string) (model.Page[model.Variant], error) {
		return s.gw.FetchVariants(ctx, productID, count, cursor)
	}
	return newFeed(fetch, s.opts.PageSizes.Variants, 0,
		s.logger.With(slog.String("feed", "variants"), slog.String("product_id", productID)))
}

// Search lists products matching query. A blank query yields one empty page without a remote call.
func (s *Service) Search(query string) Feed[model.ProductSummary] {
	query = strings.TrimSpace(query)
	fetch := func(ctx context.Context, count int, cursor string) (model.Page[model.ProductSummary], error) {
		if query == "" {
			return model.Page[model.ProductSummary]{}, nil
		}
		return s.gw.Search(ctx, query, count, cursor)
	}
	return newFeed(fetch, s.opts.PageSizes.Search, s.opts.MaxItems,
		s.logger.With(slog.String("feed", "search")))
}

// Collections lists collections.
func (s *Service) Collections() Feed[model.CollectionSummary] {
	return newFeed(s.gw.FetchCollections, s.opts.PageSizes.Collections, 0,
		s.logger.With(slog.String("feed", "collections")))
}

// PredictiveSearch returns quick matches, products before collections.
// A blank query returns empty results without a remote call.
func (s *Service) PredictiveSearch(ctx context.Context, query string) (*model.PredictiveResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &model.PredictiveResults{}, nil
	}
	return s.gw.PredictiveSearch(ctx, query, s.opts.PredictiveMax)
}

// Preview is a collection header with its first few products.
type Preview struct {
	Collection model.Collection       `json:"collection"`
	Products   []model.ProductSummary `json:"products"`
	HasMore    bool                   `json:"hasMore"`
}

// CollectionPreview loads a collection and its first n products (n <= 0 uses the configured size).
func (s *Service) CollectionPreview(ctx context.Context, collectionID string, n int) (*Preview, error) {
	if n <= 0 {
		n = s.opts.PreviewSize
	}
	var (
		col  *model.Collection
		page model.Page[model.ProductSummary]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		col, err = s.gw.FetchCollection(gctx, collectionID)
		return err
	})
	g.Go(func() (err error) {
		page, err = s.gw.FetchCollectionProducts(gctx, collectionID, n, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	products := page.Items
	if products == nil {
		products = []model.ProductSummary{}
	}
	return &Preview{Collection: *col, Products: products, HasMore: page.PageInfo.HasNextPage}, nil
}

// ProductDetail is the product page: product info, the first variant page and the default pick.
type ProductDetail struct {
	Product      model.Product   `json:"product"`
	Variants     []model.Variant `json:"variants"`
	VariantsNext string          `json:"variantsCursor,omitempty"`
	Selected     *model.Variant  `json:"selected,omitempty"`
	OutOfStock   bool            `json:"outOfStock"`
	Prices       []model.Money   `json:"prices"`
}

// ProductDetail loads a product and its first page of variants concurrently, selecting the first.
func (s *Service) ProductDetail(ctx context.Context, productID string) (*ProductDetail, error) {
	var (
		product *model.Product
		page    model.Page[model.Variant]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		product, err = s.gw.FetchProduct(gctx, productID)
		return err
	})
	g.Go(func() (err error) {
		page, err = s.Variants(productID).Page(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	detail := &ProductDetail{
		Product:      *product,
		Variants:     page.Items,
		VariantsNext: page.PageInfo.NextCursor(),
		Prices:       []model.Money{},
	}
	if detail.Variants == nil {
		detail.Variants = []model.Variant{}
	}

	sel := variant.NewSelection(page.Items)
	if v, ok := sel.Current(); ok {
		detail.Selected = &v
		detail.OutOfStock = variant.IsOutOfStock(v)
		detail.Prices = variant.DisplayPrice(v.Price, v.CompareAtPrice)
	} else {
		detail.OutOfStock = true
	}
	return detail, nil
}

// BuyNow creates a one-off cart holding a single line and returns its checkout URL.
// The device's own cart session is untouched.
func (s *Service) BuyNow(ctx context.Context, variantID string, quantity int) (string, error) {
	if variantID == "" {
		return "", model.NewValidationError("variantId", "required")
	}
	if quantity < 1 {
		return "", model.NewValidationError("quantity", "must be at least 1")
	}

	sess, err := s.gw.CreateCart(ctx, []model.LineInput{{VariantID: variantID, Quantity: quantity}})
	if err != nil {
		s.logger.Warn("buy now failed", slog.String("variant_id", variantID), slog.Any("error", err))
		return "", err
	}
	if sess == nil || sess.CheckoutURL == "" {
		return "", model.NewGatewayError("cartCreate", errMissingCheckoutURL)
	}
	s.logger.Info("buy now cart created", slog.String("cart_id", sess.ID))
	return sess.CheckoutURL, nil
}

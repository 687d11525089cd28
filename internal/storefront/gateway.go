package storefront

import (
	"context"

	"storefront/internal/gateway"
	"storefront/internal/model"
)

// Gateway implements gateway.Gateway over a Client.
type Gateway struct {
	client *Client
}

// NewGateway wraps client.
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// New builds a Client from cfg and wraps it.
func New(cfg Config) (*Gateway, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewGateway(client), nil
}

func pageVars(count int, cursor string) map[string]any {
	vars := map[string]any{"first": count}
	if cursor != "" {
		vars["after"] = cursor
	}
	return vars
}

// === Cart ===

func (g *Gateway) CreateCart(ctx context.Context, lines []model.LineInput) (*model.CartSession, error) {
	input := map[string]any{}
	if len(lines) > 0 {
		input["lines"] = toLineInputs(lines)
	}

	var data cartCreateData
	if err := g.client.execute(ctx, opCartCreate, map[string]any{"input": input}, &data); err != nil {
		return nil, err
	}
	return cartEcho(opCartCreate, data.CartCreate)
}

func (g *Gateway) FetchCart(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
	vars := pageVars(count, cursor)
	vars["cartId"] = cartID

	var data cartData
	if err := g.client.execute(ctx, opCart, vars, &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, model.NewNotFoundError("cart")
	}

	return &model.CartPage{
		Session:  *toCartSession(data.Cart.cartHeader),
		Subtotal: toMoney(data.Cart.Cost.SubtotalAmount),
		Lines:    toPage(data.Cart.Lines, toCartLine),
	}, nil
}

func (g *Gateway) AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error) {
	var data cartLinesAddData
	vars := map[string]any{"cartId": cartID, "lines": toLineInputs(lines)}
	if err := g.client.execute(ctx, opCartLinesAdd, vars, &data); err != nil {
		return nil, err
	}
	return cartEcho(opCartLinesAdd, data.CartLinesAdd)
}

func (g *Gateway) UpdateCartLines(ctx context.Context, cartID string, lines []model.LineUpdate) (*model.CartSession, error) {
	var data cartLinesUpdateData
	vars := map[string]any{"cartId": cartID, "lines": toLineUpdates(lines)}
	if err := g.client.execute(ctx, opCartLinesUpdate, vars, &data); err != nil {
		return nil, err
	}
	return cartEcho(opCartLinesUpdate, data.CartLinesUpdate)
}

func (g *Gateway) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*model.CartSession, error) {
	var data cartLinesRemoveData
	vars := map[string]any{"cartId": cartID, "lineIds": lineIDs}
	if err := g.client.execute(ctx, opCartLinesRemove, vars, &data); err != nil {
		return nil, err
	}
	return cartEcho(opCartLinesRemove, data.CartLinesRemove)
}

// cartEcho turns a mutation payload into its minimal echo.
// userErrors fail the call; a null cart without userErrors means the cart is gone.
func cartEcho(op operation, p cartPayload) (*model.CartSession, error) {
	if len(p.UserErrors) > 0 {
		return nil, model.NewGatewayError(op.name, p.UserErrors)
	}
	if p.Cart == nil {
		return nil, model.NewNotFoundError("cart")
	}
	return toCartSession(*p.Cart), nil
}

// === Catalog ===

// checked fails op when any item of page carries invalid money.
func checked[T interface{ Validate() error }](op operation, page model.Page[T]) (model.Page[T], error) {
	for _, item := range page.Items {
		if err := item.Validate(); err != nil {
			return model.Page[T]{}, model.NewGatewayError(op.name, err)
		}
	}
	return page, nil
}

func (g *Gateway) FetchProductPage(ctx context.Context, count int, cursor string) (model.Page[model.ProductSummary], error) {
	var data productsData
	if err := g.client.execute(ctx, opProducts, pageVars(count, cursor), &data); err != nil {
		return model.Page[model.ProductSummary]{}, err
	}
	return checked(opProducts, toPage(data.Products, toProductSummary))
}

func (g *Gateway) FetchCollectionProducts(ctx context.Context, collectionID string, count int, cursor string) (model.Page[model.ProductSummary], error) {
	vars := pageVars(count, cursor)
	vars["id"] = collectionID

	var data collectionProductsData
	if err := g.client.execute(ctx, opCollectionProducts, vars, &data); err != nil {
		return model.Page[model.ProductSummary]{}, err
	}
	if data.Collection == nil {
		return model.Page[model.ProductSummary]{}, model.NewNotFoundError("collection")
	}
	return checked(opCollectionProducts, toPage(data.Collection.Products, toProductSummary))
}

func (g *Gateway) FetchVariants(ctx context.Context, productID string, count int, cursor string) (model.Page[model.Variant], error) {
	vars := pageVars(count, cursor)
	vars["id"] = productID

	var data variantsData
	if err := g.client.execute(ctx, opVariants, vars, &data); err != nil {
		return model.Page[model.Variant]{}, err
	}
	if data.Product == nil {
		return model.Page[model.Variant]{}, model.NewNotFoundError("product")
	}
	return checked(opVariants, toPage(data.Product.Variants, toVariant))
}

func (g *Gateway) Search(ctx context.Context, query string, count int, cursor string) (model.Page[model.ProductSummary], error) {
	vars := pageVars(count, cursor)
	vars["query"] = query

	var data searchData
	if err := g.client.execute(ctx, opSearch, vars, &data); err != nil {
		return model.Page[model.ProductSummary]{}, err
	}
	return checked(opSearch, toPage(data.Search, toProductSummary))
}

func (g *Gateway) PredictiveSearch(ctx context.Context, query string, maxResults int) (*model.PredictiveResults, error) {
	var data predictiveData
	vars := map[string]any{"query": query, "limit": maxResults}
	if err := g.client.execute(ctx, opPredictiveSearch, vars, &data); err != nil {
		return nil, err
	}

	res := &model.PredictiveResults{}
	if data.PredictiveSearch == nil {
		return res, nil
	}
	for _, p := range data.PredictiveSearch.Products {
		res.Products = append(res.Products, model.PredictiveResult{ID: p.ID, Title: p.Title})
	}
	for _, c := range data.PredictiveSearch.Collections {
		res.Collections = append(res.Collections, model.PredictiveResult{ID: c.ID, Title: c.Title, IsCollection: true})
	}
	return res, nil
}

func (g *Gateway) FetchCollections(ctx context.Context, count int, cursor string) (model.Page[model.CollectionSummary], error) {
	var data collectionsData
	if err := g.client.execute(ctx, opCollections, pageVars(count, cursor), &data); err != nil {
		return model.Page[model.CollectionSummary]{}, err
	}
	return toPage(data.Collections, toCollectionSummary), nil
}

func (g *Gateway) FetchCollection(ctx context.Context, collectionID string) (*model.Collection, error) {
	var data collectionData
	if err := g.client.execute(ctx, opCollection, map[string]any{"id": collectionID}, &data); err != nil {
		return nil, err
	}
	if data.Collection == nil {
		return nil, model.NewNotFoundError("collection")
	}
	c := data.Collection
	return &model.Collection{ID: c.ID, Title: c.Title, Description: c.Description}, nil
}

func (g *Gateway) FetchProduct(ctx context.Context, productID string) (*model.Product, error) {
	var data productData
	if err := g.client.execute(ctx, opProduct, map[string]any{"id": productID}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, model.NewNotFoundError("product")
	}
	return toProduct(data.Product), nil
}

var _ gateway.Gateway = (*Gateway)(nil)

package storefront

import (
	"storefront/internal/model"
)

// =============================================================================
// WIRE → MODEL TRANSFORMATION
// =============================================================================

func toMoney(m moneyV2) model.Money {
	return model.NewMoney(m.Amount, m.CurrencyCode)
}

// toCompareAt returns nil for an absent or zero compare-at price.
// The API reports "no compare-at" as null on variants but as 0.0 on price ranges.
func toCompareAt(m *moneyV2) *model.Money {
	if m == nil {
		return nil
	}
	money := toMoney(*m)
	if money.IsZero() {
		return nil
	}
	return &money
}

func toImage(img *image) *model.ImageRef {
	if img == nil {
		return nil
	}
	return &model.ImageRef{ID: img.ID, URL: img.URL}
}

func toPageInfo(p pageInfo) model.PageInfo {
	out := model.PageInfo{HasNextPage: p.HasNextPage}
	if p.HasNextPage && p.EndCursor != nil {
		out.EndCursor = *p.EndCursor
	}
	return out
}

// toPage converts a connection, keeping edge order.
func toPage[W, T any](c connection[W], convert func(W) T) model.Page[T] {
	items := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		items = append(items, convert(e.Node))
	}
	return model.Page[T]{Items: items, PageInfo: toPageInfo(c.PageInfo)}
}

func toProductSummary(p productCard) model.ProductSummary {
	out := model.ProductSummary{
		ID:            p.ID,
		Title:         p.Title,
		FeaturedImage: toImage(p.FeaturedImage),
		Price:         toMoney(p.PriceRange.MinVariantPrice),
	}
	if p.CompareAtPriceRange != nil {
		out.CompareAtPrice = toCompareAt(p.CompareAtPriceRange.MinVariantPrice)
	}
	return out
}

func toVariant(v productVariant) model.Variant {
	out := model.Variant{
		ID:             v.ID,
		Title:          v.Title,
		Price:          toMoney(v.Price),
		CompareAtPrice: toCompareAt(v.CompareAtPrice),
	}
	if v.QuantityAvailable != nil {
		out.Stock = *v.QuantityAvailable
	}
	if v.Image != nil {
		out.ImageID = v.Image.ID
	}
	return out
}

func toCollectionSummary(c collectionCard) model.CollectionSummary {
	return model.CollectionSummary{ID: c.ID, Title: c.Title, Image: toImage(c.Image)}
}

func toProduct(p *productDetail) *model.Product {
	out := &model.Product{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		FeaturedImage: toImage(p.FeaturedImage),
		Images:        make([]model.ImageRef, 0, len(p.Images.Edges)),
	}
	for _, e := range p.Images.Edges {
		out.Images = append(out.Images, model.ImageRef{ID: e.Node.ID, URL: e.Node.URL})
	}
	return out
}

func toCartSession(h cartHeader) *model.CartSession {
	return &model.CartSession{ID: h.ID, CheckoutURL: h.CheckoutURL, TotalQuantity: h.TotalQuantity}
}

// toCartLine prefers the variant image and falls back to the product's featured image.
func toCartLine(l cartLine) model.CartLineItem {
	m := l.Merchandise
	out := model.CartLineItem{
		LineID:         l.ID,
		VariantID:      m.ID,
		ProductID:      m.Product.ID,
		ProductTitle:   m.Product.Title,
		VariantTitle:   m.Title,
		FeaturedImage:  toImage(m.Image),
		Price:          toMoney(l.Cost.AmountPerQuantity),
		CompareAtPrice: toCompareAt(l.Cost.CompareAtAmountPerQuantity),
		Quantity:       l.Quantity,
	}
	if out.FeaturedImage == nil {
		out.FeaturedImage = toImage(m.Product.FeaturedImage)
	}
	if m.QuantityAvailable != nil {
		out.QuantityAvailable = *m.QuantityAvailable
	}
	return out
}

func toLineInputs(lines []model.LineInput) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{"merchandiseId": l.VariantID, "quantity": l.Quantity})
	}
	return out
}

func toLineUpdates(lines []model.LineUpdate) []map[string]any {
	out := make([]map[string]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{"id": l.LineID, "quantity": l.Quantity})
	}
	return out
}

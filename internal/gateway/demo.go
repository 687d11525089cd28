package gateway

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"

	"storefront/internal/model"
)

// NewDemoFake returns a Fake stocked with generated products and collections,
// for running the server or CLI without a real store.
func NewDemoFake(products, collections int) *Fake {
	f := NewFake("USD")

	for c := 1; c <= collections; c++ {
		f.AddCollection(FakeCollection{
			Collection: model.Collection{
				ID:          fmt.Sprintf("gid://shopify/Collection/%d", c),
				Title:       gofakeit.ProductCategory(),
				Description: gofakeit.ProductDescription(),
			},
			Image: &model.ImageRef{
				ID:  fmt.Sprintf("gid://shopify/CollectionImage/%d", c),
				URL: fmt.Sprintf("https://cdn.example.com/collections/%d.jpg", c),
			},
		})
	}

	for p := 1; p <= products; p++ {
		productID := fmt.Sprintf("gid://shopify/Product/%d", p)
		image := &model.ImageRef{
			ID:  fmt.Sprintf("gid://shopify/ProductImage/%d", p),
			URL: fmt.Sprintf("https://cdn.example.com/products/%d.jpg", p),
		}

		fp := FakeProduct{
			Product: model.Product{
				ID:            productID,
				Title:         gofakeit.ProductName(),
				Description:   gofakeit.ProductDescription(),
				FeaturedImage: image,
				Images:        []model.ImageRef{*image},
			},
		}
		if collections > 0 {
			fp.CollectionIDs = []string{fmt.Sprintf("gid://shopify/Collection/%d", (p-1)%collections+1)}
		}

		base := decimal.NewFromFloat(gofakeit.Price(5, 200)).Round(2)
		variants := gofakeit.Number(1, 4)
		for v := 1; v <= variants; v++ {
			variant := model.Variant{
				ID:    fmt.Sprintf("gid://shopify/ProductVariant/%d%02d", p, v),
				Title: gofakeit.Color(),
				Price: model.Money{Amount: base, CurrencyCode: "USD"},
				Stock: gofakeit.Number(0, 25),
			}
			if gofakeit.Bool() {
				compareAt := model.Money{Amount: base.Mul(decimal.NewFromFloat(1.25)).Round(2), CurrencyCode: "USD"}
				variant.CompareAtPrice = &compareAt
			}
			fp.Variants = append(fp.Variants, variant)
		}
		f.AddProduct(fp)
	}
	return f
}

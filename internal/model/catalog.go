package model

import "fmt"

// ImageRef points at a remote image.
type ImageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ProductSummary is a product card as produced by catalog, collection and search pages.
type ProductSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	FeaturedImage  *ImageRef `json:"featuredImage,omitempty"`
	Price          Money     `json:"price"`
	CompareAtPrice *Money    `json:"compareAtPrice,omitempty"`
}

// Validate checks the card's prices.
func (p ProductSummary) Validate() error {
	if err := validatePrice(p.Price, p.CompareAtPrice); err != nil {
		return fmt.Errorf("product %s: %w", p.ID, err)
	}
	return nil
}

// Product is the detail view of a single product.
type Product struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	FeaturedImage *ImageRef  `json:"featuredImage,omitempty"`
	Images        []ImageRef `json:"images"`
}

// Variant is a purchasable option of a product.
type Variant struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Price          Money  `json:"price"`
	CompareAtPrice *Money `json:"compareAtPrice,omitempty"`
	Stock          int    `json:"stock"`
	ImageID        string `json:"imageId,omitempty"`
}

// Validate checks the variant's prices.
func (v Variant) Validate() error {
	if err := validatePrice(v.Price, v.CompareAtPrice); err != nil {
		return fmt.Errorf("variant %s: %w", v.ID, err)
	}
	return nil
}

// CollectionSummary is a collection card on the catalog tab.
type CollectionSummary struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Image *ImageRef `json:"image,omitempty"`
}

// Collection is the header of a collection page.
type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PredictiveResult is one type-ahead suggestion.
type PredictiveResult struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	IsCollection bool   `json:"isCollection"`
}

// PredictiveResults groups type-ahead suggestions by kind.
type PredictiveResults struct {
	Products    []PredictiveResult `json:"products"`
	Collections []PredictiveResult `json:"collections"`
}

// All returns products first, then collections.
func (r *PredictiveResults) All() []PredictiveResult {
	if r == nil {
		return nil
	}
	out := make([]PredictiveResult, 0, len(r.Products)+len(r.Collections))
	out = append(out, r.Products...)
	return append(out, r.Collections...)
}

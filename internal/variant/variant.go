// Package variant picks the variant to show and decides stock and discount display.
// Everything here is pure: no I/O, no errors.
package variant

import (
	"storefront/internal/model"
)

// SelectDefault returns the first variant. ok is false for an empty list.
func SelectDefault(variants []model.Variant) (model.Variant, bool) {
	if len(variants) == 0 {
		return model.Variant{}, false
	}
	return variants[0], true
}

// IsOutOfStock reports stock at or below zero.
func IsOutOfStock(v model.Variant) bool {
	return v.Stock <= 0
}

// HasDiscount reports a compare-at price above the selling price.
// A nil compare-at price means no discount.
func HasDiscount(price model.Money, compareAt *model.Money) bool {
	if compareAt == nil {
		return false
	}
	return compareAt.Amount.GreaterThan(price.Amount)
}

// DisplayPrice returns the prices to render, selling price first.
// The compare-at price is included only when it is a real discount.
func DisplayPrice(price model.Money, compareAt *model.Money) []model.Money {
	if HasDiscount(price, compareAt) {
		return []model.Money{price, *compareAt}
	}
	return []model.Money{price}
}

// Selection tracks the selected variant of a product page as variants load in.
type Selection struct {
	variants []model.Variant
	index    int
}

// NewSelection selects the first variant, if any.
func NewSelection(variants []model.Variant) *Selection {
	return &Selection{variants: append([]model.Variant(nil), variants...)}
}

// Update replaces the variant list, for example after loading another page.
// The selected variant follows its id to its new position; if it is gone the first is selected.
func (s *Selection) Update(variants []model.Variant) {
	prev, had := s.Current()
	s.variants = append([]model.Variant(nil), variants...)
	s.index = 0
	if had {
		s.SelectID(prev.ID)
	}
}

// Select picks the variant at i. Returns false and keeps the current selection if i is out of range.
func (s *Selection) Select(i int) bool {
	if i < 0 || i >= len(s.variants) {
		return false
	}
	s.index = i
	return true
}

// SelectID picks the variant with the given id.
func (s *Selection) SelectID(id string) bool {
	for i, v := range s.variants {
		if v.ID == id {
			s.index = i
			return true
		}
	}
	return false
}

// Current returns the selected variant. ok is false when no variants are loaded.
func (s *Selection) Current() (model.Variant, bool) {
	if len(s.variants) == 0 {
		return model.Variant{}, false
	}
	return s.variants[s.index], true
}

// Index returns the selected position.
func (s *Selection) Index() int {
	return s.index
}

// CanAddToCart reports whether the current selection may be added to a cart.
func (s *Selection) CanAddToCart() bool {
	v, ok := s.Current()
	return ok && !IsOutOfStock(v)
}

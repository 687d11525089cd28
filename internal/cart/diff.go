package cart

import (
	"fmt"

	"storefront/internal/model"
)

// DesiredLine is one entry of a complete desired cart, keyed by variant.
type DesiredLine struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// LineDiff describes the mutations needed to turn the current lines into the desired set.
// Apply in order: remove → update → add, so an update never targets a removed line.
type LineDiff struct {
	ToRemove []string           // line ids
	ToUpdate []model.LineUpdate // existing lines whose quantity changes
	ToAdd    []model.LineInput  // variants not in the cart yet
}

func (d *LineDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// DiffLines computes the delta between current lines and desired lines.
// Matching is by variant id. A desired quantity of 0 means "not in the cart".
// Output order follows input order so the resulting mutations are deterministic.
func DiffLines(current []model.CartLineItem, desired []DesiredLine) *LineDiff {
	diff := &LineDiff{}

	currentByVariant := make(map[string]model.CartLineItem, len(current))
	for _, line := range current {
		currentByVariant[line.VariantID] = line
	}
	desiredByVariant := make(map[string]int, len(desired))
	for _, d := range desired {
		if d.Quantity > 0 {
			desiredByVariant[d.VariantID] = d.Quantity
		}
	}

	for _, line := range current {
		if _, keep := desiredByVariant[line.VariantID]; !keep {
			diff.ToRemove = append(diff.ToRemove, line.LineID)
		}
	}

	for _, d := range desired {
		if d.Quantity <= 0 {
			continue
		}
		if line, exists := currentByVariant[d.VariantID]; exists {
			if line.Quantity != d.Quantity {
				diff.ToUpdate = append(diff.ToUpdate, model.LineUpdate{LineID: line.LineID, Quantity: d.Quantity})
			}
			continue
		}
		diff.ToAdd = append(diff.ToAdd, model.LineInput{VariantID: d.VariantID, Quantity: d.Quantity})
	}

	return diff
}

// validateDesired rejects negative quantities, empty ids and repeated variants.
func validateDesired(desired []DesiredLine) error {
	seen := make(map[string]bool, len(desired))
	for i, d := range desired {
		if d.VariantID == "" {
			return model.NewValidationError(fmt.Sprintf("lines[%d].variantId", i), "required")
		}
		if d.Quantity < 0 {
			return model.NewValidationError(fmt.Sprintf("lines[%d].quantity", i), "must not be negative")
		}
		if seen[d.VariantID] {
			return model.NewValidationError(fmt.Sprintf("lines[%d].variantId", i), "duplicate variant")
		}
		seen[d.VariantID] = true
	}
	return nil
}

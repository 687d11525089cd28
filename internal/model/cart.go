package model

import "fmt"

// CartSession is the durable identity of the device's cart.
// This is the blob persisted by the session store, so field names are part of the on-disk format.
type CartSession struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
}

// Valid reports whether the session carries an id. A blob without one is treated as absent.
func (s *CartSession) Valid() bool {
	return s != nil && s.ID != ""
}

// CartLineItem is one line of the cart as last reported by the remote.
type CartLineItem struct {
	LineID            string    `json:"lineId"`
	VariantID         string    `json:"variantId"`
	ProductID         string    `json:"productId"`
	ProductTitle      string    `json:"productTitle"`
	VariantTitle      string    `json:"variantTitle"`
	FeaturedImage     *ImageRef `json:"featuredImage,omitempty"`
	Price             Money     `json:"price"`
	CompareAtPrice    *Money    `json:"compareAtPrice,omitempty"`
	Quantity          int       `json:"quantity"`
	QuantityAvailable int       `json:"quantityAvailable"`
}

// ExceedsStock reports a quantity above what the remote says is available.
// Soft constraint for display only; the server decides.
func (l CartLineItem) ExceedsStock() bool {
	return l.Quantity > l.QuantityAvailable
}

// Validate checks the line's money and quantity as received from the remote.
func (l CartLineItem) Validate() error {
	if l.Quantity < 0 {
		return NewValidationError("quantity", "must not be negative")
	}
	return validatePrice(l.Price, l.CompareAtPrice)
}

// Cart is a full snapshot: session header, subtotal and every line.
type Cart struct {
	Session  CartSession    `json:"session"`
	Subtotal Money          `json:"subtotal"`
	Lines    []CartLineItem `json:"lines"`
}

// Clone returns a deep copy so callers can't mutate a published snapshot.
func (c Cart) Clone() Cart {
	out := c
	if c.Lines != nil {
		out.Lines = make([]CartLineItem, len(c.Lines))
		for i, l := range c.Lines {
			if l.FeaturedImage != nil {
				img := *l.FeaturedImage
				l.FeaturedImage = &img
			}
			if l.CompareAtPrice != nil {
				price := *l.CompareAtPrice
				l.CompareAtPrice = &price
			}
			out.Lines[i] = l
		}
	}
	return out
}

// Validate checks the subtotal and every line. The first bad value is reported.
func (c Cart) Validate() error {
	if err := c.Subtotal.Validate(); err != nil {
		return fmt.Errorf("subtotal: %w", err)
	}
	for _, l := range c.Lines {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("line %s: %w", l.LineID, err)
		}
	}
	return nil
}

// Line looks up a line by id.
func (c Cart) Line(lineID string) (CartLineItem, bool) {
	for _, l := range c.Lines {
		if l.LineID == lineID {
			return l, true
		}
	}
	return CartLineItem{}, false
}

// CartPage is one fetchCart response: header fields plus one page of lines.
type CartPage struct {
	Session  CartSession
	Subtotal Money
	Lines    Page[CartLineItem]
}

// LineInput adds a variant to a cart.
type LineInput struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// LineUpdate sets the quantity of an existing line. Quantity 0 asks the remote to drop the line.
type LineUpdate struct {
	LineID   string `json:"lineId"`
	Quantity int    `json:"quantity"`
}

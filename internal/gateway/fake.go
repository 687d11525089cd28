package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"storefront/internal/model"
)

// FakeProduct is one catalog entry held by Fake.
type FakeProduct struct {
	Product       model.Product
	Variants      []model.Variant
	CollectionIDs []string
}

// FakeCollection is one collection held by Fake.
type FakeCollection struct {
	Collection model.Collection
	Image      *model.ImageRef
}

type fakeLine struct {
	id        string
	variantID string
	quantity  int
}

type fakeCart struct {
	id    string
	lines []fakeLine
}

// Fake is an in-memory storefront with real cart semantics.
// Cursors are opaque offsets; line ids are random UUIDs; cart ids are sequential.
// Used by tests that need more than canned responses and by demo mode.
type Fake struct {
	mu          sync.Mutex
	currency    string
	products    []FakeProduct
	collections []FakeCollection
	carts       map[string]*fakeCart
	nextCart    int
	failures    map[string]error
	calls       map[string]int
}

// NewFake creates an empty Fake pricing everything in the given currency.
func NewFake(currencyCode string) *Fake {
	return &Fake{
		currency: currencyCode,
		carts:    make(map[string]*fakeCart),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// AddProduct appends a product to the catalog. Order of insertion is listing order.
func (f *Fake) AddProduct(p FakeProduct) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, p)
}

// AddCollection appends a collection.
func (f *Fake) AddCollection(c FakeCollection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections = append(f.collections, c)
}

// FailNext makes the next call of op (method name, e.g. "AddCartLines") return err.
func (f *Fake) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

// Calls returns how many times op was invoked, failed calls included.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// DeleteCart drops a cart so later fetches report it gone.
func (f *Fake) DeleteCart(cartID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, cartID)
}

// enter records the call and returns an injected failure. Caller holds f.mu.
func (f *Fake) enter(op string) error {
	f.calls[op]++
	if err, ok := f.failures[op]; ok {
		delete(f.failures, op)
		return err
	}
	return nil
}

func (f *Fake) CreateCart(_ context.Context, lines []model.LineInput) (*model.CartSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateCart"); err != nil {
		return nil, err
	}

	f.nextCart++
	c := &fakeCart{id: "gid://cart/" + strconv.Itoa(f.nextCart)}
	if err := f.addLines(c, lines); err != nil {
		return nil, err
	}
	f.carts[c.id] = c
	return f.session(c), nil
}

func (f *Fake) FetchCart(_ context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchCart"); err != nil {
		return nil, err
	}

	c, ok := f.carts[cartID]
	if !ok {
		return nil, model.NewNotFoundError("cart")
	}

	items := make([]model.CartLineItem, 0, len(c.lines))
	subtotal := model.Money{CurrencyCode: f.currency}
	for _, l := range c.lines {
		item := f.lineItem(l)
		items = append(items, item)
		sum, err := subtotal.Add(item.Price.Mul(item.Quantity))
		if err != nil {
			return nil, model.NewGatewayError("cart", err)
		}
		subtotal = sum
	}

	page, err := pageOf(items, count, cursor)
	if err != nil {
		return nil, err
	}
	return &model.CartPage{Session: *f.session(c), Subtotal: subtotal, Lines: page}, nil
}

func (f *Fake) AddCartLines(_ context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("AddCartLines"); err != nil {
		return nil, err
	}

	c, ok := f.carts[cartID]
	if !ok {
		return nil, model.NewNotFoundError("cart")
	}
	if err := f.addLines(c, lines); err != nil {
		return nil, err
	}
	return f.session(c), nil
}

// UpdateCartLines sets quantities; a quantity of zero removes the line, as the real API does.
func (f *Fake) UpdateCartLines(_ context.Context, cartID string, lines []model.LineUpdate) (*model.CartSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateCartLines"); err != nil {
		return nil, err
	}

	c, ok := f.carts[cartID]
	if !ok {
		return nil, model.NewNotFoundError("cart")
	}
	for _, u := range lines {
		if c.lineIndex(u.LineID) < 0 {
			return nil, userError("cartLinesUpdate", u.LineID)
		}
		if u.Quantity < 0 {
			return nil, model.NewGatewayError("cartLinesUpdate", model.UserErrors{{
				Field:   []string{"lines", "quantity"},
				Message: "quantity must be non-negative",
				Code:    "INVALID",
			}})
		}
	}
	for _, u := range lines {
		c.lines[c.lineIndex(u.LineID)].quantity = u.Quantity
	}
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.quantity > 0 {
			kept = append(kept, l)
		}
	}
	c.lines = kept
	return f.session(c), nil
}

func (f *Fake) RemoveCartLines(_ context.Context, cartID string, lineIDs []string) (*model.CartSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("RemoveCartLines"); err != nil {
		return nil, err
	}

	c, ok := f.carts[cartID]
	if !ok {
		return nil, model.NewNotFoundError("cart")
	}
	drop := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		if c.lineIndex(id) < 0 {
			return nil, userError("cartLinesRemove", id)
		}
		drop[id] = true
	}
	kept := c.lines[:0]
	for _, l := range c.lines {
		if !drop[l.id] {
			kept = append(kept, l)
		}
	}
	c.lines = kept
	return f.session(c), nil
}

func (f *Fake) FetchProductPage(_ context.Context, count int, cursor string) (model.Page[model.ProductSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchProductPage"); err != nil {
		return model.Page[model.ProductSummary]{}, err
	}
	return pageOf(f.summaries(func(FakeProduct) bool { return true }), count, cursor)
}

func (f *Fake) FetchCollectionProducts(_ context.Context, collectionID string, count int, cursor string) (model.Page[model.ProductSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchCollectionProducts"); err != nil {
		return model.Page[model.ProductSummary]{}, err
	}
	if f.collection(collectionID) == nil {
		return model.Page[model.ProductSummary]{}, model.NewNotFoundError("collection")
	}
	return pageOf(f.summaries(func(p FakeProduct) bool {
		for _, id := range p.CollectionIDs {
			if id == collectionID {
				return true
			}
		}
		return false
	}), count, cursor)
}

func (f *Fake) FetchVariants(_ context.Context, productID string, count int, cursor string) (model.Page[model.Variant], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchVariants"); err != nil {
		return model.Page[model.Variant]{}, err
	}
	p := f.product(productID)
	if p == nil {
		return model.Page[model.Variant]{}, model.NewNotFoundError("product")
	}
	return pageOf(p.Variants, count, cursor)
}

// Search matches the query case-insensitively against product titles.
func (f *Fake) Search(_ context.Context, query string, count int, cursor string) (model.Page[model.ProductSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("Search"); err != nil {
		return model.Page[model.ProductSummary]{}, err
	}
	return pageOf(f.summaries(func(p FakeProduct) bool {
		return matches(p.Product.Title, query)
	}), count, cursor)
}

func (f *Fake) PredictiveSearch(_ context.Context, query string, maxResults int) (*model.PredictiveResults, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("PredictiveSearch"); err != nil {
		return nil, err
	}

	res := &model.PredictiveResults{}
	for _, p := range f.products {
		if len(res.Products) >= maxResults {
			break
		}
		if matches(p.Product.Title, query) {
			res.Products = append(res.Products, model.PredictiveResult{ID: p.Product.ID, Title: p.Product.Title})
		}
	}
	for _, c := range f.collections {
		if len(res.Collections) >= maxResults {
			break
		}
		if matches(c.Collection.Title, query) {
			res.Collections = append(res.Collections, model.PredictiveResult{
				ID:           c.Collection.ID,
				Title:        c.Collection.Title,
				IsCollection: true,
			})
		}
	}
	return res, nil
}

func (f *Fake) FetchCollections(_ context.Context, count int, cursor string) (model.Page[model.CollectionSummary], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchCollections"); err != nil {
		return model.Page[model.CollectionSummary]{}, err
	}
	out := make([]model.CollectionSummary, 0, len(f.collections))
	for _, c := range f.collections {
		out = append(out, model.CollectionSummary{ID: c.Collection.ID, Title: c.Collection.Title, Image: c.Image})
	}
	return pageOf(out, count, cursor)
}

func (f *Fake) FetchCollection(_ context.Context, collectionID string) (*model.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchCollection"); err != nil {
		return nil, err
	}
	c := f.collection(collectionID)
	if c == nil {
		return nil, model.NewNotFoundError("collection")
	}
	out := c.Collection
	return &out, nil
}

func (f *Fake) FetchProduct(_ context.Context, productID string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchProduct"); err != nil {
		return nil, err
	}
	p := f.product(productID)
	if p == nil {
		return nil, model.NewNotFoundError("product")
	}
	out := p.Product
	out.Images = append([]model.ImageRef(nil), p.Product.Images...)
	return &out, nil
}

// addLines merges by variant id like the real API: adding an existing variant bumps its quantity.
// Every line is checked first; one bad line rejects the whole mutation.
func (f *Fake) addLines(c *fakeCart, lines []model.LineInput) error {
	for _, in := range lines {
		if _, v := f.variant(in.VariantID); v == nil {
			return model.NewGatewayError("cartLinesAdd", model.UserErrors{{
				Field:   []string{"lines", "merchandiseId"},
				Message: fmt.Sprintf("merchandise %s does not exist", in.VariantID),
				Code:    "INVALID",
			}})
		}
		if in.Quantity < 1 {
			return model.NewGatewayError("cartLinesAdd", model.UserErrors{{
				Field:   []string{"lines", "quantity"},
				Message: "quantity must be at least 1",
				Code:    "INVALID",
			}})
		}
	}

	for _, in := range lines {
		merged := false
		for i := range c.lines {
			if c.lines[i].variantID == in.VariantID {
				c.lines[i].quantity += in.Quantity
				merged = true
				break
			}
		}
		if !merged {
			c.lines = append(c.lines, fakeLine{
				id:        "gid://cartline/" + uuid.NewString(),
				variantID: in.VariantID,
				quantity:  in.Quantity,
			})
		}
	}
	return nil
}

func (f *Fake) lineItem(l fakeLine) model.CartLineItem {
	p, v := f.variant(l.variantID)
	item := model.CartLineItem{
		LineID:            l.id,
		VariantID:         l.variantID,
		ProductID:         p.Product.ID,
		ProductTitle:      p.Product.Title,
		VariantTitle:      v.Title,
		FeaturedImage:     p.Product.FeaturedImage,
		Price:             v.Price,
		Quantity:          l.quantity,
		QuantityAvailable: v.Stock,
	}
	if v.CompareAtPrice != nil {
		compareAt := *v.CompareAtPrice
		item.CompareAtPrice = &compareAt
	}
	return item
}

func (f *Fake) session(c *fakeCart) *model.CartSession {
	total := 0
	for _, l := range c.lines {
		total += l.quantity
	}
	return &model.CartSession{
		ID:            c.id,
		CheckoutURL:   "https://checkout.example.com/cart/" + strings.TrimPrefix(c.id, "gid://cart/"),
		TotalQuantity: total,
	}
}

func (f *Fake) summaries(keep func(FakeProduct) bool) []model.ProductSummary {
	out := make([]model.ProductSummary, 0, len(f.products))
	for _, p := range f.products {
		if !keep(p) {
			continue
		}
		s := model.ProductSummary{
			ID:            p.Product.ID,
			Title:         p.Product.Title,
			FeaturedImage: p.Product.FeaturedImage,
			Price:         model.Money{CurrencyCode: f.currency},
		}
		if len(p.Variants) > 0 {
			s.Price = p.Variants[0].Price
			s.CompareAtPrice = p.Variants[0].CompareAtPrice
		}
		out = append(out, s)
	}
	return out
}

func (f *Fake) product(id string) *FakeProduct {
	for i := range f.products {
		if f.products[i].Product.ID == id {
			return &f.products[i]
		}
	}
	return nil
}

func (f *Fake) variant(id string) (*FakeProduct, *model.Variant) {
	for i := range f.products {
		for j := range f.products[i].Variants {
			if f.products[i].Variants[j].ID == id {
				return &f.products[i], &f.products[i].Variants[j]
			}
		}
	}
	return nil, nil
}

func (f *Fake) collection(id string) *FakeCollection {
	for i := range f.collections {
		if f.collections[i].Collection.ID == id {
			return &f.collections[i]
		}
	}
	return nil
}

func (c *fakeCart) lineIndex(lineID string) int {
	for i, l := range c.lines {
		if l.id == lineID {
			return i
		}
	}
	return -1
}

func userError(op, lineID string) error {
	return model.NewGatewayError(op, model.UserErrors{{
		Field:   []string{"lineIds"},
		Message: fmt.Sprintf("line %s does not exist", lineID),
		Code:    "INVALID",
	}})
}

func matches(title, query string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(strings.TrimSpace(query)))
}

// pageOf slices items from the offset encoded in cursor.
func pageOf[T any](items []T, count int, cursor string) (model.Page[T], error) {
	if count <= 0 {
		return model.Page[T]{}, model.NewValidationError("first", "must be positive")
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(items) {
			return model.Page[T]{}, model.NewValidationError("after", "unknown cursor")
		}
		start = n
	}
	end := min(start+count, len(items))

	page := model.Page[T]{Items: append([]T(nil), items[start:end]...)}
	if end < len(items) {
		page.PageInfo = model.PageInfo{HasNextPage: true, EndCursor: strconv.Itoa(end)}
	}
	return page, nil
}

var _ Gateway = (*Fake)(nil)

package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/model"
)

// graphQLServer answers by operationName with canned JSON bodies.
type graphQLServer struct {
	t         *testing.T
	responses map[string]string
	requests  []graphQLRequest
	headers   []http.Header
}

func newGraphQLServer(t *testing.T, responses map[string]string) (*graphQLServer, *Gateway) {
	t.Helper()
	gs := &graphQLServer{t: t, responses: responses}
	srv := httptest.NewServer(gs)
	t.Cleanup(srv.Close)

	g, err := New(Config{
		StoreDomain: srv.URL,
		APIVersion:  "2024-07",
		AccessToken: "public-token",
		UserAgent:   "storefront-test/1.0",
		HTTPClient:  srv.Client(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return gs, g
}

func (s *graphQLServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/2024-07/graphql.json" {
		s.t.Errorf("path = %s, want /api/2024-07/graphql.json", r.URL.Path)
	}
	var req graphQLRequest
	body, _ := io.ReadAll(r.Body)
	if err := json.Unmarshal(body, &req); err != nil {
		s.t.Errorf("request body not JSON: %v", err)
	}
	s.requests = append(s.requests, req)
	s.headers = append(s.headers, r.Header.Clone())

	resp, ok := s.responses[req.OperationName]
	if !ok {
		s.t.Errorf("unexpected operation %q", req.OperationName)
		http.Error(w, "unexpected", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, resp)
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no domain", Config{APIVersion: "2024-07", AccessToken: "x"}},
		{"no version", Config{StoreDomain: "shop.example.com", AccessToken: "x"}},
		{"no token", Config{StoreDomain: "shop.example.com", APIVersion: "2024-07"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.cfg); err == nil {
				t.Error("NewClient() error = nil, want error")
			}
		})
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"shop.example.com", "https://shop.example.com/api/2024-07/graphql.json"},
		{"https://shop.example.com/", "https://shop.example.com/api/2024-07/graphql.json"},
		{"http://127.0.0.1:9000", "http://127.0.0.1:9000/api/2024-07/graphql.json"},
	}
	for _, tt := range tests {
		if got := endpointURL(tt.domain, "2024-07"); got != tt.want {
			t.Errorf("endpointURL(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestRequestShape(t *testing.T) {
	gs, g := newGraphQLServer(t, map[string]string{
		"Products": `{"data":{"products":{"edges":[],"pageInfo":{"hasNextPage":false,"endCursor":null}}}}`,
	})

	if _, err := g.FetchProductPage(context.Background(), 20, "abc"); err != nil {
		t.Fatalf("FetchProductPage() error = %v", err)
	}

	req := gs.requests[0]
	if req.OperationName != "Products" {
		t.Errorf("operationName = %q, want Products", req.OperationName)
	}
	if !strings.Contains(req.Query, "query Products") {
		t.Errorf("query does not contain the Products document")
	}
	if req.Variables["first"] != float64(20) || req.Variables["after"] != "abc" {
		t.Errorf("variables = %v, want first=20 after=abc", req.Variables)
	}
	h := gs.headers[0]
	if h.Get(tokenHeader) != "public-token" {
		t.Errorf("%s = %q, want public-token", tokenHeader, h.Get(tokenHeader))
	}
	if h.Get("User-Agent") != "storefront-test/1.0" {
		t.Errorf("User-Agent = %q", h.Get("User-Agent"))
	}
}

func TestFirstPageOmitsAfter(t *testing.T) {
	gs, g := newGraphQLServer(t, map[string]string{
		"Collections": `{"data":{"collections":{"edges":[],"pageInfo":{"hasNextPage":false,"endCursor":null}}}}`,
	})
	if _, err := g.FetchCollections(context.Background(), 2, ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := gs.requests[0].Variables["after"]; ok {
		t.Error("first page request carries an after cursor")
	}
}

func TestFetchProductPage_Transform(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"Products": `{"data":{"products":{
			"edges":[
				{"node":{"id":"p1","title":"Tote","featuredImage":{"id":"i1","url":"https://cdn/i1.jpg"},
					"priceRange":{"minVariantPrice":{"amount":"12.5","currencyCode":"USD"}},
					"compareAtPriceRange":{"minVariantPrice":{"amount":"15.0","currencyCode":"USD"}}}},
				{"node":{"id":"p2","title":"Cap","featuredImage":null,
					"priceRange":{"minVariantPrice":{"amount":"9.0","currencyCode":"USD"}},
					"compareAtPriceRange":{"minVariantPrice":{"amount":"0.0","currencyCode":"USD"}}}}
			],
			"pageInfo":{"hasNextPage":true,"endCursor":"cur2"}}}}`,
	})

	page, err := g.FetchProductPage(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("FetchProductPage() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(page.Items))
	}
	if page.PageInfo.EndCursor != "cur2" || !page.PageInfo.HasNextPage {
		t.Errorf("PageInfo = %+v, want cur2/true", page.PageInfo)
	}
	p1 := page.Items[0]
	if p1.Price.Format() != "$12.50" {
		t.Errorf("price = %s, want $12.50", p1.Price.Format())
	}
	if p1.CompareAtPrice == nil || p1.CompareAtPrice.Format() != "$15.00" {
		t.Errorf("compareAt = %v, want $15.00", p1.CompareAtPrice)
	}
	if p1.FeaturedImage == nil || p1.FeaturedImage.URL != "https://cdn/i1.jpg" {
		t.Errorf("image = %v", p1.FeaturedImage)
	}
	if page.Items[1].CompareAtPrice != nil {
		t.Errorf("zero compareAt = %v, want nil", page.Items[1].CompareAtPrice)
	}
}

func TestCatalogPages_RejectInvalidMoney(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"Products": `{"data":{"products":{
			"edges":[{"node":{"id":"p1","title":"Tote","featuredImage":null,
				"priceRange":{"minVariantPrice":{"amount":"-12.5","currencyCode":"USD"}},
				"compareAtPriceRange":null}}],
			"pageInfo":{"hasNextPage":false,"endCursor":null}}}}`,
		"ProductVariants": `{"data":{"product":{"variants":{
			"edges":[{"node":{"id":"v1","title":"S","price":{"amount":"5.0","currencyCode":"??"},
				"compareAtPrice":null,"quantityAvailable":3,"image":null}}],
			"pageInfo":{"hasNextPage":false,"endCursor":null}}}}}`,
	})
	ctx := context.Background()

	page, err := g.FetchProductPage(ctx, 1, "")
	if !errors.Is(err, model.ErrGateway) {
		t.Errorf("FetchProductPage() error = %v, want ErrGateway", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("items = %d, want none on invalid money", len(page.Items))
	}

	if _, err := g.FetchVariants(ctx, "p1", 1, ""); !errors.Is(err, model.ErrGateway) {
		t.Errorf("FetchVariants() error = %v, want ErrGateway", err)
	}
}

func TestFetchCart(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"Cart": `{"data":{"cart":{
			"id":"gid://cart/1","checkoutUrl":"https://shop/c/1","totalQuantity":3,
			"cost":{"subtotalAmount":{"amount":"37.5","currencyCode":"USD"}},
			"lines":{"edges":[{"node":{
				"id":"gid://line/1","quantity":3,
				"cost":{"amountPerQuantity":{"amount":"12.5","currencyCode":"USD"},"compareAtAmountPerQuantity":null},
				"merchandise":{"id":"gid://variant/9","title":"Natural","quantityAvailable":7,"image":null,
					"product":{"id":"gid://product/1","title":"Tote","featuredImage":{"id":"i1","url":"https://cdn/i1.jpg"}}}
			}}],"pageInfo":{"hasNextPage":false,"endCursor":"ignored"}}}}}`,
	})

	page, err := g.FetchCart(context.Background(), "gid://cart/1", 20, "")
	if err != nil {
		t.Fatalf("FetchCart() error = %v", err)
	}
	if page.Session.TotalQuantity != 3 || page.Session.CheckoutURL != "https://shop/c/1" {
		t.Errorf("session = %+v", page.Session)
	}
	if page.Subtotal.Format() != "$37.50" {
		t.Errorf("subtotal = %s, want $37.50", page.Subtotal.Format())
	}
	if page.Lines.PageInfo.EndCursor != "" {
		t.Errorf("EndCursor = %q on last page, want empty", page.Lines.PageInfo.EndCursor)
	}
	line := page.Lines.Items[0]
	if line.VariantID != "gid://variant/9" || line.ProductTitle != "Tote" || line.QuantityAvailable != 7 {
		t.Errorf("line = %+v", line)
	}
	if line.FeaturedImage == nil || line.FeaturedImage.ID != "i1" {
		t.Errorf("line image = %v, want product featured image", line.FeaturedImage)
	}
}

func TestFetchCart_Gone(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{"Cart": `{"data":{"cart":null}}`})

	_, err := g.FetchCart(context.Background(), "gid://cart/404", 20, "")
	if !errors.Is(err, model.ErrCartNotFound) {
		t.Errorf("error = %v, want ErrCartNotFound", err)
	}
}

func TestGraphQLErrorsFailTheCall(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"Product": `{"data":{"product":{"id":"p1","title":"partial"}},"errors":[{"message":"Field 'nope' doesn't exist","path":["product"]}]}`,
	})

	product, err := g.FetchProduct(context.Background(), "p1")
	if product != nil {
		t.Errorf("product = %+v, want nil when errors present", product)
	}
	if !errors.Is(err, model.ErrGateway) {
		t.Fatalf("error = %v, want ErrGateway", err)
	}
	var gqlErrs model.GraphQLErrors
	if !errors.As(err, &gqlErrs) || gqlErrs[0].Message != "Field 'nope' doesn't exist" {
		t.Errorf("errors.As GraphQLErrors = %v", gqlErrs)
	}
}

func TestThrottled(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"Products": `{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`,
	})

	_, err := g.FetchProductPage(context.Background(), 10, "")
	if !errors.Is(err, model.ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
}

func TestMutationUserErrors(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"CartLinesAdd": `{"data":{"cartLinesAdd":{"cart":{"id":"gid://cart/1","checkoutUrl":"u","totalQuantity":0},
			"userErrors":[{"field":["lines","0","merchandiseId"],"message":"Merchandise does not exist","code":"INVALID"}]}}}`,
	})

	echo, err := g.AddCartLines(context.Background(), "gid://cart/1", []model.LineInput{{VariantID: "bad", Quantity: 1}})
	if echo != nil {
		t.Errorf("echo = %+v, want nil", echo)
	}
	var ue model.UserErrors
	if !errors.Is(err, model.ErrGateway) || !errors.As(err, &ue) {
		t.Fatalf("error = %v, want gateway error with user errors", err)
	}
	if ue[0].Code != "INVALID" {
		t.Errorf("code = %q, want INVALID", ue[0].Code)
	}
}

func TestMutationNullCartIsGone(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"CartLinesRemove": `{"data":{"cartLinesRemove":{"cart":null,"userErrors":[]}}}`,
	})

	_, err := g.RemoveCartLines(context.Background(), "gid://cart/1", []string{"l1"})
	if !errors.Is(err, model.ErrCartNotFound) {
		t.Errorf("error = %v, want ErrCartNotFound", err)
	}
}

func TestCreateCart_SendsLines(t *testing.T) {
	gs, g := newGraphQLServer(t, map[string]string{
		"CartCreate": `{"data":{"cartCreate":{"cart":{"id":"gid://cart/1","checkoutUrl":"https://shop/c/1","totalQuantity":2},"userErrors":[]}}}`,
	})

	sess, err := g.CreateCart(context.Background(), []model.LineInput{{VariantID: "gid://variant/9", Quantity: 2}})
	if err != nil {
		t.Fatalf("CreateCart() error = %v", err)
	}
	if sess.ID != "gid://cart/1" || sess.CheckoutURL != "https://shop/c/1" {
		t.Errorf("session = %+v", sess)
	}

	input := gs.requests[0].Variables["input"].(map[string]any)
	lines := input["lines"].([]any)
	first := lines[0].(map[string]any)
	if first["merchandiseId"] != "gid://variant/9" || first["quantity"] != float64(2) {
		t.Errorf("lines = %v", lines)
	}
}

func TestUpdateCartLines_SendsZero(t *testing.T) {
	gs, g := newGraphQLServer(t, map[string]string{
		"CartLinesUpdate": `{"data":{"cartLinesUpdate":{"cart":{"id":"gid://cart/1","checkoutUrl":"u","totalQuantity":0},"userErrors":[]}}}`,
	})

	if _, err := g.UpdateCartLines(context.Background(), "gid://cart/1", []model.LineUpdate{{LineID: "l1", Quantity: 0}}); err != nil {
		t.Fatal(err)
	}
	line := gs.requests[0].Variables["lines"].([]any)[0].(map[string]any)
	if line["quantity"] != float64(0) || line["id"] != "l1" {
		t.Errorf("line update = %v", line)
	}
}

func TestPredictiveSearch(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"PredictiveSearch": `{"data":{"predictiveSearch":{
			"products":[{"id":"p1","title":"Tote"}],
			"collections":[{"id":"c1","title":"Totes"}]}}}`,
	})

	res, err := g.PredictiveSearch(context.Background(), "tot", 10)
	if err != nil {
		t.Fatal(err)
	}
	all := res.All()
	if len(all) != 2 || all[0].IsCollection || !all[1].IsCollection {
		t.Errorf("All() = %+v, want product then collection", all)
	}
}

func TestNotFoundResources(t *testing.T) {
	_, g := newGraphQLServer(t, map[string]string{
		"Collection":         `{"data":{"collection":null}}`,
		"CollectionProducts": `{"data":{"collection":null}}`,
		"ProductVariants":    `{"data":{"product":null}}`,
		"Product":            `{"data":{"product":null}}`,
	})
	ctx := context.Background()

	if _, err := g.FetchCollection(ctx, "c"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("FetchCollection error = %v", err)
	}
	if _, err := g.FetchCollectionProducts(ctx, "c", 20, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("FetchCollectionProducts error = %v", err)
	}
	if _, err := g.FetchVariants(ctx, "p", 10, ""); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("FetchVariants error = %v", err)
	}
	if _, err := g.FetchProduct(ctx, "p"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("FetchProduct error = %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status  int
		header  http.Header
		body    string
		wantErr error
		wantMsg string
	}{
		{http.StatusUnauthorized, nil, "", model.ErrUnauthorized, ""},
		{http.StatusForbidden, nil, "", model.ErrUnauthorized, ""},
		{http.StatusNotFound, nil, "", model.ErrNotFound, ""},
		{http.StatusTooManyRequests, http.Header{"Retry-After": {"7"}}, "", model.ErrRateLimited, "retry after 7s"},
		{http.StatusTooManyRequests, http.Header{"Ratelimit": {`"default";r=0;t=3`}}, "", model.ErrRateLimited, "retry after 3s"},
		{http.StatusBadRequest, nil, `{"errors":[{"message":"bad variables"}]}`, model.ErrInvalidRequest, "bad variables"},
		{http.StatusBadGateway, nil, "", model.ErrGateway, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header()[k] = v
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			g, err := New(Config{StoreDomain: srv.URL, APIVersion: "2024-07", AccessToken: "t", HTTPClient: srv.Client()})
			if err != nil {
				t.Fatal(err)
			}
			_, err = g.FetchProductPage(context.Background(), 10, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error %T is not *model.APIError", err)
			}
			if apiErr.StatusCode == 0 {
				t.Error("StatusCode not set")
			}
			if tt.wantMsg != "" && !strings.Contains(apiErr.Message, tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g, err := New(Config{StoreDomain: url, APIVersion: "2024-07", AccessToken: "t", Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.FetchCollections(context.Background(), 2, "")
	if !errors.Is(err, model.ErrGateway) {
		t.Errorf("error = %v, want ErrGateway", err)
	}
}

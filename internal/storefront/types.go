// Package storefront implements the gateway over a Shopify-style Storefront GraphQL API.
//
// Every operation is a named GraphQL document POSTed as {query, operationName, variables}.
// A response carrying a non-empty "errors" array, or a mutation payload with "userErrors",
// is a failed operation and its data is never read.
package storefront

import "storefront/internal/model"

// === Envelope ===

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// === Shared shapes ===

type moneyV2 struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
	PageInfo pageInfo `json:"pageInfo"`
}

// === Catalog ===

type productCard struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	FeaturedImage *image `json:"featuredImage"`
	PriceRange    struct {
		MinVariantPrice moneyV2 `json:"minVariantPrice"`
	} `json:"priceRange"`
	CompareAtPriceRange *struct {
		MinVariantPrice *moneyV2 `json:"minVariantPrice"`
	} `json:"compareAtPriceRange"`
}

type productDetail struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	FeaturedImage *image            `json:"featuredImage"`
	Images        connection[image] `json:"images"`
}

type productVariant struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Price             moneyV2  `json:"price"`
	CompareAtPrice    *moneyV2 `json:"compareAtPrice"`
	QuantityAvailable *int     `json:"quantityAvailable"`
	Image             *image   `json:"image"`
}

type collectionCard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image *image `json:"image"`
}

type collectionDetail struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type productsData struct {
	Products connection[productCard] `json:"products"`
}

type collectionProductsData struct {
	Collection *struct {
		Products connection[productCard] `json:"products"`
	} `json:"collection"`
}

type variantsData struct {
	Product *struct {
		Variants connection[productVariant] `json:"variants"`
	} `json:"product"`
}

type searchData struct {
	Search connection[productCard] `json:"search"`
}

type predictiveData struct {
	PredictiveSearch *struct {
		Products []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"products"`
		Collections []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"collections"`
	} `json:"predictiveSearch"`
}

type collectionsData struct {
	Collections connection[collectionCard] `json:"collections"`
}

type collectionData struct {
	Collection *collectionDetail `json:"collection"`
}

type productData struct {
	Product *productDetail `json:"product"`
}

// === Cart ===

type cartHeader struct {
	ID            string `json:"id"`
	CheckoutURL   string `json:"checkoutUrl"`
	TotalQuantity int    `json:"totalQuantity"`
}

type cartLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Cost     struct {
		AmountPerQuantity          moneyV2  `json:"amountPerQuantity"`
		CompareAtAmountPerQuantity *moneyV2 `json:"compareAtAmountPerQuantity"`
	} `json:"cost"`
	Merchandise struct {
		ID                string `json:"id"`
		Title             string `json:"title"`
		QuantityAvailable *int   `json:"quantityAvailable"`
		Image             *image `json:"image"`
		Product           struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			FeaturedImage *image `json:"featuredImage"`
		} `json:"product"`
	} `json:"merchandise"`
}

type cartData struct {
	Cart *struct {
		cartHeader
		Cost struct {
			SubtotalAmount moneyV2 `json:"subtotalAmount"`
		} `json:"cost"`
		Lines connection[cartLine] `json:"lines"`
	} `json:"cart"`
}

// cartPayload is the common shape of cartCreate / cartLinesAdd / cartLinesUpdate / cartLinesRemove.
type cartPayload struct {
	Cart       *cartHeader      `json:"cart"`
	UserErrors model.UserErrors `json:"userErrors"`
}

type cartCreateData struct {
	CartCreate cartPayload `json:"cartCreate"`
}

type cartLinesAddData struct {
	CartLinesAdd cartPayload `json:"cartLinesAdd"`
}

type cartLinesUpdateData struct {
	CartLinesUpdate cartPayload `json:"cartLinesUpdate"`
}

type cartLinesRemoveData struct {
	CartLinesRemove cartPayload `json:"cartLinesRemove"`
}

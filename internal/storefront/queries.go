package storefront

// operation is a named GraphQL document.
type operation struct {
	name  string
	query string
}

const productCardFragment = `
fragment ProductCard on Product {
  id
  title
  featuredImage { id url }
  priceRange { minVariantPrice { amount currencyCode } }
  compareAtPriceRange { minVariantPrice { amount currencyCode } }
}`

const cartHeaderFragment = `
fragment CartHeader on Cart {
  id
  checkoutUrl
  totalQuantity
}`

var (
	opProducts = operation{"Products", `
query Products($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    edges { node { ...ProductCard } }
    pageInfo { hasNextPage endCursor }
  }
}` + productCardFragment}

	opCollectionProducts = operation{"CollectionProducts", `
query CollectionProducts($id: ID!, $first: Int!, $after: String) {
  collection(id: $id) {
    products(first: $first, after: $after) {
      edges { node { ...ProductCard } }
      pageInfo { hasNextPage endCursor }
    }
  }
}` + productCardFragment}

	opVariants = operation{"ProductVariants", `
query ProductVariants($id: ID!, $first: Int!, $after: String) {
  product(id: $id) {
    variants(first: $first, after: $after) {
      edges {
        node {
          id
          title
          price { amount currencyCode }
          compareAtPrice { amount currencyCode }
          quantityAvailable
          image { id url }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`}

	opSearch = operation{"SearchProducts", `
query SearchProducts($query: String!, $first: Int!, $after: String) {
  search(query: $query, first: $first, after: $after, types: [PRODUCT]) {
    edges { node { ... on Product { ...ProductCard } } }
    pageInfo { hasNextPage endCursor }
  }
}` + productCardFragment}

	opPredictiveSearch = operation{"PredictiveSearch", `
query PredictiveSearch($query: String!, $limit: Int!) {
  predictiveSearch(query: $query, limit: $limit, types: [PRODUCT, COLLECTION]) {
    products { id title }
    collections { id title }
  }
}`}

	opCollections = operation{"Collections", `
query Collections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    edges { node { id title image { id url } } }
    pageInfo { hasNextPage endCursor }
  }
}`}

	opCollection = operation{"Collection", `
query Collection($id: ID!) {
  collection(id: $id) { id title description }
}`}

	opProduct = operation{"Product", `
query Product($id: ID!) {
  product(id: $id) {
    id
    title
    description
    featuredImage { id url }
    images(first: 20) {
      edges { node { id url } }
      pageInfo { hasNextPage endCursor }
    }
  }
}`}

	opCart = operation{"Cart", `
query Cart($cartId: ID!, $first: Int!, $after: String) {
  cart(id: $cartId) {
    ...CartHeader
    cost { subtotalAmount { amount currencyCode } }
    lines(first: $first, after: $after) {
      edges {
        node {
          id
          quantity
          cost {
            amountPerQuantity { amount currencyCode }
            compareAtAmountPerQuantity { amount currencyCode }
          }
          merchandise {
            ... on ProductVariant {
              id
              title
              quantityAvailable
              image { id url }
              product { id title featuredImage { id url } }
            }
          }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}` + cartHeaderFragment}

	opCartCreate = operation{"CartCreate", `
mutation CartCreate($input: CartInput!) {
  cartCreate(input: $input) {
    cart { ...CartHeader }
    userErrors { field message code }
  }
}` + cartHeaderFragment}

	opCartLinesAdd = operation{"CartLinesAdd", `
mutation CartLinesAdd($cartId: ID!, $lines: [CartLineInput!]!) {
  cartLinesAdd(cartId: $cartId, lines: $lines) {
    cart { ...CartHeader }
    userErrors { field message code }
  }
}` + cartHeaderFragment}

	opCartLinesUpdate = operation{"CartLinesUpdate", `
mutation CartLinesUpdate($cartId: ID!, $lines: [CartLineUpdateInput!]!) {
  cartLinesUpdate(cartId: $cartId, lines: $lines) {
    cart { ...CartHeader }
    userErrors { field message code }
  }
}` + cartHeaderFragment}

	opCartLinesRemove = operation{"CartLinesRemove", `
mutation CartLinesRemove($cartId: ID!, $lineIds: [ID!]!) {
  cartLinesRemove(cartId: $cartId, lineIds: $lineIds) {
    cart { ...CartHeader }
    userErrors { field message code }
  }
}` + cartHeaderFragment}
)

package model

// PageInfo is the cursor primitive shared by every paginated fetch.
// EndCursor is opaque; the empty string stands for "no cursor".
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor,omitempty"`
}

// NextCursor returns the cursor to request the following page with, or "" when there is none.
func (p PageInfo) NextCursor() string {
	if !p.HasNextPage {
		return ""
	}
	return p.EndCursor
}

// Page is one slice of a cursor-paginated result set, in remote order.
type Page[T any] struct {
	Items    []T      `json:"items"`
	PageInfo PageInfo `json:"pageInfo"`
}

package paginate

import (
	"context"
	"fmt"
)

// Collect fetches every page and returns the concatenation once the last page arrives.
// Nothing is returned on a mid-sequence failure, so callers never see a partial list.
func Collect[T any](ctx context.Context, pageSize int, fetch FetchFunc[T]) ([]T, error) {
	var (
		all    []T
		cursor string
	)
	for page := 1; ; page++ {
		res, err := fetch(ctx, pageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		all = append(all, res.Items...)
		if !res.PageInfo.HasNextPage {
			return all, nil
		}
		cursor = res.PageInfo.NextCursor()
	}
}

// First fetches a single page of n items. Used for previews.
func First[T any](ctx context.Context, n int, fetch FetchFunc[T]) ([]T, error) {
	res, err := fetch(ctx, n, "")
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Package paginate accumulates cursor-paged result sets into one append-only list.
package paginate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"storefront/internal/model"
)

// FetchFunc loads one page of at most count items starting after cursor ("" = first page).
type FetchFunc[T any] func(ctx context.Context, count int, cursor string) (model.Page[T], error)

// Options configures a Paginator.
type Options struct {
	// PageSize is the count requested per fetch. Required.
	PageSize int
	// MaxItems hides the load-more affordance once this many items are shown. 0 = no cap.
	MaxItems int
	Logger   *slog.Logger
}

// State is a point-in-time copy of a paginator's state.
type State[T any] struct {
	Items       []T
	Cursor      string
	HasNextPage bool
	IsLoading   bool
}

// Paginator accumulates pages from a FetchFunc.
// Items are only ever appended, in the order the gateway returned them.
// Safe for concurrent use; overlapping LoadMore calls collapse into one fetch.
type Paginator[T any] struct {
	fetch  FetchFunc[T]
	opts   Options
	logger *slog.Logger

	mu          sync.Mutex
	items       []T
	cursor      string
	hasNextPage bool
	loading     bool
	err         error
}

// New creates a Paginator. Panics if PageSize is not positive, as that is a programming error.
func New[T any](fetch FetchFunc[T], opts Options) *Paginator[T] {
	if opts.PageSize <= 0 {
		panic("paginate: PageSize must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Paginator[T]{
		fetch:       fetch,
		opts:        opts,
		logger:      logger,
		hasNextPage: true,
	}
}

var errNoFetch = errors.New("paginate: no fetch function")

// LoadMore fetches the next page and appends it.
// Returns nil without fetching when a load is already in flight or the end was reached.
// On failure the accumulated items and cursor are left unchanged and the error is returned.
func (p *Paginator[T]) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.loading || !p.hasNextPage {
		p.mu.Unlock()
		return nil
	}
	if p.fetch == nil {
		p.mu.Unlock()
		return errNoFetch
	}
	p.loading = true
	cursor := p.cursor
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.loading = false
		p.mu.Unlock()
	}()

	page, err := p.fetch(ctx, p.opts.PageSize, cursor)
	if err != nil {
		p.logger.Warn("load more failed",
			slog.String("cursor", cursor),
			slog.Int("loaded", p.Len()),
			slog.Any("error", err),
		)
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.items = append(p.items, page.Items...)
	p.hasNextPage = page.PageInfo.HasNextPage
	p.cursor = page.PageInfo.NextCursor()
	p.err = nil
	p.mu.Unlock()

	p.logger.Debug("page loaded",
		slog.Int("count", len(page.Items)),
		slog.Bool("has_next_page", page.PageInfo.HasNextPage),
	)
	return nil
}

// Items returns a copy of the accumulated items.
func (p *Paginator[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.items...)
}

func (p *Paginator[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *Paginator[T]) Cursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *Paginator[T]) HasNextPage() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNextPage
}

func (p *Paginator[T]) IsLoading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Err returns the error of the most recent failed load, cleared by the next success.
func (p *Paginator[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// ShowLoadMore reports whether a "load more" affordance should be offered.
// The cap only hides the affordance; items beyond it are never truncated.
func (p *Paginator[T]) ShowLoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasNextPage && (p.opts.MaxItems == 0 || len(p.items) < p.opts.MaxItems)
}

// State returns a copy of the full state.
func (p *Paginator[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State[T]{
		Items:       append([]T(nil), p.items...),
		Cursor:      p.cursor,
		HasNextPage: p.hasNextPage,
		IsLoading:   p.loading,
	}
}

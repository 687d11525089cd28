// Package cart keeps a local cart snapshot consistent with the remote cart.
//
// The remote is the source of truth. Every mutation is followed by a full refetch,
// and the snapshot is replaced in one step once all line pages have arrived.
package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/paginate"
)

// DefaultPageSize is the line page size used when Options.PageSize is unset.
const DefaultPageSize = 20

// SessionStore persists the cart identity. Implemented by *session.Store.
type SessionStore interface {
	Restore(ctx context.Context) *model.CartSession
	Persist(ctx context.Context, sess model.CartSession) error
}

// Options configures a Reconciler.
type Options struct {
	// PageSize is the line page size used by Refresh. Stays fixed for the reconciler's lifetime.
	PageSize int
	Logger   *slog.Logger
	// OnPublish is called with a copy of every newly published snapshot.
	OnPublish func(model.Cart)
}

// Reconciler owns the cart session and the cached cart snapshot.
// Safe for concurrent use. Mutations are serialized: a second caller waits for the first
// to finish (mutation and refresh) before its own mutation is sent.
type Reconciler struct {
	gw        gateway.CartGateway
	store     SessionStore
	pageSize  int
	logger    *slog.Logger
	onPublish func(model.Cart)

	// mu serializes Initialize, Refresh and mutations.
	mu   sync.Mutex
	busy atomic.Bool

	// snapMu guards state and snapshot; readers never wait on a network call.
	snapMu   sync.RWMutex
	state    State
	snapshot model.Cart
}

// New creates a Reconciler in the Uninitialized state.
func New(gw gateway.CartGateway, store SessionStore, opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Reconciler{
		gw:        gw,
		store:     store,
		pageSize:  pageSize,
		logger:    logger,
		onPublish: opts.OnPublish,
	}
}

// Initialize restores the persisted session or creates a new remote cart.
// Calling it again once Ready does nothing. A failed creation leaves the reconciler Degraded.
func (r *Reconciler) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.State() {
	case Ready:
		return nil
	case Degraded:
		return model.NewSessionUnavailableError(nil)
	}
	r.setState(Creating)

	if sess := r.store.Restore(ctx); sess != nil {
		r.publish(model.Cart{Session: *sess, Lines: []model.CartLineItem{}})
		r.persist(ctx, *sess)
		r.setState(Ready)
		r.logger.Info("cart session restored", slog.String("cart_id", sess.ID))
		return nil
	}

	sess, err := r.gw.CreateCart(ctx, nil)
	if err == nil && !sess.Valid() {
		err = errors.New("create cart returned no id")
	}
	if err != nil {
		r.setState(Degraded)
		r.logger.Error("cart session unavailable", slog.Any("error", err))
		return model.NewSessionUnavailableError(err)
	}

	r.publish(model.Cart{Session: *sess, Lines: []model.CartLineItem{}})
	r.persist(ctx, *sess)
	r.setState(Ready)
	r.logger.Info("cart created", slog.String("cart_id", sess.ID))
	return nil
}

// Refresh refetches the whole cart and publishes it as one snapshot.
func (r *Reconciler) Refresh(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(); err != nil {
		return err
	}
	return r.refreshLocked(ctx)
}

// AddLine adds quantity of a variant. Quantity must be at least 1.
func (r *Reconciler) AddLine(ctx context.Context, variantID string, quantity int) error {
	if err := r.ready(); err != nil {
		return err
	}
	if variantID == "" {
		return model.NewValidationError("variantId", "required")
	}
	if quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}
	return r.mutateThenRefresh(ctx, "cartLinesAdd", func(ctx context.Context, cartID string) error {
		_, err := r.gw.AddCartLines(ctx, cartID, []model.LineInput{{VariantID: variantID, Quantity: quantity}})
		return err
	})
}

// UpdateLineQuantity sets a line's quantity. Zero is forwarded as-is; the remote decides
// what it means and the following refresh shows the result.
func (r *Reconciler) UpdateLineQuantity(ctx context.Context, lineID string, quantity int) error {
	if err := r.ready(); err != nil {
		return err
	}
	if lineID == "" {
		return model.NewValidationError("lineId", "required")
	}
	if quantity < 0 {
		return model.NewValidationError("quantity", "must not be negative")
	}
	return r.mutateThenRefresh(ctx, "cartLinesUpdate", func(ctx context.Context, cartID string) error {
		_, err := r.gw.UpdateCartLines(ctx, cartID, []model.LineUpdate{{LineID: lineID, Quantity: quantity}})
		return err
	})
}

// RemoveLine removes a line.
func (r *Reconciler) RemoveLine(ctx context.Context, lineID string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if lineID == "" {
		return model.NewValidationError("lineId", "required")
	}
	return r.mutateThenRefresh(ctx, "cartLinesRemove", func(ctx context.Context, cartID string) error {
		_, err := r.gw.RemoveCartLines(ctx, cartID, []string{lineID})
		return err
	})
}

// SyncLines makes the remote cart hold exactly the desired lines.
// The current lines are refetched first, then the diff is applied as one serialized mutation.
func (r *Reconciler) SyncLines(ctx context.Context, desired []DesiredLine) error {
	if err := r.ready(); err != nil {
		return err
	}
	if err := validateDesired(desired); err != nil {
		return err
	}
	return r.mutateThenRefresh(ctx, "cartSync", func(ctx context.Context, cartID string) error {
		if err := r.refreshLocked(ctx); err != nil {
			return err
		}
		cartID = r.Snapshot().Session.ID

		diff := DiffLines(r.Snapshot().Lines, desired)
		if diff.IsEmpty() {
			return nil
		}
		r.logger.Debug("syncing cart lines",
			slog.Int("remove", len(diff.ToRemove)),
			slog.Int("update", len(diff.ToUpdate)),
			slog.Int("add", len(diff.ToAdd)),
		)

		if len(diff.ToRemove) > 0 {
			if _, err := r.gw.RemoveCartLines(ctx, cartID, diff.ToRemove); err != nil {
				return err
			}
		}
		if len(diff.ToUpdate) > 0 {
			if _, err := r.gw.UpdateCartLines(ctx, cartID, diff.ToUpdate); err != nil {
				return err
			}
		}
		if len(diff.ToAdd) > 0 {
			if _, err := r.gw.AddCartLines(ctx, cartID, diff.ToAdd); err != nil {
				return err
			}
		}
		return nil
	})
}

// mutateThenRefresh runs one mutation and then refreshes from the remote.
// The mutation's own response is discarded; only the refetch updates the snapshot.
// On failure the last known-good snapshot stays published.
func (r *Reconciler) mutateThenRefresh(ctx context.Context, op string, mutate func(ctx context.Context, cartID string) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ready(); err != nil {
		return err
	}

	r.busy.Store(true)
	r.setState(Mutating)
	defer func() {
		r.setState(Ready)
		r.busy.Store(false)
	}()

	cartID := r.Snapshot().Session.ID
	if err := mutate(ctx, cartID); err != nil {
		r.logger.Warn("cart mutation failed",
			slog.String("op", op),
			slog.String("cart_id", cartID),
			slog.Any("error", err),
		)
		if errors.Is(err, model.ErrCartNotFound) {
			// Refresh notices the cart is gone and replaces it.
			if rerr := r.refreshLocked(ctx); rerr != nil {
				r.logger.Warn("cart replacement failed", slog.Any("error", rerr))
			}
		}
		return gatewayError(op, err)
	}

	return r.refreshLocked(ctx)
}

// refreshLocked fetches every line page and publishes once. Caller holds r.mu.
func (r *Reconciler) refreshLocked(ctx context.Context) error {
	cartID := r.Snapshot().Session.ID

	var header *model.CartPage
	lines, err := paginate.Collect(ctx, r.pageSize, func(ctx context.Context, count int, cursor string) (model.Page[model.CartLineItem], error) {
		page, err := r.gw.FetchCart(ctx, cartID, count, cursor)
		if err != nil {
			return model.Page[model.CartLineItem]{}, err
		}
		if header == nil {
			header = page
		}
		return page.Lines, nil
	})
	if errors.Is(err, model.ErrCartNotFound) {
		return r.replaceLocked(ctx, cartID)
	}
	if err != nil {
		r.logger.Warn("cart refresh failed", slog.String("cart_id", cartID), slog.Any("error", err))
		return gatewayError("cart", err)
	}

	next := model.Cart{Session: header.Session, Subtotal: header.Subtotal, Lines: lines}
	if next.Session.ID == "" {
		next.Session.ID = cartID
	}
	if next.Lines == nil {
		next.Lines = []model.CartLineItem{}
	}
	if err := next.Validate(); err != nil {
		r.logger.Warn("cart refresh returned invalid money", slog.String("cart_id", cartID), slog.Any("error", err))
		return model.NewGatewayError("cart", err)
	}

	r.publish(next)
	r.persist(ctx, next.Session)
	r.logger.Debug("cart refreshed",
		slog.String("cart_id", next.Session.ID),
		slog.Int("lines", len(next.Lines)),
	)
	return nil
}

// replaceLocked creates a new cart after the remote reported the old one gone.
func (r *Reconciler) replaceLocked(ctx context.Context, goneID string) error {
	r.logger.Warn("remote cart gone, creating a replacement", slog.String("cart_id", goneID))

	sess, err := r.gw.CreateCart(ctx, nil)
	if err == nil && !sess.Valid() {
		err = errors.New("create cart returned no id")
	}
	if err != nil {
		return gatewayError("cartCreate", err)
	}

	r.publish(model.Cart{
		Session:  *sess,
		Subtotal: model.Money{CurrencyCode: r.Snapshot().Subtotal.CurrencyCode},
		Lines:    []model.CartLineItem{},
	})
	r.persist(ctx, *sess)
	return nil
}

// persist saves the session. Failures are logged by the store and never block.
func (r *Reconciler) persist(ctx context.Context, sess model.CartSession) {
	_ = r.store.Persist(ctx, sess)
}

func (r *Reconciler) publish(c model.Cart) {
	r.snapMu.Lock()
	r.snapshot = c
	r.snapMu.Unlock()

	if r.onPublish != nil {
		r.onPublish(c.Clone())
	}
}

func (r *Reconciler) setState(s State) {
	r.snapMu.Lock()
	defer r.snapMu.Unlock()
	r.state = s
}

// ready reports whether cart operations may run.
// Mutating counts as ready: the caller queues behind the in-flight mutation.
func (r *Reconciler) ready() error {
	switch s := r.State(); s {
	case Ready, Mutating:
		return nil
	case Degraded:
		return model.NewSessionUnavailableError(nil)
	default:
		return model.NewNotReadyError(s.String())
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.state
}

// Busy reports whether a mutation is in flight.
func (r *Reconciler) Busy() bool {
	return r.busy.Load()
}

// Snapshot returns a copy of the last published cart.
// After a restore the session header comes from the persisted blob and Lines is empty
// until the first Refresh; TotalQuantity may be non-zero meanwhile.
func (r *Reconciler) Snapshot() model.Cart {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snapshot.Clone()
}

// CheckoutURL returns the current checkout URL for handing off to checkout.
func (r *Reconciler) CheckoutURL() (string, error) {
	if err := r.ready(); err != nil {
		return "", err
	}
	url := r.Snapshot().Session.CheckoutURL
	if url == "" {
		return "", model.NewNotReadyError("missing a checkout url")
	}
	return url, nil
}

// gatewayError keeps structured errors as they are and wraps anything else.
func gatewayError(op string, err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return model.NewGatewayError(op, err)
}

package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/gateway"
	"storefront/internal/model"
	"storefront/internal/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newFake() *gateway.Fake {
	f := gateway.NewFake("USD")
	compareAt := model.NewMoney("15.00", "USD")
	f.AddProduct(gateway.FakeProduct{
		Product: model.Product{ID: "gid://product/1", Title: "Canvas Tote"},
		Variants: []model.Variant{
			{ID: "gid://variant/9", Title: "Natural", Price: model.NewMoney("12.50", "USD"), CompareAtPrice: &compareAt, Stock: 8},
			{ID: "gid://variant/10", Title: "Black", Price: model.NewMoney("14.00", "USD"), Stock: 2},
		},
	})
	return f
}

func newReady(t *testing.T, gw gateway.CartGateway, opts Options) (*Reconciler, *session.Store) {
	t.Helper()
	store := session.NewStore(session.NewMemoryKV(), nil)
	r := New(gw, store, opts)
	require.NoError(t, r.Initialize(context.Background()))
	return r, store
}

func TestInitialize_EmptyStoreCreatesCart(t *testing.T) {
	f := newFake()
	store := session.NewStore(session.NewMemoryKV(), nil)
	r := New(f, store, Options{})

	assert.Equal(t, Uninitialized, r.State())
	require.NoError(t, r.Initialize(context.Background()))

	assert.Equal(t, Ready, r.State())
	assert.Equal(t, "gid://cart/1", r.Snapshot().Session.ID)

	persisted := store.Restore(context.Background())
	require.NotNil(t, persisted)
	assert.Equal(t, "gid://cart/1", persisted.ID)
	assert.Equal(t, 1, f.Calls("CreateCart"))
}

func TestInitialize_RestoresWithoutCreate(t *testing.T) {
	f := newFake()
	store := session.NewStore(session.NewMemoryKV(), nil)
	require.NoError(t, store.Persist(context.Background(), model.CartSession{
		ID:          "gid://cart/1",
		CheckoutURL: "https://checkout.example.com/cart/1",
	}))

	r := New(f, store, Options{})
	require.NoError(t, r.Initialize(context.Background()))

	assert.Equal(t, Ready, r.State())
	assert.Equal(t, "gid://cart/1", r.Snapshot().Session.ID)
	assert.Equal(t, 0, f.Calls("CreateCart"))
	assert.Equal(t, 0, f.Calls("FetchCart"))
}

func TestInitialize_RestoredLinesArriveWithRefresh(t *testing.T) {
	f := newFake()
	ctx := context.Background()
	sess, err := f.CreateCart(ctx, []model.LineInput{{VariantID: "gid://variant/9", Quantity: 2}})
	require.NoError(t, err)

	store := session.NewStore(session.NewMemoryKV(), nil)
	require.NoError(t, store.Persist(ctx, *sess))

	r := New(f, store, Options{})
	require.NoError(t, r.Initialize(ctx))

	snap := r.Snapshot()
	assert.Equal(t, 2, snap.Session.TotalQuantity)
	assert.Empty(t, snap.Lines)

	require.NoError(t, r.Refresh(ctx))
	snap = r.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestInitialize_Idempotent(t *testing.T) {
	f := newFake()
	kv := session.NewMemoryKV()
	ctx := context.Background()

	r := New(f, session.NewStore(kv, nil), Options{})
	require.NoError(t, r.Initialize(ctx))
	first := r.Snapshot().Session.ID
	require.NoError(t, r.Initialize(ctx))
	assert.Equal(t, first, r.Snapshot().Session.ID)

	// A restart over the same store restores the same cart.
	restarted := New(f, session.NewStore(kv, nil), Options{})
	require.NoError(t, restarted.Initialize(ctx))
	assert.Equal(t, first, restarted.Snapshot().Session.ID)
	assert.Equal(t, 1, f.Calls("CreateCart"))
}

func TestInitialize_CreateFailureDegrades(t *testing.T) {
	var calls atomic.Int32
	m := &gateway.Mock{
		CreateCartFunc: func(ctx context.Context, lines []model.LineInput) (*model.CartSession, error) {
			calls.Add(1)
			return nil, errors.New("connection refused")
		},
		AddCartLinesFunc: func(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error) {
			calls.Add(1)
			return nil, nil
		},
		FetchCartFunc: func(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
			calls.Add(1)
			return nil, nil
		},
	}
	r := New(m, session.NewStore(session.NewMemoryKV(), nil), Options{})
	ctx := context.Background()

	err := r.Initialize(ctx)
	require.ErrorIs(t, err, model.ErrSessionUnavailable)
	assert.Equal(t, Degraded, r.State())
	assert.Equal(t, int32(1), calls.Load())

	assert.ErrorIs(t, r.AddLine(ctx, "gid://variant/9", 1), model.ErrSessionUnavailable)
	assert.ErrorIs(t, r.UpdateLineQuantity(ctx, "l1", 2), model.ErrSessionUnavailable)
	assert.ErrorIs(t, r.RemoveLine(ctx, "l1"), model.ErrSessionUnavailable)
	assert.ErrorIs(t, r.SyncLines(ctx, nil), model.ErrSessionUnavailable)
	assert.ErrorIs(t, r.Refresh(ctx), model.ErrSessionUnavailable)
	assert.ErrorIs(t, r.Initialize(ctx), model.ErrSessionUnavailable)
	_, err = r.CheckoutURL()
	assert.ErrorIs(t, err, model.ErrSessionUnavailable)

	assert.Equal(t, int32(1), calls.Load(), "degraded reconciler must not call the remote")
}

func TestOperationsBeforeInitialize(t *testing.T) {
	r := New(newFake(), session.NewStore(session.NewMemoryKV(), nil), Options{})
	ctx := context.Background()

	assert.ErrorIs(t, r.AddLine(ctx, "gid://variant/9", 1), model.ErrNotReady)
	assert.ErrorIs(t, r.Refresh(ctx), model.ErrNotReady)
}

func TestAddLine_RefreshShowsLine(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 3))

	snap := r.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.Equal(t, "gid://variant/9", snap.Lines[0].VariantID)
	assert.True(t, snap.Subtotal.Amount.Equal(model.NewMoney("12.50", "USD").Mul(3).Amount))
	assert.Equal(t, "$37.50", snap.Subtotal.Format())
	assert.Equal(t, 3, snap.Session.TotalQuantity)
	assert.Equal(t, Ready, r.State())
	assert.False(t, r.Busy())
}

func TestAddLine_Validation(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, r.AddLine(ctx, "gid://variant/9", 0), model.ErrInvalidRequest)
	assert.ErrorIs(t, r.AddLine(ctx, "", 1), model.ErrInvalidRequest)
	assert.ErrorIs(t, r.UpdateLineQuantity(ctx, "l1", -1), model.ErrInvalidRequest)
	assert.ErrorIs(t, r.RemoveLine(ctx, ""), model.ErrInvalidRequest)
	assert.Equal(t, 0, f.Calls("AddCartLines"))
}

func TestUpdateLineQuantity_ZeroDropsLine(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 1))
	require.NoError(t, r.AddLine(ctx, "gid://variant/10", 1))
	lineID := r.Snapshot().Lines[0].LineID

	require.NoError(t, r.UpdateLineQuantity(ctx, lineID, 0))
	require.NoError(t, r.Refresh(ctx))

	_, found := r.Snapshot().Line(lineID)
	assert.False(t, found)
	assert.Len(t, r.Snapshot().Lines, 1)
}

func TestRemoveLine(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 2))
	lineID := r.Snapshot().Lines[0].LineID

	require.NoError(t, r.RemoveLine(ctx, lineID))
	assert.Empty(t, r.Snapshot().Lines)
	assert.True(t, r.Snapshot().Subtotal.IsZero())
}

func TestRefresh_PublishesOnceAfterAllPages(t *testing.T) {
	price := model.NewMoney("1.00", "USD")
	pages := map[string]*model.CartPage{
		"": {
			Session:  model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1", TotalQuantity: 3},
			Subtotal: model.NewMoney("3.00", "USD"),
			Lines: model.Page[model.CartLineItem]{
				Items:    []model.CartLineItem{{LineID: "l1", VariantID: "v1", Price: price, Quantity: 1}},
				PageInfo: model.PageInfo{HasNextPage: true, EndCursor: "p1"},
			},
		},
		"p1": {
			Session:  model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1", TotalQuantity: 3},
			Subtotal: model.NewMoney("3.00", "USD"),
			Lines: model.Page[model.CartLineItem]{
				Items:    []model.CartLineItem{{LineID: "l2", VariantID: "v2", Price: price, Quantity: 2}},
				PageInfo: model.PageInfo{HasNextPage: false},
			},
		},
	}

	secondPage := make(chan struct{})
	release := make(chan struct{})
	var cursors []string
	m := &gateway.Mock{
		CreateCartFunc: func(ctx context.Context, lines []model.LineInput) (*model.CartSession, error) {
			return &model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1"}, nil
		},
		FetchCartFunc: func(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
			cursors = append(cursors, cursor)
			assert.Equal(t, 1, count, "page size stays fixed")
			if cursor == "p1" {
				close(secondPage)
				<-release
			}
			return pages[cursor], nil
		},
	}

	var (
		mu        sync.Mutex
		published []model.Cart
	)
	r, _ := newReady(t, m, Options{PageSize: 1, OnPublish: func(c model.Cart) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, c)
	}})
	mu.Lock()
	published = nil
	mu.Unlock()

	done := make(chan error)
	go func() { done <- r.Refresh(context.Background()) }()

	<-secondPage
	// Page 1 has arrived but the observer still sees the previous snapshot.
	assert.Empty(t, r.Snapshot().Lines)
	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.Len(t, published[0].Lines, 2)
	assert.Equal(t, []string{"", "p1"}, cursors)
	assert.Len(t, r.Snapshot().Lines, 2)
}

func TestMutation_IgnoresEcho(t *testing.T) {
	fetched := &model.CartPage{
		Session:  model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1", TotalQuantity: 3},
		Subtotal: model.NewMoney("37.50", "USD"),
		Lines: model.Page[model.CartLineItem]{Items: []model.CartLineItem{{
			LineID:            "gid://line/1",
			VariantID:         "gid://variant/9",
			Price:             model.NewMoney("12.50", "USD"),
			Quantity:          3,
			QuantityAvailable: 7,
		}}},
	}
	m := &gateway.Mock{
		CreateCartFunc: func(ctx context.Context, lines []model.LineInput) (*model.CartSession, error) {
			return &model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1"}, nil
		},
		AddCartLinesFunc: func(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error) {
			return &model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://echo/stale", TotalQuantity: 99}, nil
		},
		FetchCartFunc: func(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
			return fetched, nil
		},
	}
	r, store := newReady(t, m, Options{})

	require.NoError(t, r.AddLine(context.Background(), "gid://variant/9", 3))

	snap := r.Snapshot()
	assert.Equal(t, 3, snap.Session.TotalQuantity)
	assert.Equal(t, "https://c/1", snap.Session.CheckoutURL)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 7, snap.Lines[0].QuantityAvailable)

	persisted := store.Restore(context.Background())
	require.NotNil(t, persisted)
	assert.Equal(t, 3, persisted.TotalQuantity)
}

func TestMutation_FailureKeepsSnapshot(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 1))
	before := r.Snapshot()

	f.FailNext("AddCartLines", errors.New("timeout"))
	err := r.AddLine(ctx, "gid://variant/10", 1)
	require.ErrorIs(t, err, model.ErrGateway)

	assert.Equal(t, before, r.Snapshot())
	assert.Equal(t, Ready, r.State())
	assert.False(t, r.Busy())
}

func TestMutation_RefreshFailureKeepsSnapshot(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	f.FailNext("FetchCart", errors.New("timeout"))
	err := r.AddLine(ctx, "gid://variant/9", 1)
	require.ErrorIs(t, err, model.ErrGateway)
	assert.Empty(t, r.Snapshot().Lines)

	require.NoError(t, r.Refresh(ctx))
	assert.Len(t, r.Snapshot().Lines, 1)
}

func TestRefresh_InvalidMoneyKeepsSnapshot(t *testing.T) {
	good := &model.CartPage{
		Session:  model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1", TotalQuantity: 1},
		Subtotal: model.NewMoney("12.50", "USD"),
		Lines: model.Page[model.CartLineItem]{Items: []model.CartLineItem{
			{LineID: "l1", VariantID: "v1", Price: model.NewMoney("12.50", "USD"), Quantity: 1},
		}},
	}
	bad := &model.CartPage{
		Session:  good.Session,
		Subtotal: model.NewMoney("-12.50", "USD"),
		Lines: model.Page[model.CartLineItem]{Items: []model.CartLineItem{
			{LineID: "l1", VariantID: "v1", Price: model.NewMoney("-12.50", "USD"), Quantity: 1},
		}},
	}
	current := good
	m := &gateway.Mock{
		CreateCartFunc: func(ctx context.Context, lines []model.LineInput) (*model.CartSession, error) {
			return &model.CartSession{ID: "gid://cart/1", CheckoutURL: "https://c/1"}, nil
		},
		FetchCartFunc: func(ctx context.Context, cartID string, count int, cursor string) (*model.CartPage, error) {
			return current, nil
		},
	}
	r, _ := newReady(t, m, Options{})
	ctx := context.Background()
	require.NoError(t, r.Refresh(ctx))

	current = bad
	err := r.Refresh(ctx)
	require.ErrorIs(t, err, model.ErrGateway)
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	snap := r.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "$12.50", snap.Lines[0].Price.Format())
	assert.Equal(t, "$12.50", snap.Subtotal.Format())
	assert.Equal(t, Ready, r.State())
}

// slowFake tracks how many AddCartLines calls overlap.
type slowFake struct {
	*gateway.Fake
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	busySeen atomic.Bool
	r        *Reconciler
}

func (s *slowFake) AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.CartSession, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	if n > s.maxSeen.Load() {
		s.maxSeen.Store(n)
	}
	if s.r != nil && s.r.Busy() && s.r.State() == Mutating {
		s.busySeen.Store(true)
	}
	time.Sleep(5 * time.Millisecond)
	return s.Fake.AddCartLines(ctx, cartID, lines)
}

func TestMutations_AreSerialized(t *testing.T) {
	sf := &slowFake{Fake: newFake()}
	r, _ := newReady(t, sf, Options{})
	sf.r = r

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.AddLine(context.Background(), "gid://variant/9", 1))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), sf.maxSeen.Load())
	assert.True(t, sf.busySeen.Load())
	assert.False(t, r.Busy())
	require.Len(t, r.Snapshot().Lines, 1)
	assert.Equal(t, 5, r.Snapshot().Lines[0].Quantity)
}

func TestRefresh_ReplacesGoneCart(t *testing.T) {
	f := newFake()
	r, store := newReady(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 1))
	f.DeleteCart("gid://cart/1")

	require.NoError(t, r.Refresh(ctx))
	snap := r.Snapshot()
	assert.Equal(t, "gid://cart/2", snap.Session.ID)
	assert.Empty(t, snap.Lines)
	assert.Equal(t, "gid://cart/2", store.Restore(ctx).ID)
}

func TestMutation_GoneCartIsReplaced(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	f.DeleteCart("gid://cart/1")
	err := r.AddLine(ctx, "gid://variant/9", 1)
	require.ErrorIs(t, err, model.ErrCartNotFound)

	assert.Equal(t, "gid://cart/2", r.Snapshot().Session.ID)
	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 1))
	assert.Len(t, r.Snapshot().Lines, 1)
}

func TestSyncLines(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	ctx := context.Background()

	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 1))

	require.NoError(t, r.SyncLines(ctx, []DesiredLine{{VariantID: "gid://variant/10", Quantity: 2}}))
	snap := r.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "gid://variant/10", snap.Lines[0].VariantID)
	assert.Equal(t, 2, snap.Lines[0].Quantity)

	require.NoError(t, r.SyncLines(ctx, []DesiredLine{{VariantID: "gid://variant/10", Quantity: 4}, {VariantID: "gid://variant/9", Quantity: 1}}))
	snap = r.Snapshot()
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, 5, snap.Session.TotalQuantity)

	calls := f.Calls("AddCartLines")
	require.NoError(t, r.SyncLines(ctx, []DesiredLine{{VariantID: "gid://variant/10", Quantity: 4}, {VariantID: "gid://variant/9", Quantity: 1}}))
	assert.Equal(t, calls, f.Calls("AddCartLines"), "no-op sync sends no mutation")

	assert.ErrorIs(t, r.SyncLines(ctx, []DesiredLine{{VariantID: "x", Quantity: -1}}), model.ErrInvalidRequest)
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (failingKV) Set(context.Context, string, string) error         { return errors.New("read-only fs") }

func TestPersistFailureDoesNotBlock(t *testing.T) {
	f := newFake()
	r := New(f, session.NewStore(failingKV{}, nil), Options{})
	ctx := context.Background()

	require.NoError(t, r.Initialize(ctx))
	require.NoError(t, r.AddLine(ctx, "gid://variant/9", 2))
	assert.Equal(t, 2, r.Snapshot().Session.TotalQuantity)
}

func TestCheckoutURL(t *testing.T) {
	f := newFake()
	r := New(f, session.NewStore(session.NewMemoryKV(), nil), Options{})

	_, err := r.CheckoutURL()
	assert.ErrorIs(t, err, model.ErrNotReady)

	require.NoError(t, r.Initialize(context.Background()))
	url, err := r.CheckoutURL()
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/cart/1", url)
}

func TestSnapshotIsCopy(t *testing.T) {
	f := newFake()
	r, _ := newReady(t, f, Options{})
	require.NoError(t, r.AddLine(context.Background(), "gid://variant/9", 1))

	snap := r.Snapshot()
	snap.Lines[0].Quantity = 42
	snap.Lines[0].CompareAtPrice.CurrencyCode = "EUR"

	fresh := r.Snapshot()
	assert.Equal(t, 1, fresh.Lines[0].Quantity)
	assert.Equal(t, "USD", fresh.Lines[0].CompareAtPrice.CurrencyCode)
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Uninitialized: "uninitialized",
		Creating:      "creating",
		Ready:         "ready",
		Mutating:      "mutating",
		Degraded:      "degraded",
		State(99):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

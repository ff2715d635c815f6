package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/notify"
	cartrepo "storefront/internal/repository/cart"
)

type stubCartRepo struct {
	carts     map[string]*domain.Cart
	saves     int
	saveErr   error
	deleted   []string
	assigned  string
	createErr error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: make(map[string]*domain.Cart)}
}

func ownerKey(o cartrepo.Owner) string {
	if o.CustomerID != "" {
		return "c:" + o.CustomerID
	}
	return "a:" + o.AnonymousID
}

func (r *stubCartRepo) GetActive(_ context.Context, owner cartrepo.Owner) (*domain.Cart, error) {
	c, ok := r.carts[ownerKey(owner)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	clone.Lines = append([]domain.CartLineItem(nil), c.Lines...)
	return &clone, nil
}

func (r *stubCartRepo) Create(_ context.Context, owner cartrepo.Owner) (*domain.Cart, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	c := &domain.Cart{ID: "cart-" + ownerKey(owner), State: domain.CartStateActive}
	if owner.CustomerID != "" {
		id := owner.CustomerID
		c.CustomerID = &id
	} else {
		id := owner.AnonymousID
		c.AnonymousID = &id
	}
	r.carts[ownerKey(owner)] = c
	clone := *c
	return &clone, nil
}

func (r *stubCartRepo) Save(_ context.Context, cart *domain.Cart) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	for k, c := range r.carts {
		if c.ID == cart.ID {
			clone := *cart
			clone.Lines = append([]domain.CartLineItem(nil), cart.Lines...)
			r.carts[k] = &clone
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *stubCartRepo) AssignCustomerToAnonymous(_ context.Context, anonymousID, customerID string) (*domain.Cart, error) {
	c, ok := r.carts["a:"+anonymousID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.carts, "a:"+anonymousID)
	c.AnonymousID = nil
	c.CustomerID = &customerID
	r.carts["c:"+customerID] = c
	r.assigned = c.ID
	return c, nil
}

func (r *stubCartRepo) Delete(_ context.Context, id string) error {
	for k, c := range r.carts {
		if c.ID == id {
			delete(r.carts, k)
			r.deleted = append(r.deleted, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

type stubProductRepo map[string]domain.Product

func (r stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := r[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

type recordingNotifier struct {
	got []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note notify.Notification) {
	n.got = append(n.got, note)
}

func (n *recordingNotifier) last() notify.Notification {
	if len(n.got) == 0 {
		return notify.Notification{}
	}
	return n.got[len(n.got)-1]
}

func testProducts() stubProductRepo {
	return stubProductRepo{
		"shirt": {ID: "shirt", Name: "Ao thun", Price: 100000, Stock: 10},
		"cap":   {ID: "cap", Name: "Non", Price: 50000, Stock: 2},
		"gone":  {ID: "gone", Name: "Het hang", Price: 10000, Stock: 0},
	}
}

func TestAddItem_CreatesCartAndNotifies(t *testing.T) {
	repo := newStubCartRepo()
	notes := &recordingNotifier{}
	svc := New(repo, testProducts(), notes, 30000, nil)
	owner := Owner{AnonymousID: "anon-1"}

	cart, err := svc.AddItem(context.Background(), owner, "shirt", 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if cart.TotalItems() != 2 || repo.saves != 1 {
		t.Fatalf("unexpected cart %+v saves=%d", cart, repo.saves)
	}
	if got := svc.Totals(cart); got.FinalTotal != 230000 {
		t.Fatalf("unexpected totals %+v", got)
	}
	if n := notes.last(); n.Kind != notify.KindSuccess || n.Owner != "anonymous:anon-1" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestAddItem_Failures(t *testing.T) {
	repo := newStubCartRepo()
	notes := &recordingNotifier{}
	svc := New(repo, testProducts(), notes, 30000, nil)
	owner := Owner{CustomerID: "c1"}
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, owner, "gone", 1); !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
	if notes.last().Kind != notify.KindError {
		t.Fatalf("expected error notification, got %+v", notes.last())
	}
	if _, err := svc.AddItem(ctx, owner, "missing", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.saves != 0 {
		t.Fatalf("failed adds must not save, saves=%d", repo.saves)
	}

	repo.saveErr = errors.New("connection reset")
	if _, err := svc.AddItem(ctx, owner, "shirt", 1); err == nil {
		t.Fatalf("expected storage error")
	}
	if n := notes.last(); n.Kind != notify.KindError || n.Message != "Could not update cart, please try again" {
		t.Fatalf("unexpected notification %+v", n)
	}
	stored, _ := repo.GetActive(ctx, owner)
	if len(stored.Lines) != 0 {
		t.Fatalf("stored cart must be unchanged, got %+v", stored.Lines)
	}
}

func TestQuantityRemoveAndClear(t *testing.T) {
	repo := newStubCartRepo()
	svc := New(repo, testProducts(), nil, 30000, nil)
	owner := Owner{CustomerID: "c1"}
	ctx := context.Background()

	_, _ = svc.AddItem(ctx, owner, "shirt", 1)
	_, _ = svc.AddItem(ctx, owner, "cap", 1)

	cart, err := svc.UpdateQuantity(ctx, owner, "cap", 9)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if line, _ := cart.Line("cap"); line.Quantity != 2 {
		t.Fatalf("expected quantity capped at stock, got %d", line.Quantity)
	}
	if _, err := svc.UpdateQuantity(ctx, owner, "missing", 3); err != nil {
		t.Fatalf("unknown product must be a no-op, got %v", err)
	}

	cart, err = svc.RemoveItem(ctx, owner, "shirt")
	if err != nil || len(cart.Lines) != 1 {
		t.Fatalf("RemoveItem: %+v %v", cart, err)
	}
	cart, err = svc.Clear(ctx, owner)
	if err != nil || cart.TotalItems() != 0 {
		t.Fatalf("Clear: %+v %v", cart, err)
	}
}

func TestUpdateQuantity_UsesCurrentCatalogStock(t *testing.T) {
	repo := newStubCartRepo()
	products := testProducts()
	notes := &recordingNotifier{}
	svc := New(repo, products, notes, 30000, nil)
	owner := Owner{CustomerID: "c1"}
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, owner, "shirt", 1); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	shirt := products["shirt"]
	shirt.Stock = 2
	products["shirt"] = shirt

	cart, err := svc.UpdateQuantity(ctx, owner, "shirt", 9)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	line, _ := cart.Line("shirt")
	if line.Quantity != 2 || line.Product.Stock != 2 {
		t.Fatalf("expected quantity capped at current stock 2, got %+v", line)
	}

	shirt.Stock = 0
	products["shirt"] = shirt
	cart, err = svc.UpdateQuantity(ctx, owner, "shirt", 1)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if _, ok := cart.Line("shirt"); ok {
		t.Fatalf("sold out line must be removed, got %+v", cart.Lines)
	}
	if notes.last().Kind != notify.KindWarning {
		t.Fatalf("expected warning notification, got %+v", notes.last())
	}
}

func TestAddItem_BlankProductID(t *testing.T) {
	svc := New(newStubCartRepo(), testProducts(), nil, 30000, nil)
	if _, err := svc.AddItem(context.Background(), Owner{CustomerID: "c1"}, "   ", 1); !errors.Is(err, ErrProductRequired) {
		t.Fatalf("expected ErrProductRequired, got %v", err)
	}
}

func TestApplyCoupon(t *testing.T) {
	repo := newStubCartRepo()
	notes := &recordingNotifier{}
	svc := New(repo, testProducts(), notes, 30000, nil)
	owner := Owner{CustomerID: "c1"}
	ctx := context.Background()
	_, _ = svc.AddItem(ctx, owner, "shirt", 2)

	if _, err := svc.ApplyCoupon(ctx, owner, "nope"); !errors.Is(err, domain.ErrInvalidCoupon) {
		t.Fatalf("expected ErrInvalidCoupon, got %v", err)
	}
	if notes.last().Kind != notify.KindError {
		t.Fatalf("expected error notification, got %+v", notes.last())
	}

	cart, err := svc.ApplyCoupon(ctx, owner, "discount10")
	if err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if got := svc.Totals(cart); got.DiscountAmount != 20000 || got.FinalTotal != 210000 {
		t.Fatalf("unexpected totals %+v", got)
	}

	if _, err := svc.ApplyCoupon(ctx, owner, "DISCOUNT20"); !errors.Is(err, domain.ErrCouponLocked) {
		t.Fatalf("expected ErrCouponLocked, got %v", err)
	}
	if notes.last().Kind != notify.KindWarning {
		t.Fatalf("expected warning notification, got %+v", notes.last())
	}

	if err := svc.Reset(ctx, owner); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	stored, _ := repo.GetActive(ctx, owner)
	if stored.Coupon.Applied || len(stored.Lines) != 0 {
		t.Fatalf("expected reset cart, got %+v", stored)
	}
}

func TestMergeAnonymous(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns when customer has no cart", func(t *testing.T) {
		repo := newStubCartRepo()
		svc := New(repo, testProducts(), nil, 30000, nil)
		_, _ = svc.AddItem(ctx, Owner{AnonymousID: "a1"}, "shirt", 1)

		cart, err := svc.MergeAnonymous(ctx, "a1", "c1")
		if err != nil {
			t.Fatalf("MergeAnonymous: %v", err)
		}
		if repo.assigned == "" || cart.CustomerID == nil || *cart.CustomerID != "c1" {
			t.Fatalf("expected assignment, got %+v", cart)
		}
	})

	t.Run("merges into existing customer cart", func(t *testing.T) {
		repo := newStubCartRepo()
		svc := New(repo, testProducts(), nil, 30000, nil)
		_, _ = svc.AddItem(ctx, Owner{AnonymousID: "a1"}, "cap", 2)
		_, _ = svc.ApplyCoupon(ctx, Owner{AnonymousID: "a1"}, "DISCOUNT20")
		_, _ = svc.AddItem(ctx, Owner{CustomerID: "c1"}, "cap", 1)

		cart, err := svc.MergeAnonymous(ctx, "a1", "c1")
		if err != nil {
			t.Fatalf("MergeAnonymous: %v", err)
		}
		if line, _ := cart.Line("cap"); line.Quantity != 2 {
			t.Fatalf("merged quantity must stay within stock, got %d", line.Quantity)
		}
		if !cart.Coupon.Applied || cart.Coupon.Code != "DISCOUNT20" {
			t.Fatalf("expected coupon carried over, got %+v", cart.Coupon)
		}
		if len(repo.deleted) != 1 {
			t.Fatalf("expected anonymous cart deleted, got %v", repo.deleted)
		}
	})

	t.Run("no anonymous cart", func(t *testing.T) {
		repo := newStubCartRepo()
		svc := New(repo, testProducts(), nil, 30000, nil)
		cart, err := svc.MergeAnonymous(ctx, "a1", "c1")
		if err != nil || cart.CustomerID == nil {
			t.Fatalf("expected fresh customer cart, got %+v %v", cart, err)
		}
	})
}

func TestGet_RecoversFromCreateRace(t *testing.T) {
	repo := newStubCartRepo()
	repo.createErr = domain.ErrAlreadyExists
	svc := New(repo, testProducts(), nil, 30000, nil)
	if _, err := svc.Get(context.Background(), Owner{CustomerID: "c1"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected re-read after race, got %v", err)
	}
	if _, err := svc.Get(context.Background(), Owner{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without owner, got %v", err)
	}
}

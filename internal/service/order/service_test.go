package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/notify"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
)

type stubOrderRepo struct {
	orders      []domain.Order
	placeErr    error
	placedCart  string
	lastFilter  orderrepo.ListFilter
	updateCalls int
}

func (r *stubOrderRepo) PlaceFromCart(_ context.Context, o domain.Order, cartID string) (*domain.Order, error) {
	if r.placeErr != nil {
		return nil, r.placeErr
	}
	o.ID = int64(len(r.orders) + 1)
	r.orders = append(r.orders, o)
	r.placedCart = cartID
	return &o, nil
}

func (r *stubOrderRepo) List(_ context.Context, f orderrepo.ListFilter) ([]domain.Order, int, error) {
	r.lastFilter = f
	var matched []domain.Order
	for _, o := range r.orders {
		if f.Status == "" || o.Status == f.Status {
			matched = append(matched, o)
		}
	}
	end := f.Offset + f.Limit
	if f.Offset > len(matched) {
		return nil, len(matched), nil
	}
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], len(matched), nil
}

func (r *stubOrderRepo) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	for i := range r.orders {
		if r.orders[i].ID == id {
			o := r.orders[i]
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id int64, from, to domain.OrderStatus, note string) (*domain.Order, error) {
	r.updateCalls++
	for i := range r.orders {
		if r.orders[i].ID != id {
			continue
		}
		if r.orders[i].Status != from {
			return nil, domain.ErrInvalidTransition
		}
		r.orders[i].Status = to
		if note != "" {
			r.orders[i].Note = note
		}
		o := r.orders[i]
		return &o, nil
	}
	return nil, domain.ErrNotFound
}

type stubCartRepo struct {
	cart *domain.Cart
}

func (r stubCartRepo) GetActive(_ context.Context, _ cartrepo.Owner) (*domain.Cart, error) {
	if r.cart == nil {
		return nil, domain.ErrNotFound
	}
	return r.cart, nil
}

type stubPublisher struct {
	keys []string
	err  error
}

func (p *stubPublisher) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

type recordingNotifier struct {
	got []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, note notify.Notification) {
	n.got = append(n.got, note)
}

var validShipping = domain.ShippingInfo{RecipientName: "Nguyen Van A", Phone: "0901234567", Address: "1 Le Loi"}

func cartWithShirt(t *testing.T) *domain.Cart {
	t.Helper()
	c := &domain.Cart{ID: "cart-1", State: domain.CartStateActive}
	if err := c.AddItem(domain.Product{ID: "p1", Name: "Ao thun", Price: 100000, Stock: 5}, 2); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return c
}

func TestPlaceFromCart(t *testing.T) {
	repo := &stubOrderRepo{}
	pub := &stubPublisher{}
	notes := &recordingNotifier{}
	cart := cartWithShirt(t)
	_ = cart.ApplyCoupon("DISCOUNT10")
	svc := New(repo, stubCartRepo{cart: cart}, Options{ShippingFee: 30000, Notifier: notes, Publisher: pub})

	o, err := svc.PlaceFromCart(context.Background(), "c1", validShipping)
	if err != nil {
		t.Fatalf("PlaceFromCart: %v", err)
	}
	if o.ID != 1 || o.Totals.FinalTotal != 210000 || o.Status != domain.StatusAwaitingConfirmation {
		t.Fatalf("unexpected order %+v", o)
	}
	if repo.placedCart != "cart-1" {
		t.Fatalf("expected cart-1 retired, got %q", repo.placedCart)
	}
	if len(pub.keys) != 1 || pub.keys[0] != EventOrderPlaced {
		t.Fatalf("unexpected events %v", pub.keys)
	}
	if len(notes.got) != 1 || notes.got[0].Kind != notify.KindSuccess {
		t.Fatalf("unexpected notifications %+v", notes.got)
	}
}

func TestPlaceFromCart_Failures(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name     string
		cart     *domain.Cart
		shipping domain.ShippingInfo
		placeErr error
		want     error
	}{
		{"no cart", nil, validShipping, nil, domain.ErrEmptyCart},
		{"empty cart", &domain.Cart{ID: "c"}, validShipping, nil, domain.ErrEmptyCart},
		{"missing address", cartWithShirt(t), domain.ShippingInfo{RecipientName: "A", Phone: "1"}, nil, domain.ErrInvalidShipping},
		{"cart already ordered", cartWithShirt(t), validShipping, domain.ErrNotFound, domain.ErrEmptyCart},
	}
	for _, tc := range cases {
		notes := &recordingNotifier{}
		svc := New(&stubOrderRepo{placeErr: tc.placeErr}, stubCartRepo{cart: tc.cart}, Options{Notifier: notes})
		if _, err := svc.PlaceFromCart(ctx, "c1", tc.shipping); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if len(notes.got) != 1 || notes.got[0].Kind != notify.KindError {
			t.Fatalf("%s: expected one error notification, got %+v", tc.name, notes.got)
		}
	}
}

func seededRepo(n int) *stubOrderRepo {
	repo := &stubOrderRepo{}
	for i := 1; i <= n; i++ {
		status := domain.StatusAwaitingConfirmation
		if i%3 == 0 {
			status = domain.StatusProcessing
		}
		repo.orders = append(repo.orders, domain.Order{
			ID:       int64(i),
			Status:   status,
			Shipping: domain.ShippingInfo{RecipientName: fmt.Sprintf("Customer %d", i), Phone: fmt.Sprintf("09000000%02d", i)},
		})
	}
	return repo
}

func TestList_Pagination(t *testing.T) {
	repo := seededRepo(25)
	svc := New(repo, stubCartRepo{}, Options{PageSize: 10})
	ctx := context.Background()

	res, err := svc.List(ctx, ListInput{Page: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := Pagination{Page: 3, PageSize: 10, TotalPages: 3, Total: 25}
	if res.Pagination != want || len(res.Orders) != 5 {
		t.Fatalf("unexpected page %+v with %d orders", res.Pagination, len(res.Orders))
	}
	if repo.lastFilter.Offset != 20 || repo.lastFilter.Limit != 10 {
		t.Fatalf("unexpected filter %+v", repo.lastFilter)
	}

	res, err = svc.List(ctx, ListInput{Page: 0, Status: "processing"})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if res.Pagination.Page != 1 || res.Pagination.Total != 8 || res.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected pagination %+v", res.Pagination)
	}

	if _, err := svc.List(ctx, ListInput{Status: "refunded"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestList_KeywordFiltersFetchedPageOnly(t *testing.T) {
	repo := seededRepo(25)
	svc := New(repo, stubCartRepo{}, Options{PageSize: 10})

	res, err := svc.List(context.Background(), ListInput{Page: 1, Query: "Customer 21"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(res.Orders) != 0 || res.Pagination.Total != 25 {
		t.Fatalf("order 21 lives on page 3 and must not match page 1, got %+v", res.Orders)
	}

	res, _ = svc.List(context.Background(), ListInput{Page: 3, Query: "customer 21"})
	if len(res.Orders) != 1 || res.Orders[0].ID != 21 {
		t.Fatalf("expected order 21 on page 3, got %+v", res.Orders)
	}
}

func TestTransition(t *testing.T) {
	repo := seededRepo(3)
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := New(repo, stubCartRepo{}, Options{Publisher: pub})
	ctx := context.Background()

	o, err := svc.Transition(ctx, 1, domain.ActionApprove, "")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if o.Status != domain.StatusProcessing {
		t.Fatalf("unexpected status %s", o.Status)
	}
	if len(pub.keys) != 1 || pub.keys[0] != EventOrderStatusChanged {
		t.Fatalf("publish failures must not fail the transition, events=%v", pub.keys)
	}

	if _, err := svc.Transition(ctx, 1, domain.ActionApprove, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Transition(ctx, 2, domain.ActionReject, "  "); !errors.Is(err, ErrNoteRequired) {
		t.Fatalf("expected ErrNoteRequired, got %v", err)
	}
	o, err = svc.Transition(ctx, 2, domain.ActionReject, "out of stock")
	if err != nil || o.Status != domain.StatusCancelled || o.Note != "out of stock" {
		t.Fatalf("reject: %+v %v", o, err)
	}
	if _, err := svc.Transition(ctx, 99, domain.ActionApprove, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if repo.updateCalls != 2 {
		t.Fatalf("invalid transitions must not reach storage, calls=%d", repo.updateCalls)
	}
}

func TestGetForCustomer(t *testing.T) {
	repo := seededRepo(1)
	repo.orders[0].CustomerID = "c1"
	svc := New(repo, stubCartRepo{}, Options{})
	if _, err := svc.GetForCustomer(context.Background(), "c1", 1); err != nil {
		t.Fatalf("GetForCustomer: %v", err)
	}
	if _, err := svc.GetForCustomer(context.Background(), "c2", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

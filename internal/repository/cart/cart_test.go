package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository/repotest"
)

func TestPostgres_SaveRoundTripsLinesAndCoupon(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(t)
	p1 := repotest.InsertProduct(t, pool, "SKU1", 100000, 5, "phones")
	p2 := repotest.InsertProduct(t, pool, "SKU2", 25000, 2, "cases")

	repo := NewPostgres(pool, nil)
	owner := Owner{AnonymousID: "anon-1"}

	if _, err := repo.GetActive(ctx, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before create, got %v", err)
	}
	created, err := repo.Create(ctx, owner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Create(ctx, owner); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected one active cart per owner, got %v", err)
	}

	_ = created.AddItem(domain.Product{ID: p2, SKU: "SKU2", Price: 25000, Stock: 2}, 1)
	_ = created.AddItem(domain.Product{ID: p1, SKU: "SKU1", Price: 100000, Stock: 5}, 2)
	if err := created.ApplyCoupon("discount10"); err != nil {
		t.Fatalf("ApplyCoupon: %v", err)
	}
	if err := repo.Save(ctx, created); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetActive(ctx, owner)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if len(got.Lines) != 2 || got.Lines[0].Product.ID != p2 || got.Lines[1].Quantity != 2 {
		t.Fatalf("unexpected lines %+v", got.Lines)
	}
	if !got.Coupon.Applied || got.Coupon.Code != "DISCOUNT10" {
		t.Fatalf("unexpected coupon %+v", got.Coupon)
	}
	if totals := got.Totals(30000); totals.FinalTotal != 225000+30000-22500 {
		t.Fatalf("unexpected totals %+v", totals)
	}

	got.Clear()
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save cleared: %v", err)
	}
	cleared, err := repo.GetActive(ctx, owner)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if len(cleared.Lines) != 0 {
		t.Fatalf("expected no lines, got %+v", cleared.Lines)
	}
}

func TestPostgres_AssignCustomerToAnonymous(t *testing.T) {
	ctx := context.Background()
	pool := repotest.Pool(t)
	customerID := repotest.InsertCustomer(t, pool, "buyer@example.com", "customer")
	repo := NewPostgres(pool, nil)

	if _, err := repo.AssignCustomerToAnonymous(ctx, "anon-x", customerID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	created, err := repo.Create(ctx, Owner{AnonymousID: "anon-x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	assigned, err := repo.AssignCustomerToAnonymous(ctx, "anon-x", customerID)
	if err != nil {
		t.Fatalf("AssignCustomerToAnonymous: %v", err)
	}
	if assigned.ID != created.ID || assigned.CustomerID == nil || *assigned.CustomerID != customerID || assigned.AnonymousID != nil {
		t.Fatalf("unexpected cart %+v", assigned)
	}
	if err := repo.Delete(ctx, assigned.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

package seed

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

type stubProducts struct {
	items []domain.Product
	err   error
}

func (s *stubProducts) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, p)
	return &p, nil
}

type stubAccounts struct {
	inputs []customersvc.SignupInput
	roles  []domain.Role
}

func (s *stubAccounts) EnsureAccount(_ context.Context, in customersvc.SignupInput, role domain.Role) (*domain.Customer, error) {
	s.inputs = append(s.inputs, in)
	s.roles = append(s.roles, role)
	return &domain.Customer{ID: "admin", Email: in.Email, Role: role}, nil
}

func TestApply(t *testing.T) {
	products := &stubProducts{}
	accounts := &stubAccounts{}
	err := Apply(context.Background(), products, accounts, Admin{Email: "admin@example.com", Password: "ChangeMe123"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(products.items) != len(demoProducts) {
		t.Fatalf("expected %d products, got %d", len(demoProducts), len(products.items))
	}
	var outOfStock int
	for _, p := range products.items {
		if p.Price <= 0 || p.SKU == "" {
			t.Fatalf("invalid seed product: %+v", p)
		}
		if p.Stock == 0 {
			outOfStock++
		}
	}
	if outOfStock != 1 {
		t.Fatalf("expected one out of stock product, got %d", outOfStock)
	}
	if len(accounts.roles) != 1 || accounts.roles[0] != domain.RoleAdmin {
		t.Fatalf("expected admin account, got %+v", accounts.roles)
	}
}

func TestApply_SkipsAdminWithoutEmail(t *testing.T) {
	accounts := &stubAccounts{}
	if err := Apply(context.Background(), &stubProducts{}, accounts, Admin{}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(accounts.inputs) != 0 {
		t.Fatalf("expected no account, got %+v", accounts.inputs)
	}
}

func TestApply_ProductError(t *testing.T) {
	boom := errors.New("boom")
	err := Apply(context.Background(), &stubProducts{err: boom}, &stubAccounts{}, Admin{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

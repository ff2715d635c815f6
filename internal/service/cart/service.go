package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/notify"
	cartrepo "storefront/internal/repository/cart"
)

// ErrProductRequired is returned when a cart operation names no product.
var ErrProductRequired = errors.New("productId required")

// Owner identifies the session a cart belongs to.
type Owner = cartrepo.Owner

type Service struct {
	repo        cartRepo
	productRepo productRepo
	notifier    notify.Notifier
	shippingFee int64
	logger      *log.Logger
}

type cartRepo interface {
	GetActive(ctx context.Context, owner cartrepo.Owner) (*domain.Cart, error)
	Create(ctx context.Context, owner cartrepo.Owner) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	AssignCustomerToAnonymous(ctx context.Context, anonymousID, customerID string) (*domain.Cart, error)
	Delete(ctx context.Context, id string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo, notifier notify.Notifier, shippingFee int64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if notifier == nil {
		notifier = notify.Fanout{}
	}
	return &Service{repo: repo, productRepo: productRepo, notifier: notifier, shippingFee: shippingFee, logger: logger}
}

// Totals derives the payable amounts of cart with the configured shipping fee.
func (s *Service) Totals(cart *domain.Cart) domain.OrderTotals {
	return cart.Totals(s.shippingFee)
}

// Get returns the owner's active cart, creating an empty one on first use.
func (s *Service) Get(ctx context.Context, owner Owner) (*domain.Cart, error) {
	if owner.CustomerID == "" && owner.AnonymousID == "" {
		return nil, domain.ErrNotFound
	}
	cart, err := s.repo.GetActive(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	cart, err = s.repo.Create(ctx, owner)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost a creation race with a concurrent request of the same owner.
		return s.repo.GetActive(ctx, owner)
	}
	return cart, err
}

func (s *Service) AddItem(ctx context.Context, owner Owner, productID string, quantity int) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, ErrProductRequired
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.notify(ctx, owner, notify.KindError, "Product not found")
		} else {
			s.notify(ctx, owner, notify.KindError, "Could not add the product, please try again")
		}
		return nil, err
	}
	cart, err := s.mutate(ctx, owner, func(c *domain.Cart) error {
		return c.AddItem(*product, quantity)
	})
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			s.notify(ctx, owner, notify.KindError, fmt.Sprintf("%s is out of stock", product.Name))
		}
		return nil, err
	}
	s.notify(ctx, owner, notify.KindSuccess, fmt.Sprintf("Added %s to cart", product.Name))
	return cart, nil
}

// UpdateQuantity re-reads the product from the catalog before clamping, so
// the quantity never exceeds the current stock. Unknown lines are a no-op.
func (s *Service) UpdateQuantity(ctx context.Context, owner Owner, productID string, quantity int) (*domain.Cart, error) {
	var soldOut string
	cart, err := s.mutate(ctx, owner, func(c *domain.Cart) error {
		if _, ok := c.Line(productID); !ok {
			return nil
		}
		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if !c.RefreshProduct(*product) {
			soldOut = product.Name
			return nil
		}
		c.UpdateQuantity(productID, quantity)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.notify(ctx, owner, notify.KindError, "Product not found")
		}
		return nil, err
	}
	if soldOut != "" {
		s.notify(ctx, owner, notify.KindWarning, fmt.Sprintf("%s is out of stock and was removed from your cart", soldOut))
		return cart, nil
	}
	s.notify(ctx, owner, notify.KindSuccess, "Cart updated")
	return cart, nil
}

func (s *Service) RemoveItem(ctx context.Context, owner Owner, productID string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, owner, func(c *domain.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, owner, notify.KindSuccess, "Item removed from cart")
	return cart, nil
}

func (s *Service) Clear(ctx context.Context, owner Owner) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, owner, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, owner, notify.KindSuccess, "Cart cleared")
	return cart, nil
}

func (s *Service) ApplyCoupon(ctx context.Context, owner Owner, code string) (*domain.Cart, error) {
	cart, err := s.mutate(ctx, owner, func(c *domain.Cart) error {
		return c.ApplyCoupon(code)
	})
	switch {
	case errors.Is(err, domain.ErrInvalidCoupon):
		s.notify(ctx, owner, notify.KindError, "Invalid coupon code")
		return nil, err
	case errors.Is(err, domain.ErrCouponLocked):
		s.notify(ctx, owner, notify.KindWarning, "A coupon has already been applied")
		return nil, err
	case err != nil:
		return nil, err
	}
	s.notify(ctx, owner, notify.KindSuccess, fmt.Sprintf("Coupon %s applied", cart.Coupon.Code))
	return cart, nil
}

// Reset empties the customer's cart and releases its coupon.
func (s *Service) Reset(ctx context.Context, owner Owner) error {
	cart, err := s.repo.GetActive(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	cart.Clear()
	cart.ResetCoupon()
	return s.repo.Save(ctx, cart)
}

// MergeAnonymous hands the anonymous cart to the customer. When the customer
// already has an active cart the anonymous lines are merged into it and the
// anonymous cart is deleted.
func (s *Service) MergeAnonymous(ctx context.Context, anonymousID, customerID string) (*domain.Cart, error) {
	anon, err := s.repo.GetActive(ctx, Owner{AnonymousID: anonymousID})
	if errors.Is(err, domain.ErrNotFound) {
		return s.Get(ctx, Owner{CustomerID: customerID})
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetActive(ctx, Owner{CustomerID: customerID})
	if errors.Is(err, domain.ErrNotFound) {
		cart, err := s.repo.AssignCustomerToAnonymous(ctx, anonymousID, customerID)
		if err != nil {
			return nil, err
		}
		s.logger.Printf("cart: assigned id=%s customer_id=%s", cart.ID, customerID)
		return cart, nil
	}
	if err != nil {
		return nil, err
	}

	for _, line := range anon.Lines {
		if err := existing.AddItem(line.Product, line.Quantity); err != nil && !errors.Is(err, domain.ErrOutOfStock) {
			return nil, err
		}
	}
	if !existing.Coupon.Applied && anon.Coupon.Applied {
		existing.Coupon = anon.Coupon
	}
	if err := s.repo.Save(ctx, existing); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, anon.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	s.logger.Printf("cart: merged anonymous id=%s into id=%s lines=%d", anon.ID, existing.ID, len(anon.Lines))
	return existing, nil
}

// mutate loads the owner's cart, applies fn and persists the result. A
// failing fn leaves the stored cart untouched.
func (s *Service) mutate(ctx context.Context, owner Owner, fn func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.Get(ctx, owner)
	if err != nil {
		s.storageFailure(ctx, owner, "load", err)
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		s.storageFailure(ctx, owner, "save", err)
		return nil, err
	}
	return cart, nil
}

func (s *Service) storageFailure(ctx context.Context, owner Owner, op string, err error) {
	s.logger.Printf("cart: %s owner=%s error=%v", op, ownerLabel(owner), err)
	s.notify(ctx, owner, notify.KindError, "Could not update cart, please try again")
}

func (s *Service) notify(ctx context.Context, owner Owner, kind notify.Kind, message string) {
	s.notifier.Notify(ctx, notify.New(kind, ownerLabel(owner), message))
}

func ownerLabel(o Owner) string {
	if o.CustomerID != "" {
		return "customer:" + o.CustomerID
	}
	return "anonymous:" + o.AnonymousID
}

package order

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
	orderrepo "storefront/internal/repository/order"
)

var (
	// ErrNoteRequired is returned when an action needs an explanatory note.
	ErrNoteRequired = errors.New("a note is required for this action")
	// ErrInvalidInput wraps malformed listing parameters.
	ErrInvalidInput = errors.New("invalid input")
)

// Routing keys of the events published for order lifecycle changes.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status"
)

type orderRepo interface {
	PlaceFromCart(ctx context.Context, order domain.Order, cartID string) (*domain.Order, error)
	List(ctx context.Context, filter orderrepo.ListFilter) ([]domain.Order, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, note string) (*domain.Order, error)
}

type cartRepo interface {
	GetActive(ctx context.Context, owner cartrepo.Owner) (*domain.Cart, error)
}

// Publisher sends order events to other services.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, v interface{}) error
}

type Service struct {
	orders      orderRepo
	carts       cartRepo
	notifier    notify.Notifier
	publisher   Publisher
	shippingFee int64
	pageSize    int
	logger      *log.Logger
}

type Options struct {
	ShippingFee int64
	PageSize    int
	Notifier    notify.Notifier
	Publisher   Publisher
	Logger      *log.Logger
}

func New(orders orderRepo, carts cartRepo, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Fanout{}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	return &Service{
		orders:      orders,
		carts:       carts,
		notifier:    opts.Notifier,
		publisher:   opts.Publisher,
		shippingFee: opts.ShippingFee,
		pageSize:    opts.PageSize,
		logger:      opts.Logger,
	}
}

// PlaceFromCart turns the customer's active cart into an order. The cart is
// retired in the same transaction, so the customer's next cart starts empty
// with no coupon.
func (s *Service) PlaceFromCart(ctx context.Context, customerID string, shipping domain.ShippingInfo) (*domain.Order, error) {
	owner := "customer:" + customerID
	cart, err := s.carts.GetActive(ctx, cartrepo.Owner{CustomerID: customerID})
	if errors.Is(err, domain.ErrNotFound) {
		err = domain.ErrEmptyCart
	}
	if err != nil {
		s.fail(ctx, owner, err)
		return nil, err
	}
	o, err := domain.NewOrderFromCart(*cart, customerID, shipping, s.shippingFee)
	if err != nil {
		s.fail(ctx, owner, err)
		return nil, err
	}
	placed, err := s.orders.PlaceFromCart(ctx, o, cart.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrEmptyCart
		}
		s.fail(ctx, owner, err)
		return nil, err
	}
	s.logger.Printf("order: placed id=%d customer_id=%s total=%d", placed.ID, customerID, placed.Totals.FinalTotal)
	s.notifier.Notify(ctx, notify.New(notify.KindSuccess, owner, fmt.Sprintf("Order #%d placed", placed.ID)))
	s.publish(ctx, EventOrderPlaced, placed)
	return placed, nil
}

// Pagination describes one page of a listing. Pages are 1-based.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

type ListInput struct {
	Page       int
	Status     string
	Query      string
	CustomerID string
}

type ListResult struct {
	Orders     []domain.Order
	Pagination Pagination
}

// List returns one page of orders. The keyword query is applied to the
// fetched page, after pagination, so a page may hold fewer matches than
// exist overall.
func (s *Service) List(ctx context.Context, in ListInput) (*ListResult, error) {
	var status domain.OrderStatus
	if strings.TrimSpace(in.Status) != "" {
		st, ok := domain.ParseOrderStatus(in.Status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
		}
		status = st
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	orders, total, err := s.orders.List(ctx, orderrepo.ListFilter{
		Status:     status,
		CustomerID: in.CustomerID,
		Limit:      s.pageSize,
		Offset:     (page - 1) * s.pageSize,
	})
	if err != nil {
		s.logger.Printf("order: list page=%d status=%q error=%v", page, status, err)
		return nil, err
	}
	return &ListResult{
		Orders: domain.FilterOrders(orders, in.Query),
		Pagination: Pagination{
			Page:       page,
			PageSize:   s.pageSize,
			TotalPages: (total + s.pageSize - 1) / s.pageSize,
			Total:      total,
		},
	}, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// GetForCustomer hides orders of other customers behind domain.ErrNotFound.
func (s *Service) GetForCustomer(ctx context.Context, customerID string, id int64) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// Transition applies an administrative action to an order.
func (s *Service) Transition(ctx context.Context, id int64, action domain.OrderAction, note string) (*domain.Order, error) {
	note = strings.TrimSpace(note)
	if action.RequiresNote() && note == "" {
		return nil, ErrNoteRequired
	}
	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := action.Transition(current.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot %s an order that is %s", err, action, current.Status)
	}
	updated, err := s.orders.UpdateStatus(ctx, id, current.Status, next, note)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order: transition id=%d action=%s %s->%s", id, action, current.Status, next)
	s.publish(ctx, EventOrderStatusChanged, updated)
	return updated, nil
}

func (s *Service) fail(ctx context.Context, owner string, err error) {
	msg := "Could not place the order, please try again"
	switch {
	case errors.Is(err, domain.ErrEmptyCart):
		msg = "Your cart is empty"
	case errors.Is(err, domain.ErrInvalidShipping):
		msg = "Please fill in the recipient name, phone and address"
	default:
		s.logger.Printf("order: place owner=%s error=%v", owner, err)
	}
	s.notifier.Notify(ctx, notify.New(notify.KindError, owner, msg))
}

func (s *Service) publish(ctx context.Context, routingKey string, o *domain.Order) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, o); err != nil {
		s.logger.Printf("order: publish %s id=%d error=%v", routingKey, o.ID, err)
	}
}

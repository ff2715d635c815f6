package httpserver

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
)

type productService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type customerAuthService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*domain.Customer, string, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type anonymousService interface {
	Issue(ctx context.Context) (string, string, error)
	LookupByToken(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type cartService interface {
	Get(ctx context.Context, owner cartsvc.Owner) (*domain.Cart, error)
	AddItem(ctx context.Context, owner cartsvc.Owner, productID string, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, owner cartsvc.Owner, productID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, owner cartsvc.Owner, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, owner cartsvc.Owner) (*domain.Cart, error)
	ApplyCoupon(ctx context.Context, owner cartsvc.Owner, code string) (*domain.Cart, error)
	Reset(ctx context.Context, owner cartsvc.Owner) error
	MergeAnonymous(ctx context.Context, anonymousID, customerID string) (*domain.Cart, error)
	Totals(cart *domain.Cart) domain.OrderTotals
}

type orderService interface {
	List(ctx context.Context, in ordersvc.ListInput) (*ordersvc.ListResult, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	GetForCustomer(ctx context.Context, customerID string, id int64) (*domain.Order, error)
	Transition(ctx context.Context, id int64, action domain.OrderAction, note string) (*domain.Order, error)
}

type checkoutGate interface {
	Proceed(ctx context.Context, session checkout.Session, shipping domain.ShippingInfo) (checkout.Result, error)
}

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds the services the API routes call into.
type Deps struct {
	ProductSvc   productService
	CustomerSvc  customerAuthService
	AnonymousSvc anonymousService
	CartSvc      cartService
	OrderSvc     orderService
	Checkout     checkoutGate
	CORSOrigins  []string
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("httpserver: product service required")
	case d.CustomerSvc == nil:
		return errors.New("httpserver: customer service required")
	case d.AnonymousSvc == nil:
		return errors.New("httpserver: anonymous service required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service required")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout gate required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", anonymousTokenHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}
	api := router.Group("/", collectNotifications(), resolveSession(deps.CustomerSvc, deps.AnonymousSvc))

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/categories", h.listCategories)

	api.POST("/auth/signup", h.signup)
	api.POST("/auth/token", h.login)
	api.POST("/anonymous/token", h.anonymousToken)

	customer := api.Group("/", requireCustomer())
	customer.GET("/me", h.me)
	customer.POST("/auth/logout", h.logout)
	customer.GET("/me/orders", h.listMyOrders)
	customer.GET("/me/orders/:id", h.getMyOrder)

	cart := api.Group("/me/cart", requireSession())
	cart.GET("", h.getCart)
	cart.POST("/items", h.addCartItem)
	cart.DELETE("/items", h.clearCart)
	cart.PATCH("/items/:productId", h.updateCartItem)
	cart.DELETE("/items/:productId", h.removeCartItem)
	cart.POST("/coupon", h.applyCoupon)
	cart.POST("/checkout", h.checkout)

	admin := api.Group("/admin", requireCustomer(), requireStaff())
	admin.GET("/orders", h.adminListOrders)
	admin.GET("/orders/:id", h.adminGetOrder)
	admin.PATCH("/orders/:id/status", h.adminUpdateOrderStatus)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *log.Logger
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	"storefront/internal/notify"
	"storefront/internal/service/checkout"
)

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type checkoutRequest struct {
	Shipping domain.ShippingInfo `json:"shipping"`
}

func (h *handlers) respondCart(c *gin.Context, status int, cart *domain.Cart) {
	view := toCartView(cart, h.deps.CartSvc.Totals(cart))
	view.Notifications = notify.Collected(c.Request.Context())
	c.JSON(status, view)
}

func (h *handlers) getCart(c *gin.Context) {
	s, _ := sessionFrom(c)
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), s.owner())
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	s, _ := sessionFrom(c)
	cart, err := h.deps.CartSvc.AddItem(c.Request.Context(), s.owner(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "quantity required")
		return
	}
	s, _ := sessionFrom(c)
	cart, err := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), s.owner(), c.Param("productId"), req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	s, _ := sessionFrom(c)
	cart, err := h.deps.CartSvc.RemoveItem(c.Request.Context(), s.owner(), c.Param("productId"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) clearCart(c *gin.Context) {
	s, _ := sessionFrom(c)
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), s.owner())
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

func (h *handlers) applyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code required")
		return
	}
	s, _ := sessionFrom(c)
	cart, err := h.deps.CartSvc.ApplyCoupon(c.Request.Context(), s.owner(), req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	h.respondCart(c, http.StatusOK, cart)
}

// checkout runs the checkout gate. Anonymous callers get 401 with the login
// path to redirect to.
func (h *handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid checkout payload")
			return
		}
	}
	s, _ := sessionFrom(c)
	ctx := c.Request.Context()
	res, err := h.deps.Checkout.Proceed(ctx, s.checkout(), req.Shipping)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"state":         res.State,
			"error":         errorMessage(err),
			"notifications": notify.Collected(ctx),
		})
		return
	}
	if res.State != checkout.StateCheckout {
		c.JSON(http.StatusUnauthorized, gin.H{
			"state":         res.State,
			"redirectTo":    res.RedirectTo,
			"notifications": notify.Collected(ctx),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"state":         res.State,
		"order":         toOrderView(*res.Order),
		"notifications": notify.Collected(ctx),
	})
}

func errorMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

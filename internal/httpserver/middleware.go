package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	"storefront/internal/notify"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
)

const (
	sessionCtxKey        = "session"
	anonymousTokenHeader = "X-Anonymous-Token"
)

// session is the caller resolved from the bearer token.
type session struct {
	token       string
	customer    *domain.Customer
	anonymousID string
}

func (s session) owner() cartsvc.Owner {
	if s.customer != nil {
		return cartsvc.Owner{CustomerID: s.customer.ID}
	}
	return cartsvc.Owner{AnonymousID: s.anonymousID}
}

func (s session) checkout() checkout.Session {
	if s.customer != nil {
		return checkout.Session{CustomerID: s.customer.ID}
	}
	return checkout.Session{AnonymousID: s.anonymousID}
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("bearer "):])
}

// collectNotifications gathers the notifications raised while serving the
// request so handlers can return them.
func collectNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(notify.WithCollector(c.Request.Context()))
		c.Next()
	}
}

// resolveSession looks the bearer token up as a customer token first and as
// an anonymous token second. Unknown tokens leave the request without a
// session; the route guards decide whether that is acceptable.
func resolveSession(customers customerAuthService, anonymous anonymousService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		cust, err := customers.LookupByToken(ctx, token)
		if err == nil {
			c.Set(sessionCtxKey, session{token: token, customer: cust})
			c.Next()
			return
		}
		if !errors.Is(err, customersvc.ErrInvalidToken) {
			writeError(c, err)
			c.Abort()
			return
		}
		anonID, err := anonymous.LookupByToken(ctx, token)
		if err == nil {
			c.Set(sessionCtxKey, session{token: token, anonymousID: anonID})
			c.Next()
			return
		}
		if !errors.Is(err, anonymoussvc.ErrInvalidToken) {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionFrom(c *gin.Context) (session, bool) {
	v, ok := c.Get(sessionCtxKey)
	if !ok {
		return session{}, false
	}
	s, ok := v.(session)
	return s, ok
}

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessionFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Next()
	}
}

func requireCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := sessionFrom(c)
		if !ok || s.customer == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		c.Next()
	}
}

func requireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, _ := sessionFrom(c)
		if s.customer == nil || !s.customer.CanManageOrders() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin or seller role required"})
			return
		}
		c.Next()
	}
}

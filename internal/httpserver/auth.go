package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	customersvc "storefront/internal/service/customer"
)

type signupRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type tokenRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	Customer    customerView `json:"customer"`
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password required")
		return
	}
	cust, err := h.deps.CustomerSvc.Signup(c.Request.Context(), customersvc.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": toCustomerView(*cust)})
}

// login issues a customer token. When the request carries an anonymous
// token, that session's cart is handed to the customer and the anonymous
// token is revoked.
func (h *handlers) login(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "email and password required")
		return
	}
	ctx := c.Request.Context()
	cust, token, err := h.deps.CustomerSvc.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	if anonToken := strings.TrimSpace(c.GetHeader(anonymousTokenHeader)); anonToken != "" {
		anonID, err := h.deps.AnonymousSvc.LookupByToken(ctx, anonToken)
		if err == nil {
			if _, err := h.deps.CartSvc.MergeAnonymous(ctx, anonID, cust.ID); err != nil {
				h.logger.Printf("auth: merge anonymous cart customer_id=%s error=%v", cust.ID, err)
			} else if err := h.deps.AnonymousSvc.Revoke(ctx, anonToken); err != nil {
				h.logger.Printf("auth: revoke anonymous token error=%v", err)
			}
		}
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.CustomerSvc.AccessTTLSeconds(),
		Customer:    toCustomerView(*cust),
	})
}

func (h *handlers) me(c *gin.Context) {
	s, _ := sessionFrom(c)
	c.JSON(http.StatusOK, gin.H{"customer": toCustomerView(*s.customer)})
}

// logout revokes the token, then empties the cart and releases its coupon.
func (h *handlers) logout(c *gin.Context) {
	s, _ := sessionFrom(c)
	ctx := c.Request.Context()
	if err := h.deps.CustomerSvc.Logout(ctx, s.token); err != nil {
		writeError(c, err)
		return
	}
	if err := h.deps.CartSvc.Reset(ctx, s.owner()); err != nil {
		h.logger.Printf("auth: reset cart customer_id=%s error=%v", s.customer.ID, err)
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) anonymousToken(c *gin.Context) {
	token, anonID, err := h.deps.AnonymousSvc.Issue(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   h.deps.AnonymousSvc.AccessTTLSeconds(),
		"anonymous_id": anonID,
	})
}

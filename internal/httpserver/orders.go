package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"storefront/internal/domain"
	ordersvc "storefront/internal/service/order"
)

type statusUpdateRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

type statusUpdateResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Order   *orderView `json:"order,omitempty"`
}

var actionPastTense = map[domain.OrderAction]string{
	domain.ActionApprove: "approved",
	domain.ActionReject:  "rejected",
	domain.ActionShip:    "marked as shipping",
	domain.ActionDeliver: "marked as delivered",
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid order id")
		return 0, false
	}
	return id, true
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (h *handlers) listMyOrders(c *gin.Context) {
	s, _ := sessionFrom(c)
	res, err := h.deps.OrderSvc.List(c.Request.Context(), ordersvc.ListInput{
		Page:       pageParam(c),
		Status:     c.Query("status"),
		CustomerID: s.customer.ID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListView(res))
}

func (h *handlers) getMyOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	s, _ := sessionFrom(c)
	o, err := h.deps.OrderSvc.GetForCustomer(c.Request.Context(), s.customer.ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(*o))
}

func (h *handlers) adminListOrders(c *gin.Context) {
	res, err := h.deps.OrderSvc.List(c.Request.Context(), ordersvc.ListInput{
		Page:   pageParam(c),
		Status: c.Query("status"),
		Query:  c.Query("q"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderListView(res))
}

func (h *handlers) adminGetOrder(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderView(*o))
}

func (h *handlers) adminUpdateOrderStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, statusUpdateResponse{Status: "error", Message: "action required"})
		return
	}
	action := domain.OrderAction(strings.ToLower(strings.TrimSpace(req.Action)))
	past, known := actionPastTense[action]
	if !known {
		c.JSON(http.StatusBadRequest, statusUpdateResponse{Status: "error", Message: fmt.Sprintf("unknown action %q", req.Action)})
		return
	}
	o, err := h.deps.OrderSvc.Transition(c.Request.Context(), id, action, req.Note)
	if err != nil {
		c.JSON(statusFor(err), statusUpdateResponse{Status: "error", Message: errorMessage(err)})
		return
	}
	view := toOrderView(*o)
	c.JSON(http.StatusOK, statusUpdateResponse{
		Status:  "success",
		Message: fmt.Sprintf("Order #%d %s", o.ID, past),
		Order:   &view,
	})
}

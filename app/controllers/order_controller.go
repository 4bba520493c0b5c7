package controllers

import (
	"net/http"

	"github.com/mealgrid/mealgrid/app/services"
	"github.com/mealgrid/mealgrid/pkg/bind"
	"github.com/mealgrid/mealgrid/pkg/middleware"
	"github.com/mealgrid/mealgrid/pkg/response"
)

// OrderController records payment outcomes and serves purchase history.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (c *OrderController) Record(w http.ResponseWriter, r *http.Request) {
	var in services.OrderInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.orders.Record(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.CreatedMessage(w, "Order Details", result)
}

func (c *OrderController) Purchases(w http.ResponseWriter, r *http.Request) {
	history, err := c.orders.History(r.Context(), middleware.PrincipalID(r.Context()))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Success(w, history)
}

package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shashiranjanraj/diner/app/services"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/event"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/response"
	"github.com/shashiranjanraj/diner/pkg/ws"
)

type OrderController struct {
	orders   *services.OrderService
	payments *services.PaymentService
	hub      *ws.Hub
}

func NewOrderController(orders *services.OrderService, payments *services.PaymentService, hub *ws.Hub) *OrderController {
	return &OrderController{orders: orders, payments: payments, hub: hub}
}

// Store handles POST /v1/orders. A valid bearer token makes it a member
// order; otherwise it is a guest order.
func (c *OrderController) Store(w http.ResponseWriter, r *http.Request) {
	var in services.CreateOrderInput
	if !decode(w, r, &in) {
		return
	}

	var actor *auth.Identity
	if id, ok := auth.FromContext(r.Context()); ok {
		actor = &id
	}

	res, err := c.orders.Create(r.Context(), in, actor)
	if err != nil {
		fail(w, r, err, "Error creating order")
		return
	}

	body := map[string]interface{}{"order": res.Order}
	if res.Guest {
		body["message"] = "Order created successfully. Complete the payment to confirm your order."
	} else {
		body["message"] = fmt.Sprintf("Order created successfully. You will earn %d loyalty points after payment!", res.PointsEarned)
		body["pointsEarned"] = res.PointsEarned
	}
	response.Created(w, body)
}

// ConfirmPayment handles POST /v1/orders/{orderId}/confirm-payment.
func (c *OrderController) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "orderId", "order ID")
	if !ok {
		return
	}
	var in services.ConfirmPaymentInput
	if !decode(w, r, &in) {
		return
	}

	res, err := c.payments.Confirm(r.Context(), id, in.Status)
	if err != nil {
		fail(w, r, err, "Error confirming payment")
		return
	}
	if !res.Paid() {
		response.Error(w, http.StatusBadRequest, "Payment failed")
		return
	}

	body := map[string]interface{}{
		"message":       "Payment confirmed and order updated successfully",
		"pointsAwarded": res.PointsAwarded,
	}
	if res.AlreadyProcessed {
		body["alreadyProcessed"] = true
	}
	response.Success(w, body)
}

// UserOrders handles GET /v1/users/{userId}/orders.
func (c *OrderController) UserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(w, r, "userId", "user ID")
	if !ok {
		return
	}
	requester, err := auth.MustFromContext(r.Context())
	if err != nil {
		response.Unauthorized(w, "Access token required")
		return
	}

	orders, err := c.orders.ListForUser(r.Context(), userID, requester)
	if err != nil {
		fail(w, r, err, "Error fetching user orders")
		return
	}
	response.Success(w, orders)
}

// Events handles GET /v1/orders/{orderId}/events: a WebSocket that sends the
// current status, then every change.
func (c *OrderController) Events(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "orderId", "order ID")
	if !ok {
		return
	}
	if c.hub == nil {
		response.Error(w, http.StatusServiceUnavailable, "Order events are not available")
		return
	}

	order, err := c.orders.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Error fetching order")
		return
	}

	initial, err := json.Marshal(event.OrderStatusChanged{OrderID: order.ID, Status: string(order.Status)})
	if err != nil {
		fail(w, r, err, "Error fetching order")
		return
	}
	c.hub.Serve(w, r, OrderTopic(order.ID), initial)
}

// OrderTopic is the hub topic carrying one order's status changes.
func OrderTopic(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// Relay forwards order status events from bus to the order's hub topic.
// The returned function stops the relay.
func (c *OrderController) Relay(bus *event.Bus) (stop func()) {
	return bus.Listen(event.OrderStatus, func(ctx context.Context, payload interface{}) {
		ev, ok := payload.(event.OrderStatusChanged)
		if !ok {
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			logger.WithCtx(ctx).Warn("orders: encode status event", "error", err)
			return
		}
		c.hub.Publish(OrderTopic(ev.OrderID), data)
	})
}

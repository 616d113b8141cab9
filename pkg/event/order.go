package event

// OrderStatus is fired whenever an order is created or changes status.
const OrderStatus = "order.status"

// OrderStatusChanged is the OrderStatus payload.
type OrderStatusChanged struct {
	OrderID uint   `json:"orderId"`
	Status  string `json:"status"`
}

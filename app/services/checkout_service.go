package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/app/repositories"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/sumup"
)

// PaymentProvider opens hosted checkout sessions.
type PaymentProvider interface {
	AccessToken(ctx context.Context) (string, error)
	NewCheckoutRequest(orderID uint, amount decimal.Decimal) sumup.CheckoutRequest
	CreateCheckout(ctx context.Context, token string, req sumup.CheckoutRequest) (*sumup.Checkout, error)
}

// InitiateCheckoutInput is the checkout initiation payload.
type InitiateCheckoutInput struct {
	OrderID *int64 `json:"orderId" validate:"required,min=1" message:"Invalid order ID"`
}

func (InitiateCheckoutInput) TypeMessages() map[string]string {
	return map[string]string{"orderId": "Invalid order ID"}
}

// CheckoutResult identifies the provider session for an order.
type CheckoutResult struct {
	OrderID    uint   `json:"orderId"`
	CheckoutID string `json:"checkoutId"`
}

type CheckoutService struct {
	orders   *repositories.OrderRepository
	provider PaymentProvider
}

func NewCheckoutService(db *gorm.DB, provider PaymentProvider) *CheckoutService {
	return &CheckoutService{
		orders:   repositories.NewOrderRepository(db),
		provider: provider,
	}
}

// InitiateCheckout authenticates with the provider, opens a checkout for the
// order total and stores the checkout id on the order. Each call opens a new
// session and replaces the stored id. Provider failures leave the order
// PENDING.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, orderID uint) (*CheckoutResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "Order"}
	}
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", orderID, err)
	}
	if order.Status != models.StatusPending {
		return nil, &StateError{Message: fmt.Sprintf("Order is already %s", order.Status)}
	}

	token, err := s.provider.AccessToken(ctx)
	if err != nil {
		return nil, providerError(sumup.OpToken, err)
	}

	checkout, err := s.provider.CreateCheckout(ctx, token, s.provider.NewCheckoutRequest(order.ID, order.Total))
	if err != nil {
		return nil, providerError(sumup.OpCheckout, err)
	}

	if err := s.orders.SetCheckoutID(ctx, order.ID, checkout.ID); err != nil {
		return nil, fmt.Errorf("store checkout id: %w", err)
	}

	logger.WithCtx(ctx).Info("checkout: session opened", "order_id", order.ID, "checkout_id", checkout.ID)
	return &CheckoutResult{OrderID: order.ID, CheckoutID: checkout.ID}, nil
}

func providerError(op string, err error) *PaymentProviderError {
	detail := err.Error()
	var apiErr *sumup.APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Body
	}
	return &PaymentProviderError{Op: op, Detail: detail, Err: err}
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/app/repositories"
	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/pkg/auth"
	"github.com/shashiranjanraj/diner/pkg/event"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/metrics"
	"github.com/shashiranjanraj/diner/pkg/validate"
)

// OrderItemInput is one requested line. Price is accepted for compatibility
// but the menu price is always used.
type OrderItemInput struct {
	MenuItemID *int64           `json:"menuItemId" validate:"required,min=1" message:"Invalid menu item ID"`
	Quantity   *int             `json:"quantity"   validate:"required,min=1" message:"Quantity must be at least 1"`
	Price      *decimal.Decimal `json:"price,omitempty"`
}

// CreateOrderInput is the order placement payload. Total must equal the
// total computed from menu prices.
type CreateOrderInput struct {
	Items []OrderItemInput `json:"items" validate:"dive"`
	Total *decimal.Decimal `json:"total" validate:"required,min=0" message:"Total must be a positive number"`
}

func (CreateOrderInput) TypeMessages() map[string]string {
	return map[string]string{
		"items":            "Items must be an array",
		"items.menuItemId": "Invalid menu item ID",
		"items.quantity":   "Quantity must be at least 1",
		"total":            "Total must be a positive number",
	}
}

// CreateOrderResult is the placed order and the points it earns a member.
type CreateOrderResult struct {
	Order        *models.Order
	PointsEarned int
	Guest        bool
}

type OrderService struct {
	db      *gorm.DB
	orders  *repositories.OrderRepository
	menu    *repositories.MenuRepository
	loyalty *repositories.LoyaltyRepository
	mode    string
	bus     *event.Bus
}

// NewOrderService wires the service. Any mode other than
// config.LoyaltyOnPayment behaves as config.LoyaltyLegacy; bus may be nil.
func NewOrderService(db *gorm.DB, mode string, bus *event.Bus) *OrderService {
	return &OrderService{
		db:      db,
		orders:  repositories.NewOrderRepository(db),
		menu:    repositories.NewMenuRepository(db),
		loyalty: repositories.NewLoyaltyRepository(db),
		mode:    mode,
		bus:     bus,
	}
}

// Create validates the request, prices it from the menu and stores the
// order with its items in one transaction. actor is nil for guests.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput, actor *auth.Identity) (*CreateOrderResult, error) {
	if in.Items == nil {
		return nil, InvalidField("items", "Items must be an array")
	}
	if len(in.Items) == 0 {
		return nil, InvalidField("items", "Order must contain at least one item")
	}
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, Invalid(errs)
	}

	ids := make([]uint, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, uint(*it.MenuItemID))
	}
	menu, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load menu items: %w", err)
	}

	fields := map[string]string{}
	items := make([]models.OrderItem, 0, len(in.Items))
	for i, it := range in.Items {
		id := uint(*it.MenuItemID)
		mi, ok := menu[id]
		if !ok || !mi.IsAvailable {
			fields[fmt.Sprintf("items.%d.menuItemId", i)] = fmt.Sprintf("Menu item %d is not available", id)
			continue
		}
		items = append(items, models.OrderItem{MenuItemID: id, Quantity: *it.Quantity, Price: mi.Price})
	}
	if len(fields) > 0 {
		return nil, Invalid(fields)
	}

	total := models.SumItems(items)
	if !in.Total.Equal(total) {
		return nil, InvalidField("total", fmt.Sprintf("Total does not match the order items (expected %s)", total.StringFixed(2)))
	}

	order := &models.Order{Total: total, Status: models.StatusPending, Items: items}
	points := 0
	if actor != nil {
		uid := actor.UserID
		order.UserID = &uid
		points = models.PointsFor(total)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if actor != nil && s.mode != config.LoyaltyOnPayment {
			if err := s.loyalty.WithTx(tx).Add(ctx, actor.UserID, points); err != nil {
				return fmt.Errorf("credit points: %w", err)
			}
			metrics.LoyaltyPointsAwarded.Add(float64(points))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	customer := "guest"
	if actor != nil {
		customer = "member"
	}
	metrics.OrdersCreated.WithLabelValues(customer).Inc()
	s.bus.FireAsync(event.OrderStatus, event.OrderStatusChanged{OrderID: order.ID, Status: string(order.Status)})
	logger.WithCtx(ctx).Info("order: created", "order_id", order.ID, "customer", customer, "total", total.StringFixed(2), "items", len(items))

	return &CreateOrderResult{Order: order, PointsEarned: points, Guest: actor == nil}, nil
}

// Get loads an order with its items.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "Order"}
	}
	if err != nil {
		return nil, fmt.Errorf("find order %d: %w", id, err)
	}
	return &order, nil
}

// ListForUser returns userID's orders, newest first. Only the user and
// admins may list them.
func (s *OrderService) ListForUser(ctx context.Context, userID uint, requester auth.Identity) ([]models.Order, error) {
	if requester.UserID != userID && !requester.IsAdmin() {
		return nil, &AuthorizationError{Message: "Not authorized to view these orders"}
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/pkg/logger"
)

// ErrEmptyBasket is returned by Place for a basket with no entries.
var ErrEmptyBasket = errors.New("storefront: basket is empty")

// Handoff is what the payment step needs after a successful Place.
type Handoff struct {
	OrderID    uint
	CheckoutID string
	// WidgetURL is the payment widget script to mount with CheckoutID.
	WidgetURL string
	Amount    decimal.Decimal
	// Points is floor(Amount); shown to the customer, never authoritative.
	Points int
}

// PaymentPath is the relative payment page URL for the handoff.
func (h *Handoff) PaymentPath() string {
	q := url.Values{}
	q.Set("checkoutId", h.CheckoutID)
	q.Set("orderId", fmt.Sprint(h.OrderID))
	return "/payment?" + q.Encode()
}

// Confirmation is the view the payment page redirects to for outcome,
// read back from the URL it would land on.
func (h *Handoff) Confirmation(base string, outcome Outcome) (string, Confirmation, error) {
	link := ConfirmationURL(base, outcome, h.Amount, h.Points)
	u, err := url.Parse(link)
	if err != nil {
		return "", Confirmation{}, fmt.Errorf("storefront: confirmation url: %w", err)
	}
	c, err := ParseConfirmation(u.Query())
	if err != nil {
		return "", Confirmation{}, err
	}
	return link, c, nil
}

// Checkout turns a basket into an order with an open payment session.
type Checkout struct {
	Client    *Client
	WidgetURL string
}

// Place creates the order, then opens the checkout session. Steps run in
// order and are not retried; the basket is cleared only when both succeed.
// A failed checkout leaves the created order PENDING on the server.
func (c *Checkout) Place(ctx context.Context, b *Basket) (*Handoff, error) {
	items := b.Items()
	if len(items) == 0 {
		return nil, ErrEmptyBasket
	}

	req := OrderRequest{Items: make([]OrderLine, 0, len(items))}
	total := decimal.Zero
	for _, it := range items {
		req.Items = append(req.Items, OrderLine{MenuItemID: it.ID, Quantity: 1, Price: it.Price})
		total = total.Add(it.Price)
	}
	req.Total = &total

	placed, err := c.Client.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	session, err := c.Client.InitiateCheckout(ctx, placed.Order.ID)
	if err != nil {
		return nil, fmt.Errorf("initiate checkout for order %d: %w", placed.Order.ID, err)
	}

	b.Clear()
	logger.WithCtx(ctx).Info("storefront: order handed to payment", "order_id", placed.Order.ID, "checkout_id", session.CheckoutID)

	return &Handoff{
		OrderID:    placed.Order.ID,
		CheckoutID: session.CheckoutID,
		WidgetURL:  c.WidgetURL,
		Amount:     placed.Order.Total,
		Points:     models.PointsFor(placed.Order.Total),
	}, nil
}

package storefront

import (
	"context"
	"fmt"
	gohttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/pkg/http"
)

const (
	readAttempts = 3
	readBackoff  = 200 * time.Millisecond
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int               `json:"-"`
	Message    string            `json:"error"`
	Fields     map[string]string `json:"errors"`
	Details    interface{}       `json:"details"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = gohttp.StatusText(e.StatusCode)
	}
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for k, v := range e.Fields {
			parts = append(parts, k+": "+v)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, msg)
}

// User is the account summary returned by login.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Profile is the signed-in user with their loyalty balance.
type Profile struct {
	User
	LoyaltyPoints int `json:"loyaltyPoints"`
}

// OrderLine is one requested order line.
type OrderLine struct {
	MenuItemID uint            `json:"menuItemId"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// OrderRequest is the body of POST /v1/orders.
type OrderRequest struct {
	Items []OrderLine      `json:"items"`
	Total *decimal.Decimal `json:"total"`
}

// PlacedOrder is the answer to a successful order placement.
type PlacedOrder struct {
	Order        models.Order `json:"order"`
	Message      string       `json:"message"`
	PointsEarned int          `json:"pointsEarned"`
}

// CheckoutSession identifies a provider checkout for an order.
type CheckoutSession struct {
	OrderID    uint   `json:"orderId"`
	CheckoutID string `json:"checkoutId"`
}

// Client calls the ordering API. It is safe for concurrent use; Login stores
// the token for later calls.
type Client struct {
	api *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient targets baseURL (e.g. http://localhost:8080). hc may be nil.
func NewClient(baseURL string, hc *gohttp.Client) *Client {
	return &Client{api: http.New(baseURL, hc)}
}

// SetToken sets the bearer token sent with every call; "" means guest.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// read starts a GET. Reads are idempotent, so transport failures are retried.
func (c *Client) read(path string) *http.Request {
	return c.api.Get(path).Retry(readAttempts, readBackoff)
}

func (c *Client) do(ctx context.Context, req *http.Request, out interface{}) error {
	if tok := c.Token(); tok != "" {
		req.Bearer(tok)
	}
	resp, err := req.WithContext(ctx).Send()
	if err != nil {
		return err
	}
	if !resp.OK() {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = resp.JSON(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return resp.JSON(out)
}

// Menu lists the available items.
func (c *Client) Menu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.do(ctx, c.read("/v1/menu"), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Register creates an account and returns its id.
func (c *Client) Register(ctx context.Context, username, email, password string) (uint, error) {
	var out struct {
		ID uint `json:"id"`
	}
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, c.api.Post("/v1/auth/register").Body(body), &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Login signs in and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, c.api.Post("/v1/auth/login").Body(body), &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out.User, nil
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*PlacedOrder, error) {
	var out PlacedOrder
	if err := c.do(ctx, c.api.Post("/v1/orders").Body(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) InitiateCheckout(ctx context.Context, orderID uint) (*CheckoutSession, error) {
	var out CheckoutSession
	body := map[string]uint{"orderId": orderID}
	if err := c.do(ctx, c.api.Post("/v1/initiate-checkout").Body(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile needs a token.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, c.read("/v1/users/profile"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Orders lists userID's orders, newest first.
func (c *Client) Orders(ctx context.Context, userID uint) ([]models.Order, error) {
	var out []models.Order
	if err := c.do(ctx, c.read(fmt.Sprintf("/v1/users/%d/orders", userID)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Package sumup is a minimal SumUp API client: a client-credentials access
// token and hosted-checkout creation. Tokens are not cached and calls are
// not retried.
package sumup

import (
	"context"
	"encoding/json"
	"fmt"
	gohttp "net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/diner/pkg/http"
	"github.com/shashiranjanraj/diner/pkg/metrics"
)

const (
	OpToken    = "token"
	OpCheckout = "checkout"
)

var (
	// ErrNoAccessToken means the token endpoint answered 200 without a token.
	ErrNoAccessToken = errors.New("sumup: response has no access_token")
	// ErrNoCheckoutID means the checkout endpoint answered without an id.
	ErrNoCheckoutID = errors.New("sumup: response has no checkout id")
)

// APIError carries an unusable provider response. Err is set when the
// status was fine but the body lacked what we needed.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (status %d): %s", e.Err, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("sumup: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Config holds merchant credentials and defaults.
type Config struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	MerchantEmail string
	MerchantCode  string
	Currency      string
}

// Client talks to the SumUp REST API.
type Client struct {
	cfg Config
	api *http.Client
}

// New creates a Client. hc may be nil.
func New(cfg Config, hc *gohttp.Client) *Client {
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &Client{cfg: cfg, api: http.New(cfg.BaseURL, hc)}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AccessToken obtains a bearer token with the client-credentials grant.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	resp, err := c.api.Post("/token").
		WithContext(ctx).
		Form(url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {c.cfg.ClientID},
			"client_secret": {c.cfg.ClientSecret},
		}).
		Send()
	if err != nil {
		observe(OpToken, "error")
		return "", errors.Wrap(err, "sumup: request token")
	}
	if resp.StatusCode != gohttp.StatusOK {
		observe(OpToken, "rejected")
		return "", &APIError{Op: OpToken, StatusCode: resp.StatusCode, Body: resp.Text()}
	}

	var tok tokenResponse
	if err := resp.JSON(&tok); err != nil {
		observe(OpToken, "error")
		return "", errors.Wrap(err, "sumup: decode token response")
	}
	if tok.AccessToken == "" {
		observe(OpToken, "rejected")
		return "", &APIError{Op: OpToken, StatusCode: resp.StatusCode, Body: resp.Text(), Err: ErrNoAccessToken}
	}

	observe(OpToken, "ok")
	return tok.AccessToken, nil
}

// CheckoutRequest is the body of POST /v0.1/checkouts.
type CheckoutRequest struct {
	CheckoutReference string      `json:"checkout_reference"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	PayToEmail        string      `json:"pay_to_email,omitempty"`
	Description       string      `json:"description"`
	MerchantCode      string      `json:"merchant_code,omitempty"`
}

// NewCheckoutRequest builds the request for an order using the configured
// merchant and currency.
func (c *Client) NewCheckoutRequest(orderID uint, amount decimal.Decimal) CheckoutRequest {
	return CheckoutRequest{
		CheckoutReference: fmt.Sprintf("ORDER-%d", orderID),
		Amount:            json.Number(amount.StringFixed(2)),
		Currency:          c.cfg.Currency,
		PayToEmail:        c.cfg.MerchantEmail,
		Description:       fmt.Sprintf("Order #%d", orderID),
		MerchantCode:      c.cfg.MerchantCode,
	}
}

// Checkout is the subset of the provider's checkout resource we use.
type Checkout struct {
	ID                string `json:"id"`
	CheckoutReference string `json:"checkout_reference"`
	Status            string `json:"status"`

	// Raw is the provider body as received.
	Raw string `json:"-"`
}

// CreateCheckout opens a hosted checkout session.
func (c *Client) CreateCheckout(ctx context.Context, token string, req CheckoutRequest) (*Checkout, error) {
	resp, err := c.api.Post("/v0.1/checkouts").
		WithContext(ctx).
		Bearer(token).
		Body(req).
		Send()
	if err != nil {
		observe(OpCheckout, "error")
		return nil, errors.Wrapf(err, "sumup: create checkout %s", req.CheckoutReference)
	}

	if !resp.OK() {
		observe(OpCheckout, "rejected")
		return nil, &APIError{Op: OpCheckout, StatusCode: resp.StatusCode, Body: resp.Text()}
	}

	var out Checkout
	if resp.JSON(&out) != nil || out.ID == "" {
		observe(OpCheckout, "rejected")
		return nil, &APIError{Op: OpCheckout, StatusCode: resp.StatusCode, Body: resp.Text(), Err: ErrNoCheckoutID}
	}

	out.Raw = resp.Text()
	observe(OpCheckout, "ok")
	return &out, nil
}

func observe(op, result string) {
	metrics.ProviderRequests.WithLabelValues(op, result).Inc()
}

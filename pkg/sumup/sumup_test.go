package sumup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSumUp struct {
	tokenStatus    int
	tokenBody      string
	checkoutStatus int
	checkoutBody   string

	form     map[string]string
	auth     string
	checkout map[string]interface{}
}

func (f *fakeSumUp) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.form = map[string]string{}
		for k := range r.PostForm {
			f.form[k] = r.PostForm.Get(k)
		}
		w.WriteHeader(f.tokenStatus)
		_, _ = io.WriteString(w, f.tokenBody)
	})
	mux.HandleFunc("POST /v0.1/checkouts", func(w http.ResponseWriter, r *http.Request) {
		f.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&f.checkout)
		w.WriteHeader(f.checkoutStatus)
		_, _ = io.WriteString(w, f.checkoutBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *Client {
	return New(Config{
		BaseURL:       srv.URL,
		ClientID:      "cid",
		ClientSecret:  "secret",
		MerchantEmail: "pay@diner.test",
		MerchantCode:  "MC123",
	}, srv.Client())
}

func TestTokenAndCheckout(t *testing.T) {
	f := &fakeSumUp{
		tokenStatus: 200, tokenBody: `{"access_token":"tok-1","token_type":"Bearer"}`,
		checkoutStatus: 201, checkoutBody: `{"id":"chk-42","checkout_reference":"ORDER-7","status":"PENDING"}`,
	}
	c := newClient(f.server(t))
	ctx := context.Background()

	token, err := c.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, map[string]string{"grant_type": "client_credentials", "client_id": "cid", "client_secret": "secret"}, f.form)

	chk, err := c.CreateCheckout(ctx, token, c.NewCheckoutRequest(7, decimal.RequireFromString("18")))
	require.NoError(t, err)
	assert.Equal(t, "chk-42", chk.ID)
	assert.Equal(t, "Bearer tok-1", f.auth)
	assert.Equal(t, map[string]interface{}{
		"checkout_reference": "ORDER-7",
		"amount":             18.0,
		"currency":           "EUR",
		"pay_to_email":       "pay@diner.test",
		"description":        "Order #7",
		"merchant_code":      "MC123",
	}, f.checkout)
}

func TestTokenFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"rejected", 401, `{"error":"invalid_client"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, 401, apiErr.StatusCode)
			assert.Contains(t, apiErr.Body, "invalid_client")
		}},
		{"missing token", 200, `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrNoAccessToken)
		}},
		{"garbage", 200, `not json`, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "decode token response")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSumUp{tokenStatus: tt.status, tokenBody: tt.body}
			_, err := newClient(f.server(t)).AccessToken(context.Background())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCheckoutWithoutIDKeepsProviderBody(t *testing.T) {
	f := &fakeSumUp{checkoutStatus: 400, checkoutBody: `{"error_code":"DUPLICATED_CHECKOUT"}`}
	c := newClient(f.server(t))

	_, err := c.CreateCheckout(context.Background(), "tok", c.NewCheckoutRequest(1, decimal.NewFromInt(5)))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, `{"error_code":"DUPLICATED_CHECKOUT"}`, apiErr.Body)

	f.checkoutStatus, f.checkoutBody = 200, `{"status":"PENDING"}`
	_, err = c.CreateCheckout(context.Background(), "tok", c.NewCheckoutRequest(1, decimal.NewFromInt(5)))
	assert.ErrorIs(t, err, ErrNoCheckoutID)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newClient(srv)
	srv.Close()

	_, err := c.AccessToken(context.Background())
	assert.ErrorContains(t, err, "sumup: request token")
}

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/diner/pkg/storefront"
)

func TestPrintConfirmation(t *testing.T) {
	h := &storefront.Handoff{OrderID: 7, Amount: decimal.RequireFromString("18.50"), Points: 18}

	var out bytes.Buffer
	require.NoError(t, printConfirmation(&out, "http://shop.test/order-confirmation", h, storefront.OutcomeSuccess))
	assert.Equal(t, "Confirmation: http://shop.test/order-confirmation?amount=18.50&points=18&status=success\n"+
		"Order Confirmed!\n"+
		"  Thank you for your order. Your payment was successful.\n"+
		"  You earned 18 loyalty points with this purchase!\n", out.String())

	out.Reset()
	require.NoError(t, printConfirmation(&out, "http://shop.test/order-confirmation", h, storefront.OutcomeFailure))
	assert.Contains(t, out.String(), "?status=failure\nOrder Failed\n")

	assert.Error(t, printConfirmation(&out, "http://shop.test/order-confirmation", h, "maybe"))
}

func TestPrintHistory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/users/profile", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"username":"ann","email":"ann@x.test","role":"CUSTOMER","loyaltyPoints":36}`))
	})
	mux.HandleFunc("GET /v1/users/3/orders", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":9,"total":18,"status":"PAID"},{"id":4,"total":7.5,"status":"PAYMENT_FAILED"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := storefront.NewClient(srv.URL, srv.Client())
	client.SetToken("jwt-1")

	var out bytes.Buffer
	require.NoError(t, printHistory(context.Background(), &out, client, 3))
	assert.Equal(t, "Loyalty points: 36\n"+
		"Orders (2):\n"+
		"  #9      PAID                18.00\n"+
		"  #4      PAYMENT_FAILED       7.50\n", out.String())
}

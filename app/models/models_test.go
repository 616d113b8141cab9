package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusPaymentFailed, true},
		{StatusPending, StatusPending, false},
		{StatusPaid, StatusPaymentFailed, false},
		{StatusPaymentFailed, StatusPaid, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusPaid.Terminal())
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 18, PointsFor(decimal.RequireFromString("18.00")))
	assert.Equal(t, 9, PointsFor(decimal.RequireFromString("9.99")))
	assert.Equal(t, 0, PointsFor(decimal.RequireFromString("0.50")))
	assert.Equal(t, 0, PointsFor(decimal.RequireFromString("-3")))
}

func TestSumItems(t *testing.T) {
	items := []OrderItem{
		{Quantity: 2, Price: decimal.RequireFromString("9.00")},
		{Quantity: 3, Price: decimal.RequireFromString("1.10")},
	}
	assert.True(t, decimal.RequireFromString("21.30").Equal(SumItems(items)))
}

func TestMoneyMarshalsAsNumber(t *testing.T) {
	b, err := json.Marshal(MenuItem{Name: "Pimento", Price: decimal.RequireFromString("8.50")})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, 8.5, out["price"])
	assert.NotContains(t, out, "DeletedAt")
}

package storefront

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Confirmation is what the order confirmation view shows. Amount and Points
// come from URL parameters and are display-only.
type Confirmation struct {
	Outcome Outcome
	Amount  decimal.Decimal
	Points  int
}

// ConfirmationURL builds base?status=success&amount=..&points=.. or
// base?status=failure.
func ConfirmationURL(base string, outcome Outcome, amount decimal.Decimal, points int) string {
	q := url.Values{}
	q.Set("status", string(outcome))
	if outcome == OutcomeSuccess {
		q.Set("amount", amount.StringFixed(2))
		q.Set("points", strconv.Itoa(points))
	}
	return base + "?" + q.Encode()
}

// ParseConfirmation reads the parameters written by ConfirmationURL.
func ParseConfirmation(q url.Values) (Confirmation, error) {
	switch Outcome(q.Get("status")) {
	case OutcomeFailure:
		return Confirmation{Outcome: OutcomeFailure}, nil
	case OutcomeSuccess:
	default:
		return Confirmation{}, fmt.Errorf("storefront: unknown confirmation status %q", q.Get("status"))
	}

	c := Confirmation{Outcome: OutcomeSuccess}
	if raw := q.Get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return Confirmation{}, fmt.Errorf("storefront: bad amount %q: %w", raw, err)
		}
		c.Amount = amount
	}
	if raw := q.Get("points"); raw != "" {
		points, err := strconv.Atoi(raw)
		if err != nil {
			return Confirmation{}, fmt.Errorf("storefront: bad points %q: %w", raw, err)
		}
		c.Points = points
	}
	return c, nil
}

// Title is the confirmation view heading.
func (c Confirmation) Title() string {
	if c.Outcome == OutcomeSuccess {
		return "Order Confirmed!"
	}
	return "Order Failed"
}

// Lines is the confirmation view body.
func (c Confirmation) Lines() []string {
	if c.Outcome != OutcomeSuccess {
		return []string{"We're sorry, but there was an issue with your payment. Please try again."}
	}
	return []string{
		"Thank you for your order. Your payment was successful.",
		fmt.Sprintf("You earned %d loyalty points with this purchase!", c.Points),
	}
}

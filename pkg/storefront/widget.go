package storefront

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/diner/pkg/http"
	"github.com/shashiranjanraj/diner/pkg/logger"
)

// ErrWidgetUnavailable means the payment widget did not become reachable
// within the polling budget.
var ErrWidgetUnavailable = errors.New("storefront: payment widget unavailable")

// Widget waits for the provider's payment widget to be reachable before the
// customer is sent to pay.
type Widget struct {
	URL          string
	HTTP         *http.Client
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
}

// NewWidget polls url with the defaults: 2s before the first check, then
// every 1s, at most 10 checks.
func NewWidget(url string, hc *http.Client) *Widget {
	if hc == nil {
		hc = http.New("", nil)
	}
	return &Widget{URL: url, HTTP: hc, InitialDelay: 2 * time.Second, Interval: time.Second, MaxAttempts: 10}
}

// WaitReady returns nil once a GET of URL answers 2xx. It gives up with
// ErrWidgetUnavailable after MaxAttempts checks, or with ctx's error.
func (w *Widget) WaitReady(ctx context.Context) error {
	wait := w.InitialDelay
	for attempt := 1; attempt <= w.MaxAttempts; attempt++ {
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		wait = w.Interval

		resp, err := w.HTTP.Get(w.URL).WithContext(ctx).Timeout(w.Interval + time.Second).Send()
		if err == nil && resp.OK() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WithCtx(ctx).Debug("storefront: widget not ready", "attempt", attempt, "error", err)
	}
	return ErrWidgetUnavailable
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

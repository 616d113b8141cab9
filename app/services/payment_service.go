package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/app/repositories"
	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/pkg/event"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/metrics"
)

// ConfirmPaymentInput is the payment callback payload.
type ConfirmPaymentInput struct {
	Status string `json:"status"`
}

// ConfirmResult describes what a confirmation did.
type ConfirmResult struct {
	OrderID          uint
	Status           models.OrderStatus
	PointsAwarded    int
	AlreadyProcessed bool
}

// Paid reports whether the order ended up paid.
func (r *ConfirmResult) Paid() bool { return r.Status == models.StatusPaid }

type PaymentService struct {
	db      *gorm.DB
	orders  *repositories.OrderRepository
	loyalty *repositories.LoyaltyRepository
	mode    string
	bus     *event.Bus
}

func NewPaymentService(db *gorm.DB, mode string, bus *event.Bus) *PaymentService {
	return &PaymentService{
		db:      db,
		orders:  repositories.NewOrderRepository(db),
		loyalty: repositories.NewLoyaltyRepository(db),
		mode:    mode,
		bus:     bus,
	}
}

// Confirm applies a payment outcome. "PAID" marks the order paid and credits
// the owner floor(total) points; anything else marks it PAYMENT_FAILED.
func (s *PaymentService) Confirm(ctx context.Context, orderID uint, reported string) (*ConfirmResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "Order"}
		}
		return nil, fmt.Errorf("find order %d: %w", orderID, err)
	}

	target := models.StatusPaymentFailed
	if reported == string(models.StatusPaid) {
		target = models.StatusPaid
	}

	var res *ConfirmResult
	if s.mode == config.LoyaltyOnPayment {
		res, err = s.confirmOnce(ctx, &order, target)
	} else {
		res, err = s.confirmLegacy(ctx, &order, target)
	}
	if err != nil {
		return nil, err
	}

	log := logger.WithCtx(ctx).With("order_id", orderID, "status", res.Status, "points", res.PointsAwarded)
	switch {
	case res.AlreadyProcessed:
		metrics.PaymentsConfirmed.WithLabelValues("duplicate").Inc()
		log.Info("payment: duplicate confirmation ignored")
	case res.Paid():
		metrics.PaymentsConfirmed.WithLabelValues("paid").Inc()
		log.Info("payment: confirmed")
	default:
		metrics.PaymentsConfirmed.WithLabelValues("failed").Inc()
		log.Warn("payment: failed", "reported", reported)
	}
	if res.PointsAwarded > 0 {
		metrics.LoyaltyPointsAwarded.Add(float64(res.PointsAwarded))
	}
	if !res.AlreadyProcessed {
		s.bus.FireAsync(event.OrderStatus, event.OrderStatusChanged{OrderID: orderID, Status: string(res.Status)})
	}
	return res, nil
}

// confirmOnce moves the order out of PENDING at most once and credits points
// at most once per order.
func (s *PaymentService) confirmOnce(ctx context.Context, order *models.Order, target models.OrderStatus) (*ConfirmResult, error) {
	res := &ConfirmResult{OrderID: order.ID, Status: target}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)

		changed, err := orders.TransitionStatus(ctx, order.ID, models.StatusPending, target)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !changed {
			current, err := orders.FindByID(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("reload order: %w", err)
			}
			if current.Status != target {
				return &StateError{Message: fmt.Sprintf("Order is already %s", current.Status)}
			}
			res.AlreadyProcessed = true
			return nil
		}

		if target != models.StatusPaid || order.UserID == nil {
			return nil
		}

		points := models.PointsFor(order.Total)
		loyalty := s.loyalty.WithTx(tx)
		inserted, err := loyalty.RecordAward(ctx, &models.LoyaltyAward{OrderID: order.ID, UserID: *order.UserID, Points: points})
		if err != nil {
			return fmt.Errorf("record award: %w", err)
		}
		if !inserted {
			return nil
		}
		if err := loyalty.Add(ctx, *order.UserID, points); err != nil {
			return fmt.Errorf("credit points: %w", err)
		}
		res.PointsAwarded = points
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// confirmLegacy writes the status unconditionally and credits points on
// every PAID confirmation.
func (s *PaymentService) confirmLegacy(ctx context.Context, order *models.Order, target models.OrderStatus) (*ConfirmResult, error) {
	res := &ConfirmResult{OrderID: order.ID, Status: target}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orders.WithTx(tx).SetStatus(ctx, order.ID, target); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if target != models.StatusPaid || order.UserID == nil {
			return nil
		}
		points := models.PointsFor(order.Total)
		if err := s.loyalty.WithTx(tx).Add(ctx, *order.UserID, points); err != nil {
			return fmt.Errorf("credit points: %w", err)
		}
		res.PointsAwarded = points
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

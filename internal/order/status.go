package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// UpdateOrderStatus applies an administrative status change allowed by the transition table.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, next domain.OrderStatus, actor *uuid.UUID) (domain.Order, error) {
	current, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !current.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%s -> %s: %w", current.Status, next, domain.ErrInvalidTransition)
	}

	order, err := s.TransitionIf(ctx, orderID, current.Status, next, nil)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.Info("order status updated",
		zap.Stringer("order_id", orderID),
		zap.Stringer("from", current.Status),
		zap.Stringer("to", next),
		zap.Stringer("actor", lo.FromPtr(actor)))

	return order, nil
}

// TransitionIf moves the order from `from` to `to` with a compare-and-set on its status and
// returns the reloaded order. It does not consult the transition table. Entering confirmed credits
// the user's lifetime purchases in the same transaction. Returns domain.ErrConflict when the order
// is no longer in `from`. The status notification is sent after commit; its failure is only logged.
func (s *Service) TransitionIf(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, paymentRef *string) (domain.Order, error) {
	var order domain.Order

	err := s.store.WithTx(ctx, func(tx port.Store) error {
		swapped, err := tx.Orders().CompareAndSetStatus(ctx, orderID, from, to, paymentRef)
		if err != nil {
			return fmt.Errorf("orders.CompareAndSetStatus: %w", err)
		}
		if !swapped {
			return fmt.Errorf("order[%s] is no longer %s: %w", orderID, from, domain.ErrConflict)
		}

		order, err = tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.GetOrder: %w", err)
		}

		if to == domain.OrderStatusConfirmed {
			user, err := tx.Users().CreditPurchases(ctx, order.UserID, order.FinalAmount, s.cfg.LoyaltyThreshold)
			if err != nil {
				return fmt.Errorf("users.CreditPurchases: %w", err)
			}
			s.logger.Debug("purchases credited",
				zap.Stringer("user_id", user.ID),
				zap.Stringer("total_purchases", user.TotalPurchases),
				zap.Bool("discount_eligible", user.DiscountEligible))
		}

		return nil
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("store.WithTx: %w", err)
	}

	s.notifyStatus(ctx, order)

	return order, nil
}

func (s *Service) notifyStatus(ctx context.Context, order domain.Order) {
	n := domain.Notification{
		UserID: order.UserID,
		Kind:   domain.NotificationKindFor(order.Status),
		Payload: map[string]any{
			"orderId":     order.ID.String(),
			"status":      order.Status.String(),
			"finalAmount": order.FinalAmount.String(),
		},
	}

	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("order notification failed",
			zap.Stringer("order_id", order.ID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
	}
}

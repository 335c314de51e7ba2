// Package payment reconciles processor results with order state. The client confirm path and
// the webhook path run without a shared lock; the status compare-and-set decides the winner.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/order"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Reconciler struct {
	orders  *order.Service
	store   port.Store
	gateway port.PaymentGateway
	logger  *zap.Logger
}

func NewReconciler(orders *order.Service, store port.Store, gateway port.PaymentGateway, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		orders:  orders,
		store:   store,
		gateway: gateway,
		logger:  logger,
	}
}

type ConfirmRequest struct {
	OrderID   uuid.UUID
	IntentID  string
	MethodID  string
	ReturnURL string
}

// Confirmation is the order after confirmation together with the processor outcome.
// RequiresAction and Declined leave the order pending.
type Confirmation struct {
	Order   domain.Order
	Outcome domain.PaymentOutcome
}

// ConfirmOrder is idempotent: an order that is already paid is returned without calling the processor.
func (r *Reconciler) ConfirmOrder(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if req.IntentID == "" {
		return Confirmation{}, fmt.Errorf("intent id is empty: %w", domain.ErrValidation)
	}

	o, err := r.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return Confirmation{}, err
	}

	if o.Status.IsPaid() {
		return Confirmation{Order: o, Outcome: domain.Succeeded{IntentID: lo.FromPtr(o.PaymentRef), Amount: o.FinalAmount}}, nil
	}
	if o.Status != domain.OrderStatusPending {
		return Confirmation{}, fmt.Errorf("confirm %s order[%s]: %w", o.Status, o.ID, domain.ErrInvalidTransition)
	}

	outcome, err := r.gateway.ConfirmIntent(ctx, domain.ConfirmRequest{
		IntentID:  req.IntentID,
		MethodID:  req.MethodID,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		outcome, err = r.resolveConflict(ctx, req.IntentID, err)
		if err != nil {
			return Confirmation{}, err
		}
	}

	switch out := outcome.(type) {
	case domain.Succeeded:
		if err := checkOrderMetadata(out.Metadata, o.ID); err != nil {
			return Confirmation{}, err
		}

		paid, err := r.markPaid(ctx, o.ID, out.IntentID)
		if err != nil {
			return Confirmation{}, err
		}
		return Confirmation{Order: paid, Outcome: out}, nil

	case domain.RequiresAction, domain.Declined:
		r.logger.Info("payment not completed",
			zap.Stringer("order_id", o.ID),
			zap.String("intent_id", req.IntentID),
			zap.String("outcome", fmt.Sprintf("%T", out)))
		return Confirmation{Order: o, Outcome: out}, nil

	case domain.GatewayUnavailable:
		return Confirmation{}, fmt.Errorf("confirm intent %s: %w: %s", req.IntentID, domain.ErrGateway, out.Reason)

	default:
		return Confirmation{}, fmt.Errorf("unexpected outcome %T: %w", outcome, domain.ErrGateway)
	}
}

// resolveConflict turns an "already succeeded" state conflict into a success outcome. The intent is
// always re-fetched so the success carries the processor's own metadata.
func (r *Reconciler) resolveConflict(ctx context.Context, intentID string, confirmErr error) (domain.PaymentOutcome, error) {
	var conflict *domain.StateConflictError
	if !errors.As(confirmErr, &conflict) {
		if !errors.Is(confirmErr, domain.ErrGateway) && !errors.Is(confirmErr, domain.ErrNotFound) {
			confirmErr = fmt.Errorf("%w: %w", domain.ErrGateway, confirmErr)
		}
		return nil, fmt.Errorf("gateway.ConfirmIntent: %w", confirmErr)
	}

	if conflict.Status != "" && conflict.Status != domain.IntentStatusSucceeded {
		return nil, fmt.Errorf("%w: %w", domain.ErrConflict, confirmErr)
	}

	intent, err := r.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("gateway.RetrieveIntent: %w", err)
	}

	if intent.Status != domain.IntentStatusSucceeded {
		return nil, fmt.Errorf("%w: %w", domain.ErrConflict, confirmErr)
	}

	r.logger.Info("intent already succeeded", zap.String("intent_id", intentID))

	return domain.Succeeded{IntentID: intent.ID, Amount: intent.Amount, Metadata: intent.Metadata}, nil
}

// checkOrderMetadata requires the intent to be tagged with this order. An untagged intent can not be
// told apart from another order's payment.
func checkOrderMetadata(metadata map[string]string, orderID uuid.UUID) error {
	tagged, ok := metadata[domain.MetadataOrderID]
	if !ok {
		return fmt.Errorf("intent has no order id: %w", domain.ErrValidation)
	}
	if tagged != orderID.String() {
		return fmt.Errorf("intent belongs to order %q, not %s: %w", tagged, orderID, domain.ErrValidation)
	}
	return nil
}

// markPaid moves a pending order to confirmed. Losing the race to another confirmation is a success.
func (r *Reconciler) markPaid(ctx context.Context, orderID uuid.UUID, intentID string) (domain.Order, error) {
	o, err := r.orders.TransitionIf(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusConfirmed, &intentID)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return domain.Order{}, err
	}

	o, reloadErr := r.orders.GetOrder(ctx, orderID)
	if reloadErr != nil {
		return domain.Order{}, reloadErr
	}
	if o.Status.IsPaid() {
		return o, nil
	}

	return domain.Order{}, fmt.Errorf("order[%s] is %s: %w", orderID, o.Status, domain.ErrInvalidTransition)
}

// HandleWebhook applies a verified processor event. Redelivered events are no-ops.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := r.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		r.logger.Warn("webhook rejected", zap.Error(err))
		return fmt.Errorf("gateway.VerifyWebhook: %w", err)
	}

	logger := r.logger.With(
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("intent_id", event.Intent.ID))

	switch event.Type {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
	default:
		logger.Debug("webhook event ignored")
		return nil
	}

	raw, ok := event.Intent.Metadata[domain.MetadataOrderID]
	if !ok {
		logger.Info("webhook event without order id ignored")
		return nil
	}

	orderID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("order id metadata %q: %w", raw, domain.ErrValidation)
	}

	logger = logger.With(zap.Stringer("order_id", orderID))

	if event.Type == domain.EventPaymentSucceeded {
		o, err := r.markPaid(ctx, orderID, event.Intent.ID)
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.Warn("payment succeeded for an order that can not be confirmed", zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("order paid via webhook", zap.Stringer("status", o.Status))
		return nil
	}

	_, err = r.orders.TransitionIf(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusCancelled, nil)
	if errors.Is(err, domain.ErrConflict) {
		logger.Info("payment failure ignored, order no longer pending")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("order cancelled after payment failure")
	return nil
}

type RefundResult struct {
	Refund domain.Refund
	Order  domain.Order
}

// RefundPayment refunds amount, or whatever is left of the final amount when amount is nil,
// and moves the order to refunded from any status. Refunds of one order are serialized by a
// row lock held across the remaining-amount check, the processor call and the insert.
func (r *Reconciler) RefundPayment(ctx context.Context, orderID uuid.UUID, amount *domain.Money) (RefundResult, error) {
	var refund domain.Refund

	err := r.store.WithTx(ctx, func(tx port.Store) error {
		if err := tx.Orders().LockOrder(ctx, orderID); err != nil {
			return fmt.Errorf("orders.LockOrder: %w", err)
		}

		o, err := tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("orders.GetOrder: %w", err)
		}

		if o.PaymentRef == nil {
			return fmt.Errorf("order[%s] has no payment: %w", orderID, domain.ErrValidation)
		}

		remaining, err := remainingRefundable(ctx, tx, o)
		if err != nil {
			return err
		}

		if amount == nil {
			if !remaining.Amount.IsPositive() {
				return fmt.Errorf("order[%s] fully refunded: %w", orderID, domain.ErrValidation)
			}
			amount = &remaining
		}

		if amount.Currency != o.FinalAmount.Currency || !amount.Amount.IsPositive() || amount.Amount.GreaterThan(remaining.Amount) {
			return fmt.Errorf("refund %s of remaining %s: %w", amount, remaining, domain.ErrValidation)
		}

		result, err := r.gateway.Refund(ctx, domain.RefundRequest{
			IntentID: *o.PaymentRef,
			Amount:   amount,
			Metadata: map[string]string{domain.MetadataOrderID: orderID.String()},
		})
		if err != nil {
			return fmt.Errorf("gateway.Refund: %w", err)
		}

		refund = domain.Refund{
			OrderID:   orderID,
			RefundRef: result.RefundID,
			Amount:    result.Amount,
			Status:    result.Status,
		}

		refund.ID, err = tx.Orders().InsertRefund(ctx, refund)
		if err != nil {
			r.logger.Error("processor refund not recorded",
				zap.Stringer("order_id", orderID),
				zap.String("refund_id", refund.RefundRef),
				zap.Error(err))
			return fmt.Errorf("orders.InsertRefund: %w", err)
		}

		return nil
	})
	if err != nil {
		return RefundResult{}, err
	}

	o, err := r.markRefunded(ctx, orderID)
	if err != nil {
		return RefundResult{}, err
	}

	r.logger.Info("order refunded",
		zap.Stringer("order_id", orderID),
		zap.String("refund_id", refund.RefundRef),
		zap.Stringer("amount", refund.Amount))

	return RefundResult{Refund: refund, Order: o}, nil
}

func remainingRefundable(ctx context.Context, tx port.Store, o domain.Order) (domain.Money, error) {
	refunds, err := tx.Orders().ListRefunds(ctx, o.ID)
	if err != nil {
		return domain.Money{}, fmt.Errorf("orders.ListRefunds: %w", err)
	}

	refunded := domain.NewMoney(decimal.Zero, o.FinalAmount.Currency)
	for _, rf := range refunds {
		refunded = refunded.Add(rf.Amount)
	}

	return o.FinalAmount.Sub(refunded), nil
}

const refundTransitionAttempts = 3

func (r *Reconciler) markRefunded(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var lastErr error

	for range refundTransitionAttempts {
		o, err := r.orders.GetOrder(ctx, orderID)
		if err != nil {
			return domain.Order{}, err
		}
		if o.Status == domain.OrderStatusRefunded {
			return o, nil
		}

		o, err = r.orders.TransitionIf(ctx, orderID, o.Status, domain.OrderStatusRefunded, nil)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Order{}, err
		}
		lastErr = err
	}

	return domain.Order{}, lastErr
}

// PaymentDetails returns the processor's current view of the order's payment.
func (r *Reconciler) PaymentDetails(ctx context.Context, orderID uuid.UUID) (domain.Intent, error) {
	o, err := r.orders.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Intent{}, err
	}

	if o.PaymentRef == nil {
		return domain.Intent{}, fmt.Errorf("order[%s] has no payment: %w", orderID, domain.ErrNotFound)
	}

	intent, err := r.gateway.RetrieveIntent(ctx, *o.PaymentRef)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("gateway.RetrieveIntent: %w", err)
	}
	return intent, nil
}

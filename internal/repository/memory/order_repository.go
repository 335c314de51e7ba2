package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/samber/lo"
)

type orderRepository struct {
	s *Store
}

func (r *orderRepository) GetOrder(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order
	err := r.s.run(func(d *dataset) error {
		found, ok := d.orders[orderID]
		if !ok {
			return fmt.Errorf("order[%s]: %w", orderID, domain.ErrNotFound)
		}
		o = found
		return nil
	})
	return o, err
}

// LockOrder only checks existence; WithTx already holds the store lock.
func (r *orderRepository) LockOrder(_ context.Context, orderID uuid.UUID) error {
	return r.s.run(func(d *dataset) error {
		if _, ok := d.orders[orderID]; !ok {
			return fmt.Errorf("order[%s]: %w", orderID, domain.ErrNotFound)
		}
		return nil
	})
}

func (r *orderRepository) SearchOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	var matched []domain.Order
	err := r.s.run(func(d *dataset) error {
		for _, o := range d.orders {
			if !slices.Contains(filter.UserIDs, o.UserID) {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, o.Status) {
				continue
			}
			if filter.CreatedAt != nil && !filter.CreatedAt.Matches(o.CreatedAt) {
				continue
			}
			matched = append(matched, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	end := min(filter.Offset+filter.PageSize(), len(matched))

	return matched[filter.Offset:end], nil
}

func (r *orderRepository) InsertOrder(_ context.Context, order domain.Order) (uuid.UUID, error) {
	if err := order.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("order.Validate: %w", err)
	}

	now := r.s.clock()
	order.ID = uuid.New()
	order.Status = domain.OrderStatusPending
	order.PaymentRef = nil
	order.CreatedAt = now
	order.UpdatedAt = now
	order.Items = lo.Map(order.Items, func(item domain.OrderItem, _ int) domain.OrderItem {
		item.CreatedAt = now
		return item
	})

	err := r.s.run(func(d *dataset) error {
		if _, ok := d.users[order.UserID]; !ok {
			return fmt.Errorf("user[%s]: %w", order.UserID, domain.ErrNotFound)
		}

		seen := map[uuid.UUID]bool{}
		for _, item := range order.Items {
			if seen[item.ProductID] {
				return fmt.Errorf("duplicate product[%s]: %w", item.ProductID, domain.ErrConflict)
			}
			seen[item.ProductID] = true
		}

		d.orders[order.ID] = order
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return order.ID, nil
}

func (r *orderRepository) CompareAndSetStatus(_ context.Context, orderID uuid.UUID, from, to domain.OrderStatus, paymentRef *string) (bool, error) {
	var swapped bool
	err := r.s.run(func(d *dataset) error {
		o, ok := d.orders[orderID]
		if !ok || o.Status != from {
			return nil
		}

		o.Status = to
		if paymentRef != nil {
			o.PaymentRef = lo.ToPtr(*paymentRef)
		}
		o.UpdatedAt = r.s.clock()
		d.orders[orderID] = o
		swapped = true
		return nil
	})
	return swapped, err
}

func (r *orderRepository) InsertRefund(_ context.Context, refund domain.Refund) (uuid.UUID, error) {
	refund.ID = uuid.New()
	refund.CreatedAt = r.s.clock()

	err := r.s.run(func(d *dataset) error {
		if _, ok := d.orders[refund.OrderID]; !ok {
			return fmt.Errorf("order[%s]: %w", refund.OrderID, domain.ErrNotFound)
		}
		for _, existing := range d.refunds {
			if existing.RefundRef == refund.RefundRef {
				return fmt.Errorf("refund %s recorded: %w", refund.RefundRef, domain.ErrConflict)
			}
		}
		d.refunds[refund.ID] = refund
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return refund.ID, nil
}

func (r *orderRepository) ListRefunds(_ context.Context, orderID uuid.UUID) ([]domain.Refund, error) {
	var refunds []domain.Refund
	err := r.s.run(func(d *dataset) error {
		for _, rf := range d.refunds {
			if rf.OrderID == orderID {
				refunds = append(refunds, rf)
			}
		}
		return nil
	})

	sort.Slice(refunds, func(i, j int) bool {
		return refunds[i].CreatedAt.Before(refunds[j].CreatedAt)
	})

	return refunds, err
}

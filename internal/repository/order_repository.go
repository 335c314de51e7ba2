package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/db"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
	"golang.org/x/text/currency"
)

type orderRepository struct {
	q    *db.Queries
	dbtx db.DBTX
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{
		q:    db.New(pool),
		dbtx: pool,
	}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var o domain.Order

	order, err := withTx(ctx, r.dbtx, func(q *db.Queries) (domain.Order, error) {
		dbOrder, err := q.GetOrder(ctx, orderID)
		if err != nil {
			return o, fmt.Errorf("q.GetOrder: %w", translate(err))
		}

		dbOrderItems, err := q.GetOrderItems(ctx, []uuid.UUID{orderID})
		if err != nil {
			return o, fmt.Errorf("q.GetOrderItems: %w", err)
		}

		domainOrder, err := mapDBOrderToDomain(dbOrder, dbOrderItems)
		if err != nil {
			return o, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}

		return domainOrder, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if err := order.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("order.Validate: %w", err)
	}

	orderID, err := withTx(ctx, r.dbtx, func(q *db.Queries) (uuid.UUID, error) {
		orderID, err := q.InsertOrder(ctx, db.InsertOrderParams{
			UserID:          order.UserID,
			TotalAmount:     order.TotalAmount.Amount,
			DiscountAmount:  order.DiscountAmount.Amount,
			FinalAmount:     order.FinalAmount.Amount,
			Currency:        order.TotalAmount.Currency.String(),
			Status:          string(domain.OrderStatusPending),
			ShippingAddress: order.ShippingAddress,
			BillingAddress:  order.BillingAddress,
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("q.InsertOrder: %w", translate(err))
		}

		for _, item := range order.Items {
			arg := db.InsertOrderItemParams{
				OrderID:     orderID,
				ProductID:   item.ProductID,
				Quantity:    int32(item.Quantity),
				UnitPrice:   item.UnitPrice.Amount,
				TotalPrice:  item.TotalPrice.Amount,
				PriceTierID: item.PriceTierID,
			}
			if err := q.InsertOrderItem(ctx, arg); err != nil {
				return uuid.Nil, fmt.Errorf("q.InsertOrderItem: %w", translate(err))
			}
		}

		return orderID, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("withTx: %w", err)
	}

	return orderID, nil
}

func (r *orderRepository) LockOrder(ctx context.Context, orderID uuid.UUID) error {
	if _, err := r.q.LockOrder(ctx, orderID); err != nil {
		return fmt.Errorf("q.LockOrder: %w", translate(err))
	}

	return nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	dbOrders, err := r.q.SearchOrders(ctx, mapDomainOrderFilterToDBFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("q.SearchOrders: %w", err)
	}

	if len(dbOrders) == 0 {
		return nil, nil
	}

	orderIDs := lo.Map(dbOrders, func(o db.Order, _ int) uuid.UUID {
		return o.ID
	})

	dbItems, err := r.q.GetOrderItems(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("q.GetOrderItems: %w", err)
	}

	itemsByOrder := lo.GroupBy(dbItems, func(item db.OrderItem) uuid.UUID {
		return item.OrderID
	})

	// keep the page order of the search query
	orders := make([]domain.Order, 0, len(dbOrders))
	for _, dbOrder := range dbOrders {
		order, err := mapDBOrderToDomain(dbOrder, itemsByOrder[dbOrder.ID])
		if err != nil {
			return nil, fmt.Errorf("mapDBOrderToDomain: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (r *orderRepository) CompareAndSetStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, paymentRef *string) (bool, error) {
	rowsAffected, err := r.q.CompareAndSetOrderStatus(ctx, db.CompareAndSetOrderStatusParams{
		ToStatus:   string(to),
		PaymentRef: paymentRef,
		ID:         orderID,
		FromStatus: string(from),
	})
	if err != nil {
		return false, fmt.Errorf("q.CompareAndSetOrderStatus: %w", translate(err))
	}

	return rowsAffected == 1, nil
}

func (r *orderRepository) InsertRefund(ctx context.Context, refund domain.Refund) (uuid.UUID, error) {
	id, err := r.q.InsertRefund(ctx, db.InsertRefundParams{
		OrderID:   refund.OrderID,
		RefundRef: refund.RefundRef,
		Amount:    refund.Amount.Amount,
		Currency:  refund.Amount.Currency.String(),
		Status:    refund.Status,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("q.InsertRefund: %w", translate(err))
	}

	return id, nil
}

func (r *orderRepository) ListRefunds(ctx context.Context, orderID uuid.UUID) ([]domain.Refund, error) {
	rows, err := r.q.ListRefunds(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("q.ListRefunds: %w", err)
	}

	refunds := make([]domain.Refund, 0, len(rows))
	for _, row := range rows {
		parsedCurrency, err := currency.ParseISO(row.Currency)
		if err != nil {
			return nil, fmt.Errorf("currency[%s] is not valid: %w", row.Currency, err)
		}

		refunds = append(refunds, domain.Refund{
			ID:        row.ID,
			OrderID:   row.OrderID,
			RefundRef: row.RefundRef,
			Amount:    domain.NewMoney(row.Amount, parsedCurrency),
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
		})
	}

	return refunds, nil
}

func mapDomainOrderFilterToDBFilter(filter domain.OrderFilter) db.SearchOrdersParams {
	statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string {
		return string(s)
	})

	params := db.SearchOrdersParams{
		UserIds:    filter.UserIDs,
		Statuses:   nilSliceIfEmpty(statuses),
		PageLimit:  int32(filter.PageSize()),
		PageOffset: int32(filter.Offset),
	}

	if filter.CreatedAt != nil {
		params.CreatedAfter = filter.CreatedAt.After
		params.CreatedBefore = filter.CreatedAt.Before
	}

	return params
}

func mapDBOrderToDomain(dbOrder db.Order, dbOrderItems []db.OrderItem) (domain.Order, error) {
	var o domain.Order

	parsedCurrency, err := currency.ParseISO(dbOrder.Currency)
	if err != nil {
		return o, fmt.Errorf("currency[%s] is not valid: %w", dbOrder.Currency, err)
	}

	status, err := domain.ToOrderStatus(dbOrder.Status)
	if err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus[%s]: %w", dbOrder.Status, err)
	}

	items := lo.Map(dbOrderItems, func(row db.OrderItem, _ int) domain.OrderItem {
		return domain.OrderItem{
			ProductID:   row.ProductID,
			Quantity:    int(row.Quantity),
			UnitPrice:   domain.NewMoney(row.UnitPrice, parsedCurrency),
			TotalPrice:  domain.NewMoney(row.TotalPrice, parsedCurrency),
			PriceTierID: row.PriceTierID,
			CreatedAt:   row.CreatedAt,
		}
	})

	return domain.Order{
		ID:              dbOrder.ID,
		UserID:          dbOrder.UserID,
		TotalAmount:     domain.NewMoney(dbOrder.TotalAmount, parsedCurrency),
		DiscountAmount:  domain.NewMoney(dbOrder.DiscountAmount, parsedCurrency),
		FinalAmount:     domain.NewMoney(dbOrder.FinalAmount, parsedCurrency),
		Items:           items,
		Status:          status,
		PaymentRef:      dbOrder.PaymentRef,
		ShippingAddress: dbOrder.ShippingAddress,
		BillingAddress:  dbOrder.BillingAddress,
		CreatedAt:       dbOrder.CreatedAt,
		UpdatedAt:       dbOrder.UpdatedAt,
	}, nil
}

func nilSliceIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

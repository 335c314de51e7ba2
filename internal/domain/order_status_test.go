package domain_test

import (
	"testing"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/currency"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
		want bool
	}{
		{domain.OrderStatusPending, domain.OrderStatusConfirmed, true},
		{domain.OrderStatusPending, domain.OrderStatusCancelled, true},
		{domain.OrderStatusPending, domain.OrderStatusShipped, false},
		{domain.OrderStatusPending, domain.OrderStatusRefunded, false},
		{domain.OrderStatusConfirmed, domain.OrderStatusShipped, true},
		{domain.OrderStatusConfirmed, domain.OrderStatusCancelled, true},
		{domain.OrderStatusConfirmed, domain.OrderStatusRefunded, true},
		{domain.OrderStatusConfirmed, domain.OrderStatusPending, false},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, true},
		{domain.OrderStatusShipped, domain.OrderStatusRefunded, true},
		{domain.OrderStatusShipped, domain.OrderStatusCancelled, false},
		{domain.OrderStatusDelivered, domain.OrderStatusRefunded, true},
		{domain.OrderStatusDelivered, domain.OrderStatusShipped, false},
		{domain.OrderStatusCancelled, domain.OrderStatusPending, false},
		{domain.OrderStatusRefunded, domain.OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.OrderStatusCancelled.IsTerminal())
	assert.True(t, domain.OrderStatusRefunded.IsTerminal())
	assert.False(t, domain.OrderStatusPending.IsTerminal())
	assert.False(t, domain.OrderStatusDelivered.IsTerminal())
}

func TestToOrderStatus(t *testing.T) {
	for _, s := range domain.OrderStatuses() {
		got, err := domain.ToOrderStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := domain.ToOrderStatus("lost")
	require.EqualError(t, err, "invalid order status")
}

func TestOrder_Validate(t *testing.T) {
	inr := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s), currency.INR)
	}
	valid := domain.Order{
		TotalAmount:    inr("30.00"),
		DiscountAmount: inr("3.00"),
		FinalAmount:    inr("27.00"),
		Items:          []domain.OrderItem{{Quantity: 3, UnitPrice: inr("10.00"), TotalPrice: inr("30.00")}},
	}

	tests := []struct {
		name    string
		mutate  func(o *domain.Order)
		wantErr bool
	}{
		{name: "valid: ok", mutate: func(*domain.Order) {}},
		{name: "no items: fail", mutate: func(o *domain.Order) { o.Items = nil }, wantErr: true},
		{
			name: "discount above total: fail",
			mutate: func(o *domain.Order) {
				o.DiscountAmount = inr("31.00")
				o.FinalAmount = inr("-1.00")
			},
			wantErr: true,
		},
		{name: "final mismatch: fail", mutate: func(o *domain.Order) { o.FinalAmount = inr("28.00") }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.mutate(&o)

			err := o.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

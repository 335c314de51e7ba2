package domain_test

import (
	"testing"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/currency"
)

func TestMoney_Percent(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		cur    currency.Unit
		pct    int64
		want   string
	}{
		{name: "ten percent of thirty", amount: "30.00", cur: currency.INR, pct: 10, want: "3"},
		{name: "rounds to minor unit", amount: "10.05", cur: currency.USD, pct: 5, want: "0.5"},
		{name: "zero decimal currency", amount: "999", cur: currency.JPY, pct: 15, want: "150"},
		{name: "zero percent", amount: "12.34", cur: currency.EUR, pct: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := domain.NewMoney(decimal.RequireFromString(tt.amount), tt.cur)

			got := m.Percent(decimal.NewFromInt(tt.pct))

			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Amount), "got %s", got.Amount)
			assert.Equal(t, tt.cur, got.Currency)
		})
	}
}

func TestMoney_MinorUnits(t *testing.T) {
	m := domain.NewMoney(decimal.RequireFromString("30.00"), currency.INR)
	assert.Equal(t, int64(3000), m.MinorUnits())

	back := domain.FromMinorUnits(3000, currency.INR)
	assert.True(t, m.Amount.Equal(back.Amount))

	jpy := domain.NewMoney(decimal.NewFromInt(500), currency.JPY)
	assert.Equal(t, int64(500), jpy.MinorUnits())
}

func TestMoney_Arithmetic(t *testing.T) {
	unit := domain.NewMoney(decimal.RequireFromString("10.00"), currency.INR)

	total := unit.Mul(3)
	assert.True(t, decimal.NewFromInt(30).Equal(total.Amount))

	final := total.Sub(total.Percent(decimal.NewFromInt(10)))
	assert.True(t, decimal.NewFromInt(27).Equal(final.Amount))
	assert.False(t, final.IsNegative())

	assert.True(t, final.Sub(total).IsNegative())
	assert.Equal(t, "27.00 INR", final.String())
}

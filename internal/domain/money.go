package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

var hundred = decimal.NewFromInt(100)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func NewMoney(amount decimal.Decimal, cur currency.Unit) Money {
	return Money{Amount: amount, Currency: cur}
}

func (m Money) Mul(qty int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(qty))), Currency: m.Currency}
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}
}

// Percent returns pct percent of m rounded to the currency's minor unit.
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{
		Amount:   m.Amount.Mul(pct).Div(hundred).Round(m.Scale()),
		Currency: m.Currency,
	}
}

// Scale is the number of decimal places of the currency's minor unit.
func (m Money) Scale() int32 {
	scale, _ := currency.Standard.Rounding(m.Currency)
	return int32(scale)
}

// MinorUnits converts the amount to the smallest currency unit, e.g. paise or cents.
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(m.Scale()).Round(0).IntPart()
}

func FromMinorUnits(units int64, cur currency.Unit) Money {
	m := Money{Currency: cur}
	m.Amount = decimal.New(units, -m.Scale())
	return m
}

func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(m.Scale()), m.Currency)
}

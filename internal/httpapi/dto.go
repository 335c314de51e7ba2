package httpapi

import (
	"time"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/samber/lo"
)

type MoneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyDTO(m domain.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   m.Amount.StringFixed(m.Scale()),
		Currency: m.Currency.String(),
	}
}

type CartEntryDTO struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Abandoned bool      `json:"abandoned"`
	Notified  bool      `json:"notified"`
}

func toCartEntryDTO(e domain.CartEntry) CartEntryDTO {
	return CartEntryDTO{
		ID:        e.ID.String(),
		ProductID: e.ProductID.String(),
		Quantity:  e.Quantity,
		AddedAt:   e.AddedAt,
		ExpiresAt: e.ExpiresAt,
		Abandoned: e.Abandoned,
		Notified:  e.Notified,
	}
}

func toCartEntryDTOs(entries []domain.CartEntry) []CartEntryDTO {
	return lo.Map(entries, func(e domain.CartEntry, _ int) CartEntryDTO {
		return toCartEntryDTO(e)
	})
}

type AbandonedCartsResponse struct {
	Entries    []CartEntryDTO `json:"entries"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	TotalPages int64          `json:"totalPages"`
}

type OrderItemDTO struct {
	ProductID   string   `json:"productId"`
	Quantity    int      `json:"quantity"`
	UnitPrice   MoneyDTO `json:"unitPrice"`
	TotalPrice  MoneyDTO `json:"totalPrice"`
	PriceTierID string   `json:"priceTierId"`
}

type OrderDTO struct {
	ID              string         `json:"id"`
	UserID          string         `json:"userId"`
	Status          string         `json:"status"`
	TotalAmount     MoneyDTO       `json:"totalAmount"`
	DiscountAmount  MoneyDTO       `json:"discountAmount"`
	FinalAmount     MoneyDTO       `json:"finalAmount"`
	PaymentRef      *string        `json:"paymentRef,omitempty"`
	ShippingAddress *string        `json:"shippingAddress,omitempty"`
	BillingAddress  *string        `json:"billingAddress,omitempty"`
	Items           []OrderItemDTO `json:"items"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func toOrderDTO(o domain.Order) OrderDTO {
	return OrderDTO{
		ID:              o.ID.String(),
		UserID:          o.UserID.String(),
		Status:          o.Status.String(),
		TotalAmount:     toMoneyDTO(o.TotalAmount),
		DiscountAmount:  toMoneyDTO(o.DiscountAmount),
		FinalAmount:     toMoneyDTO(o.FinalAmount),
		PaymentRef:      o.PaymentRef,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Items: lo.Map(o.Items, func(item domain.OrderItem, _ int) OrderItemDTO {
			return OrderItemDTO{
				ProductID:   item.ProductID.String(),
				Quantity:    item.Quantity,
				UnitPrice:   toMoneyDTO(item.UnitPrice),
				TotalPrice:  toMoneyDTO(item.TotalPrice),
				PriceTierID: item.PriceTierID.String(),
			}
		}),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type PaymentDTO struct {
	IntentID     string    `json:"intentId"`
	ClientSecret string    `json:"clientSecret,omitempty"`
	Status       string    `json:"status"`
	Amount       *MoneyDTO `json:"amount,omitempty"`
	Method       string    `json:"method,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

type PlacementResponse struct {
	Order   OrderDTO   `json:"order"`
	Payment PaymentDTO `json:"payment"`
}

type ConfirmationResponse struct {
	Order   OrderDTO   `json:"order"`
	Payment PaymentDTO `json:"payment"`
}

// toOutcomeDTO flattens a payment outcome; Status is one of succeeded, requires_action or declined.
func toOutcomeDTO(outcome domain.PaymentOutcome) PaymentDTO {
	switch out := outcome.(type) {
	case domain.Succeeded:
		return PaymentDTO{IntentID: out.IntentID, Status: domain.IntentStatusSucceeded}
	case domain.RequiresAction:
		return PaymentDTO{IntentID: out.IntentID, ClientSecret: out.ClientSecret, Status: domain.IntentStatusRequiresAction}
	case domain.Declined:
		return PaymentDTO{IntentID: out.IntentID, Status: "declined", Reason: out.Reason}
	default:
		return PaymentDTO{Status: "unavailable"}
	}
}

type RefundResponse struct {
	RefundID string   `json:"refundId"`
	Amount   MoneyDTO `json:"amount"`
	Status   string   `json:"status"`
	Order    OrderDTO `json:"order"`
}

type WinBackResponse struct {
	DiscountPercent string         `json:"discountPercent"`
	Restored        []CartEntryDTO `json:"restored"`
}

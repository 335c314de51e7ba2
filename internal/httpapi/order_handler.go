package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/order"
	"github.com/nikolayk812/orderflow/internal/payment"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type orderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type createOrderRequest struct {
	// Items empty means checkout of the active cart.
	Items           []orderItemRequest `json:"items"`
	ShippingAddress *string            `json:"shippingAddress"`
	BillingAddress  *string            `json:"billingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
}

type confirmOrderRequest struct {
	IntentID        string `json:"intentId"`
	PaymentMethodID string `json:"paymentMethodId"`
	ReturnURL       string `json:"returnUrl"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type refundRequest struct {
	Amount *string `json:"amount"`
}

// POST /orders
func (h *handler) createOrder(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	var req createOrderRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	method, err := domain.ToPaymentMethod(req.PaymentMethod)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	placement, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		UserID: auth.UserID,
		Items: lo.Map(req.Items, func(item orderItemRequest, _ int) order.ItemRequest {
			return order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
		}),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   method,
	})
	if err != nil {
		h.failWithOrder(w, r, err, placement.Order.ID)
		return
	}

	respondJSON(w, http.StatusCreated, PlacementResponse{
		Order: toOrderDTO(placement.Order),
		Payment: PaymentDTO{
			IntentID:     placement.Payment.IntentID,
			ClientSecret: placement.Payment.ClientSecret,
			Status:       placement.Payment.Status,
			Amount:       lo.ToPtr(toMoneyDTO(placement.Payment.Amount)),
			Method:       string(method),
		},
	})
}

// GET /orders?status=&createdAfter=&createdBefore=&limit=&offset=
func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	filter, err := parseOrderFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), auth.UserID, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, lo.Map(orders, func(o domain.Order, _ int) OrderDTO {
		return toOrderDTO(o)
	}))
}

func parseOrderFilter(r *http.Request) (domain.OrderFilter, error) {
	q := r.URL.Query()
	var filter domain.OrderFilter

	for _, s := range q["status"] {
		status, err := domain.ToOrderStatus(s)
		if err != nil {
			return filter, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	var tr domain.TimeRange
	for key, target := range map[string]**time.Time{"createdAfter": &tr.After, "createdBefore": &tr.Before} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("%s %q: %w", key, raw, domain.ErrValidation)
		}
		*target = &ts
	}
	if tr.After != nil || tr.Before != nil {
		filter.CreatedAt = &tr
	}

	for key, target := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("%s %q: %w", key, raw, domain.ErrValidation)
		}
		*target = n
	}

	return filter, nil
}

// ownedOrder loads the order when the caller owns it or is an admin. Other users get ErrNotFound.
func (h *handler) ownedOrder(r *http.Request) (domain.Order, error) {
	auth, _ := authFrom(r.Context())

	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		return domain.Order{}, err
	}

	o, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if o.UserID != auth.UserID && !auth.IsAdmin() {
		return domain.Order{}, fmt.Errorf("order[%s]: %w", orderID, domain.ErrNotFound)
	}
	return o, nil
}

// GET /orders/{orderID}
func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

// POST /orders/{orderID}/confirm
func (h *handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req confirmOrderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	confirmation, err := h.payments.ConfirmOrder(r.Context(), payment.ConfirmRequest{
		OrderID:   o.ID,
		IntentID:  req.IntentID,
		MethodID:  req.PaymentMethodID,
		ReturnURL: req.ReturnURL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ConfirmationResponse{
		Order:   toOrderDTO(confirmation.Order),
		Payment: toOutcomeDTO(confirmation.Outcome),
	})
}

// GET /orders/{orderID}/payment
func (h *handler) paymentDetails(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	intent, err := h.payments.PaymentDetails(r.Context(), o.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, PaymentDTO{
		IntentID: intent.ID,
		Status:   intent.Status,
		Amount:   lo.ToPtr(toMoneyDTO(intent.Amount)),
		Method:   string(intent.Method),
	})
}

// PUT /orders/{orderID}/status
func (h *handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	next, err := domain.ToOrderStatus(req.Status)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err))
		return
	}

	o, err := h.orders.UpdateOrderStatus(r.Context(), orderID, next, &auth.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

// POST /orders/{orderID}/refund
func (h *handler) refundOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.ownedOrder(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req refundRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	var amount *domain.Money
	if req.Amount != nil {
		d, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			h.fail(w, r, fmt.Errorf("amount %q: %w", *req.Amount, domain.ErrValidation))
			return
		}
		amount = lo.ToPtr(domain.NewMoney(d, o.FinalAmount.Currency))
	}

	result, err := h.payments.RefundPayment(r.Context(), o.ID, amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, RefundResponse{
		RefundID: result.Refund.RefundRef,
		Amount:   toMoneyDTO(result.Refund.Amount),
		Status:   result.Refund.Status,
		Order:    toOrderDTO(result.Order),
	})
}

// POST /orders/webhook
func (h *handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, h.maxPayload+1))
	if err != nil {
		h.fail(w, r, errors.Join(domain.ErrValidation, err))
		return
	}
	if int64(len(payload)) > h.maxPayload {
		respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook payload too large")
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// POST /admin/abandoned/sweep
func (h *handler) sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Package httpapi exposes the cart, order and payment operations over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nikolayk812/orderflow/internal/abandonment"
	"github.com/nikolayk812/orderflow/internal/cart"
	"github.com/nikolayk812/orderflow/internal/order"
	"github.com/nikolayk812/orderflow/internal/payment"
	"go.uber.org/zap"
)

type Sweeper interface {
	Sweep(ctx context.Context) (abandonment.SweepReport, error)
}

type Deps struct {
	Carts      *cart.Service
	Orders     *order.Service
	Payments   *payment.Reconciler
	Sweeper    Sweeper
	Logger     *zap.Logger
	Timeout    time.Duration
	MaxPayload int64
}

type handler struct {
	carts    *cart.Service
	orders   *order.Service
	payments *payment.Reconciler
	sweeper  Sweeper
	logger   *zap.Logger
	// maxPayload bounds webhook bodies
	maxPayload int64
}

func NewRouter(deps Deps) http.Handler {
	h := &handler{
		carts:      deps.Carts,
		orders:     deps.Orders,
		payments:   deps.Payments,
		sweeper:    deps.Sweeper,
		logger:     deps.Logger,
		maxPayload: deps.MaxPayload,
	}
	if h.maxPayload <= 0 {
		h.maxPayload = 1 << 16
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if deps.Timeout > 0 {
		r.Use(middleware.Timeout(deps.Timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// signed by the processor, not by the gateway
	r.Post("/orders/webhook", h.handleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Post("/items", h.addItem)
			r.Put("/items/{entryID}", h.updateItem)
			r.Delete("/items/{entryID}", h.removeItem)
			r.Get("/abandoned", h.listAbandoned)
			r.Post("/restore", h.restoreCart)
			r.Post("/winback", h.grantWinBack)

			r.With(requireAdmin).Get("/admin/abandoned", h.listAllAbandoned)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)

			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", h.getOrder)
				r.Post("/confirm", h.confirmOrder)
				r.Get("/payment", h.paymentDetails)

				r.With(requireAdmin).Put("/status", h.updateStatus)
				r.With(requireAdmin).Post("/refund", h.refundOrder)
			})
		})

		r.With(requireAdmin).Post("/admin/abandoned/sweep", h.sweep)
	})

	return r
}

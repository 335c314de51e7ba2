package order

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/nikolayk812/orderflow/internal/pricing"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	LoyaltyPercent   decimal.Decimal
	LoyaltyThreshold decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		LoyaltyPercent:   decimal.NewFromInt(5),
		LoyaltyThreshold: decimal.NewFromInt(1000),
	}
}

type Service struct {
	store    port.Store
	prices   *pricing.PriceBook
	tokens   port.DiscountTokens
	gateway  port.PaymentGateway
	notifier port.NotificationSender
	cfg      Config
	clock    func() time.Time
	logger   *zap.Logger
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func NewService(
	store port.Store,
	prices *pricing.PriceBook,
	tokens port.DiscountTokens,
	gateway port.PaymentGateway,
	notifier port.NotificationSender,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:    store,
		prices:   prices,
		tokens:   tokens,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		clock:    time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

type CreateOrderRequest struct {
	UserID uuid.UUID
	// Items overrides the cart when not empty.
	Items           []ItemRequest
	ShippingAddress *string
	BillingAddress  *string
	PaymentMethod   domain.PaymentMethod
}

type Placement struct {
	Order   domain.Order
	Payment domain.IntentHandle
}

// CreateOrder turns the explicit items, or the user's active cart, into a pending order.
// Stock decrement, order insert and cart clearing commit together or not at all.
// When the payment intent can not be created the committed order is still returned
// alongside an error wrapping domain.ErrGateway.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (Placement, error) {
	items, err := s.resolveItems(ctx, req)
	if err != nil {
		return Placement{}, err
	}

	order, err := s.priceOrder(ctx, req, items)
	if err != nil {
		return Placement{}, err
	}

	user, err := s.store.Users().GetUser(ctx, req.UserID)
	if err != nil {
		return Placement{}, fmt.Errorf("users.GetUser: %w", err)
	}

	token, claimed := s.claimToken(ctx, req.UserID)

	if err := s.applyDiscounts(&order, token, claimed, user.DiscountEligible); err != nil {
		s.restoreToken(ctx, token, claimed)
		return Placement{}, err
	}

	orderID, err := s.commitOrder(ctx, order)
	if err != nil {
		s.restoreToken(ctx, token, claimed)
		return Placement{}, err
	}

	order, err = s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return Placement{}, fmt.Errorf("orders.GetOrder: %w", err)
	}

	s.logger.Info("order created",
		zap.Stringer("order_id", order.ID),
		zap.Stringer("user_id", order.UserID),
		zap.Stringer("final_amount", order.FinalAmount),
		zap.Bool("token_applied", claimed))

	handle, err := s.gateway.CreateIntent(ctx, domain.IntentRequest{
		Amount: order.FinalAmount,
		Method: req.PaymentMethod,
		Metadata: map[string]string{
			domain.MetadataOrderID: order.ID.String(),
			domain.MetadataUserID:  order.UserID.String(),
		},
	})
	if err != nil {
		s.logger.Warn("payment intent not created, order stays pending",
			zap.Stringer("order_id", order.ID), zap.Error(err))
		if !errors.Is(err, domain.ErrGateway) {
			err = fmt.Errorf("%w: %w", domain.ErrGateway, err)
		}
		return Placement{Order: order}, fmt.Errorf("gateway.CreateIntent: %w", err)
	}

	return Placement{Order: order, Payment: handle}, nil
}

func (s *Service) resolveItems(ctx context.Context, req CreateOrderRequest) ([]ItemRequest, error) {
	if len(req.Items) > 0 {
		seen := map[uuid.UUID]bool{}
		for _, item := range req.Items {
			if item.Quantity < 1 {
				return nil, fmt.Errorf("product[%s] quantity %d: %w", item.ProductID, item.Quantity, domain.ErrValidation)
			}
			if seen[item.ProductID] {
				return nil, fmt.Errorf("product[%s] listed twice: %w", item.ProductID, domain.ErrValidation)
			}
			seen[item.ProductID] = true
		}
		return req.Items, nil
	}

	entries, err := s.store.Carts().ListActive(ctx, req.UserID, s.clock())
	if err != nil {
		return nil, fmt.Errorf("carts.ListActive: %w", err)
	}

	if len(entries) == 0 {
		return nil, domain.ErrEmptyCart
	}

	return lo.Map(entries, func(e domain.CartEntry, _ int) ItemRequest {
		return ItemRequest{ProductID: e.ProductID, Quantity: e.Quantity}
	}), nil
}

func (s *Service) priceOrder(ctx context.Context, req CreateOrderRequest, items []ItemRequest) (domain.Order, error) {
	order := domain.Order{
		UserID:          req.UserID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}

	for i, item := range items {
		quote, err := s.prices.Price(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return domain.Order{}, fmt.Errorf("prices.Price[%s]: %w", item.ProductID, err)
		}

		if i == 0 {
			order.TotalAmount = domain.NewMoney(decimal.Zero, quote.UnitPrice.Currency)
		} else if quote.UnitPrice.Currency != order.TotalAmount.Currency {
			return domain.Order{}, fmt.Errorf("product[%s] priced in %s, order in %s: %w",
				item.ProductID, quote.UnitPrice.Currency, order.TotalAmount.Currency, domain.ErrValidation)
		}

		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   quote.UnitPrice,
			TotalPrice:  quote.Total,
			PriceTierID: quote.Tier.ID,
		})
		order.TotalAmount = order.TotalAmount.Add(quote.Total)
	}

	return order, nil
}

// applyDiscounts adds the token and loyalty percentages of the total. A negative final amount
// is rejected rather than clamped.
func (s *Service) applyDiscounts(order *domain.Order, token domain.DiscountToken, claimed, loyal bool) error {
	discount := domain.NewMoney(decimal.Zero, order.TotalAmount.Currency)

	if claimed {
		discount = discount.Add(order.TotalAmount.Percent(token.Percent))
	}

	if loyal {
		discount = discount.Add(order.TotalAmount.Percent(s.cfg.LoyaltyPercent))
	}

	order.DiscountAmount = discount
	order.FinalAmount = order.TotalAmount.Sub(discount)

	if order.FinalAmount.IsNegative() {
		return fmt.Errorf("final amount %s after discount %s: %w", order.FinalAmount, discount, domain.ErrValidation)
	}

	return nil
}

func (s *Service) commitOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	var orderID uuid.UUID

	// fixed lock order across concurrent checkouts
	byProduct := slices.Clone(order.Items)
	slices.SortFunc(byProduct, func(a, b domain.OrderItem) int {
		return slices.Compare(a.ProductID[:], b.ProductID[:])
	})

	err := s.store.WithTx(ctx, func(tx port.Store) error {
		var err error

		orderID, err = tx.Orders().InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("orders.InsertOrder: %w", err)
		}

		for _, item := range byProduct {
			if err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("products.DecrementStock: %w", err)
			}
		}

		if _, err := tx.Carts().ClearActive(ctx, order.UserID); err != nil {
			return fmt.Errorf("carts.ClearActive: %w", err)
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("store.WithTx: %w", err)
	}

	return orderID, nil
}

// claimToken treats an unreachable token store as having no token.
func (s *Service) claimToken(ctx context.Context, userID uuid.UUID) (domain.DiscountToken, bool) {
	token, ok, err := s.tokens.Claim(ctx, userID)
	if err != nil {
		s.logger.Warn("discount token claim failed", zap.Stringer("user_id", userID), zap.Error(err))
		return domain.DiscountToken{}, false
	}
	return token, ok
}

func (s *Service) restoreToken(ctx context.Context, token domain.DiscountToken, claimed bool) {
	if !claimed {
		return
	}
	if err := s.tokens.Restore(ctx, token); err != nil {
		s.logger.Error("discount token restore failed", zap.Stringer("user_id", token.UserID), zap.Error(err))
	}
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	order, err := s.store.Orders().GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.GetOrder: %w", err)
	}
	return order, nil
}

// ListOrders returns a page of the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID uuid.UUID, filter domain.OrderFilter) ([]domain.Order, error) {
	filter.UserIDs = []uuid.UUID{userID}

	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	orders, err := s.store.Orders().SearchOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("orders.SearchOrders: %w", err)
	}
	return orders, nil
}

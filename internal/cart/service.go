package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	// TTL is how long an entry holds before the sweep may abandon it.
	TTL            time.Duration
	WinBackPercent decimal.Decimal
	WinBackTTL     time.Duration
	// MaxRetries bounds the retries after losing a unique-index race.
	MaxRetries int
}

func DefaultConfig() Config {
	return Config{
		TTL:            2 * time.Minute,
		WinBackPercent: decimal.NewFromInt(10),
		WinBackTTL:     time.Hour,
		MaxRetries:     3,
	}
}

type Service struct {
	store  port.Store
	tokens port.DiscountTokens
	cfg    Config
	clock  func() time.Time
	logger *zap.Logger
}

type Option func(*Service)

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

func NewService(store port.Store, tokens port.DiscountTokens, cfg Config, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem puts qty units of a product into the user's cart. A previously abandoned entry for the
// product is revived with the new quantity, an active one is incremented.
func (s *Service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (domain.CartEntry, error) {
	if qty < 1 {
		return domain.CartEntry{}, fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	if err := s.checkStock(ctx, productID, qty); err != nil {
		return domain.CartEntry{}, err
	}

	carts := s.store.Carts()

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		expiresAt := s.clock().Add(s.cfg.TTL)

		entry, revived, err := carts.ReviveAbandoned(ctx, userID, productID, qty, expiresAt)
		if err == nil && revived {
			s.logger.Debug("cart entry revived", zap.Stringer("user_id", userID), zap.Stringer("product_id", productID))
			return entry, nil
		}

		if err == nil {
			entry, err = carts.UpsertItem(ctx, userID, productID, qty, expiresAt)
			if err == nil {
				return entry, nil
			}
		}

		if !errors.Is(err, domain.ErrConflict) {
			return domain.CartEntry{}, fmt.Errorf("add item: %w", err)
		}

		lastErr = err
		s.logger.Debug("cart add lost a race, retrying",
			zap.Stringer("user_id", userID),
			zap.Stringer("product_id", productID),
			zap.Int("attempt", attempt+1))
	}

	return domain.CartEntry{}, fmt.Errorf("add item after %d retries: %w", s.cfg.MaxRetries, lastErr)
}

func (s *Service) UpdateQuantity(ctx context.Context, userID, entryID uuid.UUID, qty int) (domain.CartEntry, error) {
	if qty < 1 {
		return domain.CartEntry{}, fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return domain.CartEntry{}, err
	}

	if err := s.checkStock(ctx, entry.ProductID, qty); err != nil {
		return domain.CartEntry{}, err
	}

	updated, err := s.store.Carts().UpdateQuantity(ctx, entryID, qty, s.clock().Add(s.cfg.TTL))
	if err != nil {
		return domain.CartEntry{}, fmt.Errorf("carts.UpdateQuantity: %w", err)
	}

	return updated, nil
}

func (s *Service) Remove(ctx context.Context, userID, entryID uuid.UUID) error {
	if _, err := s.ownedEntry(ctx, userID, entryID); err != nil {
		return err
	}

	deleted, err := s.store.Carts().DeleteItem(ctx, entryID)
	if err != nil {
		return fmt.Errorf("carts.DeleteItem: %w", err)
	}
	if !deleted {
		return fmt.Errorf("cart entry[%s]: %w", entryID, domain.ErrNotFound)
	}

	return nil
}

func (s *Service) ListActive(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	entries, err := s.store.Carts().ListActive(ctx, userID, s.clock())
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.ListActive: %w", err)
	}

	return domain.Cart{OwnerID: userID, Items: entries}, nil
}

func (s *Service) ListAbandoned(ctx context.Context, userID uuid.UUID) ([]domain.CartEntry, error) {
	entries, err := s.store.Carts().ListAbandoned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("carts.ListAbandoned: %w", err)
	}

	return entries, nil
}

// ListAllAbandoned is the admin view of every user's abandoned entries, earliest expiry first.
func (s *Service) ListAllAbandoned(ctx context.Context, page domain.Page) (domain.AbandonedCarts, error) {
	if err := page.Validate(domain.MaxAbandonedPageSize); err != nil {
		return domain.AbandonedCarts{}, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	result, err := s.store.Carts().ListAllAbandoned(ctx, page)
	if err != nil {
		return domain.AbandonedCarts{}, fmt.Errorf("carts.ListAllAbandoned: %w", err)
	}

	return result, nil
}

// RestoreAbandoned reactivates abandoned entries with a fresh TTL. A nil productID restores all.
func (s *Service) RestoreAbandoned(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]domain.CartEntry, error) {
	restored, err := s.store.Carts().RestoreAbandoned(ctx, userID, productID, s.clock().Add(s.cfg.TTL))
	if err != nil {
		return nil, fmt.Errorf("carts.RestoreAbandoned: %w", err)
	}

	s.logger.Info("abandoned cart restored", zap.Stringer("user_id", userID), zap.Int("entries", len(restored)))

	return restored, nil
}

type WinBack struct {
	Percent  decimal.Decimal
	Restored []domain.CartEntry
}

// GrantWinBack issues a discount token and restores the cart when the user has abandoned entries.
// A zero percent means there was nothing to win back.
func (s *Service) GrantWinBack(ctx context.Context, userID uuid.UUID) (WinBack, error) {
	abandoned, err := s.ListAbandoned(ctx, userID)
	if err != nil {
		return WinBack{}, err
	}

	if len(abandoned) == 0 {
		return WinBack{Percent: decimal.Zero}, nil
	}

	if err := s.tokens.Issue(ctx, userID, s.cfg.WinBackPercent, s.cfg.WinBackTTL); err != nil {
		return WinBack{}, fmt.Errorf("tokens.Issue: %w", err)
	}

	restored, err := s.RestoreAbandoned(ctx, userID, nil)
	if err != nil {
		return WinBack{}, err
	}

	return WinBack{Percent: s.cfg.WinBackPercent, Restored: restored}, nil
}

func (s *Service) checkStock(ctx context.Context, productID uuid.UUID, qty int) error {
	product, err := s.store.Products().GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("products.GetProduct: %w", err)
	}

	if !product.IsActive {
		return fmt.Errorf("product[%s] is inactive: %w", productID, domain.ErrNotFound)
	}

	if qty > product.CurrentStock {
		return fmt.Errorf("product[%s] has %d left, want %d: %w", productID, product.CurrentStock, qty, domain.ErrOutOfStock)
	}

	return nil
}

func (s *Service) ownedEntry(ctx context.Context, userID, entryID uuid.UUID) (domain.CartEntry, error) {
	entry, err := s.store.Carts().GetItem(ctx, entryID)
	if err != nil {
		return domain.CartEntry{}, fmt.Errorf("carts.GetItem: %w", err)
	}

	if entry.UserID != userID {
		return domain.CartEntry{}, fmt.Errorf("cart entry[%s]: %w", entryID, domain.ErrNotFound)
	}

	return entry, nil
}

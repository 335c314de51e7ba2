package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/abandonment"
	"github.com/nikolayk812/orderflow/internal/cache"
	"github.com/nikolayk812/orderflow/internal/cart"
	"github.com/nikolayk812/orderflow/internal/config"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/gateway"
	"github.com/nikolayk812/orderflow/internal/logger"
	"github.com/nikolayk812/orderflow/internal/notify"
	"github.com/nikolayk812/orderflow/internal/order"
	"github.com/nikolayk812/orderflow/internal/payment"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/nikolayk812/orderflow/internal/pricing"
	"github.com/nikolayk812/orderflow/internal/repository"
	"github.com/nikolayk812/orderflow/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// app holds the wired components and what must be closed on exit.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	carts     *cart.Service
	orders    *order.Service
	payments  *payment.Reconciler
	scheduler *abandonment.Scheduler

	// pool is nil on the memory driver.
	pool *pgxpool.Pool

	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config.Load: %w", err)
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger.New: %w", err)
	}

	return cfg, l, nil
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, l, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: l}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.Redis.Addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)

	if err := rdb.Ping(ctx).Err(); err != nil {
		l.Warn("redis not reachable, discount tokens will be unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	tokens := cache.NewDiscountTokens(rdb)
	marks := cache.NewNotificationMarks(rdb)

	var notifier port.NotificationSender = notify.NewLogSender(l)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSender := notify.NewKafkaSender(cfg.Kafka.Brokers, cfg.Kafka.Topic, l)
		a.closers = append(a.closers, kafkaSender.Close)
		notifier = kafkaSender
	}

	stripeGateway := gateway.NewStripe(gateway.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		MinAmount:     config.Decimal(cfg.Stripe.MinAmount),
		ReturnURL:     cfg.Stripe.ReturnURL,
		Timeout:       cfg.Stripe.Timeout,
		BaseURL:       cfg.Stripe.BaseURL,
	}, l.Named("stripe"))
	paymentGateway := gateway.NewBreaker(stripeGateway, gateway.DefaultBreakerConfig(), l)

	policy, err := pricing.ToPolicy(cfg.Pricing.TierPolicy)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("pricing.ToPolicy: %w", err)
	}

	cartCfg := cart.DefaultConfig()
	cartCfg.TTL = cfg.Cart.TTL
	cartCfg.WinBackPercent = config.Decimal(cfg.Abandonment.DiscountPercent)
	cartCfg.WinBackTTL = cfg.Abandonment.DiscountTTL
	a.carts = cart.NewService(store, tokens, cartCfg, l.Named("cart"))

	a.orders = order.NewService(
		store,
		pricing.NewPriceBook(store.Prices(), policy),
		tokens,
		paymentGateway,
		notifier,
		order.Config{
			LoyaltyPercent:   config.Decimal(cfg.Order.LoyaltyPercent),
			LoyaltyThreshold: config.Decimal(cfg.Order.LoyaltyThreshold),
		},
		l.Named("order"),
	)

	a.payments = payment.NewReconciler(a.orders, store, paymentGateway, l.Named("payment"))

	a.scheduler = abandonment.NewScheduler(store, marks, tokens, notifier, abandonment.Config{
		SweepInterval:   cfg.Abandonment.SweepInterval,
		PurgeInterval:   cfg.Abandonment.PurgeInterval,
		Retention:       cfg.Abandonment.Retention,
		MarkerTTL:       cfg.Abandonment.MarkerTTL,
		DiscountPercent: config.Decimal(cfg.Abandonment.DiscountPercent),
		DiscountTTL:     cfg.Abandonment.DiscountTTL,
	}, l.Named("abandonment"))

	return a, nil
}

func (a *app) openStore(ctx context.Context) (port.Store, error) {
	if a.cfg.Storage.Driver == "memory" {
		store := memory.NewStore()
		if err := seedDemo(ctx, store, a.cfg.Stripe.Currency, a.logger); err != nil {
			return nil, fmt.Errorf("seedDemo: %w", err)
		}
		return store, nil
	}

	pool, err := openPool(ctx, a.cfg.Postgres.DSN)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	return repository.NewStore(pool), nil
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}

	return pool, nil
}

// seedDemo gives the memory driver a user and a product to play with.
func seedDemo(ctx context.Context, store port.Store, code string, l *zap.Logger) error {
	cur, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Errorf("currency.ParseISO: %w", err)
	}

	userID, err := store.Users().InsertUser(ctx, domain.User{
		Email:          "demo@orderflow.local",
		Name:           "Demo User",
		TotalPurchases: domain.NewMoney(decimal.Zero, cur),
	})
	if err != nil {
		return fmt.Errorf("users.InsertUser: %w", err)
	}

	productID, err := store.Products().InsertProduct(ctx, domain.Product{
		Name:         "Demo Product",
		IsActive:     true,
		CurrentStock: 100,
	})
	if err != nil {
		return fmt.Errorf("products.InsertProduct: %w", err)
	}

	tiers := []domain.PriceTier{
		{BatchStart: 1, BatchEnd: lo.ToPtr(9), Price: domain.NewMoney(decimal.NewFromInt(100), cur), CostPrice: domain.NewMoney(decimal.NewFromInt(60), cur)},
		{BatchStart: 10, Price: domain.NewMoney(decimal.NewFromInt(90), cur), CostPrice: domain.NewMoney(decimal.NewFromInt(60), cur)},
	}
	for _, tier := range tiers {
		tier.ProductID = productID
		tier.IsActive = true
		if _, err := store.Prices().InsertPriceTier(ctx, tier); err != nil {
			return fmt.Errorf("prices.InsertPriceTier: %w", err)
		}
	}

	l.Info("memory store seeded", zap.Stringer("user_id", userID), zap.Stringer("product_id", productID))
	return nil
}

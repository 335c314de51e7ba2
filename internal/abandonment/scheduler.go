// Package abandonment expires idle cart entries, notifies their owners and purges old leftovers.
// It assumes a single running instance.
package abandonment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	SweepInterval time.Duration
	PurgeInterval time.Duration
	// Retention is how long abandoned entries are kept after they expired.
	Retention time.Duration
	// MarkerTTL suppresses repeat notifications to the same user.
	MarkerTTL       time.Duration
	DiscountPercent decimal.Decimal
	DiscountTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		SweepInterval:   time.Minute,
		PurgeInterval:   24 * time.Hour,
		Retention:       7 * 24 * time.Hour,
		MarkerTTL:       time.Hour,
		DiscountPercent: decimal.NewFromInt(10),
		DiscountTTL:     time.Hour,
	}
}

type Scheduler struct {
	store    port.Store
	marks    port.NotificationMarks
	tokens   port.DiscountTokens
	notifier port.NotificationSender
	cfg      Config
	clock    func() time.Time
	logger   *zap.Logger
}

type Option func(*Scheduler)

func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

func NewScheduler(
	store port.Store,
	marks port.NotificationMarks,
	tokens port.DiscountTokens,
	notifier port.NotificationSender,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Scheduler {
	s := &Scheduler{
		store:    store,
		marks:    marks,
		tokens:   tokens,
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

// SweepReport counts what one sweep did.
type SweepReport struct {
	Users     int `json:"users"`
	Abandoned int `json:"abandoned"`
	Notified  int `json:"notified"`
	Failed    int `json:"failed"`
}

// Sweep abandons every expired entry. Each user gets at most one notification per marker period
// and a fresh discount token whenever entries of theirs were abandoned.
func (s *Scheduler) Sweep(ctx context.Context) (SweepReport, error) {
	now := s.clock()

	expired, err := s.store.Carts().ListExpired(ctx, now)
	if err != nil {
		return SweepReport{}, fmt.Errorf("carts.ListExpired: %w", err)
	}

	var report SweepReport

	byUser := lo.GroupBy(expired, func(e domain.CartEntry) uuid.UUID {
		return e.UserID
	})

	for userID, entries := range byUser {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.Users++

		marked, sent, err := s.sweepUser(ctx, userID, entries, now)
		report.Abandoned += marked
		switch {
		case err != nil:
			report.Failed++
			s.logger.Error("sweep user failed", zap.Stringer("user_id", userID), zap.Error(err))
		case sent:
			report.Notified++
		}
	}

	if report.Users > 0 {
		s.logger.Info("abandoned carts swept",
			zap.Int("users", report.Users),
			zap.Int("abandoned", report.Abandoned),
			zap.Int("notified", report.Notified),
			zap.Int("failed", report.Failed))
	}

	return report, nil
}

func (s *Scheduler) sweepUser(ctx context.Context, userID uuid.UUID, entries []domain.CartEntry, now time.Time) (int, bool, error) {
	logger := s.logger.With(zap.Stringer("user_id", userID))

	alreadyNotified, err := s.marks.Exists(ctx, userID)
	if err != nil {
		return 0, false, fmt.Errorf("marks.Exists: %w", err)
	}

	ids := lo.Map(entries, func(e domain.CartEntry, _ int) uuid.UUID {
		return e.ID
	})

	// mark first: at most one notification per batch
	marked, err := s.store.Carts().MarkAbandoned(ctx, ids, true, now)
	if err != nil {
		return 0, false, fmt.Errorf("carts.MarkAbandoned: %w", err)
	}
	if len(marked) == 0 {
		return 0, false, nil
	}

	if err := s.tokens.Issue(ctx, userID, s.cfg.DiscountPercent, s.cfg.DiscountTTL); err != nil {
		logger.Error("discount token not issued", zap.Error(err))
	}

	if alreadyNotified {
		logger.Debug("notification suppressed by marker", zap.Int("entries", len(marked)))
		return len(marked), false, nil
	}

	user, err := s.store.Users().GetUser(ctx, userID)
	if err != nil || user.Email == "" {
		logger.Warn("abandoned cart owner not notifiable", zap.Error(err))
		return len(marked), false, nil
	}

	n := domain.Notification{
		UserID: userID,
		Kind:   domain.NotificationAbandonedCart,
		Payload: map[string]any{
			"email":           user.Email,
			"name":            user.Name,
			"discountPercent": s.cfg.DiscountPercent.String(),
			"items": lo.Map(marked, func(e domain.CartEntry, _ int) map[string]any {
				return map[string]any{
					"productId": e.ProductID.String(),
					"quantity":  e.Quantity,
				}
			}),
		},
	}

	if err := s.notifier.Send(ctx, n); err != nil {
		logger.Warn("abandoned cart notification failed", zap.Error(err))
		return len(marked), false, nil
	}

	if err := s.marks.Set(ctx, userID, s.cfg.MarkerTTL); err != nil {
		logger.Warn("notification marker not set", zap.Error(err))
	}

	return len(marked), true, nil
}

// Purge deletes abandoned entries that expired more than the retention period ago.
func (s *Scheduler) Purge(ctx context.Context) (int64, error) {
	before := s.clock().Add(-s.cfg.Retention)

	n, err := s.store.Carts().PurgeAbandoned(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("carts.PurgeAbandoned: %w", err)
	}

	if n > 0 {
		s.logger.Info("abandoned carts purged", zap.Int64("entries", n), zap.Time("before", before))
	}
	return n, nil
}

// Run sweeps and purges on their intervals until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	sweepTicker := time.NewTicker(s.cfg.SweepInterval)
	purgeTicker := time.NewTicker(s.cfg.PurgeInterval)
	defer sweepTicker.Stop()
	defer purgeTicker.Stop()

	s.logger.Info("abandonment scheduler started",
		zap.Duration("sweep_interval", s.cfg.SweepInterval),
		zap.Duration("purge_interval", s.cfg.PurgeInterval))

	for {
		select {
		case <-sweepTicker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("sweep failed", zap.Error(err))
			}
		case <-purgeTicker.C:
			if _, err := s.Purge(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("purge failed", zap.Error(err))
			}
		case <-ctx.Done():
			s.logger.Info("abandonment scheduler stopped")
			return nil
		}
	}
}

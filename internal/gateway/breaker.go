package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before a half-open probe.
	OpenTimeout time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Breaker guards a gateway with a circuit breaker. Only transport and processor failures count;
// declines, state conflicts and missing intents do not.
type Breaker struct {
	next port.PaymentGateway
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreaker(next port.PaymentGateway, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
		IsSuccessful: isSuccessful,
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}

	var conflict *domain.StateConflictError
	return errors.As(err, &conflict) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrSignature)
}

func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T

	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%w: %w", domain.ErrGateway, err)
	}
	if err != nil {
		return zero, err
	}

	v, _ := result.(T)
	return v, nil
}

func (b *Breaker) CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.IntentHandle, error) {
	return execute(b, func() (domain.IntentHandle, error) {
		return b.next.CreateIntent(ctx, req)
	})
}

// ConfirmIntent reports an open breaker as domain.GatewayUnavailable.
func (b *Breaker) ConfirmIntent(ctx context.Context, req domain.ConfirmRequest) (domain.PaymentOutcome, error) {
	outcome, err := execute(b, func() (domain.PaymentOutcome, error) {
		return b.next.ConfirmIntent(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.GatewayUnavailable{Reason: err.Error()}, nil
	}
	return outcome, err
}

func (b *Breaker) RetrieveIntent(ctx context.Context, intentID string) (domain.Intent, error) {
	return execute(b, func() (domain.Intent, error) {
		return b.next.RetrieveIntent(ctx, intentID)
	})
}

func (b *Breaker) Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResult, error) {
	return execute(b, func() (domain.RefundResult, error) {
		return b.next.Refund(ctx, req)
	})
}

// VerifyWebhook is local and bypasses the breaker.
func (b *Breaker) VerifyWebhook(payload []byte, signature string) (domain.WebhookEvent, error) {
	return b.next.VerifyWebhook(payload, signature)
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

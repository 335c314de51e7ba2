package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/shopspring/decimal"
)

// PaymentGateway errors wrap domain.ErrGateway on transport failure and return
// *domain.StateConflictError when the intent is in an unexpected state.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req domain.IntentRequest) (domain.IntentHandle, error)
	ConfirmIntent(ctx context.Context, req domain.ConfirmRequest) (domain.PaymentOutcome, error)
	RetrieveIntent(ctx context.Context, intentID string) (domain.Intent, error)
	Refund(ctx context.Context, req domain.RefundRequest) (domain.RefundResult, error)

	// VerifyWebhook checks the signature against the configured webhook secret before
	// parsing the payload. Returns domain.ErrSignature on mismatch.
	VerifyWebhook(payload []byte, signature string) (domain.WebhookEvent, error)
}

type DiscountTokens interface {
	Issue(ctx context.Context, userID uuid.UUID, percent decimal.Decimal, ttl time.Duration) error

	// Claim atomically reads and removes the user's token. Returns false when there is none.
	Claim(ctx context.Context, userID uuid.UUID) (domain.DiscountToken, bool, error)

	// Restore puts back a claimed token with its remaining TTL.
	Restore(ctx context.Context, token domain.DiscountToken) error
}

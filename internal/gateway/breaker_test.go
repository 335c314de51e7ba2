package gateway_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/gateway"
	"github.com/nikolayk812/orderflow/internal/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBreaker_TripsOnTransportFailures(t *testing.T) {
	fake := testutil.NewFakeGateway()
	fake.CreateErr = errors.Join(domain.ErrGateway, errors.New("connection refused"))

	b := gateway.NewBreaker(fake, gateway.BreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Minute}, zap.NewNop())
	req := domain.IntentRequest{Amount: testutil.INR("100.00")}

	for range 3 {
		_, err := b.CreateIntent(t.Context(), req)
		require.ErrorIs(t, err, domain.ErrGateway)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.CreateIntent(t.Context(), req)
	require.ErrorIs(t, err, domain.ErrGateway)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, fake.Calls("CreateIntent"))

	outcome, err := b.ConfirmIntent(t.Context(), domain.ConfirmRequest{IntentID: "pi_1"})
	require.NoError(t, err)
	assert.IsType(t, domain.GatewayUnavailable{}, outcome)
	assert.Zero(t, fake.Calls("ConfirmIntent"))
}

func TestBreaker_IgnoresBusinessOutcomes(t *testing.T) {
	fake := testutil.NewFakeGateway()
	b := gateway.NewBreaker(fake, gateway.BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, zap.NewNop())

	handle, err := b.CreateIntent(t.Context(), domain.IntentRequest{Amount: testutil.INR("100.00")})
	require.NoError(t, err)

	fake.ConfirmFunc = func(intent domain.Intent) (domain.PaymentOutcome, error) {
		return domain.Declined{IntentID: intent.ID, Reason: "insufficient_funds"}, nil
	}
	for range 3 {
		outcome, err := b.ConfirmIntent(t.Context(), domain.ConfirmRequest{IntentID: handle.IntentID})
		require.NoError(t, err)
		assert.IsType(t, domain.Declined{}, outcome)
	}

	fake.ConfirmFunc = func(intent domain.Intent) (domain.PaymentOutcome, error) {
		return nil, &domain.StateConflictError{IntentID: intent.ID, Status: domain.IntentStatusSucceeded}
	}
	for range 3 {
		_, err := b.ConfirmIntent(t.Context(), domain.ConfirmRequest{IntentID: handle.IntentID})
		var conflict *domain.StateConflictError
		require.ErrorAs(t, err, &conflict)
	}

	for range 3 {
		_, err := b.RetrieveIntent(t.Context(), "pi_missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_VerifyWebhookBypasses(t *testing.T) {
	fake := testutil.NewFakeGateway()
	b := gateway.NewBreaker(fake, gateway.DefaultBreakerConfig(), zap.NewNop())

	_, err := b.VerifyWebhook([]byte(`{}`), "bad")
	require.ErrorIs(t, err, domain.ErrSignature)

	payload := testutil.MustWebhook(domain.EventPaymentFailed, "pi_1", nil)
	event, err := b.VerifyWebhook(payload, testutil.ValidSignature)
	require.NoError(t, err)
	assert.Equal(t, domain.EventPaymentFailed, event.Type)
}

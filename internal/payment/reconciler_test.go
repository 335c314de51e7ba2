package payment_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/cache"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/order"
	"github.com/nikolayk812/orderflow/internal/payment"
	"github.com/nikolayk812/orderflow/internal/pricing"
	"github.com/nikolayk812/orderflow/internal/repository/memory"
	"github.com/nikolayk812/orderflow/internal/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type reconcilerSuite struct {
	suite.Suite

	store      *memory.Store
	gateway    *testutil.FakeGateway
	notifier   *testutil.RecordingNotifier
	orders     *order.Service
	reconciler *payment.Reconciler

	catalog testutil.Catalog
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(reconcilerSuite))
}

// before each test
func (suite *reconcilerSuite) SetupTest() {
	t := suite.T()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	suite.store = memory.NewStore(memory.WithClock(clock))
	client, _ := testutil.Redis(t)
	suite.gateway = testutil.NewFakeGateway()
	suite.notifier = &testutil.RecordingNotifier{}

	suite.orders = order.NewService(
		suite.store,
		pricing.NewPriceBook(suite.store.Prices(), pricing.PolicyQuantityMatched),
		cache.NewDiscountTokens(client),
		suite.gateway,
		suite.notifier,
		order.DefaultConfig(),
		zap.NewNop(),
		order.WithClock(clock),
	)
	suite.reconciler = payment.NewReconciler(suite.orders, suite.store, suite.gateway, zap.NewNop())

	suite.catalog = testutil.SeedCatalog(t, suite.store, 100, "10.00")
}

// placeOrder creates a pending 30.00 order and returns it with its intent id.
func (suite *reconcilerSuite) placeOrder() (domain.Order, string) {
	placement, err := suite.orders.CreateOrder(suite.T().Context(), order.CreateOrderRequest{
		UserID: suite.catalog.UserID,
		Items:  []order.ItemRequest{{ProductID: suite.catalog.ProductID, Quantity: 3}},
	})
	suite.Require().NoError(err)
	return placement.Order, placement.Payment.IntentID
}

func (suite *reconcilerSuite) purchases() domain.User {
	u, err := suite.store.Users().GetUser(suite.T().Context(), suite.catalog.UserID)
	suite.Require().NoError(err)
	return u
}

func (suite *reconcilerSuite) status(orderID uuid.UUID) domain.OrderStatus {
	o, err := suite.orders.GetOrder(suite.T().Context(), orderID)
	suite.Require().NoError(err)
	return o.Status
}

func (suite *reconcilerSuite) TestConfirmOrder_Idempotent() {
	t := suite.T()
	ctx := t.Context()

	o, intentID := suite.placeOrder()
	req := payment.ConfirmRequest{OrderID: o.ID, IntentID: intentID, MethodID: "pm_card"}

	confirmation, err := suite.reconciler.ConfirmOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, confirmation.Order.Status)
	assert.Equal(t, intentID, lo.FromPtr(confirmation.Order.PaymentRef))
	assert.IsType(t, domain.Succeeded{}, confirmation.Outcome)

	again, err := suite.reconciler.ConfirmOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, again.Order.Status)

	assert.Equal(t, 1, suite.gateway.Calls("ConfirmIntent"))
	assert.True(t, testutil.INR("30.00").Amount.Equal(suite.purchases().TotalPurchases.Amount))
	assert.Equal(t, 1, suite.notifier.SentTo(suite.catalog.UserID, domain.NotificationOrderConfirmed))
}

func (suite *reconcilerSuite) TestConfirmOrder_ConcurrentWithWebhook() {
	t := suite.T()
	ctx := t.Context()

	o, intentID := suite.placeOrder()
	payload := testutil.MustWebhook(domain.EventPaymentSucceeded, intentID, map[string]string{domain.MetadataOrderID: o.ID.String()})

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: o.ID, IntentID: intentID})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, suite.reconciler.HandleWebhook(ctx, payload, testutil.ValidSignature))
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.OrderStatusConfirmed, suite.status(o.ID))
	assert.True(t, testutil.INR("30.00").Amount.Equal(suite.purchases().TotalPurchases.Amount))
	assert.Equal(t, 1, suite.notifier.SentTo(suite.catalog.UserID, domain.NotificationOrderConfirmed))
}

func (suite *reconcilerSuite) TestConfirmOrder_Outcomes() {
	tests := []struct {
		name       string
		confirm    func(intent domain.Intent) (domain.PaymentOutcome, error)
		outOfBand  bool
		wantError  error
		wantStatus domain.OrderStatus
	}{
		{
			name: "declined stays pending",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return domain.Declined{IntentID: intent.ID, Reason: "insufficient_funds"}, nil
			},
			wantStatus: domain.OrderStatusPending,
		},
		{
			name: "requires action stays pending",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return domain.RequiresAction{IntentID: intent.ID, ClientSecret: "secret"}, nil
			},
			wantStatus: domain.OrderStatusPending,
		},
		{
			name: "conflict without status resolved by retrieve",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return nil, &domain.StateConflictError{IntentID: intent.ID}
			},
			outOfBand:  true,
			wantStatus: domain.OrderStatusConfirmed,
		},
		{
			name: "conflict in another state",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return nil, &domain.StateConflictError{IntentID: intent.ID, Status: domain.IntentStatusCanceled}
			},
			wantError:  domain.ErrConflict,
			wantStatus: domain.OrderStatusPending,
		},
		{
			name: "intent of another order",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return domain.Succeeded{IntentID: intent.ID, Metadata: map[string]string{domain.MetadataOrderID: uuid.NewString()}}, nil
			},
			wantError:  domain.ErrValidation,
			wantStatus: domain.OrderStatusPending,
		},
		{
			name: "succeeded without order tag",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return domain.Succeeded{IntentID: intent.ID}, nil
			},
			wantError:  domain.ErrValidation,
			wantStatus: domain.OrderStatusPending,
		},
		{
			name: "conflict with succeeded status checks the fetched intent",
			confirm: func(intent domain.Intent) (domain.PaymentOutcome, error) {
				return nil, &domain.StateConflictError{IntentID: intent.ID, Status: domain.IntentStatusSucceeded}
			},
			outOfBand:  true,
			wantStatus: domain.OrderStatusConfirmed,
		},
		{
			name: "gateway unavailable",
			confirm: func(domain.Intent) (domain.PaymentOutcome, error) {
				return domain.GatewayUnavailable{Reason: "circuit breaker is open"}, nil
			},
			wantError:  domain.ErrGateway,
			wantStatus: domain.OrderStatusPending,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			o, intentID := suite.placeOrder()
			suite.gateway.ConfirmFunc = tt.confirm
			defer func() { suite.gateway.ConfirmFunc = nil }()

			if tt.outOfBand {
				suite.gateway.SetStatus(intentID, domain.IntentStatusSucceeded)
			}

			_, err := suite.reconciler.ConfirmOrder(t.Context(), payment.ConfirmRequest{OrderID: o.ID, IntentID: intentID})
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantStatus, suite.status(o.ID))
		})
	}
}

func (suite *reconcilerSuite) TestConfirmOrder_CancelledOrder() {
	t := suite.T()
	ctx := t.Context()

	o, intentID := suite.placeOrder()
	_, err := suite.orders.UpdateOrderStatus(ctx, o.ID, domain.OrderStatusCancelled, nil)
	require.NoError(t, err)

	_, err = suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: o.ID, IntentID: intentID})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Zero(t, suite.gateway.Calls("ConfirmIntent"))

	_, err = suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: uuid.New(), IntentID: intentID})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *reconcilerSuite) TestConfirmOrder_PaidIntentOfAnotherOrder() {
	t := suite.T()
	ctx := t.Context()

	paid, paidIntent := suite.placeOrder()
	_, err := suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: paid.ID, IntentID: paidIntent})
	require.NoError(t, err)

	other, _ := suite.placeOrder()

	_, err = suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: other.ID, IntentID: paidIntent})
	require.ErrorIs(t, err, domain.ErrValidation)

	o, err := suite.orders.GetOrder(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Nil(t, o.PaymentRef)
	assert.True(t, testutil.INR("30.00").Amount.Equal(suite.purchases().TotalPurchases.Amount))
	assert.Equal(t, 1, suite.gateway.Calls("RetrieveIntent"))
}

func (suite *reconcilerSuite) TestHandleWebhook() {
	t := suite.T()
	ctx := t.Context()

	confirmed, confirmedIntent := suite.placeOrder()
	pending, pendingIntent := suite.placeOrder()

	_, err := suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: confirmed.ID, IntentID: confirmedIntent})
	require.NoError(t, err)

	metadataOf := func(id uuid.UUID) map[string]string {
		return map[string]string{domain.MetadataOrderID: id.String()}
	}

	// a late failure does not cancel a confirmed order
	late := testutil.MustWebhook(domain.EventPaymentFailed, confirmedIntent, metadataOf(confirmed.ID))
	require.NoError(t, suite.reconciler.HandleWebhook(ctx, late, testutil.ValidSignature))
	assert.Equal(t, domain.OrderStatusConfirmed, suite.status(confirmed.ID))

	// a failure cancels a pending order
	failed := testutil.MustWebhook(domain.EventPaymentFailed, pendingIntent, metadataOf(pending.ID))
	require.NoError(t, suite.reconciler.HandleWebhook(ctx, failed, testutil.ValidSignature))
	assert.Equal(t, domain.OrderStatusCancelled, suite.status(pending.ID))

	// a success for a cancelled order is ignored
	succeeded := testutil.MustWebhook(domain.EventPaymentSucceeded, pendingIntent, metadataOf(pending.ID))
	require.NoError(t, suite.reconciler.HandleWebhook(ctx, succeeded, testutil.ValidSignature))
	assert.Equal(t, domain.OrderStatusCancelled, suite.status(pending.ID))

	// other event types are ignored
	other := testutil.MustWebhook("charge.refunded", pendingIntent, metadataOf(pending.ID))
	require.NoError(t, suite.reconciler.HandleWebhook(ctx, other, testutil.ValidSignature))

	// events without an order are ignored
	orphan := testutil.MustWebhook(domain.EventPaymentSucceeded, "pi_other", nil)
	require.NoError(t, suite.reconciler.HandleWebhook(ctx, orphan, testutil.ValidSignature))

	malformed := testutil.MustWebhook(domain.EventPaymentSucceeded, pendingIntent, map[string]string{domain.MetadataOrderID: "not-a-uuid"})
	require.ErrorIs(t, suite.reconciler.HandleWebhook(ctx, malformed, testutil.ValidSignature), domain.ErrValidation)

	assert.True(t, testutil.INR("30.00").Amount.Equal(suite.purchases().TotalPurchases.Amount))
}

func (suite *reconcilerSuite) TestHandleWebhook_BadSignature() {
	t := suite.T()
	ctx := t.Context()

	o, intentID := suite.placeOrder()
	payload := testutil.MustWebhook(domain.EventPaymentSucceeded, intentID, map[string]string{domain.MetadataOrderID: o.ID.String()})

	err := suite.reconciler.HandleWebhook(ctx, payload, "t=1,v1=forged")
	require.ErrorIs(t, err, domain.ErrSignature)
	assert.Equal(t, domain.OrderStatusPending, suite.status(o.ID))
}

func (suite *reconcilerSuite) TestRefundPayment_Concurrent() {
	assertConcurrentRefunds(suite.T(), suite.orders, suite.reconciler, suite.store, suite.catalog)
}

func (suite *reconcilerSuite) TestRefundPayment() {
	t := suite.T()
	ctx := t.Context()

	pending, _ := suite.placeOrder()
	_, err := suite.reconciler.RefundPayment(ctx, pending.ID, nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	o, intentID := suite.placeOrder()
	_, err = suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: o.ID, IntentID: intentID})
	require.NoError(t, err)
	_, err = suite.orders.UpdateOrderStatus(ctx, o.ID, domain.OrderStatusShipped, nil)
	require.NoError(t, err)

	tooMuch := testutil.INR("30.01")
	_, err = suite.reconciler.RefundPayment(ctx, o.ID, &tooMuch)
	require.ErrorIs(t, err, domain.ErrValidation)

	zero := testutil.INR("0")
	_, err = suite.reconciler.RefundPayment(ctx, o.ID, &zero)
	require.ErrorIs(t, err, domain.ErrValidation)

	partial := testutil.INR("10.00")
	result, err := suite.reconciler.RefundPayment(ctx, o.ID, &partial)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, result.Order.Status)
	assert.True(t, partial.Amount.Equal(result.Refund.Amount.Amount))
	assert.Len(t, result.Order.Items, 1)

	// remainder of the order
	rest, err := suite.reconciler.RefundPayment(ctx, o.ID, nil)
	require.NoError(t, err)
	assert.True(t, testutil.INR("20.00").Amount.Equal(rest.Refund.Amount.Amount))
	assert.Equal(t, domain.OrderStatusRefunded, rest.Order.Status)

	_, err = suite.reconciler.RefundPayment(ctx, o.ID, nil)
	require.ErrorIs(t, err, domain.ErrValidation)

	refunds, err := suite.store.Orders().ListRefunds(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, refunds, 2)

	// purchases stay credited
	assert.True(t, testutil.INR("30.00").Amount.Equal(suite.purchases().TotalPurchases.Amount))
}

func (suite *reconcilerSuite) TestPaymentDetails() {
	t := suite.T()
	ctx := t.Context()

	o, intentID := suite.placeOrder()

	_, err := suite.reconciler.PaymentDetails(ctx, o.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = suite.reconciler.ConfirmOrder(ctx, payment.ConfirmRequest{OrderID: o.ID, IntentID: intentID})
	require.NoError(t, err)

	intent, err := suite.reconciler.PaymentDetails(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, intentID, intent.ID)
	assert.Equal(t, domain.IntentStatusSucceeded, intent.Status)
}

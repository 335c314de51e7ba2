package repository_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/nikolayk812/orderflow/internal/repository"
	"github.com/nikolayk812/orderflow/internal/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"golang.org/x/text/currency"
)

type orderRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	store     port.Store
	repo      port.OrderRepository
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestOrderRepositorySuite(t *testing.T) {
	suite.Run(t, new(orderRepositorySuite))
}

// before all tests in the suite
func (suite *orderRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var err error

	suite.container, suite.pool, err = testutil.StartMigratedPool(ctx)
	suite.Require().NoError(err)

	suite.store = repository.NewStore(suite.pool)
	suite.repo = repository.NewOrder(suite.pool)
}

// after all tests in the suite
func (suite *orderRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *orderRepositorySuite) seed(stock int) fixture {
	f, err := seed(suite.T().Context(), suite.store, stock)
	suite.Require().NoError(err)
	return f
}

func (suite *orderRepositorySuite) TestInsertOrder() {
	tests := []struct {
		name      string
		orderFunc func(f fixture) domain.Order
		wantError error
	}{
		{
			name: "valid order with all fields: ok",
			orderFunc: func(f fixture) domain.Order {
				return orderFor(f, 3)
			},
		},
		{
			name: "valid order, nil addresses, discount: ok",
			orderFunc: func(f fixture) domain.Order {
				o := orderFor(f, 3)
				o.ShippingAddress = nil
				o.DiscountAmount = inr("3.00")
				o.FinalAmount = inr("27.00")
				return o
			},
		},
		{
			name: "invalid order, no items: fail",
			orderFunc: func(f fixture) domain.Order {
				o := orderFor(f, 1)
				o.Items = nil
				return o
			},
			wantError: domain.ErrValidation,
		},
		{
			name: "unknown user: fail",
			orderFunc: func(f fixture) domain.Order {
				o := orderFor(f, 1)
				o.UserID = uuid.New()
				return o
			},
			wantError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()
			f := suite.seed(10)

			ttOrder := tt.orderFunc(f)

			orderID, err := suite.repo.InsertOrder(ctx, ttOrder)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actualOrder, err := suite.repo.GetOrder(ctx, orderID)
			require.NoError(t, err)

			expected := ttOrder
			expected.ID = orderID
			expected.Status = domain.OrderStatusPending

			assertOrder(t, expected, actualOrder)
		})
	}
}

func (suite *orderRepositorySuite) TestGetOrder_NotFound() {
	_, err := suite.repo.GetOrder(suite.T().Context(), uuid.New())
	suite.ErrorIs(err, domain.ErrNotFound)
}

func (suite *orderRepositorySuite) TestCompareAndSetStatus() {
	t := suite.T()
	ctx := t.Context()
	f := suite.seed(10)

	orderID, err := suite.repo.InsertOrder(ctx, orderFor(f, 1))
	require.NoError(t, err)

	ref := "pi_123"

	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := suite.repo.CompareAndSetStatus(ctx, orderID, domain.OrderStatusPending, domain.OrderStatusConfirmed, &ref)
			assert.NoError(t, err)
			results[i] = ok
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, lo.Count(results, true))

	order, err := suite.repo.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, &ref, order.PaymentRef)

	// nil payment ref keeps the stored one
	ok, err := suite.repo.CompareAndSetStatus(ctx, orderID, domain.OrderStatusConfirmed, domain.OrderStatusShipped, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	order, err = suite.repo.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, &ref, order.PaymentRef)
}

func (suite *orderRepositorySuite) TestSearchOrders() {
	t := suite.T()
	ctx := t.Context()
	f := suite.seed(100)

	var ids []uuid.UUID
	for qty := 1; qty <= 3; qty++ {
		id, err := suite.repo.InsertOrder(ctx, orderFor(f, qty))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, err := suite.repo.CompareAndSetStatus(ctx, ids[0], domain.OrderStatusPending, domain.OrderStatusCancelled, nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		filter    domain.OrderFilter
		wantIDs   []uuid.UUID
		wantError string
	}{
		{
			name:    "all of user, newest first: ok",
			filter:  domain.OrderFilter{UserIDs: []uuid.UUID{f.userID}},
			wantIDs: []uuid.UUID{ids[2], ids[1], ids[0]},
		},
		{
			name:    "by status: ok",
			filter:  domain.OrderFilter{UserIDs: []uuid.UUID{f.userID}, Statuses: []domain.OrderStatus{domain.OrderStatusPending}},
			wantIDs: []uuid.UUID{ids[2], ids[1]},
		},
		{
			name:    "paged: ok",
			filter:  domain.OrderFilter{UserIDs: []uuid.UUID{f.userID}, Limit: 1, Offset: 1},
			wantIDs: []uuid.UUID{ids[1]},
		},
		{
			name: "created in the future: empty",
			filter: domain.OrderFilter{
				UserIDs:   []uuid.UUID{f.userID},
				CreatedAt: &domain.TimeRange{After: lo.ToPtr(time.Now().Add(time.Hour))},
			},
		},
		{
			name:      "no users: fail",
			filter:    domain.OrderFilter{},
			wantError: "filter.Validate: userIDs are empty",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			orders, err := suite.repo.SearchOrders(t.Context(), tt.filter)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			gotIDs := lo.Map(orders, func(o domain.Order, _ int) uuid.UUID { return o.ID })
			assert.Equal(t, tt.wantIDs, gotIDs)

			for _, o := range orders {
				assert.Len(t, o.Items, 1)
			}
		})
	}
}

func (suite *orderRepositorySuite) TestRefunds() {
	t := suite.T()
	ctx := t.Context()
	f := suite.seed(10)

	orderID, err := suite.repo.InsertOrder(ctx, orderFor(f, 2))
	require.NoError(t, err)

	refund := domain.Refund{
		OrderID:   orderID,
		RefundRef: "re_" + uuid.NewString(),
		Amount:    inr("5.00"),
		Status:    "succeeded",
	}

	_, err = suite.repo.InsertRefund(ctx, refund)
	require.NoError(t, err)

	_, err = suite.repo.InsertRefund(ctx, refund)
	assert.ErrorIs(t, err, domain.ErrConflict)

	refunds, err := suite.repo.ListRefunds(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, refund.RefundRef, refunds[0].RefundRef)
	assert.True(t, refund.Amount.Amount.Equal(refunds[0].Amount.Amount))
}

func (suite *orderRepositorySuite) TestDecrementStock_LastUnit() {
	t := suite.T()
	ctx := t.Context()
	f := suite.seed(1)

	products := suite.store.Products()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = products.DecrementStock(ctx, f.productID, 1)
		}()
	}
	wg.Wait()

	succeeded := lo.CountBy(errs, func(err error) bool { return err == nil })
	assert.Equal(t, 1, succeeded)
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrOutOfStock)
		}
	}

	product, err := products.GetProduct(ctx, f.productID)
	require.NoError(t, err)
	assert.Equal(t, 0, product.CurrentStock)
	assert.Equal(t, 1, product.TotalSold)
}

func (suite *orderRepositorySuite) TestWithTx_Rollback() {
	t := suite.T()
	ctx := t.Context()
	f := suite.seed(1)

	err := suite.store.WithTx(ctx, func(tx port.Store) error {
		if _, err := tx.Orders().InsertOrder(ctx, orderFor(f, 1)); err != nil {
			return err
		}
		if err := tx.Products().DecrementStock(ctx, f.productID, 1); err != nil {
			return err
		}
		// second unit is not there, the whole transaction rolls back
		return tx.Products().DecrementStock(ctx, f.productID, 1)
	})
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	product, err := suite.store.Products().GetProduct(ctx, f.productID)
	require.NoError(t, err)
	assert.Equal(t, 1, product.CurrentStock)

	orders, err := suite.repo.SearchOrders(ctx, domain.OrderFilter{UserIDs: []uuid.UUID{f.userID}})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func (suite *orderRepositorySuite) TestCreditPurchases() {
	t := suite.T()
	ctx := t.Context()
	f := suite.seed(1)

	users := suite.store.Users()
	threshold := decimal.NewFromInt(1000)

	user, err := users.CreditPurchases(ctx, f.userID, inr("600.00"), threshold)
	require.NoError(t, err)
	assert.False(t, user.DiscountEligible)

	user, err = users.CreditPurchases(ctx, f.userID, inr("500.00"), threshold)
	require.NoError(t, err)
	assert.True(t, user.DiscountEligible)
	assert.True(t, decimal.NewFromInt(1100).Equal(user.TotalPurchases.Amount))

	_, err = users.CreditPurchases(ctx, uuid.New(), inr("1.00"), threshold)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func assertOrder(t *testing.T, expected, actual domain.Order) {
	t.Helper()

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Order{}, "CreatedAt", "UpdatedAt"),
		cmpopts.IgnoreFields(domain.OrderItem{}, "CreatedAt"),
		cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) }),
		cmp.Comparer(func(a, b currency.Unit) bool { return a.String() == b.String() }),
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
}

package cart_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/cache"
	"github.com/nikolayk812/orderflow/internal/cart"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
	"github.com/nikolayk812/orderflow/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type cartServiceSuite struct {
	suite.Suite

	now     time.Time
	store   *memory.Store
	redis   *miniredis.Miniredis
	client  *redis.Client
	service *cart.Service

	userID    uuid.UUID
	productID uuid.UUID
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(cartServiceSuite))
}

// before each test
func (suite *cartServiceSuite) SetupTest() {
	t := suite.T()
	ctx := t.Context()

	suite.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return suite.now }

	suite.store = memory.NewStore(memory.WithClock(clock))
	suite.redis = miniredis.RunT(t)
	suite.client = redis.NewClient(&redis.Options{Addr: suite.redis.Addr()})

	suite.service = cart.NewService(suite.store, cache.NewDiscountTokens(suite.client), cart.DefaultConfig(), zap.NewNop(), cart.WithClock(clock))

	var err error
	suite.userID, err = suite.store.Users().InsertUser(ctx, domain.User{Email: gofakeit.Email(), Name: gofakeit.Name()})
	suite.Require().NoError(err)

	suite.productID, err = suite.store.Products().InsertProduct(ctx, domain.Product{Name: gofakeit.ProductName(), IsActive: true, CurrentStock: 5})
	suite.Require().NoError(err)
}

// after each test
func (suite *cartServiceSuite) TearDownTest() {
	_ = suite.client.Close()
}

func (suite *cartServiceSuite) TestAddItem() {
	inactiveID, err := suite.store.Products().InsertProduct(suite.T().Context(), domain.Product{Name: "gone", IsActive: false, CurrentStock: 5})
	suite.Require().NoError(err)

	tests := []struct {
		name      string
		productID uuid.UUID
		qty       int
		wantError error
	}{
		{name: "within stock: ok", productID: suite.productID, qty: 2},
		{name: "all of stock: ok", productID: suite.productID, qty: 5},
		{name: "more than stock: fail", productID: suite.productID, qty: 6, wantError: domain.ErrOutOfStock},
		{name: "zero quantity: fail", productID: suite.productID, qty: 0, wantError: domain.ErrValidation},
		{name: "unknown product: fail", productID: uuid.New(), qty: 1, wantError: domain.ErrNotFound},
		{name: "inactive product: fail", productID: inactiveID, qty: 1, wantError: domain.ErrNotFound},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			entry, err := suite.service.AddItem(t.Context(), suite.userID, tt.productID, tt.qty)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, suite.now.Add(2*time.Minute), entry.ExpiresAt)
			assert.False(t, entry.Abandoned)

			_, err = suite.store.Carts().DeleteItem(t.Context(), entry.ID)
			require.NoError(t, err)
		})
	}
}

func (suite *cartServiceSuite) TestAddItem_IncrementsAndRefreshes() {
	t := suite.T()
	ctx := t.Context()

	_, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 1)
	require.NoError(t, err)

	suite.now = suite.now.Add(time.Minute)

	entry, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Quantity)
	assert.Equal(t, suite.now.Add(2*time.Minute), entry.ExpiresAt)

	c, err := suite.service.ListActive(ctx, suite.userID)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
}

func (suite *cartServiceSuite) TestAddItem_RevivesAbandoned() {
	t := suite.T()
	ctx := t.Context()

	first, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 4)
	require.NoError(t, err)

	suite.now = suite.now.Add(3 * time.Minute)
	_, err = suite.store.Carts().MarkAbandoned(ctx, []uuid.UUID{first.ID}, true, suite.now)
	require.NoError(t, err)

	entry, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, entry.ID)
	assert.Equal(t, 1, entry.Quantity)
	assert.False(t, entry.Abandoned)
	assert.False(t, entry.Notified)
	assert.Equal(t, suite.now.Add(2*time.Minute), entry.ExpiresAt)
}

func (suite *cartServiceSuite) TestAddItem_ConcurrentFirstAdd() {
	t := suite.T()
	ctx := t.Context()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := suite.service.ListActive(ctx, suite.userID)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func (suite *cartServiceSuite) TestAddItem_RetriesOnConflict() {
	t := suite.T()

	flaky := &conflictingStore{Store: suite.store, conflicts: 2}
	service := cart.NewService(flaky, cache.NewDiscountTokens(suite.client), cart.DefaultConfig(), zap.NewNop())

	entry, err := service.AddItem(t.Context(), suite.userID, suite.productID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Quantity)
	assert.Equal(t, 3, flaky.calls)

	cfg := cart.DefaultConfig()
	cfg.MaxRetries = 1
	alwaysFlaky := &conflictingStore{Store: suite.store, conflicts: 10}
	service = cart.NewService(alwaysFlaky, cache.NewDiscountTokens(suite.client), cfg, zap.NewNop())

	_, err = service.AddItem(t.Context(), suite.userID, suite.productID, 1)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, alwaysFlaky.calls)
}

func (suite *cartServiceSuite) TestUpdateAndRemove() {
	t := suite.T()
	ctx := t.Context()

	entry, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 1)
	require.NoError(t, err)

	updated, err := suite.service.UpdateQuantity(ctx, suite.userID, entry.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = suite.service.UpdateQuantity(ctx, suite.userID, entry.ID, 9)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = suite.service.UpdateQuantity(ctx, uuid.New(), entry.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, suite.service.Remove(ctx, uuid.New(), entry.ID), domain.ErrNotFound)
	require.NoError(t, suite.service.Remove(ctx, suite.userID, entry.ID))
	assert.ErrorIs(t, suite.service.Remove(ctx, suite.userID, entry.ID), domain.ErrNotFound)
}

func (suite *cartServiceSuite) TestGrantWinBack() {
	t := suite.T()
	ctx := t.Context()

	winBack, err := suite.service.GrantWinBack(ctx, suite.userID)
	require.NoError(t, err)
	assert.True(t, winBack.Percent.IsZero())
	assert.False(t, suite.redis.Exists("user:"+suite.userID.String()+":abandoned_cart_discount"))

	entry, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 2)
	require.NoError(t, err)

	suite.now = suite.now.Add(3 * time.Minute)
	_, err = suite.store.Carts().MarkAbandoned(ctx, []uuid.UUID{entry.ID}, true, suite.now)
	require.NoError(t, err)

	winBack, err = suite.service.GrantWinBack(ctx, suite.userID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(winBack.Percent))
	require.Len(t, winBack.Restored, 1)
	assert.Equal(t, entry.ID, winBack.Restored[0].ID)

	value, err := suite.redis.Get("user:" + suite.userID.String() + ":abandoned_cart_discount")
	require.NoError(t, err)
	assert.Equal(t, "10", value)
}

func (suite *cartServiceSuite) TestListAllAbandoned() {
	t := suite.T()
	ctx := t.Context()

	otherUser, err := suite.store.Users().InsertUser(ctx, domain.User{Email: gofakeit.Email(), Name: gofakeit.Name()})
	require.NoError(t, err)

	earliest, err := suite.service.AddItem(ctx, suite.userID, suite.productID, 1)
	require.NoError(t, err)

	suite.now = suite.now.Add(time.Minute)
	later, err := suite.service.AddItem(ctx, otherUser, suite.productID, 2)
	require.NoError(t, err)

	active, err := suite.service.AddItem(ctx, otherUser, suite.productID, 1)
	require.NoError(t, err)
	require.Equal(t, later.ID, active.ID)

	suite.now = suite.now.Add(5 * time.Minute)
	_, err = suite.store.Carts().MarkAbandoned(ctx, []uuid.UUID{earliest.ID, later.ID}, true, suite.now)
	require.NoError(t, err)

	first, err := suite.service.ListAllAbandoned(ctx, domain.Page{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Total)
	require.Len(t, first.Entries, 1)
	assert.Equal(t, earliest.ID, first.Entries[0].ID)

	second, err := suite.service.ListAllAbandoned(ctx, domain.Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, second.Entries, 1)
	assert.Equal(t, later.ID, second.Entries[0].ID)
	assert.Equal(t, otherUser, second.Entries[0].UserID)

	beyond, err := suite.service.ListAllAbandoned(ctx, domain.Page{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Entries)
	assert.Equal(t, int64(2), beyond.Total)

	_, err = suite.service.ListAllAbandoned(ctx, domain.Page{Limit: domain.MaxAbandonedPageSize + 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// conflictingStore fails the first UpsertItem calls with a unique-index conflict.
type conflictingStore struct {
	*memory.Store

	mu        sync.Mutex
	conflicts int
	calls     int
}

func (s *conflictingStore) Carts() port.CartRepository {
	return &conflictingCarts{CartRepository: s.Store.Carts(), parent: s}
}

type conflictingCarts struct {
	port.CartRepository
	parent *conflictingStore
}

func (c *conflictingCarts) UpsertItem(ctx context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error) {
	c.parent.mu.Lock()
	c.parent.calls++
	fail := c.parent.calls <= c.parent.conflicts
	c.parent.mu.Unlock()

	if fail {
		return domain.CartEntry{}, domain.ErrConflict
	}
	return c.CartRepository.UpsertItem(ctx, userID, productID, qty, expiresAt)
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DiscountTokens stores one-time win-back discount percentages per user.
type DiscountTokens struct {
	client redis.UniversalClient
}

func NewDiscountTokens(client redis.UniversalClient) *DiscountTokens {
	return &DiscountTokens{client: client}
}

func (c *DiscountTokens) Issue(ctx context.Context, userID uuid.UUID, percent decimal.Decimal, ttl time.Duration) error {
	if err := c.client.Set(ctx, discountKey(userID), percent.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Claim reads the remaining TTL and deletes the token in one MULTI/EXEC,
// so two concurrent orders can not both consume it.
func (c *DiscountTokens) Claim(ctx context.Context, userID uuid.UUID) (domain.DiscountToken, bool, error) {
	key := discountKey(userID)

	var (
		ttlCmd *redis.DurationCmd
		getCmd *redis.StringCmd
	)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ttlCmd = pipe.PTTL(ctx, key)
		getCmd = pipe.GetDel(ctx, key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.DiscountToken{}, false, fmt.Errorf("redis getdel failed: %w", err)
	}

	value, err := getCmd.Result()
	if errors.Is(err, redis.Nil) {
		return domain.DiscountToken{}, false, nil
	}
	if err != nil {
		return domain.DiscountToken{}, false, fmt.Errorf("redis getdel failed: %w", err)
	}

	percent, err := decimal.NewFromString(value)
	if err != nil {
		return domain.DiscountToken{}, false, fmt.Errorf("discount token[%s] is not a number: %w", value, err)
	}

	return domain.DiscountToken{
		UserID:  userID,
		Percent: percent,
		TTL:     ttlCmd.Val(),
	}, true, nil
}

// Restore puts back a token taken by Claim. A token without a known TTL is dropped.
func (c *DiscountTokens) Restore(ctx context.Context, token domain.DiscountToken) error {
	if token.TTL <= 0 {
		return nil
	}

	// NX keeps a token issued in the meantime
	if err := c.client.SetNX(ctx, discountKey(token.UserID), token.Percent.String(), token.TTL).Err(); err != nil {
		return fmt.Errorf("redis setnx failed: %w", err)
	}
	return nil
}

// NotificationMarks suppresses repeated abandoned-cart notifications.
type NotificationMarks struct {
	client redis.UniversalClient
}

func NewNotificationMarks(client redis.UniversalClient) *NotificationMarks {
	return &NotificationMarks{client: client}
}

func (c *NotificationMarks) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := c.client.Exists(ctx, markKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

func (c *NotificationMarks) Set(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if err := c.client.Set(ctx, markKey(userID), "sent", ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func discountKey(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s:abandoned_cart_discount", userID)
}

func markKey(userID uuid.UUID) string {
	return fmt.Sprintf("abandoned_cart_sent:%s", userID)
}

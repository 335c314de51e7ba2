package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Cart struct {
	OwnerID uuid.UUID
	Items   []CartEntry
}

type CartEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	AddedAt   time.Time
	ExpiresAt time.Time
	Notified  bool
	Abandoned bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e CartEntry) IsActive(now time.Time) bool {
	return !e.Abandoned && e.ExpiresAt.After(now)
}

// IsExpired reports whether the hold period passed without the entry being swept yet.
func (e CartEntry) IsExpired(now time.Time) bool {
	return !e.Abandoned && !e.Notified && e.ExpiresAt.Before(now)
}

const (
	DefaultAbandonedPageSize = 10
	MaxAbandonedPageSize     = 100
)

// Page selects a window of a listing. A zero Limit means the listing's default size.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) Validate(maxSize int) error {
	if p.Limit < 0 || p.Limit > maxSize {
		return fmt.Errorf("limit %d is out of range", p.Limit)
	}

	if p.Offset < 0 {
		return fmt.Errorf("offset %d is negative", p.Offset)
	}

	return nil
}

func (p Page) Size(defaultSize int) int {
	if p.Limit == 0 {
		return defaultSize
	}
	return p.Limit
}

// AbandonedCarts is one page of abandoned entries across all users and the total count.
type AbandonedCarts struct {
	Entries []CartEntry
	Total   int64
}

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultOrderPageSize = 20
	MaxOrderPageSize     = 100
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice
type OrderFilter struct {
	UserIDs   []uuid.UUID
	Statuses  []OrderStatus
	CreatedAt *TimeRange

	Limit  int
	Offset int
}

func (f OrderFilter) Validate() error {
	if len(f.UserIDs) == 0 {
		return errors.New("userIDs are empty")
	}

	if f.CreatedAt != nil {
		if err := f.CreatedAt.Validate(); err != nil {
			return fmt.Errorf("createdAt: %w", err)
		}
	}

	if f.Limit < 0 || f.Limit > MaxOrderPageSize {
		return fmt.Errorf("limit %d is out of range", f.Limit)
	}

	if f.Offset < 0 {
		return fmt.Errorf("offset %d is negative", f.Offset)
	}

	return nil
}

// PageSize returns the effective limit, defaulting when unset.
func (f OrderFilter) PageSize() int {
	if f.Limit == 0 {
		return DefaultOrderPageSize
	}
	return f.Limit
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}

// Matches reports whether ts falls into the range, Before exclusive and After inclusive.
func (t TimeRange) Matches(ts time.Time) bool {
	if t.After != nil && ts.Before(*t.After) {
		return false
	}
	if t.Before != nil && !ts.Before(*t.Before) {
		return false
	}
	return true
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/samber/lo"
)

type cartRepository struct {
	s *Store
}

func (r *cartRepository) UpsertItem(_ context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error) {
	if qty < 1 {
		return domain.CartEntry{}, fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	var entry domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		if err := checkRefs(d, userID, productID); err != nil {
			return err
		}

		now := r.s.clock()
		if active, ok := findLive(d, userID, productID); ok {
			active.Quantity += qty
			active.ExpiresAt = expiresAt
			active.Notified = false
			active.UpdatedAt = now
			d.carts[active.ID] = active
			entry = active
			return nil
		}

		entry = domain.CartEntry{
			ID:        uuid.New(),
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
			AddedAt:   now,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		d.carts[entry.ID] = entry
		return nil
	})

	return entry, err
}

func (r *cartRepository) ReviveAbandoned(_ context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, bool, error) {
	var (
		entry   domain.CartEntry
		revived bool
	)

	err := r.s.run(func(d *dataset) error {
		if _, ok := findLive(d, userID, productID); ok {
			return nil
		}

		candidates := abandonedOf(d, userID, &productID)
		if len(candidates) == 0 {
			return nil
		}

		now := r.s.clock()
		entry = candidates[0]
		entry.Quantity = qty
		entry.ExpiresAt = expiresAt
		entry.AddedAt = now
		entry.Notified = false
		entry.Abandoned = false
		entry.UpdatedAt = now
		d.carts[entry.ID] = entry
		revived = true
		return nil
	})

	return entry, revived, err
}

func (r *cartRepository) GetItem(_ context.Context, entryID uuid.UUID) (domain.CartEntry, error) {
	var entry domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		e, ok := d.carts[entryID]
		if !ok {
			return fmt.Errorf("cart entry[%s]: %w", entryID, domain.ErrNotFound)
		}
		entry = e
		return nil
	})
	return entry, err
}

func (r *cartRepository) UpdateQuantity(_ context.Context, entryID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error) {
	if qty < 1 {
		return domain.CartEntry{}, fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	var entry domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		e, ok := d.carts[entryID]
		if !ok {
			return fmt.Errorf("cart entry[%s]: %w", entryID, domain.ErrNotFound)
		}

		if e.Abandoned {
			if _, ok := findLive(d, e.UserID, e.ProductID); ok {
				return fmt.Errorf("live entry exists for product[%s]: %w", e.ProductID, domain.ErrConflict)
			}
		}

		e.Quantity = qty
		e.ExpiresAt = expiresAt
		e.Notified = false
		e.Abandoned = false
		e.UpdatedAt = r.s.clock()
		d.carts[e.ID] = e
		entry = e
		return nil
	})
	return entry, err
}

func (r *cartRepository) DeleteItem(_ context.Context, entryID uuid.UUID) (bool, error) {
	var deleted bool
	err := r.s.run(func(d *dataset) error {
		_, deleted = d.carts[entryID]
		delete(d.carts, entryID)
		return nil
	})
	return deleted, err
}

func (r *cartRepository) ListActive(_ context.Context, userID uuid.UUID, now time.Time) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		for _, e := range d.carts {
			if e.UserID == userID && e.IsActive(now) {
				entries = append(entries, e)
			}
		}
		return nil
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].ID.String() < entries[j].ID.String()
		}
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})

	return entries, err
}

func (r *cartRepository) ListAbandoned(_ context.Context, userID uuid.UUID) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		entries = abandonedOf(d, userID, nil)
		return nil
	})
	return entries, err
}

func (r *cartRepository) ListAllAbandoned(_ context.Context, page domain.Page) (domain.AbandonedCarts, error) {
	if err := page.Validate(domain.MaxAbandonedPageSize); err != nil {
		return domain.AbandonedCarts{}, fmt.Errorf("page.Validate: %w", err)
	}

	var all []domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		for _, e := range d.carts {
			if e.Abandoned {
				all = append(all, e)
			}
		}
		return nil
	})
	if err != nil {
		return domain.AbandonedCarts{}, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].ExpiresAt.Equal(all[j].ExpiresAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].ExpiresAt.Before(all[j].ExpiresAt)
	})

	result := domain.AbandonedCarts{Total: int64(len(all))}
	if page.Offset < len(all) {
		end := min(page.Offset+page.Size(domain.DefaultAbandonedPageSize), len(all))
		result.Entries = all[page.Offset:end]
	}

	return result, nil
}

func (r *cartRepository) RestoreAbandoned(_ context.Context, userID uuid.UUID, productID *uuid.UUID, expiresAt time.Time) ([]domain.CartEntry, error) {
	var restored []domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		now := r.s.clock()

		// newest first, so the first entry seen per product wins
		seen := map[uuid.UUID]bool{}
		for _, e := range abandonedOf(d, userID, productID) {
			if seen[e.ProductID] {
				continue
			}
			seen[e.ProductID] = true

			if _, ok := findLive(d, userID, e.ProductID); ok {
				continue
			}

			e.Abandoned = false
			e.Notified = false
			e.ExpiresAt = expiresAt
			e.UpdatedAt = now
			d.carts[e.ID] = e
			restored = append(restored, e)
		}
		return nil
	})
	return restored, err
}

func (r *cartRepository) ClearActive(_ context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.s.run(func(d *dataset) error {
		for id, e := range d.carts {
			if e.UserID == userID && !e.Abandoned {
				delete(d.carts, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *cartRepository) ListExpired(_ context.Context, now time.Time) ([]domain.CartEntry, error) {
	var entries []domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		for _, e := range d.carts {
			if e.IsExpired(now) {
				entries = append(entries, e)
			}
		}
		return nil
	})

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UserID != entries[j].UserID {
			return entries[i].UserID.String() < entries[j].UserID.String()
		}
		return entries[i].ExpiresAt.Before(entries[j].ExpiresAt)
	})

	return entries, err
}

func (r *cartRepository) MarkAbandoned(_ context.Context, entryIDs []uuid.UUID, notified bool, now time.Time) ([]domain.CartEntry, error) {
	var marked []domain.CartEntry
	err := r.s.run(func(d *dataset) error {
		for _, id := range lo.Uniq(entryIDs) {
			e, ok := d.carts[id]
			if !ok || !e.IsExpired(now) {
				continue
			}
			e.Abandoned = true
			e.Notified = notified
			e.UpdatedAt = r.s.clock()
			d.carts[id] = e
			marked = append(marked, e)
		}
		return nil
	})
	return marked, err
}

func (r *cartRepository) PurgeAbandoned(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.run(func(d *dataset) error {
		for id, e := range d.carts {
			if e.Abandoned && e.ExpiresAt.Before(before) {
				delete(d.carts, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func findLive(d *dataset, userID, productID uuid.UUID) (domain.CartEntry, bool) {
	for _, e := range d.carts {
		if e.UserID == userID && e.ProductID == productID && !e.Abandoned {
			return e, true
		}
	}
	return domain.CartEntry{}, false
}

// abandonedOf returns the user's abandoned entries, newest first.
func abandonedOf(d *dataset, userID uuid.UUID, productID *uuid.UUID) []domain.CartEntry {
	var entries []domain.CartEntry
	for _, e := range d.carts {
		if e.UserID != userID || !e.Abandoned {
			continue
		}
		if productID != nil && e.ProductID != *productID {
			continue
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})

	return entries
}

func checkRefs(d *dataset, userID, productID uuid.UUID) error {
	if _, ok := d.users[userID]; !ok {
		return fmt.Errorf("user[%s]: %w", userID, domain.ErrNotFound)
	}
	if _, ok := d.products[productID]; !ok {
		return fmt.Errorf("product[%s]: %w", productID, domain.ErrNotFound)
	}
	return nil
}

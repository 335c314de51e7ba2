package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
)

type CartRepository interface {
	// UpsertItem inserts an entry or increments the user's active entry for the product.
	// The expiry is refreshed and notified is cleared either way.
	UpsertItem(ctx context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error)

	// ReviveAbandoned reactivates the newest abandoned entry for (user, product) with a fresh
	// quantity, unless an active entry already exists. Returns false when nothing was revived.
	ReviveAbandoned(ctx context.Context, userID, productID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, bool, error)

	GetItem(ctx context.Context, entryID uuid.UUID) (domain.CartEntry, error)

	// UpdateQuantity sets the quantity, refreshes the expiry and clears both flags.
	UpdateQuantity(ctx context.Context, entryID uuid.UUID, qty int, expiresAt time.Time) (domain.CartEntry, error)

	DeleteItem(ctx context.Context, entryID uuid.UUID) (bool, error)

	ListActive(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.CartEntry, error)
	ListAbandoned(ctx context.Context, userID uuid.UUID) ([]domain.CartEntry, error)

	// ListAllAbandoned pages through every user's abandoned entries, earliest expiry first.
	ListAllAbandoned(ctx context.Context, page domain.Page) (domain.AbandonedCarts, error)

	// RestoreAbandoned reactivates the newest abandoned entry per product, skipping products that
	// already have an active entry. A nil productID restores every product.
	RestoreAbandoned(ctx context.Context, userID uuid.UUID, productID *uuid.UUID, expiresAt time.Time) ([]domain.CartEntry, error)

	// ClearActive deletes every non-abandoned entry of the user.
	ClearActive(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListExpired returns entries past their expiry that are neither abandoned nor notified.
	ListExpired(ctx context.Context, now time.Time) ([]domain.CartEntry, error)

	// MarkAbandoned flags the given entries abandoned, only those still expired and unmarked at now.
	// Returns the entries actually marked.
	MarkAbandoned(ctx context.Context, entryIDs []uuid.UUID, notified bool, now time.Time) ([]domain.CartEntry, error)

	// PurgeAbandoned deletes abandoned entries that expired before the given time.
	PurgeAbandoned(ctx context.Context, before time.Time) (int64, error)
}

package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type restoreRequest struct {
	ProductID *uuid.UUID `json:"productId"`
}

// GET /cart
func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	c, err := h.carts.ListActive(r.Context(), auth.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"userId": c.OwnerID.String(),
		"items":  toCartEntryDTOs(c.Items),
	})
}

// POST /cart/items
func (h *handler) addItem(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	var req addItemRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.carts.AddItem(r.Context(), auth.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartEntryDTO(entry))
}

// PUT /cart/items/{entryID}
func (h *handler) updateItem(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	entryID, err := pathUUID(r, "entryID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req updateItemRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	entry, err := h.carts.UpdateQuantity(r.Context(), auth.UserID, entryID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartEntryDTO(entry))
}

// DELETE /cart/items/{entryID}
func (h *handler) removeItem(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	entryID, err := pathUUID(r, "entryID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.carts.Remove(r.Context(), auth.UserID, entryID); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /cart/abandoned
func (h *handler) listAbandoned(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	entries, err := h.carts.ListAbandoned(r.Context(), auth.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartEntryDTOs(entries))
}

// POST /cart/restore
func (h *handler) restoreCart(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	var req restoreRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	restored, err := h.carts.RestoreAbandoned(r.Context(), auth.UserID, req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartEntryDTOs(restored))
}

// POST /cart/winback
func (h *handler) grantWinBack(w http.ResponseWriter, r *http.Request) {
	auth, _ := authFrom(r.Context())

	winBack, err := h.carts.GrantWinBack(r.Context(), auth.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, WinBackResponse{
		DiscountPercent: winBack.Percent.String(),
		Restored:        toCartEntryDTOs(winBack.Restored),
	})
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", name, raw, domain.ErrValidation)
	}
	return id, nil
}

// GET /cart/admin/abandoned?page=1&limit=10
func (h *handler) listAllAbandoned(w http.ResponseWriter, r *http.Request) {
	pageNo, limit := 1, domain.DefaultAbandonedPageSize
	for key, target := range map[string]*int{"page": &pageNo, "limit": &limit} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.fail(w, r, fmt.Errorf("%s %q: %w", key, raw, domain.ErrValidation))
			return
		}
		*target = n
	}

	result, err := h.carts.ListAllAbandoned(r.Context(), domain.Page{Limit: limit, Offset: (pageNo - 1) * limit})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, AbandonedCartsResponse{
		Entries:    toCartEntryDTOs(result.Entries),
		Total:      result.Total,
		Page:       pageNo,
		TotalPages: (result.Total + int64(limit) - 1) / int64(limit),
	})
}

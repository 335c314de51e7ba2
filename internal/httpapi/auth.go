package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"

	roleAdmin = "admin"
)

// AuthContext is the caller identity asserted by the upstream gateway.
type AuthContext struct {
	UserID uuid.UUID
	Role   string
}

func (a AuthContext) IsAdmin() bool {
	return a.Role == roleAdmin
}

type authKey struct{}

func authFrom(ctx context.Context) (AuthContext, bool) {
	a, ok := ctx.Value(authKey{}).(AuthContext)
	return a, ok
}

// authenticate trusts the identity headers and rejects requests without a valid user id.
func authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get(headerUserID))
		if err != nil || userID == uuid.Nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+headerUserID)
			return
		}

		ctx := context.WithValue(r.Context(), authKey{}, AuthContext{
			UserID: userID,
			Role:   r.Header.Get(headerUserRole),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a, ok := authFrom(r.Context()); !ok || !a.IsAdmin() {
			respondError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

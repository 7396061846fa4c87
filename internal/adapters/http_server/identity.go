package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"hotel_core/internal/domain"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// Caller is the identity asserted by the upstream gateway.
type Caller struct {
	UserID int64
	Role   Role
}

func (c Caller) Authenticated() bool { return c.UserID > 0 && c.Role != "" }

// Staff reports whether the caller operates hotels rather than staying in them.
func (c Caller) Staff() bool { return c.Role == RoleOwner || c.Role == RoleAdmin }

type callerKey struct{}

func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// Identity reads X-User-ID and X-User-Role. Malformed or unknown values
// leave the request anonymous.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c Caller
		id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get("X-User-ID")), 10, 64)
		role := Role(strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Role"))))
		if err == nil && id > 0 {
			switch role {
			case RoleGuest, RoleOwner, RoleAdmin:
				c = Caller{UserID: id, Role: role}
			}
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}

// RequireRole rejects anonymous callers with 401 and other roles with 403.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := CallerFrom(r.Context())
			if !c.Authenticated() {
				writeProblem(w, http.StatusUnauthorized, "Unauthorized", "X-User-ID and X-User-Role are required")
				return
			}
			for _, role := range roles {
				if c.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, domain.ErrForbidden)
		})
	}
}

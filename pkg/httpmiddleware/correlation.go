package httpmiddleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderUserID        = "X-User-ID"

	// AnonymousUser is the user id of requests without X-User-ID.
	AnonymousUser = "anonymous"
)

type (
	correlationIDKey struct{}
	userIDKey        struct{}
)

// CorrelationIDFromContext returns "" outside of the Correlation middleware.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// UserIDFromContext returns "" outside of the Correlation middleware.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// Correlation stores the caller's correlation and user ids in the request
// context. A missing or malformed X-Correlation-ID is replaced with a fresh
// UUID and echoed back in the response.
func Correlation() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderCorrelationID)
			if !printableASCII(id) {
				id = uuid.NewString()
			}
			user := r.Header.Get(HeaderUserID)
			if !printableASCII(user) {
				user = AnonymousUser
			}
			w.Header().Set(HeaderCorrelationID, id)

			ctx := context.WithValue(r.Context(), correlationIDKey{}, id)
			ctx = context.WithValue(ctx, userIDKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// printableASCII accepts 1 to 128 bytes in 0x20-0x7E.
func printableASCII(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for i := range len(s) {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}

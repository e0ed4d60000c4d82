package middleware

import (
	"context"
	"meetup-server/utils/errors"
	"net/http"

	"github.com/gorilla/mux"
)

type contextKey string

const meetupIDKey contextKey = "meetupID"

// TokenResolver turns an invite token into the meetup id it was issued for.
type TokenResolver interface {
	ResolveQRCode(token string) (string, error)
}

// MeetupTokenMiddleware verifies the {token} path variable and stores the
// meetup id it names in the request context.
func MeetupTokenMiddleware(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := mux.Vars(r)["token"]
			if token == "" {
				WriteError(w, errors.ErrInvalidToken)
				return
			}
			meetupID, err := resolver.ResolveQRCode(token)
			if err != nil {
				WriteError(w, errors.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), meetupIDKey, meetupID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MeetupIDFromContext returns the meetup id set by MeetupTokenMiddleware.
func MeetupIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(meetupIDKey).(string)
	return id, ok && id != ""
}

package middleware

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"meetup-server/utils/errors"
	"net/http"
)

// ErrorMiddleware recovers panics and answers with a JSON internal error.
func ErrorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("Panic recovered on %s %s: %v", r.Method, r.URL.Path, rec)
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError answers with err as JSON. Errors that are not an APIError are
// reported as 500 with their text in details.
func WriteError(w http.ResponseWriter, err error) {
	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) {
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	if apiErr.Status >= http.StatusInternalServerError {
		log.Printf("Request failed with %s (details: %s)", apiErr.Error(), apiErr.Details)
	}
	WriteJSON(w, apiErr.Status, apiErr)
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

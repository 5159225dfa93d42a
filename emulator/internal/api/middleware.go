package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pigeonworks-llc/akaunting-sync/pkg/akaunting"
)

// Credentials are the basic auth credentials the emulator accepts.
type Credentials struct {
	Email    string
	Password string
}

// AuthMiddleware is a middleware that validates basic auth credentials.
func AuthMiddleware(creds Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Missing basic auth credentials", nil)
				return
			}

			if subtle.ConstantTimeCompare([]byte(email), []byte(creds.Email)) != 1 ||
				subtle.ConstantTimeCompare([]byte(password), []byte(creds.Password)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "Invalid credentials", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CompanyMiddleware rejects requests for any company but companyID.
func CompanyMiddleware(companyID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := strconv.ParseInt(r.URL.Query().Get("company_id"), 10, 64)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "Missing or invalid company_id", nil)
				return
			}
			if id != companyID {
				writeJSONError(w, http.StatusForbidden, "You do not have access to this company", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response in the Akaunting shape.
func writeJSONError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	writeJSON(w, status, akaunting.ErrorResponse{
		Message:    message,
		Errors:     fields,
		StatusCode: status,
	})
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"errorcentral/src/model"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

type userLoader interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
}

// RequireUser verifies the bearer token, loads its user and stores it in the request
// context. Requests without a valid token never reach next.
func RequireUser(m *Manager, users userLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(authorizationHeader))
			if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
				unauthorized(w, "Authentication credentials were not provided.")
				return
			}
			tok := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))

			claims, err := m.Verify(tok, time.Now())
			if err != nil {
				logger.WithError(err).Debug("rejected bearer token")
				unauthorized(w, "Invalid token.")
				return
			}

			userID, _ := claims.UserID()
			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				logger.WithError(err).WithField("user_id", userID).Error("failed to load token user")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Internal Server Error"})
				return
			}
			if user == nil {
				unauthorized(w, "User not found.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{"detail": detail}); err != nil {
		logger.WithError(err).Error("failed to encode unauthorized response")
	}
}

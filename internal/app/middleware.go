package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/cgtsim/cgtsim/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Resolve the bearer token into a user and put it on the context. A
	// request without an Authorization header passes through anonymously;
	// services answer those with ErrNoUser.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			header := req.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, req)
				return
			}
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := deps.TokenManager.ValidateToken(tokenString)
			if err != nil {
				log.Debugf("token rejected: %v", err)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := req.Context()
			u, err := deps.UserService.GetUserByUsername(ctx, claims.Username)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("user not found: %s", claims.Username)
					http.Error(w, "Unknown user", http.StatusUnauthorized)
					return
				}
				log.Errorf("failed to get user: %v", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	})
}

package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vadimbarashkov/shortener/internal/entity"
)

type ctxKey int

const userCtxKey ctxKey = iota

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// authenticate resolves the bearer token of the request to an active user and
// stores it in the request context.
func authenticate(auth authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respondError(w, r, entity.ErrInvalidToken)
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				respondError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

// requireSuperuser rejects requests whose authenticated user is not a superuser.
// It must run after authenticate.
func requireSuperuser(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsSuperuser {
			respondError(w, r, entity.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func currentUser(r *http.Request) *entity.User {
	user, _ := r.Context().Value(userCtxKey).(*entity.User)
	return user
}

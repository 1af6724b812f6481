// Package http provides the HTTP delivery layer of the shortener service:
// routing, bearer authentication, request validation and response formatting.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter initializes and returns a new Chi router with the API under /api/v1
// and the public redirect under /redirect.
func NewRouter(
	logger *httplog.Logger,
	allowedOrigins []string,
	urlUseCase urlUseCase,
	userUseCase userUseCase,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	validate := newValidator()
	urls := newURLHandler(urlUseCase, validate)
	users := newUserHandler(userUseCase, validate)
	auth := authenticate(userUseCase)

	r.Get("/redirect/{ident}", urls.redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Post("/token", users.token)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", users.register)

			r.Group(func(r chi.Router) {
				r.Use(auth)

				r.Get("/me", users.me)
				r.Patch("/me", users.updateMe)
				r.Get("/me/urls", urls.listMine)
				r.Get("/me/most-visited", urls.listMostVisited)

				r.Group(func(r chi.Router) {
					r.Use(requireSuperuser)

					r.Get("/", users.list)
					r.Get("/{userID}", users.get)
					r.Delete("/{userID}", users.delete)
				})
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/shorten", urls.shorten)

			r.Route("/urls", func(r chi.Router) {
				r.Get("/", urls.list)

				r.Route("/{ident}", func(r chi.Router) {
					r.Get("/", urls.get)
					r.Delete("/", urls.delete)
					r.Patch("/refresh", urls.refresh)
				})
			})
		})
	})

	return r
}

package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortener/internal/entity"
	"github.com/vadimbarashkov/shortener/internal/usecase"
)

type urlUseCase interface {
	Shorten(ctx context.Context, owner *entity.User, params usecase.ShortenParams) (*entity.ShortURL, error)
	Get(ctx context.Context, requester *entity.User, ident string) (*entity.ShortURL, error)
	List(ctx context.Context, requester *entity.User, p entity.Pagination, s entity.Sorting) (*entity.Page[entity.ShortURL], error)
	ListMine(ctx context.Context, requester *entity.User, p entity.Pagination, s entity.Sorting) (*entity.Page[entity.ShortURL], error)
	ListMostVisited(ctx context.Context, requester *entity.User, p entity.Pagination) (*entity.Page[entity.ShortURL], error)
	Refresh(ctx context.Context, requester *entity.User, ident string) (*entity.ShortURL, error)
	Delete(ctx context.Context, requester *entity.User, ident string) error
	Resolve(ctx context.Context, key string) (*entity.ShortURL, error)
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func (h *urlHandler) shorten(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	url, err := h.useCase.Shorten(r.Context(), currentUser(r), usecase.ShortenParams{
		Origin:         req.URL,
		Slug:           req.Slug,
		ExpirationDays: req.ExpirationDays,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, urlProjection(currentUser(r))(url))
}

func (h *urlHandler) list(w http.ResponseWriter, r *http.Request) {
	p, s, ok := parseListQuery(w, r, h.validate)
	if !ok {
		return
	}

	page, err := h.useCase.List(r.Context(), currentUser(r), p, s)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toPageResponse(page, urlProjection(currentUser(r))))
}

func (h *urlHandler) listMine(w http.ResponseWriter, r *http.Request) {
	p, s, ok := parseListQuery(w, r, h.validate)
	if !ok {
		return
	}

	page, err := h.useCase.ListMine(r.Context(), currentUser(r), p, s)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toPageResponse(page, urlProjection(currentUser(r))))
}

func (h *urlHandler) listMostVisited(w http.ResponseWriter, r *http.Request) {
	p, _, ok := parseListQuery(w, r, h.validate)
	if !ok {
		return
	}

	page, err := h.useCase.ListMostVisited(r.Context(), currentUser(r), p)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toPageResponse(page, urlProjection(currentUser(r))))
}

func (h *urlHandler) get(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	url, err := h.useCase.Get(r.Context(), currentUser(r), ident)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, urlProjection(currentUser(r))(url))
}

func (h *urlHandler) refresh(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	url, err := h.useCase.Refresh(r.Context(), currentUser(r), ident)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, urlProjection(currentUser(r))(url))
}

func (h *urlHandler) delete(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	if err := h.useCase.Delete(r.Context(), currentUser(r), ident); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// redirect sends the client to the origin of the short URL with a 307.
func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "ident")

	url, err := h.useCase.Resolve(r.Context(), ident)
	if err != nil {
		respondError(w, r, err)
		return
	}

	http.Redirect(w, r, url.Origin, http.StatusTemporaryRedirect)
}

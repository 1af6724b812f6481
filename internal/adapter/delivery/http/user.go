package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortener/internal/entity"
	"github.com/vadimbarashkov/shortener/internal/usecase"
)

type userUseCase interface {
	Register(ctx context.Context, params usecase.RegisterParams) (*entity.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*entity.User, error)
	UpdateMe(ctx context.Context, user *entity.User, upd entity.UserUpdate) (*entity.User, error)
	List(ctx context.Context, p entity.Pagination, s entity.Sorting) (*entity.Page[entity.User], error)
	Get(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userHandler struct {
	useCase  userUseCase
	validate *validator.Validate
}

func newUserHandler(useCase userUseCase, validate *validator.Validate) *userHandler {
	return &userHandler{
		useCase:  useCase,
		validate: validate,
	}
}

// token exchanges form-encoded credentials for a bearer token.
func (h *userHandler) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	req := tokenRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	token, err := h.useCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, tokenResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
	})
}

func (h *userHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	user, err := h.useCase.Register(r.Context(), usecase.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toUserResponse(user))
}

func (h *userHandler) me(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, toUserResponse(currentUser(r)))
}

func (h *userHandler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest

	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	user, err := h.useCase.UpdateMe(r.Context(), currentUser(r), entity.UserUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toUserResponse(user))
}

func (h *userHandler) list(w http.ResponseWriter, r *http.Request) {
	p, s, ok := parseListQuery(w, r, h.validate)
	if !ok {
		return
	}

	page, err := h.useCase.List(r.Context(), p, s)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toPageResponse(page, toUserResponse))
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, entity.ErrUserNotFound)
		return
	}

	user, err := h.useCase.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toUserResponse(user))
}

func (h *userHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, r, entity.ErrUserNotFound)
		return
	}

	if err := h.useCase.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortener/internal/entity"
)

const (
	statusError     = "error"
	tokenTypeBearer = "bearer"
)

// shortenRequest represents the structure for a request to shorten a URL.
type shortenRequest struct {
	URL            string   `json:"url" validate:"required,http_url"`
	Slug           *string  `json:"slug" validate:"omitempty,min=1,max=64"`
	ExpirationDays *float64 `json:"expiration_days" validate:"omitempty,gte=0,lte=36500"`
}

// urlResponse is the public projection of a short URL.
type urlResponse struct {
	Ident       string     `json:"ident"`
	Origin      string     `json:"origin"`
	Slug        *string    `json:"slug"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	LastVisitAt *time.Time `json:"last_visit_at"`
}

// privateURLResponse adds the owner to the public projection. Only superusers get it.
type privateURLResponse struct {
	urlResponse
	UserID uuid.UUID `json:"user_id"`
}

func toURLResponse(url *entity.ShortURL) urlResponse {
	return urlResponse{
		Ident:       url.Ident,
		Origin:      url.Origin,
		Slug:        url.Slug,
		Views:       url.Views,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
		LastVisitAt: url.LastVisitAt,
	}
}

func toPrivateURLResponse(url *entity.ShortURL) privateURLResponse {
	return privateURLResponse{
		urlResponse: toURLResponse(url),
		UserID:      url.OwnerID,
	}
}

// urlProjection picks the short URL projection the requester is allowed to see.
func urlProjection(requester *entity.User) func(*entity.ShortURL) any {
	if requester != nil && requester.IsSuperuser {
		return func(url *entity.ShortURL) any { return toPrivateURLResponse(url) }
	}
	return func(url *entity.ShortURL) any { return toURLResponse(url) }
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// updateUserRequest carries the profile fields to change; absent fields stay as they are.
type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=64"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,maxbytes=72"`
}

type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(user *entity.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
	}
}

// listQuery holds the pagination and sorting query parameters of list endpoints.
type listQuery struct {
	Page    int    `json:"page" validate:"min=1"`
	PerPage int    `json:"per_page" validate:"min=1,max=100"`
	Sort    string `json:"sort" validate:"required"`
	Order   string `json:"order" validate:"oneof=asc desc"`
}

type pageResponse[T any] struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Results []T   `json:"results"`
}

func toPageResponse[E, T any](page *entity.Page[E], conv func(*E) T) pageResponse[T] {
	results := make([]T, 0, len(page.Results))
	for i := range page.Results {
		results = append(results, conv(&page.Results[i]))
	}

	return pageResponse[T]{
		Page:    page.Page,
		PerPage: page.PerPage,
		Total:   page.Total,
		Results: results,
	}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

func newErrorResponse(msg string) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: msg,
	}
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse   = newErrorResponse("empty request body")
	invalidRequestBodyResponse = newErrorResponse("invalid request body")
	serverErrorResponse        = newErrorResponse("server error occurred")
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "url", "http_url":
		return "invalid url"
	case "email":
		return "invalid email"
	case "min", "gt", "gte":
		return "value is too small or too short"
	case "max", "lte", "maxbytes":
		return "value is too large or too long"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "invalid value"
	}
}

func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e),
			})
		}
	}

	return validationErrs
}

func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}

package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortener/internal/entity"
	"github.com/vadimbarashkov/shortener/internal/usecase"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

// newValidator returns a validator that reports fields by their json names.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// maxbytes bounds the encoded length of a string, bcrypt reads at most 72 bytes.
	if err := validate.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}

	return validate
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// decodeAndValidate decodes a JSON body into dst and validates it. On failure
// the error response is already written and false is returned.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		render.Status(r, http.StatusBadRequest)

		if errors.Is(err, io.EOF) {
			render.JSON(w, r, emptyRequestBodyResponse)
		} else {
			render.JSON(w, r, invalidRequestBodyResponse)
		}

		return false
	}

	if err := validate.Struct(dst); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return false
	}

	return true
}

// parseListQuery reads page, per_page, sort and order from the query string,
// falling back to the defaults for absent parameters.
func parseListQuery(w http.ResponseWriter, r *http.Request, validate *validator.Validate) (entity.Pagination, entity.Sorting, bool) {
	q := r.URL.Query()

	lq := listQuery{
		Page:    entity.DefaultPage,
		PerPage: entity.DefaultPerPage,
		Sort:    entity.DefaultSortField,
		Order:   string(entity.SortAsc),
	}

	var errs []validationError

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &lq.Page},
		{"per_page", &lq.PerPage},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validationError{Field: p.name, Message: "must be an integer"})
			continue
		}
		*p.dst = n
	}

	if v := q.Get("sort"); v != "" {
		lq.Sort = v
	}
	if v := q.Get("order"); v != "" {
		lq.Order = strings.ToLower(v)
	}

	if len(errs) == 0 {
		if err := validate.Struct(lq); err != nil {
			errs = getValidationErrors(err)
		}
	}

	if len(errs) > 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{
			Status:  statusError,
			Message: "validation error",
			Errors:  errs,
		})
		return entity.Pagination{}, entity.Sorting{}, false
	}

	return entity.Pagination{Page: lq.Page, PerPage: lq.PerPage},
		entity.Sorting{Field: lq.Sort, Order: entity.SortOrder(lq.Order)},
		true
}

// respondError maps a use case error onto a status code and writes the error
// response. Unexpected errors are attached to the request log entry.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)

	if status == http.StatusInternalServerError {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	render.Status(r, status)
	render.JSON(w, r, newErrorResponse(msg))
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrURLNotFound):
		return http.StatusNotFound, "url not found"
	case errors.Is(err, entity.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, entity.ErrSlugExists):
		return http.StatusConflict, "slug already exists"
	case errors.Is(err, entity.ErrIdentExists):
		return http.StatusConflict, "identifier already exists"
	case errors.Is(err, entity.ErrUsernameExists):
		return http.StatusConflict, "username already exists"
	case errors.Is(err, entity.ErrEmailExists):
		return http.StatusConflict, "email already exists"
	case errors.Is(err, entity.ErrInvalidCredentials):
		return http.StatusUnauthorized, "incorrect username or password"
	case errors.Is(err, entity.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid authentication credentials"
	case errors.Is(err, entity.ErrInactiveUser):
		return http.StatusForbidden, "inactive user"
	case errors.Is(err, entity.ErrForbidden):
		return http.StatusForbidden, "not enough privileges"
	case errors.Is(err, entity.ErrURLExpired):
		return http.StatusUnprocessableEntity, "url expired"
	case errors.Is(err, entity.ErrInvalidSlug):
		return http.StatusBadRequest, "invalid slug"
	case errors.Is(err, entity.ErrInvalidSortField):
		return http.StatusBadRequest, "invalid sort field"
	case errors.Is(err, entity.ErrPasswordTooLong):
		return http.StatusBadRequest, "password too long"
	case errors.Is(err, usecase.ErrInvalidExpiration):
		return http.StatusBadRequest, "expiration must be at least one second"
	default:
		return http.StatusInternalServerError, serverErrorResponse.Message
	}
}

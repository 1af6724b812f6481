// Package usecase implements the business rules of the service: the short URL
// lifecycle, redirect resolution and user accounts.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vadimbarashkov/shortener/internal/entity"
	"github.com/vadimbarashkov/shortener/pkg/ident"
)

const (
	maxRetries    = 5
	visitTimeout  = 5 * time.Second
	minExpiration = time.Second
)

// MaxBaseIdentLength is the longest identifier length that still fits
// entity.MaxIdentLength on the last retry.
const MaxBaseIdentLength = entity.MaxIdentLength - maxRetries + 1

var (
	// ErrMaxRetriesExceeded is returned when no free identifier was found within the retry budget.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating identifier")
	// ErrInvalidExpiration is returned when the requested expiration window is shorter than a second.
	ErrInvalidExpiration = errors.New("expiration too short")
)

type urlRepository interface {
	Create(ctx context.Context, url *entity.ShortURL) (*entity.ShortURL, error)
	GetByIdent(ctx context.Context, ident string) (*entity.ShortURL, error)
	GetBySlug(ctx context.Context, slug string) (*entity.ShortURL, error)
	GetByKey(ctx context.Context, key string) (*entity.ShortURL, error)
	List(ctx context.Context, filter entity.ShortURLFilter, p entity.Pagination, s entity.Sorting) ([]entity.ShortURL, int64, error)
	UpdateExpiration(ctx context.Context, ident string, expiresAt time.Time) (*entity.ShortURL, error)
	RecordVisit(ctx context.Context, ident string, at time.Time) error
	Delete(ctx context.Context, ident string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ShortenParams describes a shorten request.
type ShortenParams struct {
	Origin         string
	Slug           *string
	ExpirationDays *float64
}

// URLUseCase manages short URL records and resolves identifiers to origins.
type URLUseCase struct {
	identLength int
	urlRepo     urlRepository
	logger      *slog.Logger
	now         func() time.Time
	visits      sync.WaitGroup
}

func NewURLUseCase(identLength int, urlRepo urlRepository, logger *slog.Logger) *URLUseCase {
	return &URLUseCase{
		identLength: identLength,
		urlRepo:     urlRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Shorten creates a short URL owned by owner.
//
// A supplied slug is normalized and must not be held by a live record; a
// record that holds it but has already expired is removed first. Identifier
// collisions are retried with a longer identifier on each attempt.
func (uc *URLUseCase) Shorten(ctx context.Context, owner *entity.User, params ShortenParams) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.Shorten"

	now := uc.now().UTC()

	var slug *string
	if params.Slug != nil {
		s := entity.NormalizeSlug(*params.Slug)
		if !entity.ValidSlug(s) {
			return nil, fmt.Errorf("%s: %w: %q", op, entity.ErrInvalidSlug, s)
		}

		if err := uc.claimSlug(ctx, s, now); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		slug = &s
	}

	// Zero days means the record never expires.
	var expiresAt *time.Time
	if params.ExpirationDays != nil && *params.ExpirationDays != 0 {
		d := time.Duration(*params.ExpirationDays * float64(24*time.Hour))
		if d < minExpiration {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidExpiration)
		}

		t := now.Add(d)
		expiresAt = &t
	}

	for i := 0; i < maxRetries; i++ {
		id, err := ident.Generate(params.Origin, uc.identLength+i)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate identifier: %w", op, err)
		}

		url, err := uc.urlRepo.Create(ctx, &entity.ShortURL{
			Ident:     id,
			Origin:    params.Origin,
			Slug:      slug,
			OwnerID:   owner.ID,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		})
		if err != nil {
			if errors.Is(err, entity.ErrIdentExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// claimSlug fails with entity.ErrSlugExists if a live record holds the slug
// and deletes the holder if it has expired.
func (uc *URLUseCase) claimSlug(ctx context.Context, slug string, now time.Time) error {
	holder, err := uc.urlRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up slug: %w", err)
	}

	if !holder.IsExpired(now) {
		return entity.ErrSlugExists
	}

	if err := uc.urlRepo.Delete(ctx, holder.Ident); err != nil && !errors.Is(err, entity.ErrURLNotFound) {
		return fmt.Errorf("failed to release expired slug: %w", err)
	}

	return nil
}

// Get returns the short URL with the given identifier. Records owned by other
// users are reported as entity.ErrURLNotFound unless the requester is a superuser.
func (uc *URLUseCase) Get(ctx context.Context, requester *entity.User, ident string) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.Get"

	url, err := uc.urlRepo.GetByIdent(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if !requester.IsSuperuser && !url.IsOwnedBy(requester.ID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return url, nil
}

// List returns a page of short URLs. Superusers see every record, other
// users only their own.
func (uc *URLUseCase) List(
	ctx context.Context,
	requester *entity.User,
	p entity.Pagination,
	s entity.Sorting,
) (*entity.Page[entity.ShortURL], error) {
	const op = "usecase.URLUseCase.List"

	var filter entity.ShortURLFilter
	if !requester.IsSuperuser {
		filter.OwnerID = &requester.ID
	}

	page, err := uc.list(ctx, filter, p, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// ListMine returns a page of the requester's own short URLs.
func (uc *URLUseCase) ListMine(
	ctx context.Context,
	requester *entity.User,
	p entity.Pagination,
	s entity.Sorting,
) (*entity.Page[entity.ShortURL], error) {
	const op = "usecase.URLUseCase.ListMine"

	page, err := uc.list(ctx, entity.ShortURLFilter{OwnerID: &requester.ID}, p, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// ListMostVisited returns a page of the requester's short URLs ordered by views, most visited first.
func (uc *URLUseCase) ListMostVisited(
	ctx context.Context,
	requester *entity.User,
	p entity.Pagination,
) (*entity.Page[entity.ShortURL], error) {
	const op = "usecase.URLUseCase.ListMostVisited"

	sorting := entity.Sorting{Field: "views", Order: entity.SortDesc}

	page, err := uc.list(ctx, entity.ShortURLFilter{OwnerID: &requester.ID}, p, sorting)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

func (uc *URLUseCase) list(
	ctx context.Context,
	filter entity.ShortURLFilter,
	p entity.Pagination,
	s entity.Sorting,
) (*entity.Page[entity.ShortURL], error) {
	urls, total, err := uc.urlRepo.List(ctx, filter, p, s)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}

	return &entity.Page[entity.ShortURL]{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Results: urls,
	}, nil
}

// Refresh restarts the expiration window of the requester's short URL: the
// new expiration is now plus the original window. Records without an
// expiration are returned unchanged. A record that has expired but still
// exists is revived.
func (uc *URLUseCase) Refresh(ctx context.Context, requester *entity.User, ident string) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.Refresh"

	url, err := uc.urlRepo.GetByIdent(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if !url.IsOwnedBy(requester.ID) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	lifetime, ok := url.Lifetime()
	if !ok {
		return url, nil
	}

	url, err = uc.urlRepo.UpdateExpiration(ctx, ident, uc.now().UTC().Add(lifetime))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to refresh url: %w", op, err)
	}

	return url, nil
}

// Delete removes a short URL owned by the requester, or any short URL if the
// requester is a superuser.
func (uc *URLUseCase) Delete(ctx context.Context, requester *entity.User, ident string) error {
	const op = "usecase.URLUseCase.Delete"

	if !requester.IsSuperuser {
		url, err := uc.urlRepo.GetByIdent(ctx, ident)
		if err != nil {
			return fmt.Errorf("%s: failed to get url: %w", op, err)
		}

		if !url.IsOwnedBy(requester.ID) {
			return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}
	}

	if err := uc.urlRepo.Delete(ctx, ident); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	return nil
}

// Resolve returns the short URL for the key, which is matched against
// identifiers first and slugs second. Expiration is checked here rather than
// left to the purge sweep. The visit is recorded in the background; the
// caller does not wait for it.
func (uc *URLUseCase) Resolve(ctx context.Context, key string) (*entity.ShortURL, error) {
	const op = "usecase.URLUseCase.Resolve"

	url, err := uc.urlRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve url: %w", op, err)
	}

	now := uc.now().UTC()

	if url.IsExpired(now) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLExpired)
	}

	uc.recordVisit(ctx, url.Ident, now)

	return url, nil
}

func (uc *URLUseCase) recordVisit(ctx context.Context, ident string, at time.Time) {
	const op = "usecase.URLUseCase.recordVisit"

	ctx = context.WithoutCancel(ctx)

	uc.visits.Add(1)
	go func() {
		defer uc.visits.Done()

		ctx, cancel := context.WithTimeout(ctx, visitTimeout)
		defer cancel()

		if err := uc.urlRepo.RecordVisit(ctx, ident, at); err != nil {
			uc.logger.Error("failed to record visit",
				slog.String("op", op),
				slog.String("ident", ident),
				slog.Any("err", err),
			)
		}
	}()
}

// Wait blocks until every background visit write has finished.
func (uc *URLUseCase) Wait() {
	uc.visits.Wait()
}

// PurgeExpired deletes every short URL whose expiration has passed and
// returns the number of deleted records.
func (uc *URLUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	const op = "usecase.URLUseCase.PurgeExpired"

	n, err := uc.urlRepo.DeleteExpired(ctx, uc.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: failed to purge expired urls: %w", op, err)
	}

	return n, nil
}

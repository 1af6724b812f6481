package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortener/internal/entity"

	pg "github.com/vadimbarashkov/shortener/pkg/postgres"
)

const (
	urlsIdentConstraint = "urls_ident_key"
	urlsSlugConstraint  = "urls_slug_key"
)

var urlColumns = selectColumns([]string{
	"id", "ident", "origin", "slug", "user_id", "views", "created_at", "expires_at", "last_visit_at",
})

var urlSortColumns = map[string]string{
	"created_at":    "created_at",
	"views":         "views",
	"ident":         "ident",
	"slug":          "slug",
	"origin":        "origin",
	"expires_at":    "expires_at",
	"last_visit_at": "last_visit_at",
}

type urlDB struct {
	ID          int64          `db:"id"`
	Ident       string         `db:"ident"`
	Origin      string         `db:"origin"`
	Slug        sql.NullString `db:"slug"`
	UserID      uuid.UUID      `db:"user_id"`
	Views       int64          `db:"views"`
	CreatedAt   time.Time      `db:"created_at"`
	ExpiresAt   sql.NullTime   `db:"expires_at"`
	LastVisitAt sql.NullTime   `db:"last_visit_at"`
}

func (u *urlDB) toEntity() *entity.ShortURL {
	url := &entity.ShortURL{
		ID:        u.ID,
		Ident:     u.Ident,
		Origin:    u.Origin,
		OwnerID:   u.UserID,
		Views:     u.Views,
		CreatedAt: u.CreatedAt,
	}

	if u.Slug.Valid {
		url.Slug = &u.Slug.String
	}
	if u.ExpiresAt.Valid {
		url.ExpiresAt = &u.ExpiresAt.Time
	}
	if u.LastVisitAt.Valid {
		url.LastVisitAt = &u.LastVisitAt.Time
	}

	return url
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Create inserts a new short URL. Identifier and slug collisions are reported
// as entity.ErrIdentExists and entity.ErrSlugExists.
func (r *URLRepository) Create(ctx context.Context, url *entity.ShortURL) (*entity.ShortURL, error) {
	const op = "adapter.repository.postgres.URLRepository.Create"

	query := `INSERT INTO urls(ident, origin, slug, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + urlColumns

	var rec urlDB

	err := r.db.GetContext(ctx, &rec, query,
		url.Ident, url.Origin, url.Slug, url.OwnerID, url.CreatedAt, url.ExpiresAt)
	if err != nil {
		if constraint, ok := pg.UniqueViolation(err); ok {
			switch constraint {
			case urlsSlugConstraint:
				return nil, fmt.Errorf("%s: %w", op, entity.ErrSlugExists)
			default:
				return nil, fmt.Errorf("%s: %w", op, entity.ErrIdentExists)
			}
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) GetByIdent(ctx context.Context, ident string) (*entity.ShortURL, error) {
	const op = "adapter.repository.postgres.URLRepository.GetByIdent"

	query := `SELECT ` + urlColumns + ` FROM urls WHERE ident = $1`

	return r.get(ctx, op, query, ident)
}

func (r *URLRepository) GetBySlug(ctx context.Context, slug string) (*entity.ShortURL, error) {
	const op = "adapter.repository.postgres.URLRepository.GetBySlug"

	query := `SELECT ` + urlColumns + ` FROM urls WHERE slug = $1`

	return r.get(ctx, op, query, slug)
}

// GetByKey looks the key up as an identifier first and as a slug second.
func (r *URLRepository) GetByKey(ctx context.Context, key string) (*entity.ShortURL, error) {
	const op = "adapter.repository.postgres.URLRepository.GetByKey"

	query := `SELECT ` + urlColumns + ` FROM urls
		WHERE ident = $1 OR slug = $1
		ORDER BY (ident = $1) DESC
		LIMIT 1`

	return r.get(ctx, op, query, key)
}

func (r *URLRepository) get(ctx context.Context, op, query string, args ...any) (*entity.ShortURL, error) {
	var rec urlDB

	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

// List returns one page of short URLs matching the filter and the total number of matches.
func (r *URLRepository) List(
	ctx context.Context,
	filter entity.ShortURLFilter,
	p entity.Pagination,
	s entity.Sorting,
) ([]entity.ShortURL, int64, error) {
	const op = "adapter.repository.postgres.URLRepository.List"

	order, err := orderBy(urlSortColumns, s, "id")
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var (
		where string
		args  []any
	)

	if filter.OwnerID != nil {
		where = ` WHERE user_id = $1`
		args = append(args, *filter.OwnerID)
	}

	var total int64

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM urls`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count urls table rows: %w", op, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM urls%s %s LIMIT $%d OFFSET $%d`,
		urlColumns, where, order, len(args)+1, len(args)+2)
	args = append(args, p.Limit(), p.Offset())

	var recs []urlDB

	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select from urls table: %w", op, err)
	}

	urls := make([]entity.ShortURL, 0, len(recs))
	for i := range recs {
		urls = append(urls, *recs[i].toEntity())
	}

	return urls, total, nil
}

// UpdateExpiration sets a new expiration for the short URL.
func (r *URLRepository) UpdateExpiration(ctx context.Context, ident string, expiresAt time.Time) (*entity.ShortURL, error) {
	const op = "adapter.repository.postgres.URLRepository.UpdateExpiration"

	query := `UPDATE urls SET expires_at = $1 WHERE ident = $2 RETURNING ` + urlColumns

	var rec urlDB

	if err := r.db.GetContext(ctx, &rec, query, expiresAt, ident); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return rec.toEntity(), nil
}

// RecordVisit increments the view counter and moves last_visit_at forward to at.
// An older at never moves last_visit_at back.
func (r *URLRepository) RecordVisit(ctx context.Context, ident string, at time.Time) error {
	const op = "adapter.repository.postgres.URLRepository.RecordVisit"
	const query = `UPDATE urls
		SET views = views + 1, last_visit_at = GREATEST(last_visit_at, $2)
		WHERE ident = $1`

	res, err := r.db.ExecContext(ctx, query, ident, at)
	if err != nil {
		return fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return checkAffected(op, res, entity.ErrURLNotFound)
}

func (r *URLRepository) Delete(ctx context.Context, ident string) error {
	const op = "adapter.repository.postgres.URLRepository.Delete"
	const query = `DELETE FROM urls WHERE ident = $1`

	res, err := r.db.ExecContext(ctx, query, ident)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	return checkAffected(op, res, entity.ErrURLNotFound)
}

// DeleteExpired removes every short URL whose expiration is not after now
// and returns the number of removed rows.
func (r *URLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "adapter.repository.postgres.URLRepository.DeleteExpired"
	const query = `DELETE FROM urls WHERE expires_at IS NOT NULL AND expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	return n, nil
}

func checkAffected(op string, res sql.Result, notFound error) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}

	return nil
}

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
	usersEmailConstraint    = "users_email_key"
	usersUsernameConstraint = "users_username_lower_key"
)

var userColumns = selectColumns([]string{
	"id", "username", "email", "password_hash", "is_active", "is_superuser", "created_at",
})

var userSortColumns = map[string]string{
	"created_at": "created_at",
	"username":   "LOWER(username)",
	"email":      "email",
}

type userDB struct {
	ID           uuid.UUID `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	IsSuperuser  bool      `db:"is_superuser"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u *userDB) toEntity() *entity.User {
	return &entity.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsSuperuser:  u.IsSuperuser,
		CreatedAt:    u.CreatedAt,
	}
}

func userConflict(constraint string) error {
	if constraint == usersEmailConstraint {
		return entity.ErrEmailExists
	}
	return entity.ErrUsernameExists
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.Create"

	query := `INSERT INTO users(id, username, email, password_hash, is_active, is_superuser, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	var rec userDB

	err := r.db.GetContext(ctx, &rec, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsActive, user.IsSuperuser, user.CreatedAt)
	if err != nil {
		if constraint, ok := pg.UniqueViolation(err); ok {
			return nil, fmt.Errorf("%s: %w", op, userConflict(constraint))
		}

		return nil, fmt.Errorf("%s: failed to insert into users table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.GetByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return r.get(ctx, op, query, id)
}

// GetByUsername matches the username case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.GetByUsername"

	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`

	return r.get(ctx, op, query, username)
}

// GetByEmail matches the email case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.GetByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = LOWER($1)`

	return r.get(ctx, op, query, email)
}

func (r *UserRepository) get(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	var rec userDB

	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from users table: %w", op, err)
	}

	return rec.toEntity(), nil
}

// Update overwrites the mutable fields of the user.
func (r *UserRepository) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	const op = "adapter.repository.postgres.UserRepository.Update"

	query := `UPDATE users
		SET username = $1, email = $2, password_hash = $3, is_active = $4, is_superuser = $5
		WHERE id = $6
		RETURNING ` + userColumns

	var rec userDB

	err := r.db.GetContext(ctx, &rec, query,
		user.Username, user.Email, user.PasswordHash, user.IsActive, user.IsSuperuser, user.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrUserNotFound)
		}

		if constraint, ok := pg.UniqueViolation(err); ok {
			return nil, fmt.Errorf("%s: %w", op, userConflict(constraint))
		}

		return nil, fmt.Errorf("%s: failed to update users table row: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *UserRepository) List(ctx context.Context, p entity.Pagination, s entity.Sorting) ([]entity.User, int64, error) {
	const op = "adapter.repository.postgres.UserRepository.List"

	order, err := orderBy(userSortColumns, s, "id")
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int64

	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count users table rows: %w", op, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s LIMIT $1 OFFSET $2`, userColumns, order)

	var recs []userDB

	if err := r.db.SelectContext(ctx, &recs, query, p.Limit(), p.Offset()); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to select from users table: %w", op, err)
	}

	users := make([]entity.User, 0, len(recs))
	for i := range recs {
		users = append(users, *recs[i].toEntity())
	}

	return users, total, nil
}

// Delete removes the user together with the short URLs they own.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "adapter.repository.postgres.UserRepository.Delete"
	const query = `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from users table: %w", op, err)
	}

	return checkAffected(op, res, entity.ErrUserNotFound)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortener/internal/entity"
)

// dummyPassword is hashed once and checked on logins for unknown usernames.
const dummyPassword = "unknown-user-password"

type userRepository interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
	List(ctx context.Context, p entity.Pagination, s entity.Sorting) ([]entity.User, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

type tokenManager interface {
	Issue(subject string) (string, error)
	Parse(token string) (string, error)
}

// RegisterParams describes a new account.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// UserUseCase manages accounts and bearer token authentication.
type UserUseCase struct {
	userRepo userRepository
	hasher   passwordHasher
	tokens   tokenManager
	logger   *slog.Logger
	now      func() time.Time

	dummyHash func() (string, error)
}

func NewUserUseCase(userRepo userRepository, hasher passwordHasher, tokens tokenManager, logger *slog.Logger) *UserUseCase {
	uc := &UserUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
	uc.dummyHash = sync.OnceValues(func() (string, error) {
		return hasher.Hash(dummyPassword)
	})

	return uc
}

// Register creates an active, unprivileged account. Usernames and emails are
// unique regardless of case.
func (uc *UserUseCase) Register(ctx context.Context, params RegisterParams) (*entity.User, error) {
	const op = "usecase.UserUseCase.Register"

	user, err := uc.create(ctx, params, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (uc *UserUseCase) create(ctx context.Context, params RegisterParams, superuser bool) (*entity.User, error) {
	email := entity.NormalizeEmail(params.Email)

	if err := uc.checkUsername(ctx, params.Username, uuid.Nil); err != nil {
		return nil, err
	}
	if err := uc.checkEmail(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := uc.userRepo.Create(ctx, &entity.User{
		ID:           uuid.New(),
		Username:     params.Username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  superuser,
		CreatedAt:    uc.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// checkUsername fails with entity.ErrUsernameExists if an account other than
// self already uses the username.
func (uc *UserUseCase) checkUsername(ctx context.Context, username string, self uuid.UUID) error {
	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up username: %w", err)
	}

	if user.ID != self {
		return entity.ErrUsernameExists
	}

	return nil
}

func (uc *UserUseCase) checkEmail(ctx context.Context, email string, self uuid.UUID) error {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up email: %w", err)
	}

	if user.ID != self {
		return entity.ErrEmailExists
	}

	return nil
}

// Login checks the credentials and returns a signed access token. An unknown
// username and a wrong password yield the same entity.ErrInvalidCredentials.
func (uc *UserUseCase) Login(ctx context.Context, username, password string) (string, error) {
	const op = "usecase.UserUseCase.Login"

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			// Unknown usernames pay for a bcrypt check too, so timing matches a wrong password.
			if hash, err := uc.dummyHash(); err == nil {
				_, _ = uc.hasher.Verify(hash, password)
			}
			return "", fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("%s: failed to verify password: %w", op, err)
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", op, entity.ErrInvalidCredentials)
	}

	token, err := uc.tokens.Issue(user.Username)
	if err != nil {
		return "", fmt.Errorf("%s: failed to issue token: %w", op, err)
	}

	return token, nil
}

// Authenticate returns the active user the token was issued for.
func (uc *UserUseCase) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	const op = "usecase.UserUseCase.Authenticate"

	username, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := uc.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInactiveUser)
	}

	return user, nil
}

// UpdateMe applies the non-nil fields of upd to the user's own profile.
func (uc *UserUseCase) UpdateMe(ctx context.Context, user *entity.User, upd entity.UserUpdate) (*entity.User, error) {
	const op = "usecase.UserUseCase.UpdateMe"

	updated := *user

	if upd.Username != nil {
		if err := uc.checkUsername(ctx, *upd.Username, user.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated.Username = *upd.Username
	}

	if upd.Email != nil {
		email := entity.NormalizeEmail(*upd.Email)
		if err := uc.checkEmail(ctx, email, user.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated.Email = email
	}

	if upd.Password != nil {
		hash, err := uc.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
		}
		updated.PasswordHash = hash
	}

	res, err := uc.userRepo.Update(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update user: %w", op, err)
	}

	return res, nil
}

func (uc *UserUseCase) List(ctx context.Context, p entity.Pagination, s entity.Sorting) (*entity.Page[entity.User], error) {
	const op = "usecase.UserUseCase.List"

	users, total, err := uc.userRepo.List(ctx, p, s)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list users: %w", op, err)
	}

	return &entity.Page[entity.User]{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Results: users,
	}, nil
}

func (uc *UserUseCase) Get(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	const op = "usecase.UserUseCase.Get"

	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return user, nil
}

// Delete removes the account and every short URL it owns.
func (uc *UserUseCase) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "usecase.UserUseCase.Delete"

	if err := uc.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to delete user: %w", op, err)
	}

	return nil
}

// EnsureSuperuser creates the superuser account unless one with the same
// username already exists. An empty username disables seeding.
func (uc *UserUseCase) EnsureSuperuser(ctx context.Context, params RegisterParams) error {
	const op = "usecase.UserUseCase.EnsureSuperuser"

	if params.Username == "" {
		return nil
	}

	_, err := uc.userRepo.GetByUsername(ctx, params.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, entity.ErrUserNotFound) {
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	user, err := uc.create(ctx, params, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	uc.logger.Info("superuser created", slog.String("username", user.Username))

	return nil
}

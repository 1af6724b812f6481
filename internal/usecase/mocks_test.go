package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortener/internal/entity"
)

type mockURLRepository struct {
	mock.Mock
}

func (m *mockURLRepository) Create(ctx context.Context, url *entity.ShortURL) (*entity.ShortURL, error) {
	args := m.Called(ctx, url)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLRepository) GetByIdent(ctx context.Context, ident string) (*entity.ShortURL, error) {
	args := m.Called(ctx, ident)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLRepository) GetBySlug(ctx context.Context, slug string) (*entity.ShortURL, error) {
	args := m.Called(ctx, slug)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLRepository) GetByKey(ctx context.Context, key string) (*entity.ShortURL, error) {
	args := m.Called(ctx, key)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLRepository) List(
	ctx context.Context,
	filter entity.ShortURLFilter,
	p entity.Pagination,
	s entity.Sorting,
) ([]entity.ShortURL, int64, error) {
	args := m.Called(ctx, filter, p, s)

	var urls []entity.ShortURL
	if v := args.Get(0); v != nil {
		urls = v.([]entity.ShortURL)
	}

	return urls, args.Get(1).(int64), args.Error(2)
}

func (m *mockURLRepository) UpdateExpiration(ctx context.Context, ident string, expiresAt time.Time) (*entity.ShortURL, error) {
	args := m.Called(ctx, ident, expiresAt)
	return urlOrNil(args.Get(0)), args.Error(1)
}

func (m *mockURLRepository) RecordVisit(ctx context.Context, ident string, at time.Time) error {
	args := m.Called(ctx, ident, at)
	return args.Error(0)
}

func (m *mockURLRepository) Delete(ctx context.Context, ident string) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

func (m *mockURLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func urlOrNil(v any) *entity.ShortURL {
	if v == nil {
		return nil
	}
	return v.(*entity.ShortURL)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	args := m.Called(ctx, user)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	args := m.Called(ctx, username)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *entity.User) (*entity.User, error) {
	args := m.Called(ctx, user)
	return userOrNil(args.Get(0)), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, p entity.Pagination, s entity.Sorting) ([]entity.User, int64, error) {
	args := m.Called(ctx, p, s)

	var users []entity.User
	if v := args.Get(0); v != nil {
		users = v.([]entity.User)
	}

	return users, args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func userOrNil(v any) *entity.User {
	if v == nil {
		return nil
	}
	return v.(*entity.User)
}

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Verify(hash, password string) (bool, error) {
	args := m.Called(hash, password)
	return args.Bool(0), args.Error(1)
}

type mockTokenManager struct {
	mock.Mock
}

func (m *mockTokenManager) Issue(subject string) (string, error) {
	args := m.Called(subject)
	return args.String(0), args.Error(1)
}

func (m *mockTokenManager) Parse(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
